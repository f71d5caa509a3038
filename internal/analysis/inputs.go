package analysis

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Scalar field names double as the model's numeric column names.
const (
	FieldNumberInpatient  = "number_inpatient"
	FieldTimeInHospital   = "time_in_hospital"
	FieldNumLabProcedures = "num_lab_procedures"
	FieldNumMedications   = "num_medications"
	FieldNumberDiagnoses  = "number_diagnoses"

	FieldAge         = "age"
	FieldInsulin     = "insulin"
	FieldDiabetesMed = "diabetesMed"
)

// NumericField describes a bounded integer input.
type NumericField struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Default int    `json:"default"`
}

// CategoricalField describes a closed option set that is one-hot encoded
// under Prefix.
type CategoricalField struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Prefix  string   `json:"prefix"`
	Options []string `json:"options"`
	Default string   `json:"default"`
}

// InputSchema lists every intake field in display order.
type InputSchema struct {
	Numeric     []NumericField     `json:"numeric"`
	Categorical []CategoricalField `json:"categorical"`
}

var numericFields = []NumericField{
	{Name: FieldNumberInpatient, Label: "Number of Inpatient Visits (Last Year)", Min: 0, Max: 10, Default: 0},
	{Name: FieldTimeInHospital, Label: "Days in Hospital (Current Stay)", Min: 1, Max: 14, Default: 3},
	{Name: FieldNumLabProcedures, Label: "Number of Lab Procedures", Min: 0, Max: 100, Default: 40},
	{Name: FieldNumMedications, Label: "Number of Medications", Min: 0, Max: 50, Default: 15},
	{Name: FieldNumberDiagnoses, Label: "Total Diagnoses Count", Min: 0, Max: 16, Default: 5},
}

var categoricalFields = []CategoricalField{
	{
		Name:   FieldAge,
		Label:  "Age Group",
		Prefix: "age_",
		Options: []string{
			"[0-10)", "[10-20)", "[20-30)", "[30-40)", "[40-50)",
			"[50-60)", "[60-70)", "[70-80)", "[80-90)", "[90-100)",
		},
		Default: "[0-10)",
	},
	{
		Name:    FieldInsulin,
		Label:   "Insulin Therapy?",
		Prefix:  "insulin_",
		Options: []string{"No", "Steady", "Up", "Down"},
		Default: "No",
	},
	{
		Name:    FieldDiabetesMed,
		Label:   "On Diabetes Meds?",
		Prefix:  "diabetesMed_",
		Options: []string{"Yes", "No"},
		Default: "Yes",
	},
}

// Schema returns a copy of the intake field definitions.
func Schema() InputSchema {
	s := InputSchema{
		Numeric:     slices.Clone(numericFields),
		Categorical: make([]CategoricalField, len(categoricalFields)),
	}
	for i, f := range categoricalFields {
		f.Options = slices.Clone(f.Options)
		s.Categorical[i] = f
	}
	return s
}

// Inputs are the clinician-entered values for one patient.
type Inputs struct {
	NumberInpatient  int    `json:"number_inpatient" form:"number_inpatient"`
	TimeInHospital   int    `json:"time_in_hospital" form:"time_in_hospital"`
	NumLabProcedures int    `json:"num_lab_procedures" form:"num_lab_procedures"`
	NumMedications   int    `json:"num_medications" form:"num_medications"`
	NumberDiagnoses  int    `json:"number_diagnoses" form:"number_diagnoses"`
	Age              string `json:"age" form:"age"`
	Insulin          string `json:"insulin" form:"insulin"`
	DiabetesMed      string `json:"diabetes_med" form:"diabetesMed"`
}

// DefaultInputs returns the widget defaults.
func DefaultInputs() Inputs {
	var in Inputs
	for _, f := range numericFields {
		in.setNumeric(f.Name, f.Default)
	}
	for _, f := range categoricalFields {
		in.setCategorical(f.Name, f.Default)
	}
	return in
}

// Numeric returns the value of a scalar field by name.
func (in Inputs) Numeric(name string) int {
	switch name {
	case FieldNumberInpatient:
		return in.NumberInpatient
	case FieldTimeInHospital:
		return in.TimeInHospital
	case FieldNumLabProcedures:
		return in.NumLabProcedures
	case FieldNumMedications:
		return in.NumMedications
	case FieldNumberDiagnoses:
		return in.NumberDiagnoses
	}
	return 0
}

// Categorical returns the selection of a categorical field by name.
func (in Inputs) Categorical(name string) string {
	switch name {
	case FieldAge:
		return in.Age
	case FieldInsulin:
		return in.Insulin
	case FieldDiabetesMed:
		return in.DiabetesMed
	}
	return ""
}

func (in *Inputs) setNumeric(name string, v int) {
	switch name {
	case FieldNumberInpatient:
		in.NumberInpatient = v
	case FieldTimeInHospital:
		in.TimeInHospital = v
	case FieldNumLabProcedures:
		in.NumLabProcedures = v
	case FieldNumMedications:
		in.NumMedications = v
	case FieldNumberDiagnoses:
		in.NumberDiagnoses = v
	}
}

func (in *Inputs) setCategorical(name, v string) {
	switch name {
	case FieldAge:
		in.Age = v
	case FieldInsulin:
		in.Insulin = v
	case FieldDiabetesMed:
		in.DiabetesMed = v
	}
}

// Scalars returns the numeric fields keyed by column name.
func (in Inputs) Scalars() map[string]float64 {
	m := make(map[string]float64, len(numericFields))
	for _, f := range numericFields {
		m[f.Name] = float64(in.Numeric(f.Name))
	}
	return m
}

// ValidationError lists every out-of-bounds or unknown input, keyed by field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid inputs: " + strings.Join(parts, "; ")
}

// Validate checks every numeric value against its bounds and every selection
// against its option set.
func (in Inputs) Validate() error {
	problems := make(map[string]string)

	for _, f := range numericFields {
		if v := in.Numeric(f.Name); v < f.Min || v > f.Max {
			problems[f.Name] = fmt.Sprintf("must be between %d and %d, got %d", f.Min, f.Max, v)
		}
	}

	for _, f := range categoricalFields {
		if v := in.Categorical(f.Name); !slices.Contains(f.Options, v) {
			problems[f.Name] = fmt.Sprintf("must be one of %s, got %q", strings.Join(f.Options, ", "), v)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}
	return nil
}
