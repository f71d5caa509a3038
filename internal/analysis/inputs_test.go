package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultInputs(t *testing.T) {
	in := DefaultInputs()

	assert.Equal(t, Inputs{
		NumberInpatient:  0,
		TimeInHospital:   3,
		NumLabProcedures: 40,
		NumMedications:   15,
		NumberDiagnoses:  5,
		Age:              "[0-10)",
		Insulin:          "No",
		DiabetesMed:      "Yes",
	}, in)
	assert.NoError(t, in.Validate())
}

func TestSchema_ReturnsCopies(t *testing.T) {
	s := Schema()
	require.Len(t, s.Numeric, 5)
	require.Len(t, s.Categorical, 3)

	s.Numeric[0].Max = 999
	s.Categorical[0].Options[0] = "mutated"

	fresh := Schema()
	assert.Equal(t, 10, fresh.Numeric[0].Max)
	assert.Equal(t, "[0-10)", fresh.Categorical[0].Options[0])
}

func TestInputs_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Inputs)
		invalid []string
	}{
		{
			name:   "defaults",
			mutate: func(*Inputs) {},
		},
		{
			name:   "upper bounds",
			mutate: func(in *Inputs) { in.NumberInpatient, in.TimeInHospital, in.NumMedications = 10, 14, 50 },
		},
		{
			name:    "inpatient over max",
			mutate:  func(in *Inputs) { in.NumberInpatient = 11 },
			invalid: []string{FieldNumberInpatient},
		},
		{
			name:    "hospital stay under min",
			mutate:  func(in *Inputs) { in.TimeInHospital = 0 },
			invalid: []string{FieldTimeInHospital},
		},
		{
			name:    "negative labs",
			mutate:  func(in *Inputs) { in.NumLabProcedures = -1 },
			invalid: []string{FieldNumLabProcedures},
		},
		{
			name: "unknown selections",
			mutate: func(in *Inputs) {
				in.Age = "[100-110)"
				in.Insulin = "Sometimes"
				in.DiabetesMed = ""
			},
			invalid: []string{FieldAge, FieldInsulin, FieldDiabetesMed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := DefaultInputs()
			tt.mutate(&in)

			err := in.Validate()
			if len(tt.invalid) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Fields, len(tt.invalid))
			for _, f := range tt.invalid {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestValidationError_MessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"num_medications":  "too many",
		"age":              "unknown",
		"number_inpatient": "too many",
	}}

	assert.Equal(t,
		"invalid inputs: age: unknown; num_medications: too many; number_inpatient: too many",
		err.Error())
}

func TestInputs_Scalars(t *testing.T) {
	s := scenarioInputs().Scalars()

	assert.Equal(t, map[string]float64{
		FieldNumberInpatient:  0,
		FieldTimeInHospital:   3,
		FieldNumLabProcedures: 40,
		FieldNumMedications:   15,
		FieldNumberDiagnoses:  5,
	}, s)
}
