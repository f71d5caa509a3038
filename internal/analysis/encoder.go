package analysis

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// EncodingMode controls what happens when an input has no matching column.
type EncodingMode string

const (
	// Lenient drops unmatched inputs and reports them.
	Lenient EncodingMode = "lenient"
	// Strict fails the encoding on the first analysis with unmatched inputs.
	Strict EncodingMode = "strict"
)

// ParseEncodingMode converts a config value into an EncodingMode.
func ParseEncodingMode(s string) (EncodingMode, error) {
	switch EncodingMode(strings.ToLower(strings.TrimSpace(s))) {
	case Lenient, "":
		return Lenient, nil
	case Strict:
		return Strict, nil
	}
	return "", fmt.Errorf("unknown encoding mode %q", s)
}

// FeatureVector is a single model row. Names and Values are parallel and
// follow the feature-name artifact exactly.
type FeatureVector struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

// Width returns the number of columns.
func (v FeatureVector) Width() int { return len(v.Values) }

// Get returns the value of a named column.
func (v FeatureVector) Get(name string) (float64, bool) {
	i := slices.Index(v.Names, name)
	if i < 0 {
		return 0, false
	}
	return v.Values[i], true
}

// DroppedField is an input that did not reach the model.
type DroppedField struct {
	Field  string `json:"field"`
	Column string `json:"column"`
}

// EncodeReport describes what the encoder could not place.
type EncodeReport struct {
	Dropped []DroppedField `json:"dropped,omitempty"`
}

// EncodingMismatchError is returned in strict mode when inputs do not match
// the feature schema.
type EncodingMismatchError struct {
	Dropped []DroppedField
}

func (e *EncodingMismatchError) Error() string {
	cols := make([]string, len(e.Dropped))
	for i, d := range e.Dropped {
		cols[i] = d.Column
	}
	return fmt.Sprintf("inputs have no matching feature columns: %s", strings.Join(cols, ", "))
}

// Encoder maps Inputs onto a fixed feature schema. It is immutable once
// built and safe for concurrent use.
type Encoder struct {
	names []string
	index map[string]int
	mode  EncodingMode
}

// NewEncoder builds an encoder for the ordered feature names.
func NewEncoder(featureNames []string, mode EncodingMode) *Encoder {
	e := &Encoder{
		names: slices.Clone(featureNames),
		index: make(map[string]int, len(featureNames)),
		mode:  mode,
	}
	for i, n := range e.names {
		if _, exists := e.index[n]; !exists {
			e.index[n] = i
		}
	}
	return e
}

// Mode returns the encoder's mismatch policy.
func (e *Encoder) Mode() EncodingMode { return e.mode }

// Width returns the number of feature columns.
func (e *Encoder) Width() int { return len(e.names) }

// Encode builds the feature row for in. Scalars overwrite the column of the
// same name and each categorical selection sets at most one one-hot column.
// Everything else stays zero.
func (e *Encoder) Encode(in Inputs) (FeatureVector, EncodeReport, error) {
	v := e.zeroVector()
	var report EncodeReport

	for _, f := range numericFields {
		if i, ok := e.index[f.Name]; ok {
			v.Values[i] = float64(in.Numeric(f.Name))
		} else {
			report.Dropped = append(report.Dropped, DroppedField{Field: f.Name, Column: f.Name})
		}
	}

	for _, f := range categoricalFields {
		col := SanitizeColumnName(f.Prefix + in.Categorical(f.Name))
		if i, ok := e.index[col]; ok {
			v.Values[i] = 1
		} else {
			report.Dropped = append(report.Dropped, DroppedField{Field: f.Name, Column: col})
		}
	}

	if e.mode == Strict && len(report.Dropped) > 0 {
		return FeatureVector{}, report, &EncodingMismatchError{Dropped: report.Dropped}
	}

	return v, report, nil
}

func (e *Encoder) zeroVector() FeatureVector {
	return FeatureVector{
		Names:  slices.Clone(e.names),
		Values: make([]float64, len(e.names)),
	}
}

// Encode is the schema-agnostic form of Encoder.Encode: raw scalars are
// matched by name and the three selections are one-hot encoded. Unmatched
// values are ignored.
func Encode(raw map[string]float64, age, insulin, diabetesMed string, featureNames []string) FeatureVector {
	e := NewEncoder(featureNames, Lenient)
	v := e.zeroVector()

	for name, value := range raw {
		if i, ok := e.index[name]; ok {
			v.Values[i] = value
		}
	}

	for _, col := range []string{
		SanitizeColumnName("age_" + age),
		SanitizeColumnName("insulin_" + insulin),
		SanitizeColumnName("diabetesMed_" + diabetesMed),
	} {
		if i, ok := e.index[col]; ok {
			v.Values[i] = 1
		}
	}

	return v
}

// SanitizeColumnName replaces every rune that is not a letter, number or
// underscore with an underscore, so "age_[40-50)" becomes "age__40_50_".
// Numbers cover every Unicode numeric class, not only decimal digits.
func SanitizeColumnName(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return '_'
	}, s)
}
