package types

import (
	"time"

	"github.com/ZanzyTHEbar/readmission-guard/internal/analysis"
	"github.com/ZanzyTHEbar/readmission-guard/internal/session"
)

// ScoreRequest is the body of a stateless score call
type ScoreRequest struct {
	NumberInpatient  int    `json:"number_inpatient" example:"0"`
	TimeInHospital   int    `json:"time_in_hospital" example:"3"`
	NumLabProcedures int    `json:"num_lab_procedures" example:"40"`
	NumMedications   int    `json:"num_medications" example:"15"`
	NumberDiagnoses  int    `json:"number_diagnoses" example:"5"`
	Age              string `json:"age" example:"[40-50)"`
	Insulin          string `json:"insulin" example:"No"`
	DiabetesMed      string `json:"diabetes_med" example:"No"`
}

// ToInputs converts the request into analysis inputs
func (r ScoreRequest) ToInputs() analysis.Inputs {
	return analysis.Inputs{
		NumberInpatient:  r.NumberInpatient,
		TimeInHospital:   r.TimeInHospital,
		NumLabProcedures: r.NumLabProcedures,
		NumMedications:   r.NumMedications,
		NumberDiagnoses:  r.NumberDiagnoses,
		Age:              r.Age,
		Insulin:          r.Insulin,
		DiabetesMed:      r.DiabetesMed,
	}
}

// FromInputs builds a request body from analysis inputs
func FromInputs(in analysis.Inputs) ScoreRequest {
	return ScoreRequest{
		NumberInpatient:  in.NumberInpatient,
		TimeInHospital:   in.TimeInHospital,
		NumLabProcedures: in.NumLabProcedures,
		NumMedications:   in.NumMedications,
		NumberDiagnoses:  in.NumberDiagnoses,
		Age:              in.Age,
		Insulin:          in.Insulin,
		DiabetesMed:      in.DiabetesMed,
	}
}

// ContributorResponse is one feature's signed push on the margin
type ContributorResponse struct {
	Feature      string  `json:"feature" example:"number_inpatient"`
	Value        float64 `json:"value" example:"2"`
	Contribution float64 `json:"contribution" example:"0.42"`
}

// ExplanationResponse attributes a score relative to the model baseline
type ExplanationResponse struct {
	Baseline     float64               `json:"baseline" example:"-1.1"`
	Contributors []ContributorResponse `json:"contributors"`
}

// DroppedFieldResponse is an input with no matching feature column
type DroppedFieldResponse struct {
	Field  string `json:"field" example:"age"`
	Column string `json:"column" example:"age__70_80_"`
}

// ScoreResponse is the outcome of one analysis
type ScoreResponse struct {
	Probability     float64                `json:"probability" example:"0.42"`
	Percent         string                 `json:"percent" example:"42.0%"`
	Tier            string                 `json:"tier" example:"watch"`
	Color           string                 `json:"color" example:"orange"`
	Explanation     *ExplanationResponse   `json:"explanation,omitempty"`
	Recommendations []string               `json:"recommendations"`
	DroppedFields   []DroppedFieldResponse `json:"dropped_fields,omitempty"`
	DurationMs      float64                `json:"duration_ms" example:"0.12"`
}

// NewScoreResponse converts an analysis result for the wire
func NewScoreResponse(res *analysis.Result) *ScoreResponse {
	if res == nil {
		return nil
	}

	out := &ScoreResponse{
		Probability:     res.Probability,
		Percent:         res.Percent,
		Tier:            string(res.Tier),
		Color:           res.Color,
		Recommendations: append([]string(nil), res.Recommendations...),
		DurationMs:      float64(res.Duration.Microseconds()) / 1000,
	}

	if res.Explanation != nil {
		exp := &ExplanationResponse{
			Baseline:     res.Explanation.Baseline,
			Contributors: make([]ContributorResponse, len(res.Explanation.Contributors)),
		}
		for i, c := range res.Explanation.Contributors {
			exp.Contributors[i] = ContributorResponse{Feature: c.Name, Value: c.Value, Contribution: c.Contribution}
		}
		out.Explanation = exp
	}

	for _, d := range res.Dropped {
		out.DroppedFields = append(out.DroppedFields, DroppedFieldResponse{Field: d.Field, Column: d.Column})
	}

	return out
}

// SessionResponse is a point-in-time view of a dashboard session. Result is
// only present while the session is analyzed.
type SessionResponse struct {
	ID        string         `json:"id" example:"7f1e2d9a-4c1b-4f7e-9a57-2a1d0c3b9e11"`
	State     string         `json:"state" example:"idle"`
	Inputs    ScoreRequest   `json:"inputs"`
	Result    *ScoreResponse `json:"result,omitempty"`
	LastError string         `json:"last_error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewSessionResponse converts a session snapshot for the wire
func NewSessionResponse(s session.Snapshot) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		State:     string(s.State),
		Inputs:    FromInputs(s.Inputs),
		Result:    NewScoreResponse(s.Result),
		LastError: s.LastError,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// SchemaResponse describes the intake fields and the loaded model
type SchemaResponse struct {
	Fields       analysis.InputSchema `json:"fields"`
	FeatureCount int                  `json:"feature_count" example:"96"`
	Model        string               `json:"model" example:"tree"`
	EncodingMode string               `json:"encoding_mode" example:"lenient"`
}

// HealthResponse reports liveness and asset status
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version" example:"1.0.0"`
	Assets    string                 `json:"assets" example:"loaded"`
	Error     string                 `json:"error,omitempty"`
	Sessions  int                    `json:"sessions" example:"3"`
	Metrics   map[string]interface{} `json:"metrics"`
}

// ErrorResponse mirrors the serialised AppError for API docs
type ErrorResponse struct {
	Category   string `json:"category" example:"validation"`
	HTTPStatus int    `json:"http_status" example:"400"`
	Timestamp  string `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	RequestID  string `json:"request_id,omitempty"`
}
