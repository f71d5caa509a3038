// Package session holds the per-clinician dashboard state: the current
// inputs, whether they have been analyzed, and the last result.
package session

import (
	"sync"
	"time"

	"github.com/ZanzyTHEbar/readmission-guard/internal/analysis"
)

// State is the phase of a session.
type State string

const (
	// Idle means the current inputs have not been analyzed.
	Idle State = "idle"
	// Analyzed means Result reflects the current inputs.
	Analyzed State = "analyzed"
)

// RunFunc performs one analysis of the given inputs.
type RunFunc func(analysis.Inputs) (*analysis.Result, error)

// Session is one clinician's dashboard. It is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	id        string
	state     State
	inputs    analysis.Inputs
	result    *analysis.Result
	lastErr   error
	createdAt time.Time
	updatedAt time.Time
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID        string           `json:"id"`
	State     State            `json:"state"`
	Inputs    analysis.Inputs  `json:"inputs"`
	Result    *analysis.Result `json:"result,omitempty"`
	LastError string           `json:"last_error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// New returns an Idle session holding the default inputs.
func New(id string) *Session {
	now := time.Now()
	return &Session{
		id:        id,
		state:     Idle,
		inputs:    analysis.DefaultInputs(),
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Inputs returns the current inputs.
func (s *Session) Inputs() analysis.Inputs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs
}

// SetInputs replaces the inputs. Invalid inputs are rejected and leave the
// session untouched. Any changed value drops the result and returns the
// session to Idle; resubmitting identical values changes nothing.
func (s *Session) SetInputs(in analysis.Inputs) (bool, error) {
	if err := in.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in == s.inputs {
		return false, nil
	}

	s.inputs = in
	s.state = Idle
	s.result = nil
	s.lastErr = nil
	s.updatedAt = time.Now()
	return true, nil
}

// Analyze runs the analysis on the current inputs. On success the session
// moves to Analyzed. On failure it stays Idle with its inputs intact and the
// error recorded; no partial result is kept.
func (s *Session) Analyze(run RunFunc) (*analysis.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updatedAt = time.Now()

	res, err := run(s.inputs)
	if err != nil {
		s.state = Idle
		s.result = nil
		s.lastErr = err
		return nil, err
	}

	s.state = Analyzed
	s.result = res
	s.lastErr = nil
	return res, nil
}

// Result returns the last result while the session is Analyzed.
func (s *Session) Result() (*analysis.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Analyzed {
		return nil, false
	}
	return s.result, true
}

// LastError returns the error of the most recent failed analysis, if the
// inputs have not changed since.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.id,
		State:     s.state,
		Inputs:    s.inputs,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if s.state == Analyzed {
		snap.Result = s.result
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}
