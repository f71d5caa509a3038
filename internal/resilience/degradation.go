package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DegradationLevel represents the current degradation state
type DegradationLevel int

const (
	LevelNormal DegradationLevel = iota
	LevelDegraded
	LevelCritical
	LevelEmergency
)

func (l DegradationLevel) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelDegraded:
		return "degraded"
	case LevelCritical:
		return "critical"
	case LevelEmergency:
		return "emergency"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// MarshalText renders the level by name in JSON
func (l DegradationLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// DegradationConfig holds error-rate thresholds (0.0-1.0) per level
type DegradationConfig struct {
	DegradedThreshold  float64       `json:"degraded_threshold"`
	CriticalThreshold  float64       `json:"critical_threshold"`
	EmergencyThreshold float64       `json:"emergency_threshold"`
	MinRequests        int64         `json:"min_requests"`
	HealthCheckTimeout time.Duration `json:"health_check_timeout"`
}

// DefaultDegradationConfig returns sensible defaults
func DefaultDegradationConfig() DegradationConfig {
	return DegradationConfig{
		DegradedThreshold:  0.1,
		CriticalThreshold:  0.25,
		EmergencyThreshold: 0.5,
		MinRequests:        10,
		HealthCheckTimeout: 2 * time.Second,
	}
}

// ComponentHealth is the health of one part of the service
type ComponentHealth struct {
	Name          string           `json:"name"`
	Level         DegradationLevel `json:"level"`
	ErrorRate     float64          `json:"error_rate"`
	TotalRequests int64            `json:"total_requests"`
	ErrorCount    int64            `json:"error_count"`
	LastError     string           `json:"last_error,omitempty"`
	LastErrorTime time.Time        `json:"last_error_time,omitempty"`
	StatusMessage string           `json:"status_message"`
}

// HealthCheckFunc reports whether a component can serve right now
type HealthCheckFunc func(ctx context.Context) error

// DegradationManager tracks error rates of the service's components
type DegradationManager struct {
	config       DegradationConfig
	components   map[string]*ComponentHealth
	healthChecks map[string]HealthCheckFunc
	now          func() time.Time
	mutex        sync.RWMutex
}

// NewDegradationManager creates a new degradation manager
func NewDegradationManager(config DegradationConfig) *DegradationManager {
	return &DegradationManager{
		config:       config,
		components:   make(map[string]*ComponentHealth),
		healthChecks: make(map[string]HealthCheckFunc),
		now:          time.Now,
	}
}

// Register adds a component with an optional health check
func (dm *DegradationManager) Register(name string, healthCheck HealthCheckFunc) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.components[name] = &ComponentHealth{
		Name:          name,
		Level:         LevelNormal,
		StatusMessage: "healthy",
	}
	if healthCheck != nil {
		dm.healthChecks[name] = healthCheck
	}
}

// RecordSuccess counts a request the component served
func (dm *DegradationManager) RecordSuccess(name string) {
	dm.record(name, nil)
}

// RecordError counts a request the component failed
func (dm *DegradationManager) RecordError(name string, err error) {
	if err == nil {
		err = fmt.Errorf("%s request failed", name)
	}
	dm.record(name, err)
}

func (dm *DegradationManager) record(name string, err error) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	c, ok := dm.components[name]
	if !ok {
		return
	}

	c.TotalRequests++
	if err != nil {
		c.ErrorCount++
		c.LastError = err.Error()
		c.LastErrorTime = dm.now()
	}
	c.ErrorRate = float64(c.ErrorCount) / float64(c.TotalRequests)

	dm.updateLevel(c)
}

// updateLevel derives the level from the error rate once enough requests
// have been seen
func (dm *DegradationManager) updateLevel(c *ComponentHealth) {
	old := c.Level

	switch {
	case c.TotalRequests < dm.config.MinRequests:
		c.Level, c.StatusMessage = LevelNormal, "healthy"
	case c.ErrorRate >= dm.config.EmergencyThreshold:
		c.Level, c.StatusMessage = LevelEmergency, "high error rate"
	case c.ErrorRate >= dm.config.CriticalThreshold:
		c.Level, c.StatusMessage = LevelCritical, "elevated error rate"
	case c.ErrorRate >= dm.config.DegradedThreshold:
		c.Level, c.StatusMessage = LevelDegraded, "moderate error rate"
	default:
		c.Level, c.StatusMessage = LevelNormal, "healthy"
	}

	if old != c.Level {
		slog.Warn("Component degradation level changed",
			"component", c.Name,
			"old_level", old.String(),
			"new_level", c.Level.String(),
			"error_rate", c.ErrorRate,
			"total_requests", c.TotalRequests,
			"error_count", c.ErrorCount)
	}
}

// Check runs every registered health check. A failing check puts its
// component into emergency until the check passes again.
func (dm *DegradationManager) Check(ctx context.Context) {
	dm.mutex.RLock()
	checks := make(map[string]HealthCheckFunc, len(dm.healthChecks))
	for name, fn := range dm.healthChecks {
		checks[name] = fn
	}
	dm.mutex.RUnlock()

	for name, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, dm.config.HealthCheckTimeout)
		err := check(checkCtx)
		cancel()

		dm.mutex.Lock()
		if c, ok := dm.components[name]; ok {
			if err != nil {
				c.Level = LevelEmergency
				c.StatusMessage = "health check failed"
				c.LastError = err.Error()
				c.LastErrorTime = dm.now()
			} else if c.StatusMessage == "health check failed" {
				dm.updateLevel(c)
			}
		}
		dm.mutex.Unlock()
	}
}

// Components returns copies of every component's health, sorted by name
func (dm *DegradationManager) Components() []ComponentHealth {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	out := make([]ComponentHealth, 0, len(dm.components))
	for _, c := range dm.components {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Worst returns the highest level across all components
func (dm *DegradationManager) Worst() DegradationLevel {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	worst := LevelNormal
	for _, c := range dm.components {
		if c.Level > worst {
			worst = c.Level
		}
	}
	return worst
}
