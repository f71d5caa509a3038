package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func component(dm *DegradationManager, name string) (ComponentHealth, bool) {
	for _, c := range dm.Components() {
		if c.Name == name {
			return c, true
		}
	}
	return ComponentHealth{}, false
}

func TestDegradationManager_LevelsFollowErrorRate(t *testing.T) {
	dm := NewDegradationManager(DefaultDegradationConfig())
	dm.Register("inference", nil)

	for i := 0; i < 9; i++ {
		dm.RecordError("inference", errors.New("boom"))
	}
	c, ok := component(dm, "inference")
	require.True(t, ok)
	assert.Equal(t, LevelNormal, c.Level, "below the minimum sample size")

	dm.RecordError("inference", nil)
	c, _ = component(dm, "inference")
	assert.Equal(t, LevelEmergency, c.Level)
	assert.Equal(t, int64(10), c.ErrorCount)
	assert.Equal(t, "inference request failed", c.LastError)

	for i := 0; i < 20; i++ {
		dm.RecordSuccess("inference")
	}
	c, _ = component(dm, "inference")
	assert.InDelta(t, 10.0/30.0, c.ErrorRate, 1e-9)
	assert.Equal(t, LevelCritical, c.Level)

	for i := 0; i < 70; i++ {
		dm.RecordSuccess("inference")
	}
	c, _ = component(dm, "inference")
	assert.Equal(t, LevelDegraded, c.Level)

}

func TestDegradationManager_UnknownComponentIgnored(t *testing.T) {
	dm := NewDegradationManager(DefaultDegradationConfig())
	dm.RecordError("nope", nil)
	_, ok := component(dm, "nope")
	assert.False(t, ok)
	assert.Equal(t, LevelNormal, dm.Worst())
}

func TestDegradationManager_HealthCheck(t *testing.T) {
	dm := NewDegradationManager(DefaultDegradationConfig())

	var failing error = errors.New("model missing")
	dm.Register("assets", func(context.Context) error { return failing })
	dm.Register("inference", nil)

	dm.Check(context.Background())
	c, _ := component(dm, "assets")
	assert.Equal(t, LevelEmergency, c.Level)
	assert.Equal(t, "model missing", c.LastError)
	assert.Equal(t, LevelEmergency, dm.Worst())

	failing = nil
	dm.Check(context.Background())
	c, _ = component(dm, "assets")
	assert.Equal(t, LevelNormal, c.Level)
	assert.Equal(t, LevelNormal, dm.Worst())

	names := []string{}
	for _, comp := range dm.Components() {
		names = append(names, comp.Name)
	}
	assert.Equal(t, []string{"assets", "inference"}, names)
}

func TestDegradationLevel_JSON(t *testing.T) {
	data, err := json.Marshal(ComponentHealth{Name: "x", Level: LevelCritical})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"critical"`)
}
