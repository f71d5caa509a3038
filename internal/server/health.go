package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/readmission-guard/internal/resilience"
	"github.com/ZanzyTHEbar/readmission-guard/internal/types"
)

type healthBody struct {
	types.HealthResponse
	Components []resilience.ComponentHealth `json:"components"`
}

// healthCheck reports 503 while the assets are unusable or inference is
// failing at an emergency rate
func (s *Server) healthCheck(c *gin.Context) {
	s.health.Check(c.Request.Context())

	body := healthBody{
		HealthResponse: types.HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Version:   Version,
			Assets:    "loaded",
			Sessions:  s.sessions.Len(),
			Metrics:   s.metrics.GetStats(),
		},
		Components: s.health.Components(),
	}

	status := http.StatusOK
	switch worst := s.health.Worst(); {
	case s.Blocked():
		body.Status = "unavailable"
		body.Assets = "unavailable"
		body.Error = s.assetErr.Error()
		status = http.StatusServiceUnavailable
	case worst == resilience.LevelEmergency:
		body.Status = "degraded"
		status = http.StatusServiceUnavailable
	case worst > resilience.LevelNormal:
		body.Status = "degraded"
	}

	c.JSON(status, body)
}
