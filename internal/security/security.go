package security

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/ZanzyTHEbar/readmission-guard/internal/errors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxRequestsPerMin int           `json:"max_requests_per_min"`
	MaxBodyBytes      int64         `json:"max_body_bytes"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	LimiterIdleTTL    time.Duration `json:"limiter_idle_ttl"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxRequestsPerMin: 60,
		MaxBodyBytes:      16 << 10,
		RequestTimeout:    10 * time.Second,
		LimiterIdleTTL:    time.Hour,
	}
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SecurityMiddleware provides request limiting middleware
type SecurityMiddleware struct {
	config SecurityConfig

	mu         sync.Mutex
	ipLimiters map[string]*ipLimiter

	onLimited func(route string)
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	if config.MaxRequestsPerMin <= 0 {
		config.MaxRequestsPerMin = DefaultSecurityConfig().MaxRequestsPerMin
	}
	return &SecurityMiddleware{
		config:     config,
		ipLimiters: make(map[string]*ipLimiter),
		stop:       make(chan struct{}),
	}
}

// OnLimited registers a callback for rejected requests, typically a metric
func (sm *SecurityMiddleware) OnLimited(fn func(route string)) {
	sm.onLimited = fn
}

// limiterFor returns the limiter of an IP, creating it on first sight
func (sm *SecurityMiddleware) limiterFor(ip string, now time.Time) *rate.Limiter {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	entry, exists := sm.ipLimiters[ip]
	if !exists {
		perMin := sm.config.MaxRequestsPerMin
		// Allow burst of up to half the requests per minute
		burst := perMin / 2
		if burst < 5 {
			burst = 5
		}
		entry = &ipLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), burst),
		}
		sm.ipLimiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimitByIP implements per-IP rate limiting
func (sm *SecurityMiddleware) RateLimitByIP(c *gin.Context) {
	if !sm.limiterFor(c.ClientIP(), time.Now()).Allow() {
		if sm.onLimited != nil {
			sm.onLimited(c.FullPath())
		}
		c.Header("Retry-After", "60")
		apperrors.Abort(c, apperrors.NewRateLimitError("60s"))
		return
	}

	c.Next()
}

// ValidateContentType rejects bodies not declared as application/json. A
// missing header is rejected too.
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if !strings.EqualFold(c.ContentType(), gin.MIMEJSON) {
		apperrors.Abort(c, apperrors.NewUnsupportedMediaTypeError(c.GetHeader("Content-Type")))
		return
	}

	c.Next()
}

// LimitBody caps the request body size
func (sm *SecurityMiddleware) LimitBody(c *gin.Context) {
	if sm.config.MaxBodyBytes > 0 && c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxBodyBytes)
	}
	c.Next()
}

// RequestTimeout enforces request timeout
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	if sm.config.RequestTimeout <= 0 {
		c.Next()
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// Cleanup periodically drops limiters of IPs that have gone quiet
func (sm *SecurityMiddleware) Cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				sm.cleanupOldLimiters(now)
			case <-sm.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine
func (sm *SecurityMiddleware) Stop() {
	sm.stopOnce.Do(func() { close(sm.stop) })
}

// cleanupOldLimiters removes limiters idle for longer than LimiterIdleTTL
func (sm *SecurityMiddleware) cleanupOldLimiters(now time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for ip, entry := range sm.ipLimiters {
		if now.Sub(entry.lastSeen) > sm.config.LimiterIdleTTL {
			delete(sm.ipLimiters, ip)
			removed++
		}
	}
	return removed
}

// trackedIPs returns the number of IPs with a live limiter
func (sm *SecurityMiddleware) trackedIPs() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.ipLimiters)
}
