// Package server wires the dashboard pages, the JSON API and the operational
// endpoints onto one gin engine.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/readmission-guard/docs"
	"github.com/ZanzyTHEbar/readmission-guard/internal/analysis"
	"github.com/ZanzyTHEbar/readmission-guard/internal/assets"
	"github.com/ZanzyTHEbar/readmission-guard/internal/cache"
	apperrors "github.com/ZanzyTHEbar/readmission-guard/internal/errors"
	"github.com/ZanzyTHEbar/readmission-guard/internal/frontend"
	"github.com/ZanzyTHEbar/readmission-guard/internal/middleware"
	"github.com/ZanzyTHEbar/readmission-guard/internal/monitoring"
	"github.com/ZanzyTHEbar/readmission-guard/internal/privacy"
	"github.com/ZanzyTHEbar/readmission-guard/internal/resilience"
	"github.com/ZanzyTHEbar/readmission-guard/internal/security"
	"github.com/ZanzyTHEbar/readmission-guard/internal/session"
)

// Version is reported by /health
const Version = "1.0.0"

const (
	componentAssets    = "assets"
	componentInference = "inference"
)

// Options configures a Server
type Options struct {
	// Assets are nil when loading failed; AssetErr then says why and every
	// analysis route answers 503.
	Assets   *assets.Assets
	AssetErr error

	EncodingMode   analysis.EncodingMode
	SessionTTL     time.Duration
	ScoreCacheTTL  time.Duration
	AllowedOrigins []string
	CSPReportURI   string
	Security       security.SecurityConfig
	Debug          bool

	Metrics *monitoring.Metrics
	Logger  *monitoring.Logger
}

// Server holds the shared, read-only assets and the per-clinician sessions
type Server struct {
	analyzer  *analysis.Analyzer
	assetErr  error
	modelName string
	features  int

	sessions   *session.Store
	scoreCache *cache.Cache[[]byte]
	health     *resilience.DegradationManager
	security   *security.SecurityMiddleware
	compressor *middleware.CompressionMiddleware
	pages      *frontend.Renderer

	metrics *monitoring.Metrics
	logger  *monitoring.Logger
	opts    Options
}

// New builds a server. With no assets it still serves, in blocking mode.
func New(opts Options) (*Server, error) {
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = monitoring.NewLogger()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.ScoreCacheTTL <= 0 {
		opts.ScoreCacheTTL = 5 * time.Minute
	}
	if opts.EncodingMode == "" {
		opts.EncodingMode = analysis.Lenient
	}
	if opts.Assets == nil && opts.AssetErr == nil {
		opts.AssetErr = errors.New("model assets not loaded")
	}

	pages, err := frontend.LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		assetErr:   opts.AssetErr,
		sessions:   session.NewStore(opts.SessionTTL),
		scoreCache: cache.New[[]byte](opts.ScoreCacheTTL, opts.ScoreCacheTTL),
		health:     resilience.NewDegradationManager(resilience.DefaultDegradationConfig()),
		security:   security.NewSecurityMiddleware(opts.Security),
		compressor: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		pages:      pages,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		opts:       opts,
	}

	if opts.Assets != nil {
		s.assetErr = nil
		s.analyzer = analysis.NewAnalyzer(opts.Assets.Model, opts.Assets.FeatureNames, opts.EncodingMode)
		s.analyzer.SetObserver(monitoring.NewAnalysisObserver(s.metrics, s.logger))
		s.modelName = opts.Assets.Model.Name()
		s.features = len(opts.Assets.FeatureNames)
	}

	s.health.Register(componentAssets, func(context.Context) error { return s.assetErr })
	s.health.Register(componentInference, nil)

	s.security.OnLimited(s.metrics.IncrementRateLimited)
	s.security.Cleanup(time.Minute)

	if err := s.metrics.RegisterGauge("active_sessions", "Dashboard sessions currently held in memory.", func() float64 {
		return float64(s.sessions.Len())
	}); err != nil {
		return nil, fmt.Errorf("failed to register session gauge: %w", err)
	}
	if err := s.metrics.RegisterGauge("page_compression_ratio", "Bytes written over bytes rendered for dashboard pages and assets.",
		s.compressor.Stats().Ratio); err != nil {
		return nil, fmt.Errorf("failed to register compression gauge: %w", err)
	}

	return s, nil
}

// Blocked reports whether the model artifacts are unusable
func (s *Server) Blocked() bool { return s.analyzer == nil }

// Sessions exposes the session store
func (s *Server) Sessions() *session.Store { return s.sessions }

// Close stops background goroutines
func (s *Server) Close() {
	s.security.Stop()
	s.scoreCache.Close()
	s.sessions.Close()
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger))
	r.Use(security.SecurityHeadersMiddleware())
	r.Use(apperrors.ErrorHandler())

	r.GET("/health", s.healthCheck)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if staticFS, err := frontend.GetStaticFS(); err == nil {
		r.GET("/static/*filepath", s.compressor.Handler(), frontend.NewStaticHandler(staticFS, "/static"))
	}

	pages := r.Group("/")
	pages.Use(security.CSPMiddleware(s.opts.CSPReportURI), s.compressor.Handler(), s.requireAssetsPage)
	{
		pages.GET("/", s.dashboard)
		pages.POST("/inputs", s.security.LimitBody, s.updateInputs)
		pages.POST("/analyze", s.security.RateLimitByIP, s.security.RequestTimeout, s.security.LimitBody, s.analyzePage)
	}

	api := r.Group("/api/v1")
	api.Use(s.corsMiddleware(), s.security.RequestTimeout, s.requireAssetsAPI)
	{
		api.GET("/schema", s.schema)
		api.POST("/score",
			s.security.RateLimitByIP,
			s.security.ValidateContentType,
			s.security.LimitBody,
			cache.Middleware(s.scoreCache, s.metrics),
			s.score,
		)
		api.POST("/sessions", s.createSession)
		api.GET("/sessions/:id", s.getSession)
		api.PUT("/sessions/:id/inputs", s.security.ValidateContentType, s.security.LimitBody, s.updateSessionInputs)
		api.POST("/sessions/:id/analyze", s.security.RateLimitByIP, s.analyzeSession)
		api.DELETE("/sessions/:id", s.deleteSession)
	}

	if s.opts.Debug {
		r.GET("/debug/pprof/*name", pprofHandler)
	}

	return r
}

// pprofHandler serves every profile from one catch-all route
func pprofHandler(c *gin.Context) {
	switch strings.TrimPrefix(c.Param("name"), "/") {
	case "cmdline":
		pprof.Cmdline(c.Writer, c.Request)
	case "profile":
		pprof.Profile(c.Writer, c.Request)
	case "symbol":
		pprof.Symbol(c.Writer, c.Request)
	case "trace":
		pprof.Trace(c.Writer, c.Request)
	default:
		pprof.Index(c.Writer, c.Request)
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     s.opts.AllowedOrigins,
		AllowAllOrigins:  len(s.opts.AllowedOrigins) == 0,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Cache", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

// requireAssetsAPI answers 503 on every API route while blocked
func (s *Server) requireAssetsAPI(c *gin.Context) {
	if s.Blocked() {
		apperrors.Abort(c, s.blockedError())
		return
	}
	c.Next()
}

// requireAssetsPage shows the blocking page instead of the dashboard
func (s *Server) requireAssetsPage(c *gin.Context) {
	if !s.Blocked() {
		c.Next()
		return
	}

	if err := s.pages.RenderBlocked(c, frontend.NewBlockedView(s.assetErr, security.GetNonce(c))); err != nil {
		apperrors.Abort(c, apperrors.NewInternalError("failed to render page", err))
		return
	}
	c.Abort()
}

func (s *Server) blockedError() error {
	appErr := apperrors.ToAppError(s.assetErr)
	if appErr.Category != apperrors.CategoryConfiguration {
		return apperrors.NewConfigurationError(s.assetErr.Error(), s.assetErr)
	}
	return appErr
}

// run analyzes in and feeds the outcome to the inference health tracker.
// Bad inputs are the caller's fault and do not count against the model.
func (s *Server) run(in analysis.Inputs) (*analysis.Result, error) {
	res, err := s.analyzer.Analyze(in)

	var inference *analysis.InferenceError
	switch {
	case err == nil:
		s.health.RecordSuccess(componentInference)
	case errors.As(err, &inference):
		s.health.RecordError(componentInference, err)
	}
	return res, err
}

type outcome struct {
	res *analysis.Result
	err error
}

// runContext is run bounded by ctx. On expiry the caller gets ctx.Err() and
// the abandoned analysis finishes in the background.
func (s *Server) runContext(ctx context.Context, in analysis.Inputs) (*analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan outcome, 1)
	go func() {
		res, err := s.run(in)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runFor binds a session analysis to the request context
func (s *Server) runFor(c *gin.Context) session.RunFunc {
	return func(in analysis.Inputs) (*analysis.Result, error) {
		return s.runContext(c.Request.Context(), in)
	}
}

func (s *Server) logAnalysis(sessionID string, res *analysis.Result) {
	s.logger.AnalysisLogger(
		privacy.LogID(sessionID),
		string(res.Tier),
		res.Probability,
		len(res.Recommendations),
		res.Explanation != nil,
		res.Duration,
	)
}
