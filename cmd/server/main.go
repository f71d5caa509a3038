package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/readmission-guard/internal/analysis"
	"github.com/ZanzyTHEbar/readmission-guard/internal/assets"
	"github.com/ZanzyTHEbar/readmission-guard/internal/config"
	"github.com/ZanzyTHEbar/readmission-guard/internal/monitoring"
	"github.com/ZanzyTHEbar/readmission-guard/internal/security"
	"github.com/ZanzyTHEbar/readmission-guard/internal/server"
	"github.com/ZanzyTHEbar/readmission-guard/internal/types"
)

// @title Readmission Guard API
// @version 1.0
// @description 30-day hospital readmission risk scoring with per-feature explanations and discharge recommendations.

// @BasePath /api/v1

// @tag.name Schema
// @tag.description Intake field definitions

// @tag.name Score
// @tag.description Stateless scoring

// @tag.name Sessions
// @tag.description Dashboard sessions

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "readmission-guard",
		Usage:   "30-day readmission risk dashboard",
		Version: server.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the dashboard and JSON API",
				Action: serve,
			},
			{
				Name:   "check",
				Usage:  "Load the model artifacts and report what was found",
				Action: check,
			},
			{
				Name:   "score",
				Usage:  "Analyze one patient and print the result as JSON",
				Flags:  scoreFlags(),
				Action: score,
			},
		},
	}
}

// setup loads configuration and installs the structured logger as default
func setup(c *cli.Context) (*config.Config, *monitoring.Logger, error) {
	if path := c.String("config"); path != "" {
		if err := os.Setenv("CONFIG_FILE", path); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := monitoring.NewLoggerWithConfig(monitoring.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: c.App.ErrWriter,
	})
	slog.SetDefault(logger.Logger)

	return cfg, logger, nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)

	mode, err := analysis.ParseEncodingMode(cfg.EncodingMode)
	if err != nil {
		return err
	}

	a, loadErr := assets.NewLoader(cfg.ModelPath, cfg.FeatureNamesPath).Load()
	if loadErr != nil {
		logger.Error("Model assets unavailable, serving in blocking mode", "error", loadErr)
	}

	srv, err := server.New(server.Options{
		Assets:         a,
		AssetErr:       loadErr,
		EncodingMode:   mode,
		SessionTTL:     cfg.SessionTTL,
		AllowedOrigins: cfg.AllowedOrigins,
		CSPReportURI:   cfg.CSPReportURI,
		Security: security.SecurityConfig{
			MaxRequestsPerMin: cfg.RateLimitPerMin,
			MaxBodyBytes:      security.DefaultSecurityConfig().MaxBodyBytes,
			RequestTimeout:    cfg.RequestTimeout,
			LimiterIdleTTL:    time.Hour,
		},
		Debug:   cfg.GinMode == gin.DebugMode,
		Metrics: monitoring.NewMetrics(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.SystemLogger("server_start", fmt.Sprintf("listening on :%s (encoding %s)", cfg.Port, mode))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.SystemLogger("server_shutdown", "shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.SystemLogger("server_stopped", "graceful shutdown complete")
	return nil
}

func check(c *cli.Context) error {
	cfg, _, err := setup(c)
	if err != nil {
		return err
	}

	a, err := assets.NewLoader(cfg.ModelPath, cfg.FeatureNamesPath).Load()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "model: %s (%s)\nfeatures: %d (%s)\n",
		a.Model.Name(), cfg.ModelPath, len(a.FeatureNames), cfg.FeatureNamesPath)
	return nil
}

// flagName turns a field name such as diabetesMed or number_inpatient into
// a kebab-case flag name
func flagName(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '_':
			b.WriteRune('-')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteRune('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func scoreFlags() []cli.Flag {
	schema := analysis.Schema()
	flags := make([]cli.Flag, 0, len(schema.Numeric)+len(schema.Categorical)+1)

	for _, f := range schema.Numeric {
		flags = append(flags, &cli.IntFlag{
			Name:  flagName(f.Name),
			Usage: fmt.Sprintf("%s (%d-%d)", f.Label, f.Min, f.Max),
			Value: f.Default,
		})
	}
	for _, f := range schema.Categorical {
		flags = append(flags, &cli.StringFlag{
			Name:  flagName(f.Name),
			Usage: fmt.Sprintf("%s (%s)", f.Label, strings.Join(f.Options, ", ")),
			Value: f.Default,
		})
	}
	flags = append(flags, &cli.StringFlag{
		Name:  "encoding",
		Usage: "lenient or strict; defaults to ENCODING_MODE",
	})

	return flags
}

func inputsFromFlags(c *cli.Context) analysis.Inputs {
	return analysis.Inputs{
		NumberInpatient:  c.Int(flagName(analysis.FieldNumberInpatient)),
		TimeInHospital:   c.Int(flagName(analysis.FieldTimeInHospital)),
		NumLabProcedures: c.Int(flagName(analysis.FieldNumLabProcedures)),
		NumMedications:   c.Int(flagName(analysis.FieldNumMedications)),
		NumberDiagnoses:  c.Int(flagName(analysis.FieldNumberDiagnoses)),
		Age:              c.String(flagName(analysis.FieldAge)),
		Insulin:          c.String(flagName(analysis.FieldInsulin)),
		DiabetesMed:      c.String(flagName(analysis.FieldDiabetesMed)),
	}
}

func score(c *cli.Context) error {
	cfg, _, err := setup(c)
	if err != nil {
		return err
	}

	modeName := cfg.EncodingMode
	if c.IsSet("encoding") {
		modeName = c.String("encoding")
	}
	mode, err := analysis.ParseEncodingMode(modeName)
	if err != nil {
		return err
	}

	a, err := assets.NewLoader(cfg.ModelPath, cfg.FeatureNamesPath).Load()
	if err != nil {
		return err
	}

	res, err := analysis.NewAnalyzer(a.Model, a.FeatureNames, mode).Analyze(inputsFromFlags(c))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(types.NewScoreResponse(res))
}
