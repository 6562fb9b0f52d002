package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/absmach/voicefed"
	"github.com/absmach/voicefed/pkg/inference"
	"github.com/absmach/voicefed/pkg/sdk"
	"github.com/absmach/voicefed/predictor"
	"github.com/absmach/voicefed/predictor/api"
	"github.com/absmach/voicefed/predictor/middleware"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName       = "predictor"
	defHTTPPort   = "5000"
	envPrefixHTTP = "PREDICTOR_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel           string        `env:"PREDICTOR_LOG_LEVEL"           envDefault:"info"`
	ProfilePath        string        `env:"PREDICTOR_PROFILE"`
	InferenceURL       string        `env:"PREDICTOR_INFERENCE_URL"       envDefault:"http://localhost:5001"`
	InferenceTimeout   time.Duration `env:"PREDICTOR_INFERENCE_TIMEOUT"   envDefault:"30s"`
	CoordinatorURL     string        `env:"PREDICTOR_COORDINATOR_URL"     envDefault:"http://localhost:8082"`
	CoordinatorTimeout time.Duration `env:"PREDICTOR_COORDINATOR_TIMEOUT" envDefault:"30s"`
	TLSVerification    bool          `env:"PREDICTOR_TLS_VERIFICATION"    envDefault:"false"`
	OTELURL            url.URL       `env:"PREDICTOR_OTEL_URL"`
	TraceRatio         float64       `env:"PREDICTOR_TRACE_RATIO"         envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	profile, err := voicefed.LoadProfile(cfg.ProfilePath)
	if err != nil {
		logger.Error("failed to load profile", slog.String("error", err.Error()))

		return
	}

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, "", cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	engine := inference.NewClient(inference.Config{
		URL:     cfg.InferenceURL,
		Timeout: cfg.InferenceTimeout,
	})
	coordinator := sdk.NewSDK(sdk.Config{
		CoordinatorURL:  cfg.CoordinatorURL,
		TLSVerification: cfg.TLSVerification,
		Timeout:         cfg.CoordinatorTimeout,
	})

	svc := predictor.NewService(profile, engine, coordinator, cfg.CoordinatorURL)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}
