package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/absmach/voicefed"
	"github.com/absmach/voicefed/coordinator"
	"github.com/absmach/voicefed/coordinator/api"
	"github.com/absmach/voicefed/coordinator/middleware"
	"github.com/absmach/voicefed/pkg/fl"
	"github.com/absmach/voicefed/pkg/inference"
	"github.com/absmach/voicefed/pkg/mqtt"
	"github.com/absmach/voicefed/pkg/storage"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName          = "coordinator"
	defHTTPPort      = "8082"
	envPrefixHTTP    = "COORDINATOR_HTTP_"
	envPrefixStorage = "COORDINATOR_"
	pathEnv          = ".env"
)

type envConfig struct {
	LogLevel         string        `env:"COORDINATOR_LOG_LEVEL"         envDefault:"info"`
	InstanceID       string        `env:"COORDINATOR_INSTANCE_ID"`
	ProfilePath      string        `env:"COORDINATOR_PROFILE"`
	RoundsDir        string        `env:"COORDINATOR_ROUNDS_DIR"        envDefault:"rounds"`
	BootstrapModel   bool          `env:"COORDINATOR_BOOTSTRAP_MODEL"   envDefault:"true"`
	Strategy         string        `env:"COORDINATOR_STRATEGY"          envDefault:"identity"`
	LearningRate     float64       `env:"COORDINATOR_LEARNING_RATE"     envDefault:"0.01"`
	WasmAggregator   string        `env:"COORDINATOR_WASM_AGGREGATOR"`
	WasmTimeout      time.Duration `env:"COORDINATOR_WASM_TIMEOUT"      envDefault:"30s"`
	InferenceURL     string        `env:"COORDINATOR_INFERENCE_URL"     envDefault:"http://localhost:5001"`
	InferenceTimeout time.Duration `env:"COORDINATOR_INFERENCE_TIMEOUT" envDefault:"30s"`
	KOfN             int           `env:"COORDINATOR_K_OF_N"            envDefault:"1"`
	MQTTAddress      string        `env:"COORDINATOR_MQTT_ADDRESS"`
	MQTTQoS          uint8         `env:"COORDINATOR_MQTT_QOS"          envDefault:"1"`
	MQTTTimeout      time.Duration `env:"COORDINATOR_MQTT_TIMEOUT"      envDefault:"30s"`
	MQTTUsername     string        `env:"COORDINATOR_MQTT_USERNAME"`
	MQTTPassword     string        `env:"COORDINATOR_MQTT_PASSWORD"`
	MQTTBaseTopic    string        `env:"COORDINATOR_MQTT_BASE_TOPIC"`
	OTELURL          url.URL       `env:"COORDINATOR_OTEL_URL"`
	TraceRatio       float64       `env:"COORDINATOR_TRACE_RATIO"       envDefault:"0"`
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

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
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

	store, err := fl.NewFileStore(fl.StoreConfig{
		ModelsDir:      profile.Model.Dir,
		RoundsDir:      cfg.RoundsDir,
		ModelName:      profile.Model.Name,
		BootstrapEmpty: cfg.BootstrapModel,
		InitialParams:  fl.Params{W: profile.Model.InitialWeights},
	})
	if err != nil {
		logger.Error("failed to load global model", slog.String("error", err.Error()))

		return
	}

	strategy, aggregator, err := newStrategy(cfg)
	if err != nil {
		logger.Error("failed to configure aggregation strategy", slog.String("error", err.Error()))

		return
	}

	storageCfg := storage.Config{}
	if err := env.ParseWithOptions(&storageCfg, env.Options{Prefix: envPrefixStorage}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s storage configuration : %s", svcName, err.Error()))

		return
	}
	repos, err := storage.NewRepositories(storageCfg)
	if err != nil {
		logger.Error("failed to initialize storage", slog.String("error", err.Error()))

		return
	}
	if repos.Closer != nil {
		defer repos.Closer.Close()
	}

	var pubsub mqtt.PubSub
	if cfg.MQTTAddress != "" {
		pubsub, err = mqtt.NewPubSub(mqtt.Config{
			Address:   cfg.MQTTAddress,
			QoS:       cfg.MQTTQoS,
			ID:        svcName + "-" + cfg.InstanceID,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			BaseTopic: cfg.MQTTBaseTopic,
			Timeout:   cfg.MQTTTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer pubsub.Disconnect(context.Background())
	}

	var svc coordinator.Service
	launcher := api.NewLauncher(ctx, func() http.Handler {
		return api.MakeListenerHandler(svc, logger, cfg.InstanceID)
	}, logger)

	svc = coordinator.NewService(
		coordinator.Config{
			ModelType:       profile.Model.Type,
			ServerType:      profile.Coordinator.ServerType,
			ListenerAddress: profile.Coordinator.ListenerAddress,
			BatchSize:       profile.Coordinator.BatchSize,
			KOfN:            cfg.KOfN,
			BaseTopic:       cfg.MQTTBaseTopic,
			Vocabulary:      profile.Vocabulary(),
		},
		store,
		strategy,
		aggregator,
		repos,
		pubsub,
		launcher,
		logger,
	)
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

func newStrategy(cfg envConfig) (fl.AggregationStrategy, fl.Aggregator, error) {
	engine := inference.NewClient(inference.Config{
		URL:     cfg.InferenceURL,
		Timeout: cfg.InferenceTimeout,
	})

	switch cfg.Strategy {
	case fl.StrategyIdentity, "":
		return fl.NewIdentityStrategy(), fl.NewFedAvgAggregator(), nil
	case fl.StrategyFedAvg:
		agg := fl.NewFedAvgAggregator()

		return fl.NewLocalUpdateStrategy(engine, cfg.LearningRate, agg), agg, nil
	case fl.StrategyWasm:
		agg, err := fl.NewWasmAggregator(cfg.WasmAggregator, cfg.WasmTimeout)
		if err != nil {
			return nil, nil, err
		}

		return fl.NewLocalUpdateStrategy(engine, cfg.LearningRate, agg), agg, nil
	default:
		return nil, nil, fmt.Errorf("unknown aggregation strategy %q", cfg.Strategy)
	}
}
