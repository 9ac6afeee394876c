package cli

import (
	"context"
	"fmt"
	"time"

	"taqneeq-quiz/internal/classifier"
	"taqneeq-quiz/internal/common/config"
	"taqneeq-quiz/internal/common/database"
	commonhttp "taqneeq-quiz/internal/common/http"
	"taqneeq-quiz/internal/common/logger"
	"taqneeq-quiz/internal/common/observability"
	"taqneeq-quiz/internal/quiz"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// AppContext holds the shared dependencies for CLI commands.
type AppContext struct {
	Config   *config.Config
	Logger   logger.Logger
	Client   *classifier.Client
	Obs      *observability.Observability
	Redis    *database.RedisClient
	Registry *prometheus.Registry

	zapLog *zap.Logger
}

// NewAppContext loads configuration and wires the classifier client, telemetry
// and the optional Redis trace store.
func NewAppContext(opts *rootOptions) (*AppContext, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	log := logger.NewZapAdapter(zapLog)

	registry := prometheus.NewRegistry()
	obs, err := observability.New(cfg.App.Name, observability.WithRegisterer(registry), observability.WithGlobal())
	if err != nil {
		_ = zapLog.Sync()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app := &AppContext{
		Config:   cfg,
		Logger:   log,
		Client:   classifier.New(cfg.Classifier, log, commonhttp.WithTracerProvider(obs.TracerProvider())),
		Obs:      obs,
		Registry: registry,
		zapLog:   zapLog,
	}

	if cfg.Trace.RedisEnabled {
		app.Redis = connectRedis(cfg.Database.Redis, log)
	}

	log.Debug("Application context ready", map[string]interface{}{
		"baseUrl":     cfg.Classifier.BaseURL,
		"environment": cfg.App.Environment,
		"redisTrace":  app.Redis != nil,
	})
	return app, nil
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.baseURL != "" {
		cfg.Classifier.BaseURL = opts.baseURL
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}

// connectRedis returns nil when Redis cannot be reached; tracing then stays local.
func connectRedis(cfg config.RedisConfig, log logger.Logger) *database.RedisClient {
	client, err := database.NewRedis(cfg)
	if err != nil {
		log.Warn("Redis trace sink disabled", map[string]interface{}{"error": err.Error()})
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		log.Warn("Redis trace sink disabled", map[string]interface{}{
			"address": cfg.Address,
			"error":   err.Error(),
		})
		_ = client.Close()
		return nil
	}
	return client
}

// NewController builds a session controller whose events go to observer.
func (a *AppContext) NewController(observer quiz.Observer) *quiz.Controller {
	var sinks []quiz.TraceSink
	if a.Config.Trace.LogEnabled {
		sinks = append(sinks, quiz.NewLogSink(a.Logger))
	}
	if a.Redis != nil {
		sinks = append(sinks, quiz.NewRedisSink(a.Redis, a.Config.Trace.KeyPrefix, config.GetDuration(a.Config.Trace.TTL)))
	}

	return quiz.NewController(a.Client, quiz.SettingsFromConfig(a.Config.Classifier),
		quiz.WithObserver(observer),
		quiz.WithTracer(quiz.NewTracer(a.Logger, sinks...)),
		quiz.WithLogger(a.Logger),
		quiz.WithRecorder(a.Obs),
	)
}

// Close releases all resources held by the AppContext.
func (a *AppContext) Close() error {
	if a.Obs != nil {
		a.Obs.Shutdown()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.zapLog != nil {
		_ = a.zapLog.Sync()
	}
	return nil
}
