package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	goredis "github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/annalza/mint-stock-flow/internal/config"
	"github.com/annalza/mint-stock-flow/internal/httpapi"
	"github.com/annalza/mint-stock-flow/internal/lock"
	"github.com/annalza/mint-stock-flow/internal/platform/database"
	"github.com/annalza/mint-stock-flow/internal/platform/kafka"
	"github.com/annalza/mint-stock-flow/internal/platform/observability"
	"github.com/annalza/mint-stock-flow/internal/platform/redis"
	"github.com/annalza/mint-stock-flow/internal/storage"
)

// Container holds expensive-to-create singleton resources and dependencies
type Container struct {
	config             *config.Config
	logger             observability.Logger
	tracer             observability.Tracer
	store              storage.Store
	locker             lock.Locker
	redisClient        *goredis.Client
	hub                *httpapi.Hub
	messageConsumer    kafka.Consumer
	messageProducer    kafka.Producer
	otelLogShutdown    func(context.Context) error
	otelTraceShutdown  func(context.Context) error
	otelMetricShutdown func(context.Context) error
}

// NewContainer creates and initializes all infrastructure components
func NewContainer(ctx context.Context) (*Container, error) {
	// Load configuration first
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	container := &Container{
		config: cfg,
	}

	// Initialize logger
	if err := container.setupLogger(); err != nil {
		return nil, err
	}

	// Setup OpenTelemetry and Kafka
	if err := container.setupObservability(ctx); err != nil {
		container.Shutdown(ctx)
		return nil, err
	}

	if err := container.setupStorage(); err != nil {
		container.Shutdown(ctx)
		return nil, err
	}

	if err := container.setupLocker(ctx); err != nil {
		container.Shutdown(ctx)
		return nil, err
	}

	container.hub = httpapi.NewHub(container.logger)
	return container, nil
}

// setupLogger initializes the logger with OpenTelemetry integration
func (c *Container) setupLogger() error {
	// Start with basic logger
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}

	c.logger = logger
	return nil
}

// setupObservability configures OpenTelemetry logging, tracing and metrics. Without an
// endpoint the global no-op providers stay in place.
func (c *Container) setupObservability(ctx context.Context) error {
	if c.config.OtelEndpoint != "" {
		// Setup logging SDK
		otelLogShutdown, err := observability.SetupLoggingSDK(ctx, c.config)
		if err != nil {
			c.logger.Error("Failed to setup OpenTelemetry logging", zap.Error(err))
		}
		c.otelLogShutdown = otelLogShutdown

		// Setup tracing SDK
		_, otelTraceShutdown, err := observability.SetupTracingSDK(ctx, c.config)
		if err != nil {
			c.logger.Error("Failed to setup OpenTelemetry tracing", zap.Error(err))
		}
		c.otelTraceShutdown = otelTraceShutdown

		otelMetricShutdown, err := observability.SetupMetricsSDK(ctx, c.config)
		if err != nil {
			c.logger.Error("Failed to setup OpenTelemetry metrics", zap.Error(err))
		}
		c.otelMetricShutdown = otelMetricShutdown
	} else {
		otel.SetTextMapPropagator(propagation.TraceContext{})
	}

	// Re-initialize logger with OTel bridge
	c.reinitializeLoggerWithOTel()

	// Setup tracer
	c.tracer = otel.Tracer(config.ServiceName)

	if c.config.KafkaBroker == "" {
		c.logger.Info("KAFKA_BROKER not set, event streaming disabled")
		return nil
	}

	// Setup Kafka with the TracerProvider
	return c.setupKafkaWithTracer(otel.GetTracerProvider())
}

// reinitializeLoggerWithOTel creates a new logger with OpenTelemetry integration
func (c *Container) reinitializeLoggerWithOTel() {
	logProvider := global.GetLoggerProvider()
	instrumentationScopeName := config.ServiceName + ".manual"
	otelZapCore := otelzap.NewCore(instrumentationScopeName,
		otelzap.WithLoggerProvider(logProvider),
	)

	consoleEncoderConfig := zap.NewProductionEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(consoleEncoderConfig),
		zapcore.Lock(os.Stdout),
		zap.InfoLevel,
	)

	finalCore := zapcore.NewTee(otelZapCore, consoleCore)
	logger := zap.New(finalCore,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service.name", config.ServiceName)),
	)

	c.logger = logger
	c.logger.Info("Logger re-initialized with OpenTelemetry bridge")
}

// setupKafkaWithTracer initializes Kafka consumer and producer with OpenTelemetry
func (c *Container) setupKafkaWithTracer(tp trace.TracerProvider) error {
	// Goods receipts come in
	readerConfig := kafkago.ReaderConfig{
		Brokers: []string{c.config.KafkaBroker},
		Topic:   config.GoodsReceivedTopic,
		GroupID: config.GroupID,
	}

	baseReader := kafkago.NewReader(readerConfig)
	reader, err := otelkafka.NewReader(baseReader)
	if err != nil {
		return err
	}
	c.messageConsumer = reader

	// Stock events go out
	baseWriter := &kafkago.Writer{
		Addr:         kafkago.TCP(c.config.KafkaBroker),
		Topic:        config.StockEventsTopic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: config.BatchTimeout,
		BatchSize:    config.BatchSize,
	}

	writer, err := otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(config.StockEventsTopic),
				attribute.String("messaging.kafka.client_id", config.ServiceName),
			},
		),
	)
	if err != nil {
		return err
	}
	c.messageProducer = writer

	c.logger.Info("📡 Kafka connected",
		zap.String("broker", c.config.KafkaBroker),
		zap.String("consume_topic", config.GoodsReceivedTopic),
		zap.String("publish_topic", config.StockEventsTopic),
	)
	return nil
}

// setupStorage opens the database when one is configured, else keeps state in memory.
func (c *Container) setupStorage() error {
	if c.config.DatabaseURL == "" {
		c.logger.Info("💾 DATABASE_URL not set, using in-memory store")
		c.store = storage.NewMemory()
		return nil
	}

	db, err := database.Open(c.config.DatabaseDriver, c.config.DatabaseURL)
	if err != nil {
		return err
	}
	store, err := storage.NewGorm(db)
	if err != nil {
		_ = database.Close(db)
		return err
	}
	c.store = store
	c.logger.Info("✅ Database connected", zap.String("driver", c.config.DatabaseDriver))
	return nil
}

// setupLocker shares the sale lock through Redis when one is configured.
func (c *Container) setupLocker(ctx context.Context) error {
	if c.config.RedisURL == "" {
		c.locker = lock.NewLocal()
		return nil
	}

	client, err := redis.Connect(ctx, c.config.RedisURL)
	if err != nil {
		return err
	}
	c.redisClient = client
	c.locker = lock.NewRedis(client, c.config.SaleLockTTL)
	c.logger.Info("✅ Redis connected", zap.Duration("sale_lock_ttl", c.config.SaleLockTTL))
	return nil
}

// Shutdown gracefully shuts down all infrastructure components
func (c *Container) Shutdown(ctx context.Context) {
	c.logger.Info("Shutting down infrastructure...")

	var closeErr error

	// Close Kafka components
	if c.messageConsumer != nil {
		closeErr = errors.Join(closeErr, wrapClose("message consumer", c.messageConsumer.Close()))
	}
	if c.messageProducer != nil {
		closeErr = errors.Join(closeErr, wrapClose("message producer", c.messageProducer.Close()))
	}
	if c.store != nil {
		closeErr = errors.Join(closeErr, wrapClose("store", c.store.Close()))
	}
	if c.redisClient != nil {
		closeErr = errors.Join(closeErr, wrapClose("redis", c.redisClient.Close()))
	}

	// Shutdown OpenTelemetry
	if c.otelMetricShutdown != nil {
		closeErr = errors.Join(closeErr, wrapClose("OTel metrics", c.otelMetricShutdown(ctx)))
	}
	if c.otelTraceShutdown != nil {
		closeErr = errors.Join(closeErr, wrapClose("OTel tracing", c.otelTraceShutdown(ctx)))
	}
	if c.otelLogShutdown != nil {
		closeErr = errors.Join(closeErr, wrapClose("OTel logging", c.otelLogShutdown(ctx)))
	}

	if closeErr != nil {
		c.logger.Error("Infrastructure shutdown finished with errors", zap.Error(closeErr))
	}

	c.logger.Info("Infrastructure shutdown complete")

	// Sync logger
	if err := c.logger.Sync(); err != nil {
		// Can't log this error since logger might be closed
		fmt.Printf("Failed to sync logger: %v\n", err)
	}
}

func wrapClose(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("close %s: %w", what, err)
}

// Getters for accessing infrastructure components
func (c *Container) Config() *config.Config          { return c.config }
func (c *Container) Logger() observability.Logger    { return c.logger }
func (c *Container) Tracer() observability.Tracer    { return c.tracer }
func (c *Container) Store() storage.Store            { return c.store }
func (c *Container) Locker() lock.Locker             { return c.locker }
func (c *Container) Hub() *httpapi.Hub               { return c.hub }
func (c *Container) MessageConsumer() kafka.Consumer { return c.messageConsumer }
func (c *Container) MessageProducer() kafka.Producer { return c.messageProducer }
