package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blink-pin/internal/bucketing"
	"blink-pin/internal/capture"
	"blink-pin/internal/client"
	"blink-pin/internal/config"
	"blink-pin/internal/hashing"
	"blink-pin/internal/landmark"
	"blink-pin/internal/model"
	"blink-pin/internal/repository/file"
	pinredis "blink-pin/internal/repository/redis"
	"blink-pin/internal/service"
	"blink-pin/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config *config.Config

	// Clients
	redisClient   *client.RedisClient
	kafkaProducer *client.KafkaProducer

	// Managers
	hasher    *hashing.Hasher
	keyHasher *bucketing.KeyHasher

	// Repositories
	store        *file.CredentialStore
	attemptCache *pinredis.PINAttemptCache

	serviceFactory *service.ServiceFactory

	closeOnce sync.Once
}

// NewFactory initializes logging, optional clients and the credential store.
func NewFactory(cfg *config.Config) (*Factory, error) {
	util.Init(cfg.IsProduction(), cfg.Logging.Level, cfg.Logging.Format)
	util.AttachFile(cfg.Logging.File, cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups)

	factory := &Factory{config: cfg}

	if err := factory.initializeClients(); err != nil {
		factory.Close()
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	factory.initializeManagers()

	util.Debug("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.String("store_path", cfg.Store.Path),
		util.Bool("redis_enabled", cfg.Redis.Enabled),
		util.Bool("kafka_enabled", cfg.Kafka.Enabled),
	)

	return factory, nil
}

// initializeClients connects the optional Redis and Kafka clients
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if f.config.Redis.Enabled {
		rc, err := client.NewRedisClient(f.config.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		f.redisClient = rc
	}

	if f.config.Kafka.Enabled {
		producer := client.NewKafkaProducer(f.config.Kafka)
		if err := producer.HealthCheck(ctx); err != nil {
			util.Warn("Kafka unreachable - proceeding without auth events", util.ErrorField(err))
			_ = producer.Close()
		} else {
			f.kafkaProducer = producer
		}
	}

	return nil
}

// initializeManagers initializes hashing, bucketing and repositories
func (f *Factory) initializeManagers() {
	f.hasher = hashing.NewHasher()
	f.keyHasher = bucketing.NewKeyHasher(bucketing.DefaultBuckets)
	f.store = file.NewCredentialStore(f.config.Store.Path, f.hasher)

	if f.redisClient != nil {
		f.attemptCache = pinredis.NewPINAttemptCache(f.redisClient, f.config.Attempts)
	}
}

// ==============================
// Service Factory
// ==============================
func (f *Factory) ServiceFactory() *service.ServiceFactory {
	if f.serviceFactory == nil {
		var limiter service.AttemptLimiter
		if f.attemptCache != nil {
			limiter = f.attemptCache
		}

		var events service.EventPublisher
		if f.kafkaProducer != nil {
			events = service.NewKafkaEventPublisher(f.kafkaProducer, f.config.Kafka.EventTopic)
		}

		f.serviceFactory = service.NewServiceFactory(
			f.store,
			limiter,
			events,
			f.keyHasher,
			f.config.Blink.MaxBlinks,
			util.Get(),
		)
	}
	return f.serviceFactory
}

// ==============================
// Capture
// ==============================

// OpenLandmarkSource opens the configured frame source. path overrides
// LANDMARK_FILE for the file source. An unreachable broker or missing file
// is ErrDeviceUnavailable.
func (f *Factory) OpenLandmarkSource(ctx context.Context, path string) (landmark.Source, error) {
	switch f.config.Landmark.Source {
	case "kafka":
		consumer := client.NewKafkaConsumer(f.config.Kafka, f.config.Kafka.LandmarkTopic, f.config.Kafka.LandmarkGroup)

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := consumer.HealthCheck(ctx); err != nil {
			_ = consumer.Close()
			return nil, fmt.Errorf("%w: landmark stream: %v", model.ErrDeviceUnavailable, err)
		}
		return landmark.NewKafkaSource(consumer), nil
	default:
		if path == "" {
			path = f.config.Landmark.File
		}
		if path == "" {
			return nil, fmt.Errorf("no landmark recording configured (set LANDMARK_FILE)")
		}
		return landmark.OpenFile(path)
	}
}

// NewCaptureSession builds a session using the configured thresholds.
func (f *Factory) NewCaptureSession(src landmark.Source, opts capture.Options) *capture.Session {
	if opts.DebugEvery == 0 {
		opts.DebugEvery = f.config.EARDebugEvery
	}
	return capture.NewSession(src, f.config.Thresholds(), opts)
}

// ==============================
// Health Checks
// ==============================

func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	}

	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}

	if f.store == nil {
		healthErrors["store"] = fmt.Errorf("credential store not initialized")
	}

	return healthErrors
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		util.Debug("Shutting down factory...")

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			}
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			}
		}

		util.Sync()
	})

	return nil
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) Store() *file.CredentialStore {
	return f.store
}

func (f *Factory) KeyHasher() *bucketing.KeyHasher {
	return f.keyHasher
}
