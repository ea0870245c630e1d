package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"blink-pin/internal/blink"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development" validate:"oneof=development test staging production"`

	Logging  LoggingConfig  `envPrefix:"LOG_"`
	Blink    BlinkConfig    `envPrefix:"BLINK_"`
	Store    StoreConfig    `envPrefix:"STORE_"`
	Landmark LandmarkConfig `envPrefix:"LANDMARK_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Attempts AttemptConfig  `envPrefix:"PIN_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`

	EARDebugEvery int `env:"EAR_DEBUG_EVERY" envDefault:"60" validate:"gte=0"`
}

type LoggingConfig struct {
	Level      string `env:"LEVEL" envDefault:"info" validate:"oneof=debug info warn warning error"`
	Format     string `env:"FORMAT" envDefault:"console" validate:"oneof=console json"`
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"10" validate:"gt=0"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"3" validate:"gte=0"`
}

type BlinkConfig struct {
	EARThreshold      float64       `env:"EAR_THRESHOLD" envDefault:"0.25" validate:"gt=0,lt=1"`
	ConsecFrames      int           `env:"CONSEC_FRAMES" envDefault:"3" validate:"gte=1"`
	MinInterval       time.Duration `env:"MIN_INTERVAL" envDefault:"500ms" validate:"gte=0"`
	DurationThreshold time.Duration `env:"DURATION_THRESHOLD" envDefault:"400ms" validate:"gt=0"`
	MaxBlinks         int           `env:"MAX_BLINKS" envDefault:"4" validate:"gte=1,lte=32"`
	SmoothingWindow   int           `env:"SMOOTHING_WINDOW" envDefault:"5" validate:"gte=1"`
}

type StoreConfig struct {
	Path string `env:"PATH" envDefault:"users.json" validate:"required"`
}

type LandmarkConfig struct {
	Source string `env:"SOURCE" envDefault:"file" validate:"oneof=file kafka"`
	File   string `env:"FILE"`
}

type RedisConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	URL      string `env:"URL" envDefault:"redis://localhost:6379/0" validate:"required_if=Enabled true"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0" validate:"gte=0"`
	PoolSize int    `env:"POOL_SIZE" envDefault:"10" validate:"gte=1"`
}

type AttemptConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5" validate:"gte=1"`
	Lockout     time.Duration `env:"LOCKOUT" envDefault:"15m" validate:"gt=0"`
	Window      time.Duration `env:"ATTEMPT_WINDOW" envDefault:"15m" validate:"gt=0"`
}

type KafkaConfig struct {
	Enabled       bool     `env:"ENABLED" envDefault:"false"`
	Brokers       []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092" validate:"required_if=Enabled true,dive,hostname_port"`
	LandmarkTopic string   `env:"LANDMARK_TOPIC" envDefault:"blinkpin.landmarks" validate:"required"`
	LandmarkGroup string   `env:"LANDMARK_GROUP" envDefault:"blinkpin-capture" validate:"required"`
	EventTopic    string   `env:"EVENT_TOPIC" envDefault:"blinkpin.auth-events" validate:"required"`
}

// LoadConfig reads env files, then the process environment, and validates
// the result. With no envFiles the default .env is optional; named files
// must exist.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Landmark.Source == "kafka" && !c.Kafka.Enabled {
		return fmt.Errorf("invalid configuration: LANDMARK_SOURCE=kafka requires KAFKA_ENABLED=true")
	}
	return nil
}

// Thresholds returns the immutable detector parameters.
func (c *Config) Thresholds() blink.Thresholds {
	return blink.Thresholds{
		EARThreshold:           c.Blink.EARThreshold,
		ConsecFrames:           c.Blink.ConsecFrames,
		MinBlinkInterval:       c.Blink.MinInterval,
		BlinkDurationThreshold: c.Blink.DurationThreshold,
		MaxBlinks:              c.Blink.MaxBlinks,
		SmoothingWindow:        c.Blink.SmoothingWindow,
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
