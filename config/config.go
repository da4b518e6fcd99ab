package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains every setting the server reads from the environment.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTP     HTTP     `envPrefix:"HTTP_"`
	Database Database `envPrefix:"DATABASE_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Mongo    Mongo    `envPrefix:"MONGO_"`
	JWT      JWT      `envPrefix:"JWT_"`
	LLM      LLM      `envPrefix:"LLM_"`
	Scoring  Scoring  `envPrefix:"SCORING_"`
	Analysis Analysis `envPrefix:"ANALYSIS_"`
	Storage  Storage  `envPrefix:"STORAGE_"`
	AMQP     AMQP     `envPrefix:"AMQP_"`
	Guest    Guest    `envPrefix:"GUEST_"`
	Upload   Upload   `envPrefix:"UPLOAD_"`
}

type HTTP struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	// WSOrigins restricts websocket upgrades; empty allows any origin.
	WSOrigins       []string      `env:"WS_ORIGINS" envSeparator:","`
}

type Database struct {
	DSN             string        `env:"DSN"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"5m"`
	AutoMigrate     bool          `env:"AUTO_MIGRATE" envDefault:"true"`
}

// Redis is optional; an empty Addr disables caching, distributed locks and progress streaming.
type Redis struct {
	Addr        string        `env:"ADDR"`
	KeyPrefix   string        `env:"KEY_PREFIX" envDefault:"resumerank:"`
	RankingsTTL time.Duration `env:"RANKINGS_TTL" envDefault:"10m"`
}

// Mongo is optional; an empty URI disables the analysis archive.
type Mongo struct {
	URI        string        `env:"URI"`
	DB         string        `env:"DB" envDefault:"resumerank"`
	ArchiveTTL time.Duration `env:"ARCHIVE_TTL" envDefault:"720h"`
}

type JWT struct {
	Secret     string        `env:"SECRET"`
	AccessTTL  time.Duration `env:"ACCESS_TTL" envDefault:"24h"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
}

type LLM struct {
	Provider       string        `env:"PROVIDER" envDefault:"gemini"` // gemini|vertex
	Model          string        `env:"MODEL" envDefault:"gemini-2.5-flash"`
	APIKey         string        `env:"API_KEY"`
	ProjectID      string        `env:"PROJECT_ID"`
	Location       string        `env:"LOCATION" envDefault:"us-central1"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
}

type Scoring struct {
	MaxAttempts uint64        `env:"MAX_ATTEMPTS" envDefault:"3"`
	Backoff     time.Duration `env:"BACKOFF" envDefault:"10s"`
}

type Analysis struct {
	Workers int           `env:"WORKERS" envDefault:"1"`
	LockTTL time.Duration `env:"LOCK_TTL" envDefault:"30m"`
}

type Storage struct {
	Provider        string `env:"PROVIDER" envDefault:"none"` // none|gcs|s3
	Bucket          string `env:"BUCKET"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3Region        string `env:"S3_REGION" envDefault:"auto"`
	S3AccessKey     string `env:"S3_ACCESS_KEY"`
	S3SecretKey     string `env:"S3_SECRET_KEY"`
}

// AMQP is optional; an empty URL disables broker publishing of progress events.
type AMQP struct {
	URL      string `env:"URL"`
	Exchange string `env:"EXCHANGE" envDefault:"job_updates"`
}

type Guest struct {
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`
}

type Upload struct {
	MaxFileBytes int64 `env:"MAX_FILE_BYTES" envDefault:"10485760"`
}

// Load parses the environment into a Config and checks required values.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("DATABASE_DSN environment variable is not set")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}
	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.APIKey == "" {
			return errors.New("LLM_API_KEY is required for the gemini provider")
		}
	case "vertex":
		if c.LLM.ProjectID == "" {
			return errors.New("LLM_PROJECT_ID is required for the vertex provider")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	switch c.Storage.Provider {
	case "none":
	case "gcs", "s3":
		if c.Storage.Bucket == "" {
			return errors.New("STORAGE_BUCKET is required when STORAGE_PROVIDER is set")
		}
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.Storage.Provider)
	}
	if c.Scoring.MaxAttempts == 0 {
		return errors.New("SCORING_MAX_ATTEMPTS must be at least 1")
	}
	if c.Analysis.Workers <= 0 {
		c.Analysis.Workers = 1
	}
	return nil
}
