// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSLMODE"`
	DBReadHost               string `mapstructure:"DB_READ_HOST"`
	DBReadPort               string `mapstructure:"DB_READ_PORT"`
	DBReadUser               string `mapstructure:"DB_READ_USER"`
	DBReadPassword           string `mapstructure:"DB_READ_PASSWORD"`
	DBSchemaMode             string `mapstructure:"DB_SCHEMA_MODE"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	DBAutoMigrateAllowDestructive bool `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`

	RedisURL string `mapstructure:"REDIS_URL"`

	// Identity provider. Session tokens are verified with the PEM public key
	// when present, otherwise with the shared HMAC secret.
	IDPJWTPublicKey  string `mapstructure:"IDP_JWT_PUBLIC_KEY"`
	IDPJWTSecret     string `mapstructure:"IDP_JWT_SECRET"`
	IDPIssuer        string `mapstructure:"IDP_ISSUER"`
	IDPAPIURL        string `mapstructure:"IDP_API_URL"`
	IDPSecretKey     string `mapstructure:"IDP_SECRET_KEY"`
	IDPWebhookSecret string `mapstructure:"IDP_WEBHOOK_SECRET"`

	PostMaxContentLength int  `mapstructure:"POST_MAX_CONTENT_LENGTH"`
	PostImageRequired    bool `mapstructure:"POST_IMAGE_REQUIRED"`

	RewriteProvider       string `mapstructure:"REWRITE_PROVIDER"`
	RewriteModel          string `mapstructure:"REWRITE_MODEL"`
	RewriteAPIKey         string `mapstructure:"REWRITE_API_KEY"`
	RewriteBaseURL        string `mapstructure:"REWRITE_BASE_URL"`
	RewriteMaxConcurrency int    `mapstructure:"REWRITE_MAX_CONCURRENCY"`
	RewriteTimeoutSeconds int    `mapstructure:"REWRITE_TIMEOUT_SECONDS"`

	// FeatureFlags gates rollouts, e.g. "llm_rewrite=25%".
	FeatureFlags string `mapstructure:"FEATURE_FLAGS"`

	StorageDriver         string `mapstructure:"STORAGE_DRIVER"`
	UploadDir             string `mapstructure:"UPLOAD_DIR"`
	UploadPublicPath      string `mapstructure:"UPLOAD_PUBLIC_PATH"`
	ImageMaxUploadSizeMB  int    `mapstructure:"IMAGE_MAX_UPLOAD_SIZE_MB"`
	MinioEndpoint         string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey        string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey        string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket           string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL           bool   `mapstructure:"MINIO_USE_SSL"`
	MinioPublicURL        string `mapstructure:"MINIO_PUBLIC_URL"`
	UploadCleanupSchedule string `mapstructure:"UPLOAD_CLEANUP_SCHEDULE"`
	UploadOrphanTTLHours  int    `mapstructure:"UPLOAD_ORPHAN_TTL_HOURS"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`

	// DevSeedPreset seeds an empty development database on startup when set.
	DevSeedPreset string `mapstructure:"DEV_SEED_PRESET"`
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; env vars and defaults cover everything.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.DBSchemaMode = strings.ToLower(strings.TrimSpace(config.DBSchemaMode))
	config.StorageDriver = strings.ToLower(strings.TrimSpace(config.StorageDriver))
	config.RewriteProvider = strings.ToLower(strings.TrimSpace(config.RewriteProvider))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "virtuefeed")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_READ_USER", "user")
	viper.SetDefault("DB_READ_PASSWORD", "password")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	viper.SetDefault("REDIS_URL", "localhost:6379")

	viper.SetDefault("IDP_JWT_PUBLIC_KEY", "")
	viper.SetDefault("IDP_JWT_SECRET", "")
	viper.SetDefault("IDP_ISSUER", "")
	viper.SetDefault("IDP_API_URL", "https://api.clerk.com/v1")
	viper.SetDefault("IDP_SECRET_KEY", "")
	viper.SetDefault("IDP_WEBHOOK_SECRET", "")

	viper.SetDefault("POST_MAX_CONTENT_LENGTH", 2000)
	viper.SetDefault("POST_IMAGE_REQUIRED", false)

	viper.SetDefault("REWRITE_PROVIDER", "trim")
	viper.SetDefault("REWRITE_MODEL", "gpt-4o-mini")
	viper.SetDefault("REWRITE_API_KEY", "")
	viper.SetDefault("REWRITE_BASE_URL", "")
	viper.SetDefault("REWRITE_MAX_CONCURRENCY", 5)
	viper.SetDefault("REWRITE_TIMEOUT_SECONDS", 10)
	viper.SetDefault("FEATURE_FLAGS", "llm_rewrite=on")

	viper.SetDefault("STORAGE_DRIVER", "local")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("UPLOAD_PUBLIC_PATH", "/uploads")
	viper.SetDefault("IMAGE_MAX_UPLOAD_SIZE_MB", 5)
	viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	viper.SetDefault("MINIO_ACCESS_KEY", "")
	viper.SetDefault("MINIO_SECRET_KEY", "")
	viper.SetDefault("MINIO_BUCKET", "virtuefeed")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("MINIO_PUBLIC_URL", "")
	viper.SetDefault("UPLOAD_CLEANUP_SCHEDULE", "0 30 3 * * *")
	viper.SetDefault("UPLOAD_ORPHAN_TTL_HOURS", 24)

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)

	viper.SetDefault("DEV_SEED_PRESET", "")
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.ImageMaxUploadSizeMB <= 0 {
		return errors.New("IMAGE_MAX_UPLOAD_SIZE_MB must be positive")
	}
	if c.DBConnMaxLifetimeMinutes <= 0 {
		return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must be positive")
	}
	if c.PostMaxContentLength < 0 {
		return errors.New("POST_MAX_CONTENT_LENGTH cannot be negative")
	}

	switch c.DBSchemaMode {
	case "", "hybrid", "sql", "auto":
	default:
		return fmt.Errorf("DB_SCHEMA_MODE %q is not one of hybrid, sql, auto", c.DBSchemaMode)
	}

	switch c.StorageDriver {
	case "", "local":
	case "minio":
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required when STORAGE_DRIVER is minio")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER %q is not one of local, minio", c.StorageDriver)
	}

	switch c.RewriteProvider {
	case "", "trim":
	case "openai":
		if c.RewriteAPIKey == "" {
			return errors.New("REWRITE_API_KEY is required when REWRITE_PROVIDER is openai")
		}
	default:
		return fmt.Errorf("REWRITE_PROVIDER %q is not one of trim, openai", c.RewriteProvider)
	}

	if c.IDPJWTPublicKey == "" && c.IDPJWTSecret == "" {
		log.Println("WARNING: neither IDP_JWT_PUBLIC_KEY nor IDP_JWT_SECRET is set. Authenticated routes will reject every request.")
	}

	// Strict checks for production
	if c.IsProduction() {
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.IDPJWTPublicKey == "" {
			return errors.New("IDP_JWT_PUBLIC_KEY is required in production")
		}
		if c.IDPWebhookSecret == "" {
			log.Println("WARNING: IDP_WEBHOOK_SECRET is empty in production. Webhook deliveries will be rejected.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if c.IDPJWTSecret != "" && len(c.IDPJWTSecret) < 32 {
		log.Println("WARNING: IDP_JWT_SECRET is shorter than 32 characters. Use the provider public key outside development.")
	}

	return nil
}

// ImageMaxUploadBytes returns the upload limit in bytes.
func (c *Config) ImageMaxUploadBytes() int64 {
	return int64(c.ImageMaxUploadSizeMB) * 1024 * 1024
}
