package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	AI        AIConfig
	Quiz      QuizConfig      `mapstructure:"quiz"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool   `mapstructure:"-"`
	ConfigDir   string `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type AIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Primary  PrimaryDatabaseConfig  `mapstructure:"primary"`
	Fallback FallbackDatabaseConfig `mapstructure:"fallback"`
}

// PrimaryDatabaseConfig describes the hosted relational store.
type PrimaryDatabaseConfig struct {
	Driver       string        `mapstructure:"driver"` // postgres | mysql
	DSN          string        `mapstructure:"dsn"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DBName       string        `mapstructure:"dbname"`
	SSLMode      string        `mapstructure:"sslmode"`
	Charset      string        `mapstructure:"charset"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	AutoMigrate  bool          `mapstructure:"auto_migrate"`
}

// FallbackDatabaseConfig describes the local embedded store used after failover.
type FallbackDatabaseConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	Transactional bool   `mapstructure:"transactional"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
	S3Endpoint    string `mapstructure:"s3_endpoint"`
	S3Region      string `mapstructure:"s3_region"`
	S3AccessKey   string `mapstructure:"s3_access_key"`
	S3SecretKey   string `mapstructure:"s3_secret_key"`
	S3Bucket      string `mapstructure:"s3_bucket"`
	S3PublicURL   string `mapstructure:"s3_public_url"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type QuizConfig struct {
	DefaultListLimit int           `mapstructure:"default_list_limit"`
	MaxListLimit     int           `mapstructure:"max_list_limit"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.primary.driver", "postgres")
	v.SetDefault("database.primary.port", 5432)
	v.SetDefault("database.primary.sslmode", "require")
	v.SetDefault("database.primary.charset", "utf8mb4")
	v.SetDefault("database.primary.timeout", 5*time.Second)
	v.SetDefault("database.primary.max_open_conns", 10)
	v.SetDefault("database.primary.max_idle_conns", 5)
	v.SetDefault("database.primary.auto_migrate", true)

	v.SetDefault("database.fallback.enabled", true)
	v.SetDefault("database.fallback.path", "data/studyhelper.db")
	v.SetDefault("database.fallback.transactional", false)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")

	v.SetDefault("ai.timeout", 60*time.Second)

	v.SetDefault("quiz.default_list_limit", 50)
	v.SetDefault("quiz.max_list_limit", 200)
	v.SetDefault("quiz.lock_ttl", 10*time.Second)

	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.level", "info")

	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

// LoadEnvFile loads a .env file if one exists. A missing file is not an error.
func LoadEnvFile(paths ...string) error {
	err := godotenv.Load(paths...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}

func LoadConfig(path string) (*Config, error) {
	if err := LoadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("STUDYHELPER")
	v.AutomaticEnv()
	setDefaults(v)

	// Primary database
	v.BindEnv("database.primary.driver", "DATABASE_DRIVER")
	v.BindEnv("database.primary.dsn", "DATABASE_URL")
	v.BindEnv("database.primary.host", "DATABASE_HOST")
	v.BindEnv("database.primary.port", "DATABASE_PORT")
	v.BindEnv("database.primary.user", "DATABASE_USER")
	v.BindEnv("database.primary.password", "DATABASE_PASSWORD")
	v.BindEnv("database.primary.dbname", "DATABASE_NAME")

	// Fallback database
	v.BindEnv("database.fallback.path", "FALLBACK_DB_PATH")
	v.BindEnv("database.fallback.enabled", "FALLBACK_ENABLED")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// AI
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.api_key", "AI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")
	v.BindEnv("storage.s3_endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3_access_key", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3_secret_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("storage.s3_bucket", "S3_BUCKET")
	v.BindEnv("storage.s3_public_url", "S3_PUBLIC_URL")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Printf("config file not found in %s, using defaults and environment", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ConfigDir = path

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}
	if cfg.Database.Fallback.Enabled && cfg.Database.Fallback.Path != "" {
		os.MkdirAll(filepath.Dir(cfg.Database.Fallback.Path), 0755)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Primary.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported primary database driver %q (supported: postgres, mysql)", c.Database.Primary.Driver)
	}
	if c.Database.Primary.Timeout <= 0 {
		return fmt.Errorf("database.primary.timeout must be positive")
	}
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	if c.Quiz.DefaultListLimit <= 0 {
		c.Quiz.DefaultListLimit = 50
	}
	if c.Quiz.MaxListLimit < c.Quiz.DefaultListLimit {
		c.Quiz.MaxListLimit = c.Quiz.DefaultListLimit
	}
	return nil
}

// PrimaryDSN builds the connection string for the configured driver. An explicit
// DSN (e.g. DATABASE_URL) wins over the individual fields.
func (d PrimaryDatabaseConfig) PrimaryDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&loc=Local&timeout=%s",
			d.User, d.Password, d.Host, d.Port, d.DBName, d.Charset, d.Timeout)
	default:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode, int(d.Timeout.Seconds()))
	}
}
