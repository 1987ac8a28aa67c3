package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Questions QuestionsConfig `mapstructure:"questions"`
	Minio     MinioConfig     `mapstructure:"minio"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Ably      AblyConfig      `mapstructure:"ably"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// QuestionsConfig selects where the question dataset is read from.
// Source is one of embedded, file or minio.
type QuestionsConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
	Cache  bool   `mapstructure:"cache"`
	Watch  bool   `mapstructure:"watch"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Object    string `mapstructure:"object"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// StoreConfig selects the session store: memory, redis or mysql.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type DatabaseConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	DBName    string `mapstructure:"dbname"`
	Charset   string `mapstructure:"charset"`
	ParseTime bool   `mapstructure:"parse_time"`
}

type SessionConfig struct {
	MaxSessions int `mapstructure:"max_sessions"`
}

type AblyConfig struct {
	Key string `mapstructure:"key"`
}

type RabbitMQConfig struct {
	URI      string `mapstructure:"uri"`
	Exchange string `mapstructure:"exchange"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ServiceName       string `mapstructure:"service_name"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

// Window returns the rate limit window as a duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")

	v.SetDefault("questions.source", "embedded")
	v.SetDefault("questions.path", "")
	v.SetDefault("questions.cache", true)
	v.SetDefault("questions.watch", false)

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "meal-quiz")
	v.SetDefault("minio.object", "quiz.json")
	v.SetDefault("minio.use_ssl", false)

	v.SetDefault("store.driver", "memory")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "meal-quiz")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "meal_quiz")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)

	v.SetDefault("session.max_sessions", 1000)

	v.SetDefault("ably.key", "")

	v.SetDefault("rabbitmq.uri", "")
	v.SetDefault("rabbitmq.exchange", "meal-quiz.events")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "meal-quiz")
	v.SetDefault("tracing.collector_endpoint", "http://localhost:14268/api/traces")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:8080"})

	v.SetDefault("rate_limit.max_requests", 120)
	v.SetDefault("rate_limit.window_seconds", 60)

	v.SetDefault("log.file", "logs/quiz.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("MEAL_QUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server
	v.BindEnv("server.port", "MEAL_QUIZ_SERVER_PORT", "PORT")
	v.BindEnv("server.mode", "MEAL_QUIZ_SERVER_MODE", "SERVER_MODE")

	// Minio
	v.BindEnv("minio.endpoint", "MEAL_QUIZ_MINIO_ENDPOINT", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MEAL_QUIZ_MINIO_ACCESS_KEY", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MEAL_QUIZ_MINIO_SECRET_KEY", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MEAL_QUIZ_MINIO_BUCKET", "MINIO_BUCKET")

	// Redis
	v.BindEnv("redis.host", "MEAL_QUIZ_REDIS_HOST", "REDIS_HOST")
	v.BindEnv("redis.port", "MEAL_QUIZ_REDIS_PORT", "REDIS_PORT")
	v.BindEnv("redis.password", "MEAL_QUIZ_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Database
	v.BindEnv("database.host", "MEAL_QUIZ_DATABASE_HOST", "DATABASE_HOST")
	v.BindEnv("database.port", "MEAL_QUIZ_DATABASE_PORT", "DATABASE_PORT")
	v.BindEnv("database.user", "MEAL_QUIZ_DATABASE_USER", "DATABASE_USER")
	v.BindEnv("database.password", "MEAL_QUIZ_DATABASE_PASSWORD", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "MEAL_QUIZ_DATABASE_DBNAME", "DATABASE_NAME")

	// Events
	v.BindEnv("ably.key", "MEAL_QUIZ_ABLY_KEY", "ABLY_KEY")
	v.BindEnv("rabbitmq.uri", "MEAL_QUIZ_RABBITMQ_URI", "RABBITMQ_URI")
	v.BindEnv("rabbitmq.exchange", "MEAL_QUIZ_RABBITMQ_EXCHANGE", "RABBITMQ_EXCHANGE")

	// Tracing
	v.BindEnv("tracing.enabled", "MEAL_QUIZ_TRACING_ENABLED", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "MEAL_QUIZ_TRACING_COLLECTOR_ENDPOINT", "TRACING_COLLECTOR_ENDPOINT")
}

// LoadConfig reads config.yaml from path when present, then applies a .env
// file and the environment on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Questions.Source {
	case "embedded", "minio":
	case "file":
		if c.Questions.Path == "" {
			return errors.New("questions.path is required when questions.source is file")
		}
	default:
		return fmt.Errorf("unknown questions.source %q", c.Questions.Source)
	}
	switch c.Store.Driver {
	case "memory", "redis", "mysql":
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Session.MaxSessions < 1 {
		return fmt.Errorf("session.max_sessions must be positive, got %d", c.Session.MaxSessions)
	}
	if c.RateLimit.MaxRequests < 1 || c.RateLimit.WindowSeconds < 1 {
		return errors.New("rate_limit.max_requests and rate_limit.window_seconds must be positive")
	}
	return nil
}
