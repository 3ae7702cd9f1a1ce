package config

import (
	"strings"
	"time"

	"github.com/folio-labs/portfolio-api/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Kafka     KafkaConfig
	Notify    NotifyConfig
	Admin     AdminConfig
	MinIO     MinIOConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	TrustedProxies  []string
}

// Addr is the listen address.
func (s ServerConfig) Addr() string { return s.Host + ":" + s.Port }

// AllowedOrigins is the CORS allow-list: the frontend plus the local dev servers.
func (s ServerConfig) AllowedOrigins() []string {
	origins := []string{"http://localhost:5173", "http://localhost:5174"}
	if s.FrontendURL != "" {
		origins = append([]string{s.FrontendURL}, origins...)
	}
	return origins
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type PostgresConfig struct {
	URL     string
	Timeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type RateLimitConfig struct {
	ContactQuota  int
	ContactWindow time.Duration
	UseRedis      bool
	GlobalRPS     float64
	GlobalBurst   int
}

type EmailConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type NotifyConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

type AdminConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	OIDCIssuer   string
	OIDCClientID string
	Subjects     []string
}

// Gated reports whether an admin credential source is configured.
func (a AdminConfig) Gated() bool { return a.JWTSecret != "" || a.OIDCIssuer != "" }

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether archive credentials are configured.
func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != "" && m.AccessKey != "" && m.SecretKey != ""
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// LoadConfig loads configuration from environment variables and .env file.
// Nothing is required: without a database the in-memory store is used.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	_ = v.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT")
	_ = v.BindEnv("SERVER_ENVIRONMENT", "SERVER_ENVIRONMENT", "NODE_ENV")

	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	v.SetDefault("MONGODB_DATABASE", "portfolio")
	v.SetDefault("MONGODB_COLLECTION", "contacts")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("DATABASE_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_CONTACT_QUOTA", 10)
	v.SetDefault("RATE_LIMIT_CONTACT_WINDOW_MINUTES", 15)
	v.SetDefault("RATE_LIMIT_USE_REDIS", true)
	v.SetDefault("RATE_LIMIT_GLOBAL_RPS", 20.0)
	v.SetDefault("RATE_LIMIT_GLOBAL_BURST", 40)
	v.SetDefault("EMAIL_PORT", 587)
	v.SetDefault("KAFKA_TOPIC", "contact-submissions")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_QUEUE_SIZE", 64)
	v.SetDefault("NOTIFY_TIMEOUT", 30)
	v.SetDefault("ADMIN_TOKEN_TTL_MINUTES", 60)
	v.SetDefault("MINIO_BUCKET", "portfolio-archive")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout:    time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
			ShutdownTimeout: time.Duration(v.GetInt("SERVER_SHUTDOWN_TIMEOUT")) * time.Second,
			FrontendURL:     v.GetString("FRONTEND_URL"),
			TrustedProxies:  splitList(v.GetString("TRUSTED_PROXIES")),
		},
		MongoDB: MongoDBConfig{
			URI:        v.GetString("MONGODB_URI"),
			Database:   v.GetString("MONGODB_DATABASE"),
			Collection: v.GetString("MONGODB_COLLECTION"),
			Timeout:    time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Postgres: PostgresConfig{
			URL:     v.GetString("DATABASE_URL"),
			Timeout: time.Duration(v.GetInt("DATABASE_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			ContactQuota:  v.GetInt("RATE_LIMIT_CONTACT_QUOTA"),
			ContactWindow: time.Duration(v.GetInt("RATE_LIMIT_CONTACT_WINDOW_MINUTES")) * time.Minute,
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			GlobalRPS:     v.GetFloat64("RATE_LIMIT_GLOBAL_RPS"),
			GlobalBurst:   v.GetInt("RATE_LIMIT_GLOBAL_BURST"),
		},
		Email: EmailConfig{
			Host: v.GetString("EMAIL_HOST"),
			Port: v.GetInt("EMAIL_PORT"),
			User: v.GetString("EMAIL_USER"),
			Pass: v.GetString("EMAIL_PASS"),
			From: v.GetString("EMAIL_FROM"),
			To:   v.GetString("EMAIL_TO"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Notify: NotifyConfig{
			Workers:   v.GetInt("NOTIFY_WORKERS"),
			QueueSize: v.GetInt("NOTIFY_QUEUE_SIZE"),
			Timeout:   time.Duration(v.GetInt("NOTIFY_TIMEOUT")) * time.Second,
		},
		Admin: AdminConfig{
			JWTSecret:    v.GetString("ADMIN_JWT_SECRET"),
			TokenTTL:     time.Duration(v.GetInt("ADMIN_TOKEN_TTL_MINUTES")) * time.Minute,
			OIDCIssuer:   v.GetString("ADMIN_OIDC_ISSUER"),
			OIDCClientID: v.GetString("ADMIN_OIDC_CLIENT_ID"),
			Subjects:     splitList(v.GetString("ADMIN_SUBJECTS")),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}

	// Basic validation
	if cfg.Admin.JWTSecret != "" && len(cfg.Admin.JWTSecret) < 32 {
		logger.Warnf("ADMIN_JWT_SECRET is shorter than 32 bytes; use a longer value in production")
	}
	if cfg.RateLimit.ContactQuota <= 0 {
		cfg.RateLimit.ContactQuota = 10
	}
	if cfg.RateLimit.ContactWindow <= 0 {
		cfg.RateLimit.ContactWindow = 15 * time.Minute
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
