package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "SERVER_PORT", "MONGODB_URI", "ADMIN_JWT_SECRET", "ADMIN_OIDC_ISSUER", "FRONTEND_URL", "KAFKA_TOPIC"} {
		t.Setenv(k, "")
	}
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "5000", cfg.Server.Port)
	require.Equal(t, 10, cfg.RateLimit.ContactQuota)
	require.Equal(t, 15*time.Minute, cfg.RateLimit.ContactWindow)
	require.Equal(t, "contact-submissions", cfg.Kafka.Topic)
	require.Empty(t, cfg.MongoDB.URI)
	require.False(t, cfg.Admin.Gated())
	require.Equal(t, []string{"http://localhost:5173", "http://localhost:5174"}, cfg.Server.AllowedOrigins())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("RATE_LIMIT_CONTACT_QUOTA", "3")
	t.Setenv("RATE_LIMIT_CONTACT_WINDOW_MINUTES", "5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ADMIN_JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("ADMIN_SUBJECTS", "owner@example.com")
	t.Setenv("FRONTEND_URL", "https://folio.example.com")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "8081", cfg.Server.Port)
	require.Equal(t, "0.0.0.0:8081", cfg.Server.Addr())
	require.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, 3, cfg.RateLimit.ContactQuota)
	require.Equal(t, 5*time.Minute, cfg.RateLimit.ContactWindow)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.True(t, cfg.Admin.Gated())
	require.Equal(t, []string{"owner@example.com"}, cfg.Admin.Subjects)
	require.Equal(t, "https://folio.example.com", cfg.Server.AllowedOrigins()[0])
	require.True(t, cfg.MinIO.UseSSL)
}
