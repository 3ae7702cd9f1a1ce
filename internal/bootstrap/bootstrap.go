// Package bootstrap turns configuration into the collaborators shared by the
// API server and portfolioctl.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/folio-labs/portfolio-api/handlers"
	"github.com/folio-labs/portfolio-api/internal/admin"
	"github.com/folio-labs/portfolio-api/internal/archive"
	"github.com/folio-labs/portfolio-api/internal/config"
	"github.com/folio-labs/portfolio-api/internal/contact/repository"
	"github.com/folio-labs/portfolio-api/internal/database"
	"github.com/folio-labs/portfolio-api/internal/notify"
	"github.com/folio-labs/portfolio-api/internal/oidc"
	"github.com/folio-labs/portfolio-api/pkg/logger"
	"github.com/folio-labs/portfolio-api/pkg/middleware"
	"github.com/folio-labs/portfolio-api/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is an opened submission store with its lifecycle hooks.
type Store struct {
	repository.Store
	Kind  string
	Ready handlers.ReadyCheck
	Close func(ctx context.Context) error
}

// connectAttempts and connectBackoff tolerate databases that start after the API.
var (
	connectAttempts = 5
	connectBackoff  = time.Second
)

func retry(ctx context.Context, what string, fn func() error) error {
	backoff := connectBackoff
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		logger.Warnf("attempt %d/%d: failed to connect to %s: %v", attempt, connectAttempts, what, err)
		if attempt < connectAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}
	return fmt.Errorf("could not connect to %s after %d attempts: %w", what, connectAttempts, err)
}

// OpenStore selects MongoDB when MONGODB_URI is set, else PostgreSQL when
// DATABASE_URL is set, else the in-memory store.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch {
	case cfg.MongoDB.URI != "":
		var client *mongo.Client
		err := retry(ctx, "MongoDB", func() (err error) {
			client, err = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			return err
		})
		if err != nil {
			return nil, err
		}
		col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		logger.Infof("using MongoDB store %s.%s", cfg.MongoDB.Database, cfg.MongoDB.Collection)
		return &Store{
			Store: repository.NewMongoRepo(col),
			Kind:  "mongo",
			Ready: func(ctx context.Context) error { return client.Ping(ctx, nil) },
			Close: client.Disconnect,
		}, nil

	case cfg.Postgres.URL != "":
		var repo *repository.PgRepo
		var closeFn func()
		var ping func(context.Context) error
		err := retry(ctx, "PostgreSQL", func() error {
			pool, err := database.ConnectPostgres(ctx, cfg.Postgres.URL, cfg.Postgres.Timeout)
			if err != nil {
				return err
			}
			repo, closeFn, ping = repository.NewPgRepo(pool), pool.Close, pool.Ping
			return nil
		})
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			closeFn()
			return nil, err
		}
		logger.Infof("using PostgreSQL store")
		return &Store{
			Store: repo,
			Kind:  "postgres",
			Ready: ping,
			Close: func(context.Context) error { closeFn(); return nil },
		}, nil
	}

	logger.Warnf("neither MONGODB_URI nor DATABASE_URL is set; submissions are kept in memory only")
	return &Store{
		Store: repository.NewMemoryRepo(),
		Kind:  "memory",
		Ready: func(context.Context) error { return nil },
		Close: func(context.Context) error { return nil },
	}, nil
}

// ConnectRedis returns nil when Redis is not configured or unreachable.
func ConnectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.Redis.Host == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s): %v", cfg.Redis.Addr(), err)
		_ = client.Close()
		return nil
	}
	logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
	return client
}

// BuildLimiter returns the contact quota limiter, shared through Redis when
// a client is given and RATE_LIMIT_USE_REDIS allows it.
func BuildLimiter(cfg *config.Config, rdb *redis.Client) *ratelimit.Limiter {
	var counter ratelimit.Counter = ratelimit.NewMemoryCounter()
	if rdb != nil && cfg.RateLimit.UseRedis {
		counter = ratelimit.NewRedisCounter(rdb, "rl:contact:")
	}
	logger.Infof("contact rate limit: %d per %s (%s)", cfg.RateLimit.ContactQuota, cfg.RateLimit.ContactWindow, counter.Name())
	return ratelimit.NewLimiter(counter, cfg.RateLimit.ContactQuota, cfg.RateLimit.ContactWindow)
}

// BuildNotifiers returns the enabled notification sinks.
func BuildNotifiers(cfg *config.Config) []notify.Notifier {
	var sinks []notify.Notifier
	ecfg := notify.EmailConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.User,
		Password: cfg.Email.Pass,
		From:     cfg.Email.From,
		To:       cfg.Email.To,
	}
	if ecfg.Enabled() {
		sinks = append(sinks, notify.NewEmailNotifier(ecfg))
	}
	kcfg := notify.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}
	if kcfg.Enabled() {
		sinks = append(sinks, notify.NewKafkaNotifier(kcfg))
	}
	return sinks
}

// BuildDispatcher starts the notification workers for the enabled sinks.
func BuildDispatcher(cfg *config.Config) *notify.Dispatcher {
	d := notify.NewDispatcher(BuildNotifiers(cfg), notify.Options{
		Workers:   cfg.Notify.Workers,
		QueueSize: cfg.Notify.QueueSize,
		Timeout:   cfg.Notify.Timeout,
	})
	if d.Enabled() {
		logger.Infof("notification sinks: %s", strings.Join(d.Sinks(), ", "))
	} else {
		logger.Infof("no notification sinks configured")
	}
	return d
}

// AdminGate returns the middleware guarding the admin routes, or nil when no
// credential source is configured.
func AdminGate(ctx context.Context, cfg *config.Config) ([]gin.HandlerFunc, error) {
	if !cfg.Admin.Gated() {
		logger.Warnf("ADMIN_JWT_SECRET and ADMIN_OIDC_ISSUER are unset; contact listing and mark-read are NOT protected")
		return nil, nil
	}
	var verifiers middleware.Verifiers
	if cfg.Admin.JWTSecret != "" {
		iss, err := admin.NewIssuer(cfg.Admin.JWTSecret)
		if err != nil {
			return nil, err
		}
		verifiers = append(verifiers, iss)
	}
	if cfg.Admin.OIDCIssuer != "" {
		if len(cfg.Admin.Subjects) == 0 {
			logger.Warnf("ADMIN_OIDC_ISSUER is set but ADMIN_SUBJECTS is empty; no OIDC identity will be accepted")
		}
		ver, err := oidc.NewVerifier(ctx, cfg.Admin.OIDCIssuer, cfg.Admin.OIDCClientID, cfg.Admin.Subjects)
		if err != nil {
			return nil, err
		}
		verifiers = append(verifiers, ver)
	}
	return []gin.HandlerFunc{middleware.AuthMiddleware(verifiers), middleware.RequireRole(admin.RoleAdmin)}, nil
}

// OpenArchive connects to the configured MinIO bucket.
func OpenArchive(ctx context.Context, cfg *config.Config) (*archive.MinIOStorage, error) {
	return archive.NewMinIOStorage(ctx, archive.MinIOConfig{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		UseSSL:    cfg.MinIO.UseSSL,
		Bucket:    cfg.MinIO.Bucket,
	})
}
