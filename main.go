package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/folio-labs/portfolio-api/handlers"
	"github.com/folio-labs/portfolio-api/internal/bootstrap"
	"github.com/folio-labs/portfolio-api/internal/config"
	"github.com/folio-labs/portfolio-api/internal/contact/handler"
	"github.com/folio-labs/portfolio-api/internal/contact/service"
	"github.com/folio-labs/portfolio-api/pkg/logger"
	"github.com/folio-labs/portfolio-api/pkg/metrics"
	"github.com/folio-labs/portfolio-api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

// router bundles what newRouter mounts.
type router struct {
	cfg       *config.Config
	svc       service.Service
	health    *handlers.Health
	adminGate []gin.HandlerFunc
	gatherer  prometheus.Gatherer
}

func newRouter(rt router) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(rt.cfg.Server.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(),
		middleware.SecurityHeaders(),
		middleware.CORS(rt.cfg.Server.AllowedOrigins()),
	)
	if rt.cfg.RateLimit.GlobalRPS > 0 {
		r.Use(middleware.NewThrottle(rt.cfg.RateLimit.GlobalRPS, rt.cfg.RateLimit.GlobalBurst).Middleware())
	}

	rt.health.Register(r)
	handlers.RegisterSwagger(r)
	handler.RegisterContactRoutes(r.Group("/api"), rt.svc, rt.adminGate...)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{})))
	return r, nil
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)
	logger.InitFile(logger.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logger.Sync()
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open contact store: %v", err)
	}
	checks := map[string]handlers.ReadyCheck{"store": store.Ready}

	rdb := bootstrap.ConnectRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	limiter := bootstrap.BuildLimiter(cfg, rdb)
	dispatcher := bootstrap.BuildDispatcher(cfg)

	gate, err := bootstrap.AdminGate(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to configure admin authentication: %v", err)
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r, err := newRouter(router{
		cfg:       cfg,
		svc:       service.New(store, limiter, service.WithNotifier(dispatcher)),
		health:    handlers.NewHealth(cfg.Server.Environment, version, checks),
		adminGate: gate,
		gatherer:  prometheus.DefaultGatherer,
	})
	if err != nil {
		logger.Fatalf("invalid TRUSTED_PROXIES: %v", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("portfolio API %s listening on %s (%s, store=%s)", version, srv.Addr, cfg.Server.Environment, store.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Infof("shutting down")
	case err := <-errCh:
		logger.Errorf("server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warnf("notification shutdown: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Warnf("store shutdown: %v", err)
	}
}
