package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	appanalysis "github.com/deepfraud/deepfraud/internal/application/analysis"
	apprecords "github.com/deepfraud/deepfraud/internal/application/records"
	appsession "github.com/deepfraud/deepfraud/internal/application/session"
	appstats "github.com/deepfraud/deepfraud/internal/application/stats"
	"github.com/deepfraud/deepfraud/internal/config"
	analysisdomain "github.com/deepfraud/deepfraud/internal/domain/analysis"
	sessiondomain "github.com/deepfraud/deepfraud/internal/domain/session"
	aiopenai "github.com/deepfraud/deepfraud/internal/infra/ai/openai"
	mysqlp "github.com/deepfraud/deepfraud/internal/infra/db/mysql"
	postgresp "github.com/deepfraud/deepfraud/internal/infra/db/postgres"
	"github.com/deepfraud/deepfraud/internal/infra/httpserver"
	"github.com/deepfraud/deepfraud/internal/infra/identity/httpidp"
	"github.com/deepfraud/deepfraud/internal/infra/identity/tokens"
	"github.com/deepfraud/deepfraud/internal/infra/localstore"
	minioStore "github.com/deepfraud/deepfraud/internal/infra/storage"
	"github.com/deepfraud/deepfraud/internal/middleware"
)

func main() {
	// secrets from .env when present
	_ = godotenv.Load()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// local store is the fallback of last resort; it must open or nothing
	// survives an outage
	local, err := localstore.Open(cfg.LocalStore.Path)
	if err != nil {
		logger.Fatal("local store open error", zap.Error(err))
	}
	defer local.Close()

	checkers := map[string]middleware.HealthChecker{
		"local_store": &middleware.PingHealthChecker{Target: local},
	}

	// remote store is optional; without it the facade runs local-only
	backends := []analysisdomain.RecordStore{}
	if cfg.Database.Host != "" {
		switch cfg.Database.Driver {
		case "mysql":
			db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
			if err != nil {
				logger.Fatal("mysql connect error", zap.Error(err))
			}
			defer db.Close()
			backends = append(backends, mysqlp.NewRecordRepository(db))
			checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		case "postgres":
			db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
			if err != nil {
				logger.Fatal("postgres connect error", zap.Error(err))
			}
			defer db.Close()
			backends = append(backends, postgresp.NewRecordRepository(db))
			checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		default:
			logger.Fatal("unknown database driver", zap.String("driver", cfg.Database.Driver))
		}
	}
	backends = append(backends, local.Records())

	facade := apprecords.NewFacade(cfg.Persistence.MirrorWrites, logger, backends...)
	facade.OnFallback = middleware.IncrementStoreFallbacks

	var artifacts analysisdomain.ArtifactStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
		artifacts = store
	}

	aiClient := aiopenai.NewClient(cfg.AI.APIKey, cfg.AI.Model)
	analysisSvc := appanalysis.NewService(aiClient, artifacts, nil, logger)

	var provider sessiondomain.IdentityProvider
	if cfg.Identity.BaseURL != "" {
		provider = httpidp.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey, cfg.Identity.Timeout)
	}
	tokenMgr := tokens.NewManager(cfg.Identity.TokenSecret, cfg.Identity.TokenExpiry)
	sessionSvc := appsession.NewService(provider, local.Sessions(), tokenMgr, logger)

	poller := appstats.NewPoller(facade, 2*time.Second)

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	mux.Use(middleware.Logging(logger))
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(analysisSvc, facade, sessionSvc, poller, logger))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// no WriteTimeout: the stats stream holds its connection open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
}
