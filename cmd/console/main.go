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

	"github.com/bryanwahyu/dspm-console/internal/application"
	appai "github.com/bryanwahyu/dspm-console/internal/application/ai"
	appwizard "github.com/bryanwahyu/dspm-console/internal/application/wizard"
	appworkflow "github.com/bryanwahyu/dspm-console/internal/application/workflow"
	"github.com/bryanwahyu/dspm-console/internal/config"
	domain "github.com/bryanwahyu/dspm-console/internal/domain/workflow"
	openaiclient "github.com/bryanwahyu/dspm-console/internal/infra/ai/openai"
	mysqlstate "github.com/bryanwahyu/dspm-console/internal/infra/db/mysql"
	pgstate "github.com/bryanwahyu/dspm-console/internal/infra/db/postgres"
	"github.com/bryanwahyu/dspm-console/internal/infra/gateway"
	"github.com/bryanwahyu/dspm-console/internal/infra/httpserver"
	filestate "github.com/bryanwahyu/dspm-console/internal/infra/state"
	minioStore "github.com/bryanwahyu/dspm-console/internal/infra/storage"
	"github.com/bryanwahyu/dspm-console/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// backend gateway
	gw := gateway.New(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second)

	// pick the persistence adapter
	var store domain.StateStore
	var history domain.HistoryStore
	checkers := map[string]middleware.HealthChecker{
		"backend": &middleware.BackendHealthChecker{Ping: gw.Ping},
	}
	switch cfg.State.Driver {
	case "mysql":
		db, err := mysqlstate.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		defer db.Close()
		repo := mysqlstate.NewStateRepository(db)
		store, history = repo, repo
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	case "postgres":
		db, err := pgstate.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		defer db.Close()
		repo := pgstate.NewStateRepository(db)
		store, history = repo, repo
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	default:
		store = filestate.NewFileStore(cfg.State.Path)
	}

	// optional artifact archive
	var archive httpserver.Archiver
	if cfg.Minio.Endpoint != "" {
		st, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		archive = st
	}

	// optional AI summary
	var aiSvc *appai.Service
	if cfg.OpenAI.APIKey != "" {
		aiSvc = appai.NewService(openaiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	}

	wizardSvc := appwizard.NewService(gw)
	workflowSvc := appworkflow.NewService(ctx, store, gw, history, application.SystemClock{})

	// phase-change signal: log + counters for the console's metrics view
	workflowSvc.SubscribePhaseChange(func(st domain.ScanState) {
		log.Printf("scan phase=%s", st.Phase)
		switch st.Phase {
		case domain.PhaseCompleted:
			middleware.IncrementScansCompleted()
		case domain.PhaseFailed:
			middleware.IncrementScansFailed()
		}
	})

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.BearerPassthrough)
	mux.Use(middleware.RateLimitMiddleware(20, 5))

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(wizardSvc, workflowSvc, aiSvc, gw, archive, cfg.Artifacts.Dir))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute, // report/artifact proxying can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("console listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down console...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
