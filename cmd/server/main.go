package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/rpattn/adminpanel/internal/auth"
	"github.com/rpattn/adminpanel/internal/config"
	"github.com/rpattn/adminpanel/internal/dashboard"
	"github.com/rpattn/adminpanel/internal/db"
	"github.com/rpattn/adminpanel/internal/events"
	"github.com/rpattn/adminpanel/internal/export"
	"github.com/rpattn/adminpanel/internal/i18n"
	"github.com/rpattn/adminpanel/internal/metrics"
	"github.com/rpattn/adminpanel/internal/middleware"
	"github.com/rpattn/adminpanel/internal/product"
	"github.com/rpattn/adminpanel/internal/repository"
	"github.com/rpattn/adminpanel/internal/session"
	"github.com/rpattn/adminpanel/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(envOr("ADMIN_CONFIG_DIR", "."))
	if err != nil {
		logger.Default().Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	log := logger.Default()

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	gate := auth.NewRoleGate(cfg.Auth.Roles)
	if err := product.DefineStatusLocks(gate, cfg.Auth.StatusLocks); err != nil {
		log.Error("invalid auth config", "error", err)
		os.Exit(1)
	}
	productRepo := repository.NewProductRepository(conn.Pool)
	jobRepo := repository.NewExportJobRepository(conn.Pool)

	settings := product.Settings{
		PerPage:             cfg.Table.PerPage,
		PerPageValues:       cfg.Table.PerPageValues,
		DatetimeFormat:      cfg.Table.DatetimeFormat,
		CaseSensitiveSearch: cfg.Table.CaseSensitiveSearch,
		Statuses:            cfg.StatusCatalog(),
	}

	exportOpts := []export.Option{
		export.WithExportDirectory(cfg.Export.Dir),
		export.WithFormat(cfg.Export.Format),
		export.WithWorkers(cfg.Export.Workers, cfg.Export.QueueSize),
		export.WithPageSize(cfg.Export.PageSize),
		export.WithJobTimeout(cfg.Export.JobTimeout),
		export.WithDownloadToken(cfg.Export.DownloadSecret, cfg.Export.DownloadTTL),
		export.WithRetention(cfg.Export.Retention, cfg.Export.RetentionSchedule),
		export.WithMetrics(m),
		export.WithLogger(log),
	}

	busOpts := []events.Option{events.WithLogger(log)}
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Error("failed to reach redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		publisher, err := events.NewRedisPublisher(client, cfg.Redis.ChannelPrefix)
		if err != nil {
			log.Error("failed to create event publisher", "error", err)
			os.Exit(1)
		}
		exportOpts = append(exportOpts, export.WithPublisher(publisher))
		busOpts = append(busOpts, events.WithForwarder(publisher, export.ShowProgressEvent))
	}

	exporter := export.NewService(jobRepo, exportOpts...)
	exporter.RegisterJobClass(product.ExportJobClass, product.NewExportSource(productRepo, settings))
	if err := exporter.Start(ctx); err != nil {
		log.Error("failed to start export workers", "error", err)
		os.Exit(1)
	}

	pages := session.NewStore[*product.Page](cfg.Session.Size, cfg.Session.TTL, session.WithSecureCookie(cfg.Session.SecureCookie))
	newPage := func(ctx context.Context) (*product.Page, error) {
		return product.NewPage(ctx, product.PageDeps{
			Deps: product.Deps{
				Products: productRepo,
				Gate:     gate,
				Exporter: exporter,
				Bus:      events.NewBus(busOpts...),
				Log:      log,
				Metrics:  m,
			},
			Progress: exporter,
		}, settings)
	}

	mux := http.NewServeMux()
	dashboard.NewHTTPHandler(gate).Register(mux)
	product.NewHTTPHandler(func(w http.ResponseWriter, r *http.Request) (*product.Page, func(), error) {
		return pages.Acquire(w, r, newPage)
	}).Register(mux)
	export.NewHTTPHandler(exporter, func(r *http.Request) (*export.ProgressTracker, error) {
		page, release, ok := pages.Lookup(r)
		if !ok {
			return nil, repository.ErrNotFound
		}
		defer release()
		if page.Progress == nil {
			return nil, repository.ErrNotFound
		}
		return page.Progress, nil
	}).Register(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	app := middleware.LoggingMiddleware(log, m)(
		corsHandler.Handler(
			i18n.Middleware(
				auth.PrincipalMiddleware(
					middleware.DataLoaderMiddleware(productRepo)(mux),
				),
			),
		),
	)

	root := http.NewServeMux()
	root.Handle("GET /metrics", m.Handler())
	root.Handle("/", app)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("starting admin server", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	if err := exporter.Stop(shutdownCtx); err != nil {
		log.Error("export workers did not stop cleanly", "error", err)
	}
	pages.Purge()

	log.Info("server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
