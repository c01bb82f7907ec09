package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	accountsapp "github.com/schoolerp/backend/internal/application/accounts"
	"github.com/schoolerp/backend/internal/application/collection"
	printingapp "github.com/schoolerp/backend/internal/application/printing"
	"github.com/schoolerp/backend/internal/application/records"
	reportapp "github.com/schoolerp/backend/internal/application/report"
	"github.com/schoolerp/backend/internal/application/status"
	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/schoolerp/backend/internal/domain/school"
	"github.com/schoolerp/backend/internal/infrastructure/cache"
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"github.com/schoolerp/backend/internal/infrastructure/logger"
	"github.com/schoolerp/backend/internal/infrastructure/persistence"
	printinfra "github.com/schoolerp/backend/internal/infrastructure/printing"
	"github.com/schoolerp/backend/internal/infrastructure/storage"
	"github.com/schoolerp/backend/internal/infrastructure/telemetry"
	"github.com/schoolerp/backend/internal/interfaces/http/handler"
	"github.com/schoolerp/backend/internal/interfaces/http/middleware"
	"github.com/schoolerp/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// shutdownTimeout bounds both the HTTP drain and waiting for bulk runs
const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting school backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("store", cfg.Store.Driver),
	)

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = providers.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	metrics, err := telemetry.NewRecorder(nil)
	if err != nil {
		log.Fatal("Failed to create metric instruments", zap.Error(err))
	}

	var dbOpts []persistence.DatabaseOption
	if providers.Enabled() && cfg.Telemetry.DBTraceEnabled {
		dbOpts = append(dbOpts, persistence.WithTracing(telemetry.DBTracingConfig{
			DBSystem:           "postgresql",
			FullSQL:            cfg.Telemetry.DBLogFullSQL,
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 0)
	backend, err := persistence.OpenBackend(ctx, cfg, gormLog, dbOpts...)
	if err != nil {
		log.Fatal("Failed to open document store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error("Error closing document store", zap.Error(err))
		}
	}()
	log.Info("Document store connected", zap.String("driver", backend.Driver))

	caches := collection.NewRegistry(backend.Store, collection.ModuleSources(), log)

	// Renderers and archive
	html, err := printinfra.NewHTMLRenderer(printinfra.HTMLConfig{AutoPrint: true, Logger: log})
	if err != nil {
		log.Fatal("Failed to build HTML renderer", zap.Error(err))
	}
	pdf, closePDF, err := newPDFRenderer(cfg.Printing, html, log)
	if err != nil {
		log.Fatal("Failed to build PDF renderer", zap.Error(err))
	}
	defer closePDF()
	renderers := printinfra.NewRegistry(html, pdf)

	sink, err := newStorage(ctx, cfg.Printing, log)
	if err != nil {
		log.Fatal("Failed to open document archive", zap.String("storage", cfg.Printing.Storage), zap.Error(err))
	}

	printer := printingapp.NewService(backend.Store, renderers, sink, printingapp.Config{
		Profile: school.Profile{
			Name:     cfg.School.Name,
			Address:  cfg.School.Address,
			Phone:    cfg.School.Phone,
			Email:    cfg.School.Email,
			Currency: cfg.School.Currency,
		},
		VerifyURL: cfg.Printing.VerifyURL,
		Logger:    log,
	})
	bulk := printingapp.NewBulkGenerator(cfg.Bulk.Delay, log)
	bulk.SetRetention(cfg.Bulk.Retention)
	bulk.SetRecorder(metrics)

	// Application services
	recordService := records.NewService(backend.Store, caches, log)
	accountsService := accountsapp.NewService(backend.Store, caches, printer, bulk, log)
	statusService := status.NewService(backend.Store, caches, log)
	reportService := reportapp.NewService(caches, cache.NewReportCache(cfg.ReportCache, cfg.Redis, log), reportapp.Config{
		TTL:         cfg.ReportCache.TTL,
		KeyPrefix:   cfg.ReportCache.KeyPrefix,
		XLSXEnabled: cfg.Export.XLSXEnabled,
		Logger:      log,
		Metrics:     metrics,
	})

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     providers.Enabled(),
	})...)
	engine.Use(
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	formats := renderers.Formats()
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	engine.GET("/health", handler.NewHealthHandler(backend.Driver, backend.Ping, names).Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(
		handler.NewRecordHandler(recordService).Routes(),
		handler.NewAccountsHandler(accountsService).Routes(),
		handler.NewReportHandler(reportService).Routes(),
		handler.NewPrintHandler(printer).Routes(),
	)
	for _, g := range handler.NewStatusHandler(statusService).Routes() {
		r.Register(g)
	}
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("api", r.Prefix()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Bulk runs are detached from requests; give them the rest of the window
	done := make(chan struct{})
	go func() {
		bulk.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn("Bulk generation still running at shutdown")
	}

	log.Info("Server exited gracefully")
}

// newPDFRenderer builds the renderer selected by printing.pdf_renderer. It
// returns a nil renderer when PDF output is disabled.
func newPDFRenderer(cfg config.PrintingConfig, html *printinfra.HTMLRenderer, log *zap.Logger) (printing.Renderer, func(), error) {
	noop := func() {}
	switch cfg.PDFRenderer {
	case "":
		log.Info("PDF rendering disabled")
		return nil, noop, nil
	case "fpdf":
		return printinfra.NewFPDFRenderer(log), noop, nil
	case "chromedp":
		r, err := printinfra.NewChromedpRenderer(html, &printinfra.ChromedpConfig{
			DefaultTimeout: cfg.RenderTimeout,
			RemoteURL:      cfg.ChromeRemoteURL,
			ExecPath:       cfg.ChromePath,
			NoSandbox:      true,
			Logger:         log,
		})
		if err != nil {
			return nil, noop, err
		}
		return r, func() {
			if err := r.Close(); err != nil {
				log.Warn("Error closing Chrome", zap.Error(err))
			}
		}, nil
	default:
		return nil, noop, fmt.Errorf("unknown pdf renderer %q", cfg.PDFRenderer)
	}
}

// newStorage opens the archive selected by printing.storage.
func newStorage(ctx context.Context, cfg config.PrintingConfig, log *zap.Logger) (printing.Storage, error) {
	switch cfg.Storage {
	case "s3":
		s3, err := storage.NewS3DocumentStorage(&cfg.S3,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.S3.PresignExpiration),
		)
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return printinfra.NewFileSystemStorage(&printinfra.FileSystemStorageConfig{
			BasePath: cfg.LocalPath,
			BaseURL:  cfg.BaseURL,
			Logger:   log,
		})
	}
}
