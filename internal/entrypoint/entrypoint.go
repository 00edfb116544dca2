package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/stockcast/internal/audit"
	"github.com/mrlokans/stockcast/internal/auth"
	"github.com/mrlokans/stockcast/internal/config"
	http_controllers "github.com/mrlokans/stockcast/internal/http"
	"github.com/mrlokans/stockcast/internal/logging"
	"github.com/mrlokans/stockcast/internal/scheduler"
	"github.com/mrlokans/stockcast/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App is the assembled service: the router plus the background components
// that must be stopped on shutdown.
type App struct {
	Router *gin.Engine

	controller   *auth.AuthController
	auditService *audit.Service
	taskClient   *tasks.Client
	taskCancel   context.CancelFunc
	cleanup      *scheduler.AuditCleanupScheduler
}

// Build wires the auth service, audit trail, task queue and scheduler on
// top of storage.
func Build(ctx context.Context, cfg *config.Config, version string, storage *Storage, logger logging.Logger) (*App, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		generated, err := auth.GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
		secret = generated
		log.Printf("WARNING: AUTH_JWT_SECRET is not set. Generated a random secret, sessions will not survive a restart.")
	}

	codec, err := auth.NewTokenCodec([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("invalid token configuration: %w", err)
	}

	service := auth.NewService(storage.Users, auth.NewBcryptHasher(cfg.Auth.BcryptCost), codec, logger)
	limiter := auth.NewRateLimiter(auth.RateLimitConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		WindowDuration:  cfg.Auth.RateLimitWindow,
		LockoutDuration: cfg.Auth.LockoutDuration,
	})

	app := &App{}

	// A typed nil must not reach the controller as a non-nil interface.
	var auditor auth.AuditLogger
	if cfg.Audit.Enabled {
		app.auditService = audit.NewService(storage.Audit, logger)
		auditor = app.auditService

		var enqueuer scheduler.CleanupEnqueuer = scheduler.InlineCleanup{Cleaner: app.auditService, Logger: logger}
		if cfg.Tasks.Enabled {
			taskClient, err := tasks.NewClient(cfg.Tasks.DatabasePath, tasks.Config{
				Workers:         cfg.Tasks.Workers,
				ReleaseAfter:    cfg.Tasks.ReleaseAfter,
				CleanupInterval: cfg.Tasks.CleanupInterval,
			}, logger)
			if err != nil {
				limiter.Stop()
				return nil, fmt.Errorf("failed to initialize task queue: %w", err)
			}
			taskClient.Register(tasks.NewCleanupAuditEventsQueue(app.auditService, logger))

			var taskCtx context.Context
			taskCtx, app.taskCancel = context.WithCancel(context.Background())
			go taskClient.Start(taskCtx)

			app.taskClient = taskClient
			enqueuer = taskClient
		}

		app.cleanup = scheduler.NewAuditCleanupScheduler(enqueuer, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays, logger)
		if err := app.cleanup.Start(ctx); err != nil {
			app.Shutdown(ctx)
			limiter.Stop()
			return nil, err
		}
	}

	app.controller = auth.NewAuthController(
		service,
		auth.NewCookieTransport(cfg.IsProduction(), auth.DefaultTokenTTL),
		limiter,
		auditor,
		logger,
	)

	app.Router = http_controllers.NewRouter(http_controllers.RouterConfig{
		AuthController: app.controller,
		Database:       storage.Pinger,
		Version:        version,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableHSTS:     cfg.IsProduction(),
	})

	return app, nil
}

// Shutdown stops background work in reverse order of startup.
func (a *App) Shutdown(ctx context.Context) {
	if a.cleanup != nil {
		a.cleanup.Stop()
	}
	if a.taskClient != nil {
		a.taskClient.Stop(ctx)
		a.taskCancel()
		if err := a.taskClient.Close(); err != nil {
			log.Printf("Error closing task client: %v", err)
		}
	}
	if a.controller != nil {
		a.controller.Stop()
	}
	if a.auditService != nil {
		a.auditService.Wait()
	}
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Drain in-flight requests before stopping the workers they may enqueue to.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting stockcast v%s", version)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		log.Printf("Running in development mode: session cookies are not marked Secure")
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := OpenStorage(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	app, err := Build(ctx, cfg, version, storage, logger)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	Serve(app.Router, cfg, app.Shutdown)
}
