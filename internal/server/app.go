// Package server initializes and runs the TokenVault server: it validates
// configuration, opens the database and runs migrations, wires the services
// behind the HTTP endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/tokenvault/internal/cryptox"
	"github.com/dmitrijs2005/tokenvault/internal/logging"
	"github.com/dmitrijs2005/tokenvault/internal/server/audit"
	"github.com/dmitrijs2005/tokenvault/internal/server/config"
	"github.com/dmitrijs2005/tokenvault/internal/server/httpapi"
	"github.com/dmitrijs2005/tokenvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tokenvault/internal/server/services"
)

// shutdownTimeout bounds how long in-flight requests may finish during
// graceful shutdown.
const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	manager  repomanager.RepositoryManager
	handler  *httpapi.Handler
	archiver *audit.Archiver
}

// NewApp wires the application from configuration. It refuses to construct
// an app with incomplete or insecure configuration.
func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	key, err := cryptox.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	envelope, err := cryptox.NewEnvelope(key)
	if err != nil {
		return nil, err
	}

	manager := repomanager.NewPostgresRepositoryManager()
	recorder := audit.NewRecorder(db, manager, logger)
	userService := services.NewUserService(db, manager, cfg)
	tokenService := services.NewTokenService(db, manager, envelope, recorder, cfg)
	handler := httpapi.NewHandler(userService, tokenService, []byte(cfg.SessionSecret), logger)

	var archiver *audit.Archiver
	if cfg.ArchiverEnabled() {
		archiver = audit.NewArchiver(db, manager, cfg, logger)
	}

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		manager:  manager,
		handler:  handler,
		archiver: archiver,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.handler.RegisterRoutes(router)

	srv := &http.Server{Addr: app.config.EndpointAddr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "address", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server error", "error", err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.manager.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migration error", "error", err.Error())
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.archiver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.archiver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				app.logger.Error(ctx, "archiver error", "error", err.Error())
			}
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
