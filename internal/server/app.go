// Package server initializes and runs the auth server application: it wires
// configuration, the database, migrations, the credential signer, the session
// service, and the HTTP API, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/avetrovs/folioauth/internal/logging"
	"github.com/avetrovs/folioauth/internal/server/auth"
	"github.com/avetrovs/folioauth/internal/server/config"
	"github.com/avetrovs/folioauth/internal/server/httpapi"
	"github.com/avetrovs/folioauth/internal/server/repositories/repomanager"
	"github.com/avetrovs/folioauth/internal/server/services"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(pingCtx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	signer, err := auth.NewSigner([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration, cfg.Issuer, cfg.Audience)
	if err != nil {
		return nil, fmt.Errorf("signer init error: %w", err)
	}

	if cfg.SecretKey == config.InsecureDevSecretKey {
		logger.Warn(context.Background(), "running with the built-in development signing key; set FOLIOAUTH_SECRET_KEY before deploying")
	}

	sessions := services.NewSessionService(db, m, signer, cfg, logger)
	httpServer := httpapi.NewServer(cfg.EndpointAddr, sessions, signer, logger)

	return &App{config: cfg, logger: logger, db: db, httpServer: httpServer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server error", "err", err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "err", err.Error())
	}

	app.logger.Info(ctx, "app stopped")
}
