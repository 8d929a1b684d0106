// Package server wires configuration, storage, authentication and the HTTP
// API together and runs them until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gallery/internal/logging"
	"github.com/dmitrijs2005/gallery/internal/server/auth"
	"github.com/dmitrijs2005/gallery/internal/server/config"
	"github.com/dmitrijs2005/gallery/internal/server/metrics"
	"github.com/dmitrijs2005/gallery/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gallery/internal/server/rest"
	"github.com/dmitrijs2005/gallery/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	userService *services.UserService
	httpServer  *rest.HTTPServer
}

// NewApp builds every dependency described by c. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.NewJSONLogger(w, c.LogLevel)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger}

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}

	hasher, err := auth.NewBcryptHasher(c.BcryptCost, c.HashConcurrency)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	tokens, err := auth.NewTokenService([]byte(c.SecretKey), c.TokenValidityDuration)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("token service: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	app.userService = services.NewUserService(app.db, app.repomanager, hasher, tokens, m, logger)
	app.httpServer = rest.NewHTTPServer(c.EndpointAddrHTTP, logger, app.userService, tokens, m, rest.Options{
		RequestTimeout:  c.RequestTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
	})

	return app, nil
}

func (app *App) initStore(ctx context.Context) error {
	if app.config.UseMemoryStore() {
		app.logger.Warn(ctx, "using in-memory user store, data is lost on restart")
		app.repomanager = repomanager.NewMemoryRepositoryManager()
		return nil
	}

	db, err := openDB(app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("db ping: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return err
	}

	app.db = db
	app.repomanager = rm
	return nil
}

// Close releases the database handle, if any.
func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM/SIGQUIT arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "profile", app.config.Profile)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.httpServer.Run(ctx)
	})

	err := g.Wait()
	if cerr := app.Close(); cerr != nil {
		app.logger.Error(context.Background(), "closing database", "error", cerr)
	}
	if err != nil {
		app.logger.Error(context.Background(), "app stopped with error", "error", err)
		return err
	}

	app.logger.Info(context.Background(), "App stopped")
	return nil
}

// Main loads configuration and runs the server. It returns the process exit
// code.
func Main(ctx context.Context, stderr io.Writer) int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	app, err := NewApp(ctx, cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := app.Run(ctx); err != nil {
		return 1
	}
	return 0
}
