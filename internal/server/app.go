// Package server wires configuration, storage, the session flow controller
// and both transports, and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/marketauth/internal/dbx"
	"github.com/dmitrijs2005/marketauth/internal/logging"
	"github.com/dmitrijs2005/marketauth/internal/server/auth"
	"github.com/dmitrijs2005/marketauth/internal/server/config"
	"github.com/dmitrijs2005/marketauth/internal/server/metrics"
	"github.com/dmitrijs2005/marketauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/marketauth/internal/server/rest"
	"github.com/dmitrijs2005/marketauth/internal/server/services"

	gs "github.com/dmitrijs2005/marketauth/internal/server/grpc"
)

const pingTimeout = 2 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	signer      *auth.Signer
	metrics     *metrics.Metrics
	userService *services.UserService
}

// NewApp validates c, opens the database and applies migrations.
func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logOut, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN, pingTimeout)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app, err := newApp(c, logger, db, rm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	signer, err := auth.NewSigner(c.SecretKey, c.Algorithm, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("signer init error: %w", err)
	}

	m := metrics.New()
	us := services.NewUserService(db, rm, auth.NewBcryptHasher(c.BcryptCost), signer, services.WithObserver(m))

	return &App{config: c, logger: logger, db: db, signer: signer, metrics: m, userService: us}, nil
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

func (app *App) httpServer() *rest.Server {
	return rest.NewServer(app.config.HTTPAddr, app.logger, app.userService,
		rest.WithRequestObserver(app.metrics),
		rest.WithMetricsHandler(app.metrics.Handler()),
		rest.WithReadiness(func(ctx context.Context) error {
			return dbx.Ping(ctx, app.db, pingTimeout)
		}),
	)
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer().Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.userService, app.signer)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a signal arrives or ctx is cancelled, or until either
// server fails, then closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	// an empty address disables that transport
	if app.config.HTTPAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHTTPServer(ctx, cancelFunc)
		}()
	}
	if app.config.GRPCAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
	app.logger.Info(ctx, "App stopped")
}
