// Package server wires the peoplebook components together and runs the HTTP
// API until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/peoplebook/internal/logging"
	"github.com/dmitrijs2005/peoplebook/internal/server/auth"
	"github.com/dmitrijs2005/peoplebook/internal/server/config"
	"github.com/dmitrijs2005/peoplebook/internal/server/gate"
	"github.com/dmitrijs2005/peoplebook/internal/server/httpapi"
	"github.com/dmitrijs2005/peoplebook/internal/server/metrics"
	"github.com/dmitrijs2005/peoplebook/internal/server/password"
	"github.com/dmitrijs2005/peoplebook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/peoplebook/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	m := metrics.New()
	codec := auth.NewCodec([]byte(c.SecretKey), c.TokenValidityDuration, nil)
	accounts := services.NewAccountService(db, rm, password.NewHasher(c.BcryptCost), codec, m, logger)
	persons := services.NewPersonService(db, rm, logger)

	g := gate.New(gate.Config{
		HeaderName:  c.AuthHeaderName,
		Scheme:      c.AuthScheme,
		BypassPaths: c.BypassPaths,
	}, codec, accounts, m, logger)

	h := httpapi.NewHandler(accounts, persons, m.Handler(), logger)
	routes := h.Routes(g.Middleware, c.AllowedOrigin, c.AuthHeaderName)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: httpapi.NewServer(c.EndpointAddrHTTP, routes, c.ShutdownTimeout, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or the server fails, then
// closes the database pool.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server failed", "error", err)
			cancelFunc()
		}
	}()
	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
