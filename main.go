package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"api_pos/api"
	"api_pos/internal/bridge"
	"api_pos/internal/cache"
	"api_pos/internal/config"
	"api_pos/internal/database"
	"api_pos/internal/events"
	"api_pos/internal/products"
	"api_pos/internal/purchases"
	"api_pos/internal/sales"
	"api_pos/internal/users"
)

func main() {
	app := &cli.App{
		Name:  "api_pos",
		Usage: "point of sale command bridge",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				Usage:   "path to the JSON config file",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create the tables of the configured database",
				Action: migrate,
			},
			{
				Name:  "useradd",
				Usage: "create a login user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "login name (DNI)"},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "role", Value: users.RoleSeller, Usage: "admin or vendedor"},
				},
				Action: useradd,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config, builds the logger and opens the database.
func setup(c *cli.Context) (*config.Config, *zap.Logger, *sql.DB, error) {
	cfg, err := config.InitConfig(c.String("config"))
	if err != nil {
		return nil, nil, nil, err
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid log-level %q: %w", cfg.LogLevel, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not build logger: %w", err)
	}

	db, err := database.Open(c.Context, cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}

func serve(c *cli.Context) error {
	cfg, logger, db, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer db.Close()

	publisher, err := events.New(cfg.AMQPURL, cfg.EventsExchange)
	if err != nil {
		return err
	}
	defer publisher.Close()

	prods := products.NewService(products.NewSQLStorage(db), cache.New(cfg.RedisAddress, "pos"), cfg.CacheTTL, logger)
	b := bridge.New(
		prods,
		sales.NewService(sales.NewSQLStorage(db), prods, publisher, cfg.TaxRate, logger),
		purchases.NewService(purchases.NewSQLStorage(db), prods, publisher, logger),
		users.NewService(users.NewSQLStorage(db), logger),
		logger,
	)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	api.InitRoutes(r, b, logger)

	srv := &http.Server{Addr: cfg.Address, Handler: r}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("address", cfg.Address), zap.String("db_driver", cfg.DBDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error trying to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func migrate(c *cli.Context) error {
	cfg, logger, db, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer db.Close()

	if err := database.ApplySchema(c.Context, db, cfg.DBDriver); err != nil {
		return err
	}
	logger.Info("schema applied", zap.String("db_driver", cfg.DBDriver))
	return nil
}

func useradd(c *cli.Context) error {
	_, logger, db, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer db.Close()

	u, err := users.NewService(users.NewSQLStorage(db), logger).
		Register(c.Context, c.String("name"), c.String("password"), c.String("role"))
	if err != nil {
		return err
	}
	logger.Info("user created", zap.Int64("id", u.ID), zap.String("name", u.Name), zap.String("role", u.Role))
	return nil
}
