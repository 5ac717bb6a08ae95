// Command flytau runs the flight reservation API, its schema migrations and
// the event consumer.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/iliyamo/flight-reservation/internal/config"
	"github.com/iliyamo/flight-reservation/internal/database"
	"github.com/iliyamo/flight-reservation/internal/handler"
	"github.com/iliyamo/flight-reservation/internal/middleware"
	"github.com/iliyamo/flight-reservation/internal/queue"
	"github.com/iliyamo/flight-reservation/internal/repository"
	"github.com/iliyamo/flight-reservation/internal/router"
	"github.com/iliyamo/flight-reservation/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	app := &cli.App{
		Name:   "flytau",
		Usage:  "flight reservation service",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:      "migrate",
				Usage:     "apply or revert the database schema",
				ArgsUsage: "up|down",
				Action:    migrate,
			},
			{
				Name:   "consume",
				Usage:  "append domain events from RabbitMQ to logs/events.log",
				Action: consume,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("flytau stopped")
	}
}

func setup() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.Database())
	if err != nil {
		return err
	}
	defer db.Close()

	// events are optional; a nil publisher turns publishing off
	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL)
	} else {
		log.Info("RABBITMQ_URL not set, domain events are disabled")
	}
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	router.Register(e, buildDeps(cfg, db, events, rdb))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}

func buildDeps(cfg config.Config, db *sql.DB, events service.EventPublisher, rdb *redis.Client) router.Deps {
	uow := repository.NewUnitOfWork(db)
	flights := repository.NewFlightRepo(db)
	orders := repository.NewOrderRepo(db)
	airplanes := repository.NewAirplaneRepo(db)
	crew := repository.NewCrewRepo(db)
	routes := repository.NewRouteRepo(db)
	customers := repository.NewCustomerRepo(db)
	managers := repository.NewManagerRepo(db)

	popular := make([]service.PopularCandidate, 0, len(cfg.Popular()))
	for _, d := range cfg.Popular() {
		popular = append(popular, service.PopularCandidate{Code: d.Code, Name: d.Name})
	}
	codes := service.NewCodeGenerator(nil)

	catalog := service.NewCatalogService(flights, orders, airplanes, routes, popular)
	booking := service.NewBookingService(uow, events)
	cancellation := service.NewCancellationService(uow, events)
	scheduler := service.NewFlightService(uow, flights, airplanes, crew, routes, codes)
	fleet := service.NewFleetService(airplanes, crew, routes)
	reports := service.NewReportService(repository.NewReportRepo(db))
	accounts := service.NewCustomerService(uow, customers, managers, cfg.BcryptCost)

	return router.Deps{
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		DB:        db,
		Auth:      handler.NewAuthHandler(cfg, accounts, repository.NewTokenRepo(db)),
		Flights:   handler.NewFlightHandler(catalog),
		Orders:    handler.NewOrderHandler(booking, cancellation, catalog),
		Admin: &handler.AdminHandler{
			Scheduler: scheduler,
			Canceller: cancellation,
			Fleet:     fleet,
			Reports:   reports,
			Catalog:   catalog,
		},
	}
}

func migrate(c *cli.Context) error {
	dir := c.Args().First()
	if dir != "up" && dir != "down" {
		return cli.Exit("usage: flytau migrate up|down", 2)
	}
	cfg, err := setup()
	if err != nil {
		return err
	}
	opts := cfg.Database()
	opts.MultiStatements = true
	db, err := database.Open(opts)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db, dir == "up"); err != nil {
		return err
	}
	log.WithField("direction", dir).Info("migration finished")
	return nil
}

func consume(c *cli.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if cfg.RabbitURL == "" {
		return cli.Exit("RABBITMQ_URL is required for consume", 2)
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = queue.NewConsumer(cfg.RabbitURL).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
