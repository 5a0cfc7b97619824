package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/go-chi/chi"
	"github.com/go-chi/docgen"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/sksmith/bunnyq"
	"github.com/sksmith/go-commerce/api"
	"github.com/sksmith/go-commerce/config"
	"github.com/sksmith/go-commerce/core/cart"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/core/order"
	"github.com/sksmith/go-commerce/core/user"
	"github.com/sksmith/go-commerce/db"
	"github.com/sksmith/go-commerce/db/cartrepo"
	"github.com/sksmith/go-commerce/db/invrepo"
	"github.com/sksmith/go-commerce/db/memdb"
	"github.com/sksmith/go-commerce/db/orderrepo"
	"github.com/sksmith/go-commerce/db/usrrepo"
	"github.com/sksmith/go-commerce/internal/tracing"
	"github.com/sksmith/go-commerce/queue"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

type repositories struct {
	inventory inventory.Repository
	carts     cart.Repository
	orders    order.Repository
	users     user.Repository
}

type eventQueue interface {
	inventory.Queue
	order.Queue
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flag.Parse()
	cfg := config.Load("config")

	configLogging(cfg)
	printLogHeader(cfg)
	cfg.Print()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Stack().Err(err).Msg("shutting down")
	}
	log.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTracing, err := tracing.Init(ctx, cfg.AppName.Value, cfg.AppVersion.Value, cfg.Tracing.Endpoint.Value, cfg.Tracing.Enabled.Value)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	repos, closeRepos, err := configRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepos()

	var bq *bunnyq.BunnyQ
	if !cfg.RabbitMQ.Mock.Value {
		log.Info().Msg("connecting to rabbitmq...")
		bq = rabbit(ctx, cfg)
	}
	q := configEventQueue(bq, cfg)

	a := newApp(ctx, cfg, repos, q)

	srv := &http.Server{
		Addr:              ":" + cfg.Port.Value,
		Handler:           otelhttp.NewHandler(a.router, "commerce"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port.Value).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.WithStack(err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.WithStack(srv.Shutdown(shutdownCtx))
	})

	if bq != nil {
		g.Go(func() error {
			log.Info().Msg("consuming products...")
			pq := queue.NewProductQueue(bq, cfg.RabbitMQ.Product.Queue.Value, cfg.RabbitMQ.Product.Dlt.Exchange.Value)
			pq.ConsumeProducts(gctx, a.inventory)
			return nil
		})
	}

	return g.Wait()
}

type app struct {
	inventory *inventory.Service
	carts     *cart.Service
	orders    *order.Service
	users     *user.Service
	router    chi.Router
}

func newApp(ctx context.Context, cfg *config.Config, repos repositories, q eventQueue) *app {
	a := &app{}

	log.Info().Msg("creating inventory service...")
	a.inventory = inventory.NewService(repos.inventory, q)

	log.Info().Msg("creating cart service...")
	a.carts = cart.NewService(repos.carts, a.inventory)

	log.Info().Msg("creating order service...")
	a.orders = order.NewService(repos.orders, repos.carts, repos.inventory, a.inventory, q)

	log.Info().Msg("creating user service...")
	a.users = user.NewService(repos.users)

	if cfg.Db.InMemory.Value {
		seedAdmin(ctx, cfg, a.users)
	}

	log.Info().Msg("configuring router...")
	a.router = api.ConfigureRouter(cfg, api.Services{
		Inventory: a.inventory,
		Carts:     a.carts,
		Orders:    a.orders,
		Users:     a.users,
	})
	if cfg.Config.Routes.Value {
		printRoutes(a.router)
	}

	return a
}

func configRepositories(ctx context.Context, cfg *config.Config) (repositories, func(), error) {
	if cfg.Db.InMemory.Value {
		log.Info().Msg("using the in memory store")
		store := memdb.New()
		return repositories{
			inventory: store,
			carts:     store,
			orders:    store,
			users:     store.Users(),
		}, func() {}, nil
	}

	pool, err := db.ConnectDb(ctx, cfg)
	if err != nil {
		return repositories{}, nil, err
	}

	return repositories{
		inventory: invrepo.NewPostgresRepo(pool),
		carts:     cartrepo.NewPostgresRepo(pool),
		orders:    orderrepo.NewPostgresRepo(pool),
		users:     usrrepo.NewPostgresRepo(pool),
	}, pool.Close, nil
}

func configEventQueue(bq *bunnyq.BunnyQ, cfg *config.Config) eventQueue {
	if bq == nil {
		log.Info().Msg("creating mock queue...")
		return queue.NewMockQueue()
	}
	return queue.New(bq, cfg.RabbitMQ.Inventory.Exchange.Value, cfg.RabbitMQ.Order.Exchange.Value)
}

func seedAdmin(ctx context.Context, cfg *config.Config, users *user.Service) {
	if cfg.Admin.Pass.Value == "" {
		return
	}
	_, err := users.Create(ctx, user.CreateUserRequest{
		Username:          cfg.Admin.User.Value,
		Email:             cfg.Admin.Email.Value,
		IsAdmin:           true,
		PlainTextPassword: cfg.Admin.Pass.Value,
	})
	if err != nil {
		log.Warn().Err(err).Str("username", cfg.Admin.User.Value).Msg("failed to seed admin user")
		return
	}
	log.Info().Str("username", cfg.Admin.User.Value).Msg("seeded admin user")
}

func rabbit(ctx context.Context, cfg *config.Config) *bunnyq.BunnyQ {
	osChannel := make(chan os.Signal, 1)
	signal.Notify(osChannel, syscall.SIGTERM)

	return bunnyq.New(ctx,
		bunnyq.Address{
			User: cfg.RabbitMQ.User.Value,
			Pass: cfg.RabbitMQ.Pass.Value,
			Host: cfg.RabbitMQ.Host.Value,
			Port: cfg.RabbitMQ.Port.Value,
		},
		osChannel,
		bunnyq.LogHandler(logger{}),
	)
}

type logger struct {
}

func (l logger) Log(_ context.Context, level bunnyq.LogLevel, msg string, data map[string]interface{}) {
	var evt *zerolog.Event
	switch level {
	case bunnyq.LogLevelTrace:
		evt = log.Trace()
	case bunnyq.LogLevelDebug:
		evt = log.Debug()
	case bunnyq.LogLevelInfo:
		evt = log.Info()
	case bunnyq.LogLevelWarn:
		evt = log.Warn()
	case bunnyq.LogLevelError:
		evt = log.Error()
	default:
		evt = log.Info()
	}

	for k, v := range data {
		evt.Interface(k, v)
	}

	evt.Msg(msg)
}

func printRoutes(r chi.Routes) {
	docgen.PrintRoutes(r)
}

func printLogHeader(cfg *config.Config) {
	if cfg.Log.Structured.Value {
		log.Info().Str("application", cfg.AppName.Value).
			Str("revision", cfg.Revision.Value).
			Str("version", cfg.AppVersion.Value).
			Str("sha1ver", cfg.Sha1Version.Value).
			Str("build-time", cfg.BuildTime.Value).
			Str("profile", cfg.Profile.Value).
			Str("config-source", cfg.Config.Source.Value).
			Str("config-branch", cfg.Config.Spring.Branch.Value).
			Send()
	} else {
		f := figure.NewFigure(cfg.AppName.Value, "", true)
		f.Print()

		log.Info().Msg("=============================================")
		log.Info().Msg(fmt.Sprintf("       Revision: %s", cfg.Revision.Value))
		log.Info().Msg(fmt.Sprintf("        Profile: %s", cfg.Profile.Value))
		log.Info().Msg(fmt.Sprintf("  Config Server: %s - %s", cfg.Config.Source.Value, cfg.Config.Spring.Branch.Value))
		log.Info().Msg(fmt.Sprintf("    Tag Version: %s", cfg.AppVersion.Value))
		log.Info().Msg(fmt.Sprintf("   Sha1 Version: %s", cfg.Sha1Version.Value))
		log.Info().Msg(fmt.Sprintf("     Build Time: %s", cfg.BuildTime.Value))
		log.Info().Msg("=============================================")
	}
}

func configLogging(cfg *config.Config) {
	log.Info().Msg("configuring logging...")

	if !cfg.Log.Structured.Value {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(cfg.Log.Level.Value)
	if err != nil {
		log.Warn().Str("loglevel", cfg.Log.Level.Value).Err(err).Msg("defaulting to info")
		level = zerolog.InfoLevel
	}
	log.Info().Str("loglevel", level.String()).Msg("setting log level")
	zerolog.SetGlobalLevel(level)
}
