package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/feed"
	httpapi "storefront/internal/http"
	"storefront/internal/messaging"
	"storefront/internal/messaging/kafka"
	"storefront/internal/repository"
	"storefront/internal/repository/postgres"
	"storefront/internal/seed"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/whatsapp"

	_ "storefront/docs"
)

// @title Storefront API
// @version 1.0
// @description Catalog, cart, WhatsApp checkout and order administration.
// @BasePath /api/v1
func main() {
	app := &cli.App{
		Name:   "storefront",
		Usage:  "online shop that closes orders over WhatsApp",
		Flags:  config.Flags(),
		Action: serve,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP server (default)", Action: serve},
			{Name: "migrate", Usage: "create the postgres schema", Action: migrate},
			{Name: "seed", Usage: "load the seed catalog into an empty store", Action: seedCatalog},
		},
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error("Fatal error", "err", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.FromContext(c)
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(config.NewLogger(os.Stdout, cfg.LogLevel))
	return cfg, nil
}

type storage struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	tx       repository.TxManager
	close    func() error
}

func openStorage(ctx context.Context, cfg config.Config) (*storage, error) {
	if cfg.Storage == config.StorageMemory {
		store := repository.NewMemoryStore()
		return &storage{
			products: store,
			orders:   repository.NewMemoryOrders(store),
			users:    repository.NewMemoryUsers(store),
			tx:       repository.NewMemoryTx(store),
			close:    func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to postgres")
	return &storage{
		products: postgres.NewProductRepository(db),
		orders:   postgres.NewOrderRepository(db),
		users:    postgres.NewUserRepository(db),
		tx:       postgres.NewTxManager(db),
		close:    db.Close,
	}, nil
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Storage != config.StoragePostgres {
		return fmt.Errorf("migrate needs --storage %s", config.StoragePostgres)
	}
	// Open applies the schema.
	st, err := openStorage(c.Context, cfg)
	if err != nil {
		return err
	}
	defer st.close()
	slog.Info("Schema is up to date")
	return nil
}

func seedCatalog(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	st, err := openStorage(c.Context, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	n, err := applySeed(c.Context, cfg, st)
	if err != nil {
		return err
	}
	if n == 0 {
		slog.Info("Catalog already has products, nothing seeded")
	}
	return nil
}

func applySeed(ctx context.Context, cfg config.Config, st *storage) (int, error) {
	products, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return 0, err
	}
	return seed.Apply(ctx, st.products, st.tx, products)
}

func openSessions(cfg config.Config) (session.Store, func() error, error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(cfg.SessionTTL), func() error { return nil }, nil
	}
	rs, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Sessions stored in redis")
	return rs, rs.Close, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	if _, err := applySeed(ctx, cfg, st); err != nil {
		return err
	}
	cat := catalog.New(st.products)
	if err := cat.Refresh(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	sessions, closeSessions, err := openSessions(cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	var (
		publisher  messaging.Publisher
		subscriber messaging.Subscriber
		local      *messaging.LocalBus
	)
	if len(cfg.KafkaBrokers) > 0 {
		broker := kafka.NewBroker(cfg.KafkaBrokers)
		defer broker.Close()
		publisher, subscriber = broker, broker
	} else {
		local = messaging.NewLocalBus()
		publisher = local
	}
	events := service.NewEventPublisher(publisher, cfg.KafkaTopic)

	builder, err := whatsapp.NewBuilder(cfg.SellerWhatsApp)
	if err != nil {
		return err
	}
	authSvc := auth.NewService(st.users, cfg.AdminEmails)

	productSvc := service.NewProductService(st.products, cat, events)
	checkoutSvc := service.NewCheckoutService(st.orders, cat, builder, authSvc, sessions, events)
	orderSvc := service.NewOrderService(st.products, st.orders, st.tx, cat, events)
	accountSvc := service.NewAccountService(authSvc, sessions, checkoutSvc)

	orderFeed := feed.New(orderSvc)
	defer orderFeed.Close()
	handler := service.NewOrderEventHandler(orderFeed, cat)

	if local != nil {
		defer local.Subscribe(cfg.KafkaTopic, handler)()
	} else {
		group := cfg.KafkaGroup
		if group == "" {
			group = "storefront-" + uuid.NewString()
		}
		go subscriber.Consume(ctx, cfg.KafkaTopic, group, handler)
		slog.Info("Consuming order events", "topic", cfg.KafkaTopic, "group", group)
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Catalog:       cat,
		Products:      productSvc,
		Carts:         service.NewCartService(cat, sessions),
		Checkout:      checkoutSvc,
		Orders:        orderSvc,
		Accounts:      accountSvc,
		Sessions:      sessions,
		Feed:          orderFeed,
		SecureCookies: cfg.SecureCookies,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr, "storage", cfg.Storage)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("Shutting down")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown error", "err", err)
	}
	return nil
}
