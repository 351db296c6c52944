package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/application"
	appcart "github.com/adityaanikam/ecommerce-site-sub000/internal/application/cart"
	appinv "github.com/adityaanikam/ecommerce-site-sub000/internal/application/inventory"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/application/notification"
	apporder "github.com/adityaanikam/ecommerce-site-sub000/internal/application/order"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/config"
	domcart "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/cart"
	dominv "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/inventory"
	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/cache"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/id"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/memory"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/mysql"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/notify"
	infraobs "github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/observability"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/observability/oteltrace"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/observability/prometrics"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/observability/zaplogger"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/outbox"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/infrastructure/rabbitmq"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/pkg/logging"
	httppresentation "github.com/adityaanikam/ecommerce-site-sub000/internal/presentation/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// stores is the persistence selected by SHOP_STORE_DRIVER.
type stores struct {
	products dominv.Repository
	carts    domcart.Repository
	orders   domorder.Repository
	users    notification.UserDirectory
	close    func() error
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	base, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
	})
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(base)
	return base, nil
}

func openStores(ctx context.Context, cfg *config.Config, logger observability.Logger) (*stores, error) {
	if cfg.Store.Driver != config.StoreMySQL {
		return &stores{
			products: memory.NewInventoryRepository(),
			carts:    memory.NewCartRepository(),
			orders:   memory.NewOrderRepository(),
			users:    memory.NewUserDirectory(),
			close:    func() error { return nil },
		}, nil
	}

	db, err := mysql.Open(ctx, cfg.MySQL.DSN, mysql.PoolOptions{
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if cfg.MySQL.Migrate {
		version, err := mysql.Migrate(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("mysql_migrated", observability.F("version", version))
	}
	return &stores{
		products: mysql.NewProductRepository(db),
		carts:    mysql.NewCartRepository(db),
		orders:   mysql.NewOrderRepository(db),
		users:    mysql.NewUserDirectory(db),
		close:    db.Close,
	}, nil
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.Store.Driver != config.StoreMySQL {
		return fmt.Errorf("migrate: store driver is %q, nothing to migrate", cfg.Store.Driver)
	}
	base, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = base.Sync() }()

	db, err := mysql.Open(ctx, cfg.MySQL.DSN, mysql.PoolOptions{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := mysql.Migrate(db)
	if err != nil {
		return err
	}
	base.Info("mysql_migrated", zap.Uint("version", version))
	return nil
}

func serve(parent context.Context, cfg *config.Config) error {
	base, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = base.Sync() }()

	systemLogger := zaplogger.New(logging.WithTrace(base, logging.SystemTraceID, logging.SystemSpanID))

	shutdownTracing, err := oteltrace.InstallProvider(cfg.ServiceName, cfg.Env, cfg.Tracing.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			systemLogger.Warn("tracing_shutdown_error", observability.F("error", err.Error()))
		}
	}()

	counters, histograms := prometrics.New(prometheus.DefaultRegisterer, "").Instruments()
	tel := infraobs.New(oteltrace.New(cfg.ServiceName), zaplogger.New(base), counters, histograms)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, systemLogger)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	store := cache.New(cfg.Cache.Size, cfg.Cache.TTL, systemLogger)
	cachedProducts := cache.NewProductRepository(st.products, store)
	cachedCarts := cache.NewCartRepository(st.carts, store)
	cachedOrders := cache.NewOrderRepository(st.orders, store)
	ids := id.UUIDGenerator{}

	bus := outbox.NewBus(tel,
		outbox.WithQueueSize(cfg.Outbox.QueueSize),
		outbox.WithConcurrency(cfg.Outbox.Concurrency),
	)

	ledger := appinv.NewLedger(st.products, ids, tel,
		appinv.WithReader(cachedProducts),
		appinv.WithCache(store),
	)
	carts := appcart.NewService(st.carts, ledger, tel,
		appcart.WithReader(cachedCarts),
		appcart.WithCache(store),
		appcart.WithPricing(cfg.Pricing.Cart()),
	)
	checkout := apporder.NewCheckoutUseCase(st.orders, carts, ledger, ids, id.OrderNumberGenerator{}, bus, store, tel)
	cancel := apporder.NewCancelOrderUseCase(st.orders, ledger, bus, store, tel)
	orders := apporder.NewService(st.orders, cancel, bus, tel,
		apporder.WithReader(cachedOrders),
		apporder.WithCache(store),
	)

	sender, closeSender, err := newSender(cfg, systemLogger)
	if err != nil {
		return err
	}
	defer closeSender()
	notification.NewWorker(bus, st.users, sender, tel).Start()

	bus.Start(ctx)

	handler := httppresentation.NewHandler(httppresentation.Services{
		Carts:    carts,
		Ledger:   ledger,
		Orders:   orders,
		Checkout: checkout,
		Cancel:   cancel,
	}, zaplogger.New(base), tel, promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		systemLogger.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := bus.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("outbox stop: %w", err))
		}
		systemLogger.Info("http_server_stopped")
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		systemLogger.Error("server_exit", observability.F("error", err.Error()))
		return err
	}
	return nil
}

// newSender publishes email jobs to RabbitMQ when SHOP_AMQP_URL is set and
// only logs them otherwise.
func newSender(cfg *config.Config, logger observability.Logger) (notification.Sender, func(), error) {
	if cfg.AMQP.URL == "" {
		return notify.NewLogSender(logger), func() {}, nil
	}
	pool, err := rabbitmq.NewChannelPool(cfg.AMQP.URL, cfg.AMQP.Queue, cfg.AMQP.PoolSize, logger)
	if err != nil {
		return nil, nil, err
	}
	return rabbitmq.NewSender(pool, logger), pool.Close, nil
}

var _ application.Cache = (*cache.Store)(nil)
