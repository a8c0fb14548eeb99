package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/example/sunik/internal/addresses"
	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/auth"
	"github.com/example/sunik/internal/cart"
	"github.com/example/sunik/internal/checkout"
	"github.com/example/sunik/internal/config"
	"github.com/example/sunik/internal/content"
	"github.com/example/sunik/internal/database"
	"github.com/example/sunik/internal/events"
	"github.com/example/sunik/internal/locks"
	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/metrics"
	"github.com/example/sunik/internal/middleware"
	"github.com/example/sunik/internal/ratelimit"
	"github.com/example/sunik/internal/redisclient"
	"github.com/example/sunik/internal/routes"
	"github.com/example/sunik/internal/services"
	"github.com/example/sunik/internal/sitemap"
	"github.com/example/sunik/internal/storage"
	"github.com/example/sunik/internal/transactions"
)

const serviceName = "sunik-api"

func main() {
	bootLog := logger.New(logger.Options{ServiceName: serviceName})

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	db, err := database.Connect(ctx, cfg.DB.URL, logger.ParseLevel(cfg.App.LogLevel), logg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Redis backs the shared pieces when configured; a single instance runs
	// fine on the in-memory versions.
	var (
		limiterStore ratelimit.Store         = ratelimit.NewMemoryStore()
		wizardStore  checkout.Store          = checkout.NewMemoryStore()
		locker       locks.Locker            = locks.NewMemoryLocker()
		feed         transactions.ChangeFeed = transactions.NewMemoryFeed()
	)
	if cfg.Redis.Enabled() {
		rdb, err := redisclient.New(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		redisLocker, err := locks.NewRedisLocker(rdb)
		if err != nil {
			return err
		}
		redisFeed := transactions.NewRedisFeed(rdb, logg)
		go func() {
			if err := redisFeed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "transaction change feed stopped", err)
			}
		}()

		limiterStore = ratelimit.NewRedisStore(rdb)
		wizardStore = checkout.NewRedisStore(rdb)
		locker = redisLocker
		feed = redisFeed
		logg.Info(ctx, "redis enabled")
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled() {
		kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, logg, m)
		if err != nil {
			return err
		}
		defer kafka.Close()
		publisher = kafka
		logg.Info(ctx, "kafka events enabled")
	}

	var notifier transactions.Notifier
	if telegram := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.AdminChat, logg); telegram.Enabled() {
		notifier = telegram
	}

	var uploader checkout.ProofUploader
	if cfg.Storage.Enabled() {
		s3Uploader, err := storage.NewS3Uploader(ctx, cfg.Storage, logg)
		if err != nil {
			return err
		}
		if err := s3Uploader.EnsureBucket(ctx); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "proof bucket check failed")
		}
		uploader = s3Uploader
	}

	shipping, err := cfg.Checkout.Shipping()
	if err != nil {
		return err
	}

	txStore := transactions.NewStore(transactions.Params{
		DB:       db,
		Feed:     feed,
		Events:   publisher,
		Notifier: notifier,
		Metrics:  m,
		Logger:   logg,
		Options: transactions.Options{
			PaymentWindow:    cfg.Checkout.PaymentWindow,
			DeliveryEstimate: cfg.Checkout.DeliveryEstimate,
		},
	})
	addressSvc := addresses.NewService(db)
	cartSvc := cart.NewService(db)
	authSvc := auth.NewService(db, auth.Options{
		IdentitySecret: cfg.Auth.IdentitySecret,
		SessionSecret:  cfg.Auth.SessionSecret,
		IDTokenTTL:     cfg.Auth.IDTokenTTL,
		SessionTTL:     cfg.Auth.SessionTTL,
		AdminEmails:    cfg.Auth.AdminEmails,
	})
	checkoutSvc := checkout.NewService(checkout.Params{
		Store:        wizardStore,
		Addresses:    addressSvc,
		Cart:         cartSvc,
		Transactions: txStore,
		Uploader:     uploader,
		Locker:       locker,
		Metrics:      m,
		Logger:       logg,
		Options: checkout.Options{
			ShippingCost:     shipping,
			WizardTTL:        cfg.Checkout.WizardTTL,
			SubmitTimeout:    cfg.Checkout.Timeout,
			QRISImageURL:     cfg.Checkout.QRISImageURL,
			BankName:         cfg.Checkout.BCABank,
			BankAccount:      cfg.Checkout.BCAAccountNumber,
			BankAccountOwner: cfg.Checkout.BCAAccountHolder,
		},
	})
	contentStore := content.NewStore(db)

	expiry, err := transactions.NewExpiryJob(transactions.ExpiryJobParams{
		Store:    txStore,
		Locker:   locker,
		Logger:   logg,
		Metrics:  m,
		Interval: cfg.Sweeper.Interval,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := expiry.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "expiry job stopped", err)
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:      "Sunik Backend",
		ErrorHandler: apperrors.FiberErrorHandler(logg),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		BodyLimit:    4 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestContext(logg))
	app.Use(fiberlogger.New())

	routes.Register(app, routes.Deps{
		DB:       db,
		Config:   cfg,
		Logger:   logg,
		Metrics:  m,
		Gatherer: registry,
		Limiter: ratelimit.New(ratelimit.Policy{
			Name:   "api",
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}, limiterStore),
		Auth:         authSvc,
		Addresses:    addressSvc,
		Cart:         cartSvc,
		Checkout:     checkoutSvc,
		Transactions: txStore,
		Content:      contentStore,
		WhatsApp:     services.NewWhatsApp(cfg.WhatsApp.Number, cfg.WhatsApp.TrackURL),
		Sitemap: sitemap.New(sitemap.NewContentSource(contentStore), sitemap.Site{
			BaseURL:     cfg.App.BaseURL,
			Name:        cfg.App.SiteName,
			Description: cfg.Site.Description,
			Locale:      cfg.Site.Locale,
			ImagePath:   cfg.Site.OGImage,
			ImageAlt:    cfg.Site.OGImageAlt,
		}),
	})

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "port": cfg.App.Port}), "starting server")
		errCh <- app.Listen(":" + cfg.App.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(context.Background(), "shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
