package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opsboard-services/internal/config"
	"opsboard-services/internal/db"
	httpapi "opsboard-services/internal/http"
	"opsboard-services/internal/http/handlers"
	"opsboard-services/internal/logger"
	"opsboard-services/internal/mailer"
	"opsboard-services/internal/metrics"
	"opsboard-services/internal/outbox"
	"opsboard-services/internal/queue"
	"opsboard-services/internal/realtime"
	"opsboard-services/internal/services"
	"opsboard-services/internal/storage"
	"opsboard-services/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var st store.Store
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		st = store.NewPostgres(pool, log)
	default:
		log.Warn("using in-memory store; data is lost on restart")
		st = store.NewMemory()
	}
	defer st.Close()

	svc := services.New(st, log, m)
	svc.ReportMaxRangeDays = cfg.ReportMaxRangeDays
	svc.Currency = cfg.ReportCurrency

	if cfg.ObjectStoreConfigured() {
		archive, err := storage.NewReportArchive(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
			StorageClass:    cfg.ObjectStoreStorageClass,
		})
		if err != nil {
			log.Fatal("object store init failed", zap.Error(err))
		}
		svc.Archive = archive
	} else {
		log.Info("report archive disabled (object store not configured)")
	}

	var mail mailer.Sender
	if cfg.MailProviderURL != "" {
		httpMailer, err := mailer.NewHTTP(mailer.Config{
			Endpoint: cfg.MailProviderURL,
			APIKey:   cfg.MailProviderAPIKey,
			From:     cfg.MailFrom,
		}, log, m)
		if err != nil {
			log.Fatal("mailer init failed", zap.Error(err))
		}
		mail = httpMailer
	} else {
		log.Info("mail provider not configured; emails are logged only")
		mail = mailer.NewLog(log, m)
	}
	svc.Mailer = mail

	notifier := queue.NewNotifier(mail, log)

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; events are handled in-process", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := queue.EnsureTopology(qc); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq topology failed; events are handled in-process", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}
		queueClient = qc
		if queueClient != nil {
			defer queueClient.Close()
			log.Info("rabbitmq enabled", zap.String("queue", queue.NotificationsQueue))
		}
	} else {
		log.Info("rabbitmq disabled (RABBITMQ_URL is empty)")
	}

	var publisher outbox.Publisher = outbox.LocalPublisher{Handler: notifier.Process}
	if queueClient != nil {
		publisher = outbox.QueuePublisher{Client: queueClient}
	}
	relay := outbox.NewRelay(st, publisher, log, m, cfg.OutboxPollInterval, int(cfg.OutboxBatchSize))
	hub := realtime.NewHub(st, log, m, cfg.JWTSecret, cfg.WSHeartbeatInterval)

	h := &handlers.Handler{Service: svc, Mailer: mail, Logger: log, Config: cfg}
	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(h, log, cfg, m, hub),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		return hub.Run(gctx)
	})
	if queueClient != nil {
		if cfg.RabbitMQWorkerMode == "daemon" {
			log.Info("notification worker enabled", zap.String("mode", "daemon"))
			g.Go(func() error {
				err := queueClient.ConsumeWithRetry(gctx, queue.NotificationsQueue, notifier.Process, queue.MaxRetries, queue.RetryDelay)
				if err != nil && gctx.Err() == nil {
					log.Error("consumer stopped", zap.Error(err))
				}
				return nil
			})
		} else {
			log.Info("notification worker disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
		}
	}

	g.Go(func() error {
		log.Info("opsboard api ready", zap.String("base", "/api"))
		log.Info("opsboard ws ready", zap.String("base", "/ws"))
		log.Info("opsboard service listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return apiServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("service stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
