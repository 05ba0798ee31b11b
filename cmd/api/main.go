package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xavierca1/door-leads/internal/config"
	"github.com/xavierca1/door-leads/internal/entity"
	"github.com/xavierca1/door-leads/internal/infra/database"
	"github.com/xavierca1/door-leads/internal/infra/docstore"
	"github.com/xavierca1/door-leads/internal/infra/http/handlers"
	"github.com/xavierca1/door-leads/internal/infra/http/middleware"
	"github.com/xavierca1/door-leads/internal/infra/logger"
	"github.com/xavierca1/door-leads/internal/infra/mail"
	"github.com/xavierca1/door-leads/internal/infra/memory"
	"github.com/xavierca1/door-leads/internal/infra/queue"
	"github.com/xavierca1/door-leads/internal/usecase"
)

const version = "1.0.0"

var diagnosticEnv = []string{
	"APP_ENV", "HTTP_ADDR", "STORE_DRIVER", "MONGO_URI", "MONGO_DATABASE",
	"DATABASE_URL", "STORE_TIMEOUT", "AMQP_URL", "MAIL_HOST", "MAIL_PORT",
	"MAIL_USER", "MAIL_PASS", "MAIL_FROM", "NOTIFY_EMAIL_TO",
	"CORS_ALLOWED_ORIGINS", "INTAKE_RATE_PER_MINUTE", "LOG_LEVEL",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{Env: "production"}).Fatal().Err(err).Msg("load config")
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Driver do store (postgres, mongo ou memória)
	repo, closeRepo, err := openRepository(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("open lead store")
	}
	defer closeRepo()

	store := usecase.NewLeadStore(repo, cfg.Store.Timeout)

	// 2. Eventos e notificações (opcional)
	var (
		rabbit    *queue.RabbitMQ
		publisher usecase.LeadEventPublisher
	)
	if cfg.Queue.AMQPURL != "" {
		rabbit, err = queue.NewRabbitMQ(cfg.Queue.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect rabbitmq")
		}
		defer rabbit.Close()
		publisher = queue.NewProducer(rabbit.Ch)

		if cfg.Mail.Enabled() {
			sender := mail.NewEmailSender(
				cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password,
				cfg.Mail.From, cfg.Mail.NotifyTo,
			)
			worker := queue.NewWorker(rabbit.Ch, sender, log)
			go func() {
				if err := worker.Start(ctx, queue.QueueName); err != nil {
					log.Error().Err(err).Msg("lead worker stopped")
				}
			}()
		} else {
			log.Warn().Msg("MAIL_HOST not set, lead notifications disabled")
		}
	} else {
		log.Warn().Msg("AMQP_URL not set, lead events disabled")
	}

	// 3. Handlers e rate limit do intake
	captureUC := usecase.NewCaptureLeadUseCase(store, publisher, log)

	var broker handlers.BrokerStatus
	if rabbit != nil {
		broker = rabbit
	}

	limiter := middleware.PerMinute(cfg.Intake.RatePerMinute, log)
	go limiter.Run(ctx) // limpa IPs ociosos até o shutdown

	deps := routerDeps{
		Log:            log,
		AllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		Intake:         handlers.NewLeadHandler(captureUC, log),
		Admin:          handlers.NewLeadAdminHandler(store, log),
		Health:         handlers.NewHealthHandler(store, broker, version),
		IntakeLimiter:  limiter,
	}
	if !cfg.App.IsProduction() {
		deps.Diagnostics = handlers.NewDiagnosticsHandler(diagnosticEnv...)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("driver", cfg.Store.Driver).Msg("door-leads api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}

func openRepository(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (entity.LeadRepository, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := database.NewDBConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return database.NewLeadRepository(db), func() { _ = db.Close() }, nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory lead store, data is lost on restart")
		return memory.NewLeadRepository(), func() {}, nil

	default:
		client, err := docstore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repo := docstore.NewLeadRepository(client, cfg.MongoDatabase)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("ensure lead indexes")
		}
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil
	}
}
