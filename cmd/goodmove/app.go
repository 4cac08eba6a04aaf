package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/goodmove/logistics-api/internal/api"
	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
	"github.com/goodmove/logistics-api/internal/core/service"
	"github.com/goodmove/logistics-api/internal/infrastructure/config"
	"github.com/goodmove/logistics-api/internal/infrastructure/db/memory"
	mongodb "github.com/goodmove/logistics-api/internal/infrastructure/db/mongo"
	redisdb "github.com/goodmove/logistics-api/internal/infrastructure/db/redis"
	"github.com/goodmove/logistics-api/internal/infrastructure/http/handlers"
	"github.com/goodmove/logistics-api/internal/infrastructure/notify/rabbitmq"
	stripeadapter "github.com/goodmove/logistics-api/internal/infrastructure/payment/stripe"
	"github.com/goodmove/logistics-api/internal/infrastructure/queue"
)

const (
	brokerRetries = 5
	brokerDelay   = 2 * time.Second
	closeTimeout  = 5 * time.Second
)

// app owns the router and every resource opened while building it.
type app struct {
	echo    *echo.Echo
	log     zerolog.Logger
	closers []func(context.Context) error
}

type stores struct {
	users     ports.UserRepository
	referrals ports.ReferralRepository
	subs      ports.SubscriptionRepository
	loads     ports.LoadRepository
	reminders ports.ReminderRepository
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn().Err(err).Msg("resource close failed")
		}
	}
	a.closers = nil
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *app, err error) {
	a := &app{log: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()
	health := map[string]handlers.Checker{}

	st, err := a.openStore(ctx, cfg, health)
	if err != nil {
		return nil, err
	}

	var dedup ports.EventDeduplicator = memory.NewDedup(cfg.Webhook.DedupTTL)
	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return rdb.Close() })
		dedup = redisdb.NewDedupChecker(rdb, cfg.Webhook.DedupTTL)
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn().Msg("REDIS_ADDR not set, webhook deduplication is process-local")
	}

	var notifier ports.ReminderNotifier = rabbitmq.NopNotifier{}
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, brokerRetries, brokerDelay)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return conn.Close() })
		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return ch.Close() })
		notifier = rabbitmq.NewReminderNotifier(ch, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey, log)
		health["rabbitmq"] = func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}

	if cfg.Stripe.SecretKey == "" || cfg.Stripe.WebhookSecret == "" {
		log.Warn().Msg("stripe keys not fully configured, billing calls and webhooks will fail")
	}
	processor := stripeadapter.NewProcessor(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, log)

	authService := service.NewAuthService(st.users, st.referrals, cfg.JWTSecret, cfg.TokenTTL, log)
	if err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	billingService := service.NewBillingService(st.users, st.subs, processor, dedup, domain.DefaultPlanCatalog(), log)

	// Workers outlive the request that submitted an event; they stop on close.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Webhook.Workers, billingService, log)
	dispatcher.Start(workerCtx)
	a.onClose(func(context.Context) error { stopWorkers(); return nil })

	a.echo = api.NewRouter(api.Deps{
		Auth:           authService,
		Billing:        billingService,
		Loads:          service.NewLoadService(st.users, st.loads, log),
		Reminders:      service.NewReminderService(st.users, st.reminders, notifier, log),
		Admin:          service.NewAdminService(st.users, st.loads, log),
		Webhooks:       processor,
		Events:         dispatcher,
		Health:         health,
		JWTSecret:      cfg.JWTSecret,
		PublishableKey: cfg.Stripe.PublishableKey,
		Logger:         log,
	})
	return a, nil
}

func (a *app) openStore(ctx context.Context, cfg *config.Config, health map[string]handlers.Checker) (*stores, error) {
	if cfg.StoreDriver != config.StoreMongo {
		store := memory.NewStore()
		health["store"] = store.Ping
		a.log.Warn().Msg("using in-memory store, data is lost on restart")
		return &stores{
			users:     store.Users(),
			referrals: store.Referrals(),
			subs:      store.Subscriptions(),
			loads:     store.Loads(),
			reminders: store.Reminders(),
		}, nil
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	a.onClose(client.Disconnect)

	repos := mongodb.NewRepositories(db)
	if err := repos.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	health["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	return &stores{
		users:     repos.Users,
		referrals: repos.Users,
		subs:      repos.Subscriptions,
		loads:     repos.Loads,
		reminders: repos.Reminders,
	}, nil
}
