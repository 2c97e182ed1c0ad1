// Package platform поднимает общие зависимости storefront и scheduler:
// PostgreSQL, Redis, RabbitMQ, клиент Emby, метрики и сервис жизненного цикла.
package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/media-storefront/internal/cache"
	"github.com/magabrotheeeer/media-storefront/internal/config"
	"github.com/magabrotheeeer/media-storefront/internal/emby"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/lock"
	"github.com/magabrotheeeer/media-storefront/internal/metrics"
	"github.com/magabrotheeeer/media-storefront/internal/migrations"
	"github.com/magabrotheeeer/media-storefront/internal/plans"
	"github.com/magabrotheeeer/media-storefront/internal/rabbitmq"
	"github.com/magabrotheeeer/media-storefront/internal/services/lifecycle"
	"github.com/magabrotheeeer/media-storefront/internal/services/notification"
	"github.com/magabrotheeeer/media-storefront/internal/storage"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
	lockPrefix      = "storefront:lock"
)

// Options что именно делает Open помимо подключений.
type Options struct {
	// RunMigrations применяет миграции. Включается только у storefront.
	RunMigrations bool
	// Registerer реестр метрик, nil означает prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

type Platform struct {
	DB         *storage.Storage
	Cache      *cache.Cache
	Emby       *emby.Client
	Metrics    *metrics.Metrics
	Plans      *plans.Catalog
	Dispatcher *notification.Dispatcher
	Lifecycle  *lifecycle.Manager

	conn      *amqp.Connection
	amqpURL   string
	publisher *rabbitmq.Publisher
	log       *slog.Logger
}

// Open подключается ко всем зависимостям. При ошибке уже открытое закрывается.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger, opts Options) (_ *Platform, err error) {
	const op = "platform.Open"
	p := &Platform{log: log, Plans: plans.Default()}
	defer func() {
		if err != nil {
			p.Close()
		}
	}()

	p.DB, err = storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if opts.RunMigrations {
		var version uint
		if version, err = migrations.Run(p.DB.DB, cfg.MigrationsPath); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("migrations applied", slog.Uint64("version", uint64(version)))
	}
	// без миграций ждём, пока схему создаст storefront
	if err = waitForDB(ctx, p.DB); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.Cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.amqpURL = cfg.RabbitMQ.URL
	p.publisher, err = rabbitmq.NewPublisher(p.openChannel, rabbitmq.NotificationsExchange, rabbitmq.EmailRoutingKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.Metrics = metrics.New(opts.Registerer)
	p.Emby = emby.NewClient(cfg.Emby)
	p.Dispatcher = notification.NewDispatcher(log, p.DB, p.publisher, p.Metrics)
	p.Lifecycle = lifecycle.New(log, lifecycle.Deps{
		Repo:     p.DB,
		Media:    p.Emby,
		Notifier: p.Dispatcher,
		Locker:   lock.New(p.Cache.Db, log, lockPrefix, cfg.Sweep.LockTTL),
		Plans:    p.Plans,
		Metrics:  p.Metrics,
	}, cfg.Emby.Timeout)

	return p, nil
}

// openChannel открывает канал публикации. Разорванное соединение сначала устанавливается заново.
func (p *Platform) openChannel() (rabbitmq.Channel, error) {
	if p.conn.IsClosed() {
		p.log.Warn("rabbitmq connection lost, redialing")
		conn, err := rabbitmq.Connect(context.Background(), p.amqpURL, 1, 0)
		if err != nil {
			return nil, err
		}
		_ = p.conn.Close()
		p.conn = conn
	}
	ch, err := rabbitmq.SetupChannel(p.conn, rabbitmq.GetNotificationQueues(), 0)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// waitForDB ждёт, пока база примет соединение и в ней появятся таблицы.
func waitForDB(ctx context.Context, db *storage.Storage) error {
	var err error
	for range dbReadyAttempts {
		if err = storage.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dbReadyDelay):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// Close закрывает соединения. Безопасен для частично открытой платформы.
func (p *Platform) Close() {
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			p.log.Error("failed to close channel", sl.Err(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.log.Error("failed to close connection", sl.Err(err))
		}
	}
	if p.Cache != nil {
		if err := p.Cache.Close(); err != nil {
			p.log.Error("failed to close redis", sl.Err(err))
		}
	}
	if p.DB != nil {
		if err := p.DB.Close(); err != nil {
			p.log.Error("failed to close database", sl.Err(err))
		}
	}
}
