// Package sender приложение доставки писем: читает очередь RabbitMQ и отправляет письма по SMTP.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/media-storefront/internal/config"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/lib/smtp"
	"github.com/magabrotheeeer/media-storefront/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/media-storefront/internal/services/sender"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	concurrency   int
	logger        *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues(), cfg.RabbitMQ.Prefetch)
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			logger.Error("failed to close connection", sl.Err(cerr))
		}
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewSenderService(logger, transport),
		concurrency:   cfg.RabbitMQ.Prefetch,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	wait, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.EmailQueue, a.concurrency, a.senderService.HandleMessage)
	if err != nil {
		a.logger.Error("failed to start email consumer", slog.String("queue", rabbitmq.EmailQueue), sl.Err(err))
		a.close()
		return err
	}
	a.logger.Info("email consumer started", slog.String("queue", rabbitmq.EmailQueue))

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")
	wait()
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
