package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
)

// ErrMalformed обработчик возвращает её для сообщений, которые не удастся обработать никогда.
// Такие сообщения отклоняются без возврата в очередь.
var ErrMalformed = errors.New("malformed message")

// ConsumerMessage создает потребителя сообщений из очереди RabbitMQ.
// Не более concurrency обработчиков работают одновременно. Возвращённая функция
// ждёт завершения запущенных обработчиков после отмены ctx.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string,
	concurrency int, handler func(context.Context, []byte) error) (func(), error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return dispatch(ctx, log, delivery, concurrency, handler), nil
}

// dispatch раздаёт доставки обработчикам, пока ctx не отменён или канал не закрыт.
// Возвращённая функция ждёт выхода из цикла и завершения всех начатых обработчиков.
func dispatch(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery,
	concurrency int, handler func(context.Context, []byte) error) func() {
	if concurrency < 1 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)
	// цикл держит единицу счётчика до выхода, Add обработчиков идёт при ненулевом счётчике
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-delivery:
				if !ok {
					return
				}
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					if err := d.Nack(false, true); err != nil {
						log.Error("failed to requeue message on shutdown", sl.Err(err))
					}
					return
				}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer func() {
						<-sem
						wg.Done()
					}()
					settle(ctx, log, d, handler(ctx, d.Body))
				}(d)
			}
		}
	}()
	return wg.Wait
}

func settle(ctx context.Context, log *slog.Logger, d amqp.Delivery, err error) {
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.ErrorContext(ctx, "failed to ack message", sl.Err(ackErr))
		}
	case errors.Is(err, ErrMalformed):
		log.WarnContext(ctx, "rejecting malformed message", sl.Err(err))
		if rejectErr := d.Reject(false); rejectErr != nil {
			log.ErrorContext(ctx, "failed to reject message", sl.Err(rejectErr))
		}
	default:
		log.WarnContext(ctx, "message handling failed, requeueing", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.ErrorContext(ctx, "failed to nack message", sl.Err(nackErr))
		}
	}
}
