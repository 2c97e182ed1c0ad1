package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// Channel часть *amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	Close() error
}

// ChannelOpener открывает новый канал с объявленной топологией.
type ChannelOpener func() (Channel, error)

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует в один обменник с фиксированным ключом. Безопасен для конкурентного использования.
// Закрытый брокером канал открывается заново при следующей публикации.
type Publisher struct {
	mu         sync.Mutex
	open       ChannelOpener
	ch         Channel
	closed     chan *amqp.Error
	exchange   string
	routingKey string
}

// NewPublisher сразу открывает первый канал, чтобы ошибка подключения была видна при старте.
func NewPublisher(open ChannelOpener, exchange, routingKey string) (*Publisher, error) {
	p := &Publisher{open: open, exchange: exchange, routingKey: routingKey}
	if _, err := p.channel(); err != nil {
		return nil, fmt.Errorf("rabbitmq.NewPublisher: %w", err)
	}
	return p, nil
}

// Publish сериализует message в JSON и отправляет его.
// Если канал оказался закрыт, публикация повторяется один раз на новом канале.
func (p *Publisher) Publish(ctx context.Context, message any) error {
	const op = "rabbitmq.Publish"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = PublishMessage(ch, p.exchange, p.routingKey, message)
	if !errors.Is(err, amqp.ErrClosed) {
		return err
	}

	p.drop()
	if ch, err = p.channel(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return PublishMessage(ch, p.exchange, p.routingKey, message)
}

// Close закрывает текущий канал.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch, p.closed = nil, nil
	return err
}

// channel возвращает живой канал, открывая новый после уведомления о закрытии.
func (p *Publisher) channel() (Channel, error) {
	if p.ch != nil {
		select {
		case <-p.closed:
			p.ch, p.closed = nil, nil
		default:
			return p.ch, nil
		}
	}
	ch, err := p.open()
	if err != nil {
		return nil, err
	}
	p.ch = ch
	p.closed = ch.NotifyClose(make(chan *amqp.Error, 1))
	return ch, nil
}

func (p *Publisher) drop() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	p.ch, p.closed = nil, nil
}
