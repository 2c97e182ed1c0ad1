package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMsg struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestPublisher_RoutesToEmailQueue(t *testing.T) {
	ctx := context.Background()
	amqpURI := brokerURI(ctx, t)

	conn, err := Connect(ctx, amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	var opened []*amqp.Channel
	open := func() (Channel, error) {
		ch, err := SetupChannel(conn, GetNotificationQueues(), 0)
		if err != nil {
			return nil, err
		}
		opened = append(opened, ch)
		return ch, nil
	}

	p, err := NewPublisher(open, NotificationsExchange, EmailRoutingKey)
	require.NoError(t, err)
	defer p.Close()

	consumeCh, err := conn.Channel()
	require.NoError(t, err)
	defer consumeCh.Close()
	deliveries, err := consumeCh.Consume(EmailQueue, "test-consumer", true, false, false, false, nil)
	require.NoError(t, err)

	receive := func(t *testing.T) testMsg {
		t.Helper()
		select {
		case d := <-deliveries:
			var got testMsg
			require.NoError(t, json.Unmarshal(d.Body, &got))
			assert.Equal(t, "application/json", d.ContentType)
			return got
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for message")
		}
		return testMsg{}
	}

	t.Run("success publish and consume", func(t *testing.T) {
		msg := testMsg{ID: 1, Name: "Hello"}
		require.NoError(t, p.Publish(ctx, msg))
		assert.Equal(t, msg, receive(t))
	})

	t.Run("канал закрыт брокером, публикация идёт через новый", func(t *testing.T) {
		require.Len(t, opened, 1)
		require.NoError(t, opened[0].Close())

		msg := testMsg{ID: 2, Name: "Again"}
		require.NoError(t, p.Publish(ctx, msg))
		assert.Equal(t, msg, receive(t))
		assert.Len(t, opened, 2)
	})

	t.Run("marshal error", func(t *testing.T) {
		badMsg := struct {
			Ch chan int `json:"ch"`
		}{
			Ch: make(chan int),
		}

		err := p.Publish(ctx, badMsg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	})
}

type fakeChannel struct {
	mu         sync.Mutex
	notify     []chan *amqp.Error
	publishErr error
	bodies     [][]byte
	closed     bool
}

func (c *fakeChannel) Publish(_, _ string, _, _ bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.bodies = append(c.bodies, msg.Body)
	return nil
}

func (c *fakeChannel) NotifyClose(ch chan *amqp.Error) chan *amqp.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = append(c.notify, ch)
	return ch
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		for _, n := range c.notify {
			close(n)
		}
	}
	return nil
}

// shutdown имитирует закрытие канала со стороны брокера.
func (c *fakeChannel) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, n := range c.notify {
		n <- &amqp.Error{Code: amqp.ChannelError, Reason: "channel closed by server"}
		close(n)
	}
}

func openerOf(channels ...*fakeChannel) (ChannelOpener, *int) {
	calls := 0
	return func() (Channel, error) {
		if calls >= len(channels) {
			return nil, errors.New("broker unavailable")
		}
		ch := channels[calls]
		calls++
		return ch, nil
	}, &calls
}

func TestPublisher_Reopen(t *testing.T) {
	ctx := context.Background()

	t.Run("после уведомления о закрытии открывается новый канал", func(t *testing.T) {
		first, second := &fakeChannel{}, &fakeChannel{}
		open, calls := openerOf(first, second)
		p, err := NewPublisher(open, NotificationsExchange, EmailRoutingKey)
		require.NoError(t, err)

		first.shutdown()
		require.NoError(t, p.Publish(ctx, testMsg{ID: 1}))

		assert.Equal(t, 2, *calls)
		assert.Empty(t, first.bodies)
		assert.Len(t, second.bodies, 1)
	})

	t.Run("ErrClosed при публикации повторяется на новом канале", func(t *testing.T) {
		first := &fakeChannel{publishErr: amqp.ErrClosed}
		second := &fakeChannel{}
		open, calls := openerOf(first, second)
		p, err := NewPublisher(open, NotificationsExchange, EmailRoutingKey)
		require.NoError(t, err)

		require.NoError(t, p.Publish(ctx, testMsg{ID: 1}))
		assert.Equal(t, 2, *calls)
		assert.True(t, first.closed)
		assert.Len(t, second.bodies, 1)
	})

	t.Run("прочие ошибки публикации не повторяются", func(t *testing.T) {
		first := &fakeChannel{publishErr: errors.New("boom")}
		open, calls := openerOf(first, &fakeChannel{})
		p, err := NewPublisher(open, NotificationsExchange, EmailRoutingKey)
		require.NoError(t, err)

		err = p.Publish(ctx, testMsg{ID: 1})
		require.Error(t, err)
		assert.Equal(t, 1, *calls)
	})

	t.Run("брокер недоступен при переоткрытии", func(t *testing.T) {
		first := &fakeChannel{}
		open, _ := openerOf(first)
		p, err := NewPublisher(open, NotificationsExchange, EmailRoutingKey)
		require.NoError(t, err)

		first.shutdown()
		err = p.Publish(ctx, testMsg{ID: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker unavailable")
	})

	t.Run("ошибка первого открытия возвращается из конструктора", func(t *testing.T) {
		open, _ := openerOf()
		_, err := NewPublisher(open, NotificationsExchange, EmailRoutingKey)
		require.Error(t, err)
	})
}

func TestPublisher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	open, calls := openerOf(&fakeChannel{})
	p, err := NewPublisher(open, NotificationsExchange, EmailRoutingKey)
	require.NoError(t, err)

	err = p.Publish(ctx, map[string]string{"a": "b"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, *calls)
}
