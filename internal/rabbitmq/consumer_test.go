package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openChannel(ctx context.Context, t *testing.T, queueName string) *amqp.Channel {
	conn, err := Connect(ctx, brokerURI(ctx, t), 3, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	_, err = ch.QueueDeclare(queueName, false, false, false, false, nil)
	require.NoError(t, err)
	return ch
}

func TestConsumerMessage_HandleMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queueName := "consumer-test"
	ch := openChannel(ctx, t, queueName)

	var wg sync.WaitGroup
	wg.Add(2)

	received := make([]string, 0)
	var mu sync.Mutex

	handler := func(_ context.Context, body []byte) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, string(body))
		wg.Done()
		return nil
	}

	wait, err := ConsumerMessage(ctx, newNoopLogger(), ch, queueName, 2, handler)
	require.NoError(t, err)

	for _, msg := range []string{"hello", "world"} {
		err := ch.Publish("", queueName, false, false, amqp.Publishing{
			ContentType: "text/plain",
			Body:        []byte(msg),
		})
		require.NoError(t, err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Timeout waiting for messages to be processed")
	}
	cancel()
	wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"hello", "world"}, received)
}

func TestConsumerMessage_HandlerErrorTriggersNack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queueName := "nack-test"
	ch := openChannel(ctx, t, queueName)

	// первый вызов падает, повторная доставка должна прийти снова
	var (
		mu    sync.Mutex
		calls int
	)
	redelivered := make(chan struct{})
	handler := func(_ context.Context, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return fmt.Errorf("fail")
		}
		close(redelivered)
		return nil
	}

	_, err := ConsumerMessage(ctx, newNoopLogger(), ch, queueName, 1, handler)
	require.NoError(t, err)

	err = ch.Publish("", queueName, false, false, amqp.Publishing{
		ContentType: "text/plain",
		Body:        []byte("bad"),
	})
	require.NoError(t, err)

	select {
	case <-redelivered:
	case <-time.After(10 * time.Second):
		t.Fatal("Did not receive requeued message after Nack")
	}
}

func TestConsumerMessage_MalformedIsRejected(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queueName := "reject-test"
	ch := openChannel(ctx, t, queueName)

	handled := make(chan struct{}, 10)
	handler := func(_ context.Context, _ []byte) error {
		handled <- struct{}{}
		return fmt.Errorf("decode: %w", ErrMalformed)
	}

	wait, err := ConsumerMessage(ctx, newNoopLogger(), ch, queueName, 1, handler)
	require.NoError(t, err)

	err = ch.Publish("", queueName, false, false, amqp.Publishing{Body: []byte("{")})
	require.NoError(t, err)

	select {
	case <-handled:
	case <-time.After(10 * time.Second):
		t.Fatal("message was not handled")
	}

	// повторной доставки быть не должно
	select {
	case <-handled:
		t.Fatal("malformed message was requeued")
	case <-time.After(time.Second):
	}
	cancel()
	wait()
}
