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

// ackRecorder записывает, чем закончилась каждая доставка.
type ackRecorder struct {
	mu      sync.Mutex
	settled map[uint64]string
}

func newAckRecorder() *ackRecorder {
	return &ackRecorder{settled: map[uint64]string{}}
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	return a.set(tag, "ack")
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	return a.set(tag, fmt.Sprintf("nack requeue=%t", requeue))
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.set(tag, fmt.Sprintf("reject requeue=%t", requeue))
}

func (a *ackRecorder) set(tag uint64, v string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settled[tag] = v
	return nil
}

func (a *ackRecorder) get(tag uint64) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settled[tag]
}

func waitReturned(wait func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	return done
}

func TestDispatch_WaitBlocksUntilHandlerFinishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	acks := newAckRecorder()
	deliveries := make(chan amqp.Delivery)
	started := make(chan struct{})
	release := make(chan struct{})
	handler := func(context.Context, []byte) error {
		close(started)
		<-release
		return nil
	}

	wait := dispatch(ctx, newNoopLogger(), deliveries, 2, handler)
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: []byte(`{}`)}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not started")
	}
	cancel()
	done := waitReturned(wait)

	select {
	case <-done:
		t.Fatal("wait returned while the handler was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not return after the handler finished")
	}
	assert.Equal(t, "ack", acks.get(1))
}

func TestDispatch_CancelWhileSaturatedRequeues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	acks := newAckRecorder()
	deliveries := make(chan amqp.Delivery)
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	handler := func(context.Context, []byte) error {
		started <- struct{}{}
		<-release
		return nil
	}

	wait := dispatch(ctx, newNoopLogger(), deliveries, 1, handler)
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1}
	<-started
	// единственный слот занят, вторая доставка ждёт семафор
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2}

	cancel()
	require.Eventually(t, func() bool {
		return acks.get(2) == "nack requeue=true"
	}, 5*time.Second, 10*time.Millisecond)

	close(release)
	select {
	case <-waitReturned(wait):
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not return")
	}
	assert.Equal(t, "ack", acks.get(1))
	assert.Len(t, started, 0)
}

func TestDispatch_ClosedChannelStopsLoop(t *testing.T) {
	deliveries := make(chan amqp.Delivery)
	wait := dispatch(context.Background(), newNoopLogger(), deliveries, 1,
		func(context.Context, []byte) error { return nil })

	close(deliveries)
	select {
	case <-waitReturned(wait):
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not return after the delivery channel closed")
	}
}
