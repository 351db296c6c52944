package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domoutbox "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/outbox"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability/logctx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBus_DeliversToEverySubscriber(t *testing.T) {
	bus := NewBus(observability.Nop())

	var mu sync.Mutex
	got := map[string]int{}
	record := func(tag string) domoutbox.Handler {
		return func(ctx context.Context, e domoutbox.Event) error {
			mu.Lock()
			defer mu.Unlock()
			got[tag+":"+e.EventName()]++
			return nil
		}
	}
	bus.Subscribe("order.placed", record("a"))
	bus.Subscribe("order.placed", record("b"))
	bus.Subscribe("order.cancelled", record("a"))

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent{"order.placed"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{"order.cancelled"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{"nobody.listens"}))

	require.NoError(t, bus.Stop(context.Background()))

	assert.Equal(t, map[string]int{
		"a:order.placed":    1,
		"b:order.placed":    1,
		"a:order.cancelled": 1,
	}, got)
}

func TestBus_HandlerGetsRequestScopedLogger(t *testing.T) {
	bus := NewBus(observability.Nop())
	var hasLogger bool
	bus.Subscribe("e", func(ctx context.Context, _ domoutbox.Event) error {
		hasLogger = logctx.From(ctx) != nil
		return nil
	})

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent{"e"}))
	require.NoError(t, bus.Stop(context.Background()))

	assert.True(t, hasLogger)
}

func TestBus_HandlerFailuresDoNotStopDelivery(t *testing.T) {
	bus := NewBus(observability.Nop(), WithConcurrency(1))
	var calls int
	var mu sync.Mutex
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error {
		return errors.New("boom")
	})
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error {
		panic("handler bug")
	})
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent{"e"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{"e"}))
	require.NoError(t, bus.Stop(context.Background()))

	assert.Equal(t, 2, calls)
}

func TestBus_PublishAfterStop(t *testing.T) {
	bus := NewBus(observability.Nop())
	bus.Start(context.Background())
	require.NoError(t, bus.Stop(context.Background()))

	err := bus.Publish(context.Background(), testEvent{"e"})
	assert.ErrorIs(t, err, domoutbox.ErrClosed)

	// stopping twice is harmless
	assert.NoError(t, bus.Stop(context.Background()))
}

func TestBus_StopWithoutStart(t *testing.T) {
	bus := NewBus(nil)
	assert.NoError(t, bus.Stop(context.Background()))
}

func TestBus_StopHonoursDeadline(t *testing.T) {
	bus := NewBus(observability.Nop())
	release := make(chan struct{})
	bus.Subscribe("slow", func(context.Context, domoutbox.Event) error {
		<-release
		return nil
	})
	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent{"slow"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(ctx), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, bus.Stop(context.Background()))
}

func TestBus_PublishBlocksUntilContextDone(t *testing.T) {
	bus := NewBus(observability.Nop(), WithQueueSize(1))
	require.NoError(t, bus.Publish(context.Background(), testEvent{"e"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(ctx, testEvent{"e"}), context.DeadlineExceeded)
}

func TestBus_StopWhilePublisherWaitsForSpace(t *testing.T) {
	bus := NewBus(observability.Nop(), WithQueueSize(1), WithConcurrency(1))

	release := make(chan struct{})
	var mu sync.Mutex
	var delivered []string
	bus.Subscribe("e", func(_ context.Context, e domoutbox.Event) error {
		<-release
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, e.EventName())
		return nil
	})
	bus.Start(context.Background())

	// first event is taken by the dispatcher and parks in the handler
	require.NoError(t, bus.Publish(context.Background(), testEvent{"e"}))
	require.Eventually(t, func() bool { return len(bus.queue) == 0 }, time.Second, time.Millisecond)
	// second fills the queue
	require.NoError(t, bus.Publish(context.Background(), testEvent{"e"}))

	blocked := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		blocked <- bus.Publish(ctx, testEvent{"e"})
	}()

	stopped := make(chan error, 1)
	go func() { stopped <- bus.Stop(context.Background()) }()

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, domoutbox.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("publisher stayed blocked after Stop")
	}

	close(release)
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not drain the queue")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, delivered, 2)
}
