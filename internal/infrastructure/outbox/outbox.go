package outbox

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/outbox"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability/logctx"
	workerpresentation "github.com/adityaanikam/ecommerce-site-sub000/internal/presentation/worker"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentOutbox = "outbox"
	defaultQueue    = 1024
	defaultFanout   = 8
	handlerTimeout  = 30 * time.Second
)

// Bus is an in-memory, non-durable event bus. Events are queued by Publish and
// delivered asynchronously to every handler subscribed to the event name.
//
// Subscriptions and the publish gate use separate locks, and Publish never
// holds a lock while it waits for queue space.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]domoutbox.Handler

	gate     sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
	quit     chan struct{}

	queue       chan domoutbox.Event
	startOnce   sync.Once
	stopOnce    sync.Once
	done        chan struct{}
	concurrency int
	log         observability.Logger
	tel         observability.Observability
}

type Option func(*Bus)

// WithQueueSize sets the publish buffer; Publish blocks once it is full.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan domoutbox.Event, n)
		}
	}
}

// WithConcurrency caps the handlers run in parallel for one event.
func WithConcurrency(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

func NewBus(tel observability.Observability, opts ...Option) *Bus {
	if tel == nil {
		tel = observability.Nop()
	}
	b := &Bus{
		subs:        make(map[string][]domoutbox.Handler),
		queue:       make(chan domoutbox.Event, defaultQueue),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		concurrency: defaultFanout,
		log:         tel.Logger().With(observability.F("component", componentOutbox)),
		tel:         tel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

// Start launches the dispatch loop. It returns immediately.
func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.dispatchLoop(context.WithoutCancel(ctx))
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop rejects further publishes, delivers what is already queued and waits
// for the dispatch loop to finish or ctx to expire.
func (b *Bus) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() {
		b.gate.Lock()
		b.closed = true
		b.gate.Unlock()
		close(b.quit)

		// the queue closes once no publisher can still send on it
		go func() {
			b.inflight.Wait()
			close(b.queue)
		}()
	})

	// a bus that was never started has no loop to wait for
	b.startOnce.Do(func() { close(b.done) })

	select {
	case <-b.done:
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
		return nil
	case <-ctx.Done():
		logctx.FromOr(ctx, b.log).Warn("event_bus_stop_timeout", observability.F("error", ctx.Err()))
		return ctx.Err()
	}
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))

	b.gate.RLock()
	if b.closed {
		b.gate.RUnlock()
		logger.Warn("event_rejected_bus_closed")
		return domoutbox.ErrClosed
	}
	b.inflight.Add(1)
	b.gate.RUnlock()
	defer b.inflight.Done()

	select {
	case b.queue <- e:
		logger.Debug("event_enqueued")
		return nil
	case <-b.quit:
		logger.Warn("event_rejected_bus_closed")
		return domoutbox.ErrClosed
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted", observability.F("error", ctx.Err()))
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for e := range b.queue {
		b.fanout(ctx, e)
	}
}

func (b *Bus) fanout(ctx context.Context, e domoutbox.Event) {
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("event_dropped_no_subscriber", observability.F("event", name))
		return
	}

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("event_handler_panic",
						observability.F("event", name),
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()
			b.deliver(ctx, name, e, h)
		}()
	}

	wg.Wait()

	b.log.Debug("event_fanned_out",
		observability.F("event", name),
		observability.F("handlers", len(handlers)),
	)
}

func (b *Bus) deliver(ctx context.Context, name string, e domoutbox.Event, h domoutbox.Handler) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	ctx, span := b.tel.Tracer().Start(ctx, "Event."+name, attribute.String("event", name))
	defer span.End()

	sc := trace.SpanContextFromContext(ctx)
	ctx = workerpresentation.WithEventContext(ctx, b.log, b.tel, sc.TraceID(), sc.SpanID(),
		map[string]string{"event": name})

	if err := h(ctx, e); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "HANDLER_FAILED")
		logctx.FromOr(ctx, b.log).Warn("event_handler_error", observability.F("error", err))
		return
	}
	span.SetStatus(codes.Ok, "OK")
}
