package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ChannelPool shares one connection across a fixed set of channels, each with
// the target queue declared.
type ChannelPool struct {
	conn      *amqp.Connection
	channels  chan *amqp.Channel
	mu        sync.Mutex
	closed    bool
	queueName string
	log       observability.Logger
}

func NewChannelPool(url, queueName string, size int, logger observability.Logger) (*ChannelPool, error) {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}

	pool := &ChannelPool{
		conn:      conn,
		channels:  make(chan *amqp.Channel, size),
		queueName: queueName,
		log:       logger.With(observability.F("component", "rabbitmq"), observability.F("queue", queueName)),
	}
	for i := 0; i < size; i++ {
		ch, err := pool.createChannel()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("rabbitmq: channel %d: %w", i, err)
		}
		pool.channels <- ch
	}

	pool.log.Info("rabbitmq_pool_ready", observability.F("channels", size))
	return pool, nil
}

func (p *ChannelPool) createChannel() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return ch, nil
}

// Get waits for a free channel until ctx is done. Closed channels are
// replaced transparently.
func (p *ChannelPool) Get(ctx context.Context) (*amqp.Channel, error) {
	select {
	case ch, ok := <-p.channels:
		if !ok {
			return nil, fmt.Errorf("rabbitmq: pool closed")
		}
		if ch.IsClosed() {
			p.log.Warn("rabbitmq_channel_replaced")
			return p.createChannel()
		}
		return ch, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("rabbitmq: wait for channel: %w", ctx.Err())
	}
}

// Put hands a channel back; closed channels and overflow are discarded.
func (p *ChannelPool) Put(ch *amqp.Channel) {
	if ch == nil || ch.IsClosed() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = ch.Close()
		return
	}
	select {
	case p.channels <- ch:
	default:
		_ = ch.Close()
	}
}

func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.channels)
	for ch := range p.channels {
		_ = ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.log.Info("rabbitmq_pool_closed")
}

func (p *ChannelPool) QueueName() string { return p.queueName }
