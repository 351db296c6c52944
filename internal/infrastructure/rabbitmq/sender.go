package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domorder "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability/logctx"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// EmailJob is the message consumed by the mailer. Templates are chosen by Kind.
type EmailJob struct {
	Kind        string         `json:"kind"`
	To          string         `json:"to"`
	OrderID     string         `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	Status      string         `json:"status"`
	Total       string         `json:"total"`
	Reason      string         `json:"reason,omitempty"`
	Tracking    string         `json:"tracking_number,omitempty"`
	Carrier     string         `json:"carrier,omitempty"`
	Items       []EmailJobItem `json:"items"`
	CreatedAt   time.Time      `json:"created_at"`
}

type EmailJobItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

const (
	jobConfirmation = "order_confirmation"
	jobCancellation = "order_cancellation"
	jobStatusUpdate = "order_status_update"
)

func newEmailJob(kind, to string, o *domorder.Order) EmailJob {
	job := EmailJob{
		Kind:        kind,
		To:          to,
		OrderID:     o.ID,
		OrderNumber: o.Number,
		Status:      string(o.Status),
		Total:       o.TotalAmount.StringFixed(2),
		Tracking:    o.TrackingNumber,
		Carrier:     o.Carrier,
		Items:       make([]EmailJobItem, 0, len(o.Items)),
		CreatedAt:   time.Now().UTC(),
	}
	for _, it := range o.Items {
		job.Items = append(job.Items, EmailJobItem{
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal.StringFixed(2),
		})
	}
	return job
}

// Sender publishes email jobs to a durable queue.
type Sender struct {
	pool *ChannelPool
	log  observability.Logger
}

func NewSender(pool *ChannelPool, logger observability.Logger) *Sender {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Sender{pool: pool, log: logger.With(observability.F("component", "email_sender"))}
}

func (s *Sender) SendOrderConfirmation(ctx context.Context, email string, o *domorder.Order) error {
	return s.publish(ctx, newEmailJob(jobConfirmation, email, o))
}

func (s *Sender) SendOrderCancellation(ctx context.Context, email string, o *domorder.Order, reason string) error {
	job := newEmailJob(jobCancellation, email, o)
	job.Reason = reason
	return s.publish(ctx, job)
}

func (s *Sender) SendOrderStatusUpdate(ctx context.Context, email string, o *domorder.Order) error {
	return s.publish(ctx, newEmailJob(jobStatusUpdate, email, o))
}

func (s *Sender) publish(ctx context.Context, job EmailJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal email job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ch, err := s.pool.Get(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(ch)

	err = ch.PublishWithContext(ctx, "", s.pool.QueueName(), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    job.CreatedAt,
		Type:         job.Kind,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", job.Kind, err)
	}

	logctx.FromOr(ctx, s.log).Debug("email_job_published",
		observability.F("kind", job.Kind),
		observability.F("order_id", job.OrderID),
	)
	return nil
}
