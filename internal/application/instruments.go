package application

import (
	"context"
	"time"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const spanPrefix = "UC."

// Instruments carries the tracer, base logger and RED metrics of one service.
// Metrics are resolved once at construction.
type Instruments struct {
	service      string
	log          observability.Logger
	tracer       observability.Tracer
	metrics      observability.Metrics
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstruments(tel observability.Observability, service string) *Instruments {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Instruments{
		service:      service,
		log:          tel.Logger().With(observability.F("service", service)),
		tracer:       tel.Tracer(),
		metrics:      m,
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (in *Instruments) Logger() observability.Logger { return in.log }

// Counter resolves a service-specific counter.
func (in *Instruments) Counter(key observability.MetricKey) observability.Counter {
	return in.metrics.Counter(key)
}

// External records one call to a collaborator outside the core.
func (in *Instruments) External(peer, endpoint, outcome string, started time.Time) {
	in.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	in.extHistogram.Observe(time.Since(started).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
}

// Call tracks one use case execution. End emits the span status, the RED
// metrics and a single use_case_done log line.
type Call struct {
	in         *Instruments
	ctx        context.Context
	span       trace.Span
	log        observability.Logger
	useCase    string
	start      time.Time
	outcome    string
	statusText string
	fields     []observability.Field
}

// Start opens a span named UC.<spanName> and binds a use-case logger to the
// returned context so repositories log with the same fields.
func (in *Instruments) Start(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Call) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)

	fields := []observability.Field{observability.F("use_case", useCase)}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	ctx, logger := logctx.Enrich(ctx, in.log, fields...)

	return ctx, &Call{
		in:         in,
		ctx:        ctx,
		span:       span,
		log:        logger,
		useCase:    useCase,
		start:      time.Now(),
		outcome:    "success",
		statusText: "OK",
	}
}

func (c *Call) Logger() observability.Logger { return c.log }

func (c *Call) Span() trace.Span { return c.span }

// Fail marks the call as failed with a stable status text and returns err.
func (c *Call) Fail(status string, err error) error {
	c.outcome, c.statusText = "error", status
	return err
}

// Status overrides the status text without changing the outcome.
func (c *Call) Status(status string) {
	c.statusText = status
}

// Field adds a field to the final use_case_done log line.
func (c *Call) Field(key string, value any) {
	c.fields = append(c.fields, observability.F(key, value))
}

// End is meant to be deferred with a pointer to the named error result.
func (c *Call) End(errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	if err != nil && c.outcome == "success" {
		c.outcome, c.statusText = "error", "ERROR"
	}
	lat := time.Since(c.start).Seconds()

	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, c.statusText)
	} else {
		c.span.SetStatus(codes.Ok, c.statusText)
	}
	c.span.End()

	c.in.reqCounter.Add(1,
		observability.L("use_case", c.useCase),
		observability.L("outcome", c.outcome),
	)
	c.in.durHistogram.Observe(lat, observability.L("use_case", c.useCase))

	fields := append([]observability.Field{
		observability.F("outcome", c.outcome),
		observability.F("status", c.statusText),
		observability.F("latency_seconds", lat),
	}, c.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	c.log.Info("use_case_done", fields...)
}
