package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tenantgate/pkg/requestcontext"
)

// Sink persists or forwards audit events.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Publisher stamps events with request metadata and hands them to a sink,
// optionally through a bounded async buffer.
type Publisher struct {
	sink   Sink
	events chan Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and written in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(sink Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{sink: sink, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.sink.Write(context.Background(), event); err != nil {
			p.logger.Error("failed to write audit event",
				"error", err,
				"action", event.Action,
				"request_id", event.RequestID,
			)
		}
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// Emit records event. Request id, client metadata and the resolved tenant
// are filled from ctx when the caller left them empty. Emit never fails the
// caller's operation; sink errors are logged.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	event = enrich(ctx, event)
	if p.async {
		// Non-blocking send; drop event if buffer is full to avoid blocking hot path
		select {
		case p.events <- event:
		default:
			p.logger.WarnContext(ctx, "audit buffer full, event dropped",
				"action", event.Action,
				"request_id", event.RequestID,
			)
		}
		return
	}
	if err := p.sink.Write(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to write audit event",
			"error", err,
			"action", event.Action,
			"request_id", event.RequestID,
		)
	}
}

func enrich(ctx context.Context, e Event) Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	if e.RequestID == "" {
		e.RequestID = requestcontext.RequestID(ctx)
	}
	if e.ClientIP == "" {
		e.ClientIP = requestcontext.ClientIP(ctx)
	}
	if e.UserAgent == "" {
		e.UserAgent = requestcontext.UserAgent(ctx)
	}
	if e.Device == "" && e.UserAgent != "" {
		e.Device = DeviceLabel(e.UserAgent)
	}
	if t := requestcontext.TenantFrom(ctx); t.Resolved() {
		if e.TenantID == "" {
			e.TenantID = t.ID.String()
		}
		if e.Schema == "" {
			e.Schema = t.SchemaName
		}
	}
	if e.Timestamp.Location() != time.UTC {
		e.Timestamp = e.Timestamp.UTC()
	}
	return e
}
