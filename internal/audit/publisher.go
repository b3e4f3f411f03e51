package audit

import (
	"context"
	"log/slog"

	"legaldocs/pkg/requestcontext"
)

// Sink receives a copy of every recorded event, e.g. a Kafka producer.
// Sinks are best effort and must not block the request path for long.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// Publisher records audit events. Recording is fail-open: a broken audit
// store or sink logs an error but never fails the business operation.
type Publisher struct {
	store Store
	sinks []Sink
	log   *slog.Logger
}

func NewPublisher(store Store, log *slog.Logger, sinks ...Sink) *Publisher {
	return &Publisher{store: store, sinks: sinks, log: log}
}

// Record stamps and persists the event, then fans it out to sinks.
func (p *Publisher) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.log.ErrorContext(ctx, "audit append failed",
			"action", event.Action,
			"owner", event.Owner.String(),
			"error", err,
		)
	}

	for _, sink := range p.sinks {
		if err := sink.Deliver(ctx, event); err != nil {
			p.log.WarnContext(ctx, "audit sink delivery failed",
				"action", event.Action,
				"error", err,
			)
		}
	}
}
