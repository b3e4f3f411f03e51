package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "legaldocs/pkg/domain"
	"legaldocs/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error { return errors.New("down") }
func (failingStore) ListByOwner(context.Context, id.OwnerRef) ([]Event, error) {
	return nil, errors.New("down")
}

type recordingSink struct {
	events []Event
	err    error
}

func (s *recordingSink) Deliver(_ context.Context, e Event) error {
	s.events = append(s.events, e)
	return s.err
}

func TestPublisherRecord(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	owner := id.OwnerRef{Kind: "member", ID: 42}
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	t.Run("stamps timestamp and request id from context", func(t *testing.T) {
		store := NewMemoryStore()
		p := NewPublisher(store, log)

		ctx := requestcontext.WithRequestID(ctx, "req-1")
		p.Record(ctx, Event{Action: ActionStatusChanged, Owner: owner})

		events, err := store.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, now, events[0].Timestamp)
		assert.Equal(t, "req-1", events[0].RequestID)
	})

	t.Run("keeps explicit timestamp", func(t *testing.T) {
		store := NewMemoryStore()
		p := NewPublisher(store, log)
		stamped := now.Add(-time.Hour)

		p.Record(ctx, Event{Action: ActionReminderSent, Owner: owner, Timestamp: stamped})

		events, err := store.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, stamped, events[0].Timestamp)
	})

	t.Run("fans out to sinks", func(t *testing.T) {
		sink := &recordingSink{}
		p := NewPublisher(NewMemoryStore(), log, sink)

		p.Record(ctx, Event{Action: ActionLegalStateChanged, Owner: owner})

		require.Len(t, sink.events, 1)
		assert.Equal(t, ActionLegalStateChanged, sink.events[0].Action)
	})

	t.Run("store and sink failures do not panic or propagate", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("broker gone")}
		p := NewPublisher(failingStore{}, log, sink)

		p.Record(ctx, Event{Action: ActionDocumentCreated, Owner: owner})

		assert.Len(t, sink.events, 1)
	})
}
