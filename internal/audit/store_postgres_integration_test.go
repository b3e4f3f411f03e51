//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "legaldocs/pkg/domain"
	"legaldocs/pkg/testutil/containers"
)

func TestPostgresAuditStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := NewPostgresStore(pg.DB)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ref := id.OwnerRef{Kind: "member", ID: 7}

	t.Run("append and list by owner in order", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		first := Event{
			Timestamp:  now,
			Action:     ActionDocumentCreated,
			Owner:      ref,
			DocumentID: "doc-1",
			Detail:     "Liability insurance",
			RequestID:  "req-1",
		}
		second := Event{
			Timestamp: now.Add(time.Minute),
			Action:    ActionLegalStateChanged,
			Owner:     ref,
			Detail:    "Valid",
		}
		other := Event{
			Timestamp: now,
			Action:    ActionReminderSent,
			Owner:     id.OwnerRef{Kind: "company", ID: 3},
			Detail:    "1 document(s)",
		}
		require.NoError(t, store.Append(ctx, first))
		require.NoError(t, store.Append(ctx, second))
		require.NoError(t, store.Append(ctx, other))

		events, err := store.ListByOwner(ctx, ref)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, ActionDocumentCreated, events[0].Action)
		assert.Equal(t, "doc-1", events[0].DocumentID)
		assert.Equal(t, "req-1", events[0].RequestID)
		assert.Equal(t, ActionLegalStateChanged, events[1].Action)
		assert.True(t, events[0].Timestamp.Equal(now))
	})

	t.Run("empty optional fields survive as empty strings", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		require.NoError(t, store.Append(ctx, Event{Timestamp: now, Action: ActionReminderFailed, Owner: ref}))

		events, err := store.ListByOwner(ctx, ref)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Empty(t, events[0].DocumentID)
		assert.Empty(t, events[0].Actor)
		assert.Empty(t, events[0].RequestID)
	})
}
