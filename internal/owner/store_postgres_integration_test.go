//go:build integration

package owner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "legaldocs/pkg/domain"
	"legaldocs/pkg/platform/sentinel"
	"legaldocs/pkg/testutil/containers"
)

func TestPostgresStateStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := NewPostgresStateStore(pg.DB)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ref := id.OwnerRef{Kind: "member", ID: 7}

	t.Run("missing owner is not found", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		_, err := store.Get(ctx, ref)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("upsert inserts then updates", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		state := &ComplianceState{Owner: ref, LegalState: LegalStateNone}
		require.NoError(t, store.Upsert(ctx, state))

		require.True(t, state.Apply(LegalStateValid, now))
		require.NoError(t, store.Upsert(ctx, state))

		got, err := store.Get(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, LegalStateValid, got.LegalState)
		require.NotNil(t, got.LegalStateChangedAt)
		assert.True(t, got.LegalStateChangedAt.Equal(now))
	})

	t.Run("owners of different kinds do not collide", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		member := &ComplianceState{Owner: ref, LegalState: LegalStateValid}
		company := &ComplianceState{Owner: id.OwnerRef{Kind: "company", ID: 7}, LegalState: LegalStateInvalid}
		require.NoError(t, store.Upsert(ctx, member))
		require.NoError(t, store.Upsert(ctx, company))

		got, err := store.Get(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, LegalStateValid, got.LegalState)

		got, err = store.Get(ctx, company.Owner)
		require.NoError(t, err)
		assert.Equal(t, LegalStateInvalid, got.LegalState)
	})
}
