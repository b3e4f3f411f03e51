//go:build integration

package doctype

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaldocs/internal/document/models"
	id "legaldocs/pkg/domain"
	"legaldocs/pkg/platform/sentinel"
	"legaldocs/pkg/testutil/containers"
)

func TestPostgresTypeStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := NewPostgres(pg.DB)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	newType := func(title string, kinds ...string) *models.DocumentType {
		dt, err := models.NewDocumentType(id.NewDocumentTypeID(), title, "desc", now)
		require.NoError(t, err)
		dt.ApplicableOwnerKinds = kinds
		return dt
	}

	t.Run("create and find round trip", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		dt := newType("Liability insurance", "member")
		dt.CannotExpire = true
		dt.Mandatory = true
		require.NoError(t, store.Create(ctx, dt))

		got, err := store.FindByID(ctx, dt.ID)
		require.NoError(t, err)
		assert.Equal(t, dt.Title, got.Title)
		assert.True(t, got.CannotExpire)
		assert.True(t, got.Mandatory)
		assert.Equal(t, []string{"member"}, got.ApplicableOwnerKinds)
	})

	t.Run("duplicate title conflicts", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		require.NoError(t, store.Create(ctx, newType("Liability insurance")))
		err := store.Create(ctx, newType("Liability insurance"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
	})

	t.Run("update", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		dt := newType("Liability insurance")
		require.NoError(t, store.Create(ctx, dt))

		dt.Title = "Professional liability insurance"
		dt.UpdatedAt = now.Add(time.Hour)
		require.NoError(t, store.Update(ctx, dt))

		got, err := store.FindByID(ctx, dt.ID)
		require.NoError(t, err)
		assert.Equal(t, "Professional liability insurance", got.Title)
	})

	t.Run("update of missing type is not found", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		err := store.Update(ctx, newType("Ghost"))
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("list orders by title", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		require.NoError(t, store.Create(ctx, newType("Membership card")))
		require.NoError(t, store.Create(ctx, newType("Identity proof")))

		out, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "Identity proof", out[0].Title)
		assert.Equal(t, "Membership card", out[1].Title)
	})

	t.Run("find missing type is not found", func(t *testing.T) {
		_, err := store.FindByID(ctx, id.NewDocumentTypeID())
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})
}
