//go:build integration

package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaldocs/internal/document/models"
	"legaldocs/internal/document/store/doctype"
	id "legaldocs/pkg/domain"
	"legaldocs/pkg/platform/sentinel"
	"legaldocs/pkg/testutil/containers"
)

func TestPostgresDocumentStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := NewPostgres(pg.DB)
	types := doctype.NewPostgres(pg.DB)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	owner := id.OwnerRef{Kind: "member", ID: 7}

	seedType := func(t *testing.T, title string) *models.DocumentType {
		t.Helper()
		dt, err := models.NewDocumentType(id.NewDocumentTypeID(), title, "", now)
		require.NoError(t, err)
		require.NoError(t, types.Create(ctx, dt))
		return dt
	}

	newDoc := func(t *testing.T, typeID id.DocumentTypeID, ref id.OwnerRef, expires *time.Time) *models.Document {
		t.Helper()
		doc, err := models.NewDocument(id.NewDocumentID(), typeID, ref, now)
		require.NoError(t, err)
		doc.ExpirationDate = expires
		require.NoError(t, store.Create(ctx, doc))
		return doc
	}

	date := func(daysFromNow int) *time.Time {
		d := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, daysFromNow)
		return &d
	}

	t.Run("create and find round trip", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		dt := seedType(t, "Liability insurance")
		doc := newDoc(t, dt.ID, owner, date(90))
		doc.Notes = "scanned original"
		doc.FileRef = "Doc" + doc.ID.String() + ".pdf"
		reviewer := id.ReviewerID(uuid.New())
		doc.ApplyStatus(models.StatusValid, reviewer, now)
		require.NoError(t, store.Update(ctx, doc))

		got, err := store.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusValid, got.Status)
		assert.Equal(t, "scanned original", got.Notes)
		assert.Equal(t, doc.FileRef, got.FileRef)
		require.NotNil(t, got.ReviewedBy)
		assert.Equal(t, reviewer, *got.ReviewedBy)
		require.NotNil(t, got.ExpirationDate)
		assert.True(t, got.ExpirationDate.Equal(*date(90)))
	})

	t.Run("null optionals survive the round trip", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		dt := seedType(t, "Liability insurance")
		doc := newDoc(t, dt.ID, owner, nil)

		got, err := store.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ExpirationDate)
		assert.Nil(t, got.ReviewedAt)
		assert.Nil(t, got.ReviewedBy)
		assert.Nil(t, got.RemindedAt)
		assert.Empty(t, got.FileRef)
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		dt := seedType(t, "Liability insurance")
		doc := newDoc(t, dt.ID, owner, nil)
		err := store.Create(ctx, doc)
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
	})

	t.Run("list by owner orders soonest expiry first, undated last", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		dt := seedType(t, "Liability insurance")
		undated := newDoc(t, dt.ID, owner, nil)
		late := newDoc(t, dt.ID, owner, date(200))
		soon := newDoc(t, dt.ID, owner, date(10))
		newDoc(t, dt.ID, id.OwnerRef{Kind: "company", ID: 7}, date(1))

		out, err := store.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, soon.ID, out[0].ID)
		assert.Equal(t, late.ID, out[1].ID)
		assert.Equal(t, undated.ID, out[2].ID)
	})

	t.Run("find by owner and type", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		dt := seedType(t, "Liability insurance")
		other := seedType(t, "Identity proof")
		doc := newDoc(t, dt.ID, owner, nil)
		newDoc(t, other.ID, owner, nil)

		got, err := store.FindByOwnerAndType(ctx, owner, dt.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.ID, got.ID)

		_, err = store.FindByOwnerAndType(ctx, id.OwnerRef{Kind: "member", ID: 99}, dt.ID)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("sweep selection and reminder stamping", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		dt := seedType(t, "Liability insurance")
		due := newDoc(t, dt.ID, owner, date(10))
		far := newDoc(t, dt.ID, owner, date(200))
		undated := newDoc(t, dt.ID, owner, nil)

		cutoff := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 35)
		out, err := store.ListExpiringUnreminded(ctx, cutoff)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, due.ID, out[0].ID)

		require.NoError(t, store.MarkReminded(ctx, []id.DocumentID{due.ID}, now))
		got, err := store.FindByID(ctx, due.ID)
		require.NoError(t, err)
		require.NotNil(t, got.RemindedAt)
		firstStamp := *got.RemindedAt

		// A second stamping run must not move the stamp.
		require.NoError(t, store.MarkReminded(ctx, []id.DocumentID{due.ID}, now.Add(time.Hour)))
		got, err = store.FindByID(ctx, due.ID)
		require.NoError(t, err)
		assert.True(t, got.RemindedAt.Equal(firstStamp))

		// Stamped documents drop out of the next sweep selection.
		out, err = store.ListExpiringUnreminded(ctx, cutoff)
		require.NoError(t, err)
		assert.Empty(t, out)

		_ = far
		_ = undated
	})

	t.Run("update of missing document is not found", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		dt := seedType(t, "Liability insurance")
		doc, err := models.NewDocument(id.NewDocumentID(), dt.ID, owner, now)
		require.NoError(t, err)
		assert.True(t, errors.Is(store.Update(ctx, doc), sentinel.ErrNotFound))
	})
}
