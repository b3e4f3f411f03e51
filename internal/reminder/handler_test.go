package reminder

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"legaldocs/internal/audit"
	"legaldocs/internal/document/models"
	doctypestore "legaldocs/internal/document/store/doctype"
	documentstore "legaldocs/internal/document/store/document"
	"legaldocs/internal/owner"
	"legaldocs/internal/ownerkind"
	id "legaldocs/pkg/domain"
	"legaldocs/pkg/testutil"
)

type okDispatcher struct{}

func (okDispatcher) Send(context.Context, string, string, string) (bool, error) {
	return true, nil
}

func newReminderRouter(t *testing.T) (chi.Router, *documentstore.InMemoryStore, *doctypestore.InMemoryStore, *owner.InMemoryDirectory) {
	t.Helper()

	documents := documentstore.NewMemory()
	types := doctypestore.NewMemory()
	directory := owner.NewInMemoryDirectory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry, err := ownerkind.NewRegistry(ownerkind.Kind{Name: "member"}, ownerkind.Kind{Name: "company"})
	require.NoError(t, err)

	scheduler := NewScheduler(
		documents, types, directory, okDispatcher{}, NewLocalLocker(), registry,
		audit.NewPublisher(audit.NewMemoryStore(), log), nil, log,
		Config{Enabled: true, ThresholdDays: 35, Concurrency: 2},
	)

	router := chi.NewRouter()
	NewHandler(scheduler, log).Register(router)
	return router, documents, types, directory
}

func TestRunSweepEndpoint(t *testing.T) {
	router, documents, types, directory := newReminderRouter(t)
	ctx := context.Background()
	now := time.Now()

	dt, err := models.NewDocumentType(id.NewDocumentTypeID(), "Work permit", "", now)
	require.NoError(t, err)
	require.NoError(t, types.Create(ctx, dt))

	ref := id.OwnerRef{Kind: "member", ID: 7}
	directory.SetContact(ref, "maria.lopez@example.com")
	doc, err := models.NewDocument(id.NewDocumentID(), dt.ID, ref, now)
	require.NoError(t, err)
	expires := now.AddDate(0, 0, 10)
	doc.ExpirationDate = &expires
	require.NoError(t, documents.Create(ctx, doc))

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/internal/reminders/run", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	report := testutil.UnmarshalResponse[Report](t, rr)
	require.Equal(t, SweepCompleted, report.Status)
	require.Len(t, report.Outcomes, 1)
	require.Equal(t, OutcomeReminded, report.Outcomes[0].Outcome)

	stamped, err := documents.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, stamped.RemindedAt)
}

func TestOwnerReminderEndpoint(t *testing.T) {
	router, documents, types, directory := newReminderRouter(t)
	ctx := context.Background()
	now := time.Now()

	dt, err := models.NewDocumentType(id.NewDocumentTypeID(), "Health certificate", "", now)
	require.NoError(t, err)
	require.NoError(t, types.Create(ctx, dt))

	ref := id.OwnerRef{Kind: "company", ID: 3}
	directory.SetContact(ref, "ops@example.com")
	doc, err := models.NewDocument(id.NewDocumentID(), dt.ID, ref, now)
	require.NoError(t, err)
	expires := now.AddDate(0, 0, 3)
	doc.ExpirationDate = &expires
	require.NoError(t, documents.Create(ctx, doc))

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/owners/company/3/reminders", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	outcome := testutil.UnmarshalResponse[OwnerOutcome](t, rr)
	require.Equal(t, OutcomeReminded, outcome.Outcome)
	require.Equal(t, 1, outcome.Documents)
}

func TestOwnerReminderEndpoint_UnknownKind(t *testing.T) {
	router, _, _, _ := newReminderRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/owners/vessel/3/reminders", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorCode(t, rr, "validation")
}

func TestOwnerReminderEndpoint_BadOwnerID(t *testing.T) {
	router, _, _, _ := newReminderRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/owners/company/abc/reminders", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorCode(t, rr, "validation")
}
