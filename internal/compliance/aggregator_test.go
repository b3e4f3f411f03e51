package compliance

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"legaldocs/internal/audit"
	"legaldocs/internal/document/models"
	doctypestore "legaldocs/internal/document/store/doctype"
	documentstore "legaldocs/internal/document/store/document"
	"legaldocs/internal/owner"
	"legaldocs/internal/ownerkind"
	id "legaldocs/pkg/domain"
	dErrors "legaldocs/pkg/domain-errors"
	"legaldocs/pkg/requestcontext"
)

type AggregatorSuite struct {
	suite.Suite

	documents *documentstore.InMemoryStore
	types     *doctypestore.InMemoryStore
	states    *owner.InMemoryStateStore
	auditLog  *audit.InMemoryStore
	agg       *Aggregator

	ctx   context.Context
	now   time.Time
	owner id.OwnerRef
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	registry, err := ownerkind.NewRegistry(
		ownerkind.Kind{Name: "member"},
		ownerkind.Kind{Name: "company"},
	)
	s.Require().NoError(err)

	s.documents = documentstore.NewMemory()
	s.types = doctypestore.NewMemory()
	s.states = owner.NewMemoryStateStore()
	s.auditLog = audit.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.agg = NewAggregator(
		s.documents, s.types, s.states, registry,
		audit.NewPublisher(s.auditLog, log), nil, log, true,
	)

	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.owner = id.OwnerRef{Kind: "member", ID: 7}
}

func (s *AggregatorSuite) addType(cannotExpire bool) *models.DocumentType {
	dt, err := models.NewDocumentType(id.NewDocumentTypeID(), "Insurance certificate", "", s.now)
	s.Require().NoError(err)
	dt.CannotExpire = cannotExpire
	s.Require().NoError(s.types.Create(s.ctx, dt))
	return dt
}

func (s *AggregatorSuite) addDocument(dt *models.DocumentType, status models.Status, expires *time.Time) *models.Document {
	doc, err := models.NewDocument(id.NewDocumentID(), dt.ID, s.owner, s.now)
	s.Require().NoError(err)
	doc.Status = status
	doc.ExpirationDate = expires
	s.Require().NoError(s.documents.Create(s.ctx, doc))
	return doc
}

func (s *AggregatorSuite) future() *time.Time {
	t := s.now.AddDate(0, 6, 0)
	return &t
}

func (s *AggregatorSuite) past() *time.Time {
	t := s.now.AddDate(0, -1, 0)
	return &t
}

func (s *AggregatorSuite) TestApplyIfChanged_EmptyOwnerIsNone() {
	state, err := s.agg.ApplyIfChanged(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(owner.LegalStateNone, state)
}

func (s *AggregatorSuite) TestApplyIfChanged_AllValidDocuments() {
	dt := s.addType(false)
	s.addDocument(dt, models.StatusValid, s.future())

	state, err := s.agg.ApplyIfChanged(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(owner.LegalStateValid, state)

	stored, err := s.states.Get(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(owner.LegalStateValid, stored.LegalState)
	s.Require().NotNil(stored.LegalStateChangedAt)
	s.Equal(s.now, *stored.LegalStateChangedAt)
}

func (s *AggregatorSuite) TestApplyIfChanged_ExpiredDocumentFlipsInvalid() {
	dt := s.addType(false)
	s.addDocument(dt, models.StatusWaiting, s.past())

	state, err := s.agg.ApplyIfChanged(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(owner.LegalStateInvalid, state)
}

func (s *AggregatorSuite) TestApplyIfChanged_CannotExpireTypeIgnoresDate() {
	dt := s.addType(true)
	s.addDocument(dt, models.StatusWaiting, s.past())

	state, err := s.agg.ApplyIfChanged(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(owner.LegalStateValid, state)
}

func (s *AggregatorSuite) TestApplyIfChanged_IdempotentWhenUnchanged() {
	dt := s.addType(false)
	s.addDocument(dt, models.StatusValid, s.future())

	_, err := s.agg.ApplyIfChanged(s.ctx, s.owner)
	s.Require().NoError(err)
	first, err := s.states.Get(s.ctx, s.owner)
	s.Require().NoError(err)

	later := requestcontext.WithTime(s.ctx, s.now.Add(48*time.Hour))
	_, err = s.agg.ApplyIfChanged(later, s.owner)
	s.Require().NoError(err)

	second, err := s.states.Get(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(first.LegalStateChangedAt, second.LegalStateChangedAt)

	events, err := s.auditLog.ListByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *AggregatorSuite) TestApplyIfChanged_UnknownKindFails() {
	_, err := s.agg.ApplyIfChanged(s.ctx, id.OwnerRef{Kind: "vessel", ID: 1})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *AggregatorSuite) TestForceState_ResetsOnlyConflictingStatuses() {
	dt := s.addType(false)
	valid := s.addDocument(dt, models.StatusValid, s.future())
	invalid := s.addDocument(dt, models.StatusInvalid, s.future())
	waiting := s.addDocument(dt, models.StatusWaiting, nil)

	reviewer := id.ReviewerID(uuid.New())
	ctx := requestcontext.WithReviewerID(s.ctx, reviewer)
	s.Require().NoError(s.agg.ForceState(ctx, s.owner, owner.LegalStateValid))

	got, err := s.documents.FindByID(s.ctx, invalid.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusWaiting, got.Status)

	got, err = s.documents.FindByID(s.ctx, valid.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusValid, got.Status)

	got, err = s.documents.FindByID(s.ctx, waiting.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusWaiting, got.Status)
	s.Nil(got.ReviewedAt)

	state, err := s.states.Get(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(owner.LegalStateValid, state.LegalState)

	events, err := s.auditLog.ListByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionLegalStateForced, events[0].Action)
	s.Equal(reviewer.String(), events[0].Actor)
}

func (s *AggregatorSuite) TestForceState_NoneResetsAllReviewed() {
	dt := s.addType(false)
	s.addDocument(dt, models.StatusValid, s.future())
	s.addDocument(dt, models.StatusInvalid, s.future())

	s.Require().NoError(s.agg.ForceState(s.ctx, s.owner, owner.LegalStateNone))

	docs, err := s.documents.ListByOwner(s.ctx, s.owner)
	s.Require().NoError(err)
	for _, doc := range docs {
		s.Equal(models.StatusWaiting, doc.Status)
	}
}

func (s *AggregatorSuite) TestForceState_UnknownTargetFailsFast() {
	dt := s.addType(false)
	doc := s.addDocument(dt, models.StatusInvalid, s.future())

	err := s.agg.ForceState(s.ctx, s.owner, owner.LegalState("Suspended"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	got, err := s.documents.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusInvalid, got.Status)
}

func TestRecompute(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	typeID := id.NewDocumentTypeID()
	dt := &models.DocumentType{ID: typeID, Title: "Permit"}
	types := map[id.DocumentTypeID]*models.DocumentType{typeID: dt}
	future := now.AddDate(1, 0, 0)
	past := now.AddDate(-1, 0, 0)

	doc := func(status models.Status, expires *time.Time) *models.Document {
		return &models.Document{ID: id.NewDocumentID(), TypeID: typeID, Status: status, ExpirationDate: expires}
	}

	t.Run("empty set defaults to none when flag on", func(t *testing.T) {
		assert.Equal(t, owner.LegalStateNone, Recompute(nil, types, now, true))
	})

	t.Run("empty set is valid when flag off", func(t *testing.T) {
		assert.Equal(t, owner.LegalStateValid, Recompute(nil, types, now, false))
	})

	t.Run("order independent", func(t *testing.T) {
		bad := doc(models.StatusInvalid, &future)
		good := doc(models.StatusValid, &future)
		require.Equal(t, owner.LegalStateInvalid, Recompute([]*models.Document{bad, good}, types, now, true))
		require.Equal(t, owner.LegalStateInvalid, Recompute([]*models.Document{good, bad}, types, now, true))
	})

	t.Run("expired waiting document is invalid", func(t *testing.T) {
		assert.Equal(t, owner.LegalStateInvalid, Recompute([]*models.Document{doc(models.StatusWaiting, &past)}, types, now, true))
	})
}
