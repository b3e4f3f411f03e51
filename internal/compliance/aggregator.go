// Package compliance rolls per-document validity up into a single legal
// state per owner.
package compliance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"legaldocs/internal/audit"
	"legaldocs/internal/document/metrics"
	"legaldocs/internal/document/models"
	"legaldocs/internal/owner"
	"legaldocs/internal/ownerkind"
	id "legaldocs/pkg/domain"
	dErrors "legaldocs/pkg/domain-errors"
	"legaldocs/pkg/platform/sentinel"
	"legaldocs/pkg/requestcontext"
)

var tracer = otel.Tracer("compliance")

type DocumentStore interface {
	ListByOwner(ctx context.Context, ref id.OwnerRef) ([]*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
}

type TypeStore interface {
	FindByID(ctx context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error)
}

type StateStore interface {
	Get(ctx context.Context, ref id.OwnerRef) (*owner.ComplianceState, error)
	Upsert(ctx context.Context, state *owner.ComplianceState) error
}

// Aggregator recomputes and persists the owner-level legal state.
type Aggregator struct {
	documents DocumentStore
	types     TypeStore
	states    StateStore
	registry  *ownerkind.Registry
	auditor   *audit.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger

	defaultToNoneWhenEmpty bool
}

func NewAggregator(
	documents DocumentStore,
	types TypeStore,
	states StateStore,
	registry *ownerkind.Registry,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	log *slog.Logger,
	defaultToNoneWhenEmpty bool,
) *Aggregator {
	return &Aggregator{
		documents:              documents,
		types:                  types,
		states:                 states,
		registry:               registry,
		auditor:                auditor,
		metrics:                m,
		log:                    log,
		defaultToNoneWhenEmpty: defaultToNoneWhenEmpty,
	}
}

// Recompute derives an owner's legal state from its documents. The scan is
// order independent: one effectively invalid document is enough to settle
// on Invalid, but every pair is still consulted so a nil type never hides
// behind an early return.
func Recompute(docs []*models.Document, types map[id.DocumentTypeID]*models.DocumentType, now time.Time, defaultToNoneWhenEmpty bool) owner.LegalState {
	if len(docs) == 0 && defaultToNoneWhenEmpty {
		return owner.LegalStateNone
	}
	state := owner.LegalStateValid
	for _, doc := range docs {
		if doc.IsEffectivelyInvalid(types[doc.TypeID], now) {
			state = owner.LegalStateInvalid
		}
	}
	return state
}

// ApplyIfChanged recomputes the owner's legal state and persists it only
// when the value differs from the stored one. Confirming runs write nothing
// and leave LegalStateChangedAt untouched.
func (a *Aggregator) ApplyIfChanged(ctx context.Context, ref id.OwnerRef) (owner.LegalState, error) {
	ctx, span := tracer.Start(ctx, "Compliance.Aggregator.ApplyIfChanged")
	defer span.End()

	if err := a.registry.ValidateRef(ref); err != nil {
		return "", err
	}

	now := requestcontext.Now(ctx)
	started := time.Now()
	defer func() { a.metrics.ObserveRecomputeLatency(time.Since(started)) }()

	docs, err := a.documents.ListByOwner(ctx, ref)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "list owner documents")
	}
	types, err := a.typesFor(ctx, docs)
	if err != nil {
		return "", err
	}

	next := Recompute(docs, types, now, a.defaultToNoneWhenEmpty)

	state, err := a.states.Get(ctx, ref)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound):
		state = &owner.ComplianceState{Owner: ref, LegalState: owner.LegalStateNone}
	default:
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "load owner state")
	}

	if !state.Apply(next, now) {
		return next, nil
	}
	if err := a.states.Upsert(ctx, state); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "persist owner state")
	}

	a.metrics.IncrementLegalStateChange(string(next), false)
	a.auditor.Record(ctx, audit.Event{
		Action: audit.ActionLegalStateChanged,
		Owner:  ref,
		Detail: string(next),
	})
	a.log.InfoContext(ctx, "owner legal state changed", "owner", ref.String(), "state", next)
	return next, nil
}

// ForceState overrides the owner's legal state directly. Documents whose
// review status contradicts the forced state are reset to Waiting so the
// next recompute does not immediately undo the override; everything else
// is left alone.
func (a *Aggregator) ForceState(ctx context.Context, ref id.OwnerRef, target owner.LegalState) error {
	ctx, span := tracer.Start(ctx, "Compliance.Aggregator.ForceState")
	defer span.End()

	if err := a.registry.ValidateRef(ref); err != nil {
		return err
	}
	if _, err := owner.ParseLegalState(string(target)); err != nil {
		return err
	}

	now := requestcontext.Now(ctx)

	docs, err := a.documents.ListByOwner(ctx, ref)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list owner documents")
	}
	reviewer := requestcontext.ReviewerID(ctx)
	for _, doc := range docs {
		if !conflictsWith(doc.Status, target) {
			continue
		}
		doc.ApplyStatus(models.StatusWaiting, reviewer, now)
		if err := a.documents.Update(ctx, doc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "reset document status")
		}
	}

	state, err := a.states.Get(ctx, ref)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound):
		state = &owner.ComplianceState{Owner: ref, LegalState: owner.LegalStateNone}
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "load owner state")
	}

	changed := state.Apply(target, now)
	if changed {
		if err := a.states.Upsert(ctx, state); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist owner state")
		}
		a.metrics.IncrementLegalStateChange(string(target), true)
	}

	event := audit.Event{
		Action: audit.ActionLegalStateForced,
		Owner:  ref,
		Detail: string(target),
	}
	if !reviewer.IsNil() {
		event.Actor = reviewer.String()
	}
	a.auditor.Record(ctx, event)
	a.log.InfoContext(ctx, "owner legal state forced",
		"owner", ref.String(), "state", target, "changed", changed)
	return nil
}

// conflictsWith reports whether a document status contradicts a forced
// owner state. Waiting never conflicts.
func conflictsWith(status models.Status, target owner.LegalState) bool {
	switch target {
	case owner.LegalStateValid:
		return status == models.StatusInvalid
	case owner.LegalStateInvalid:
		return status == models.StatusValid
	case owner.LegalStateNone:
		return status == models.StatusValid || status == models.StatusInvalid
	}
	return false
}

func (a *Aggregator) typesFor(ctx context.Context, docs []*models.Document) (map[id.DocumentTypeID]*models.DocumentType, error) {
	types := make(map[id.DocumentTypeID]*models.DocumentType)
	for _, doc := range docs {
		if _, ok := types[doc.TypeID]; ok {
			continue
		}
		dt, err := a.types.FindByID(ctx, doc.TypeID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load document type")
		}
		types[doc.TypeID] = dt
	}
	return types, nil
}
