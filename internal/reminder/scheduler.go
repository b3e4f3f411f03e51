// Package reminder implements the daily expiry-reminder sweep and the
// manual single-owner reminder it shares its delivery path with.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"legaldocs/internal/audit"
	"legaldocs/internal/document/models"
	"legaldocs/internal/ownerkind"
	id "legaldocs/pkg/domain"
	dErrors "legaldocs/pkg/domain-errors"
	"legaldocs/pkg/email"
	"legaldocs/pkg/requestcontext"
)

var tracer = otel.Tracer("reminder")

// sweepLockKey is the advisory lock guarding the daily sweep.
const sweepLockKey = "legaldocs:reminder-sweep"

// sweepLockTTL bounds how long a crashed run can block the next one.
const sweepLockTTL = 15 * time.Minute

type DocumentStore interface {
	ListExpiringUnreminded(ctx context.Context, cutoff time.Time) ([]*models.Document, error)
	ListByOwner(ctx context.Context, ref id.OwnerRef) ([]*models.Document, error)
	MarkReminded(ctx context.Context, ids []id.DocumentID, now time.Time) error
}

type TypeStore interface {
	FindByID(ctx context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error)
}

type Directory interface {
	Contact(ctx context.Context, ref id.OwnerRef) (string, error)
}

type Dispatcher interface {
	Send(ctx context.Context, recipient, subject, body string) (bool, error)
}

// Config carries the sweep knobs sourced from the environment.
type Config struct {
	// Enabled switches the reminder feature on.
	Enabled bool
	// ThresholdDays is the look-ahead window; documents expiring within it
	// are due for a reminder.
	ThresholdDays int
	// Concurrency bounds how many owner groups are processed in parallel.
	Concurrency int
}

// Scheduler runs reminder sweeps. It never self-schedules; an external job
// runner or the trigger endpoint calls RunSweep.
type Scheduler struct {
	documents  DocumentStore
	types      TypeStore
	directory  Directory
	dispatcher Dispatcher
	locker     Locker
	registry   *ownerkind.Registry
	auditor    *audit.Publisher
	metrics    *Metrics
	log        *slog.Logger
	cfg        Config
}

func NewScheduler(
	documents DocumentStore,
	types TypeStore,
	directory Directory,
	dispatcher Dispatcher,
	locker Locker,
	registry *ownerkind.Registry,
	auditor *audit.Publisher,
	m *Metrics,
	log *slog.Logger,
	cfg Config,
) *Scheduler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Scheduler{
		documents:  documents,
		types:      types,
		directory:  directory,
		dispatcher: dispatcher,
		locker:     locker,
		registry:   registry,
		auditor:    auditor,
		metrics:    m,
		log:        log,
		cfg:        cfg,
	}
}

// RunSweep selects all due, unreminded documents, groups them by owner and
// delivers at most one reminder per owner. RemindedAt is stamped only after
// confirmed delivery, so re-running after a partial failure retries exactly
// the owners that were not reached.
func (s *Scheduler) RunSweep(ctx context.Context) (Report, error) {
	ctx, span := tracer.Start(ctx, "Reminder.Scheduler.RunSweep")
	defer span.End()

	if !s.cfg.Enabled {
		return s.finish(Report{Status: SweepFeatureDisabled}), nil
	}
	if s.cfg.ThresholdDays <= 0 {
		return s.finish(Report{Status: SweepNoThreshold}), nil
	}

	acquired, err := s.locker.Acquire(ctx, sweepLockKey, sweepLockTTL)
	if err != nil {
		return Report{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "sweep lock")
	}
	if !acquired {
		s.log.InfoContext(ctx, "reminder sweep skipped, lock held by another run")
		return s.finish(Report{Status: SweepLockHeld}), nil
	}
	defer func() {
		if err := s.locker.Release(ctx, sweepLockKey); err != nil {
			s.log.WarnContext(ctx, "sweep lock release failed", "error", err)
		}
	}()

	started := time.Now()
	defer func() { s.metrics.ObserveSweepLatency(time.Since(started)) }()

	now := requestcontext.Now(ctx)
	cutoff := now.AddDate(0, 0, s.cfg.ThresholdDays)
	due, err := s.documents.ListExpiringUnreminded(ctx, cutoff)
	if err != nil {
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "list due documents")
	}
	due, err = s.withoutEternalTypes(ctx, due)
	if err != nil {
		return Report{}, err
	}
	if len(due) == 0 {
		return s.finish(Report{Status: SweepNothingToRemind}), nil
	}

	groups := groupByOwner(due)

	var (
		mu       sync.Mutex
		outcomes []OwnerOutcome
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for ref, docs := range groups {
		g.Go(func() error {
			outcome := s.remindOwner(gctx, ref, docs, now)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			// Per-owner failures are captured in the outcome; one owner
			// never aborts the others.
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Owner.String() < outcomes[j].Owner.String()
	})
	report := Report{Status: SweepCompleted, Outcomes: outcomes}
	s.log.InfoContext(ctx, "reminder sweep finished",
		"owners", len(outcomes),
		"reminded", report.Reminded(),
		"failed", report.Failed(),
	)
	return s.finish(report), nil
}

// SendOwnerReminder delivers the manual single-owner reminder. It shares the
// sweep's selection and stamping rules, so a manually reminded owner is
// skipped by the next sweep.
func (s *Scheduler) SendOwnerReminder(ctx context.Context, ref id.OwnerRef) (OwnerOutcome, error) {
	if err := s.registry.ValidateRef(ref); err != nil {
		return OwnerOutcome{}, err
	}
	if !s.cfg.Enabled {
		return OwnerOutcome{}, dErrors.New(dErrors.CodeConflict, "reminders are disabled")
	}
	if s.cfg.ThresholdDays <= 0 {
		return OwnerOutcome{}, dErrors.New(dErrors.CodeConflict, "no reminder window configured")
	}

	now := requestcontext.Now(ctx)
	cutoff := now.AddDate(0, 0, s.cfg.ThresholdDays)

	all, err := s.documents.ListByOwner(ctx, ref)
	if err != nil {
		return OwnerOutcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "list owner documents")
	}
	var due []*models.Document
	for _, doc := range all {
		if doc.RemindedAt != nil || doc.ExpirationDate == nil {
			continue
		}
		if doc.ExpirationDate.Before(cutoff) {
			due = append(due, doc)
		}
	}
	due, err = s.withoutEternalTypes(ctx, due)
	if err != nil {
		return OwnerOutcome{}, err
	}
	if len(due) == 0 {
		return OwnerOutcome{Owner: ref, Outcome: OutcomeSkipped, Reason: "nothing to remind"}, nil
	}
	return s.remindOwner(ctx, ref, due, now), nil
}

// remindOwner builds and delivers one reminder covering all of the owner's
// due documents, and stamps them only on confirmed delivery.
func (s *Scheduler) remindOwner(ctx context.Context, ref id.OwnerRef, docs []*models.Document, now time.Time) OwnerOutcome {
	outcome := OwnerOutcome{Owner: ref, Documents: len(docs)}

	recipient, err := s.directory.Contact(ctx, ref)
	if err != nil {
		outcome.Outcome = OutcomeSkipped
		outcome.Reason = "owner contact unresolved"
		s.metrics.IncrementOutcome(OutcomeSkipped)
		s.log.WarnContext(ctx, "reminder skipped, owner contact unresolved",
			"owner", ref.String(), "error", err)
		return outcome
	}

	subject, body, err := s.composeReminder(ctx, recipient, docs, now)
	if err != nil {
		outcome.Outcome = OutcomeFailed
		outcome.Reason = err.Error()
		s.metrics.IncrementOutcome(OutcomeFailed)
		return outcome
	}

	delivered, err := s.dispatcher.Send(ctx, recipient, subject, body)
	if err != nil || !delivered {
		outcome.Outcome = OutcomeFailed
		outcome.Reason = "delivery not confirmed"
		if err != nil {
			outcome.Reason = err.Error()
		}
		s.metrics.IncrementOutcome(OutcomeFailed)
		s.auditor.Record(ctx, audit.Event{
			Action: audit.ActionReminderFailed,
			Owner:  ref,
			Detail: outcome.Reason,
		})
		s.log.WarnContext(ctx, "reminder delivery failed",
			"owner", ref.String(), "reason", outcome.Reason)
		return outcome
	}

	ids := make([]id.DocumentID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	if err := s.documents.MarkReminded(ctx, ids, now); err != nil {
		// Delivery happened but the stamp did not stick; the next sweep
		// will send again. Surface that as a failure so operators see it.
		outcome.Outcome = OutcomeFailed
		outcome.Reason = "reminder stamp failed"
		s.metrics.IncrementOutcome(OutcomeFailed)
		s.log.ErrorContext(ctx, "reminder stamp failed after delivery",
			"owner", ref.String(), "error", err)
		return outcome
	}

	outcome.Outcome = OutcomeReminded
	s.metrics.IncrementOutcome(OutcomeReminded)
	s.auditor.Record(ctx, audit.Event{
		Action: audit.ActionReminderSent,
		Owner:  ref,
		Detail: fmt.Sprintf("%d document(s)", len(docs)),
	})
	return outcome
}

// composeReminder renders the reminder listing each due document's type
// title and expiry description. The salutation is derived from the
// recipient address since the directory only resolves contact points.
func (s *Scheduler) composeReminder(ctx context.Context, recipient string, docs []*models.Document, now time.Time) (subject, body string, err error) {
	var lines []string
	for _, doc := range docs {
		docType, err := s.types.FindByID(ctx, doc.TypeID)
		if err != nil {
			return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "load document type")
		}
		line := docType.Title
		if doc.ExpirationDate != nil {
			days := int(doc.ExpirationDate.Sub(now).Hours() / 24)
			switch {
			case days < 0:
				line += fmt.Sprintf(" (expired %d days ago)", -days)
			case days == 0:
				line += " (expires today)"
			default:
				line += fmt.Sprintf(" (expires in %d days)", days)
			}
		}
		lines = append(lines, "- "+line)
	}
	sort.Strings(lines)

	first, last := email.DeriveNameFromEmail(recipient)
	subject = "Documents about to expire"
	body = fmt.Sprintf("Dear %s %s,\n\nThe following documents need your attention:\n%s",
		first, last, strings.Join(lines, "\n"))
	return subject, body, nil
}

// withoutEternalTypes drops documents whose type cannot expire. Their
// stored expiration dates are meaningless.
func (s *Scheduler) withoutEternalTypes(ctx context.Context, docs []*models.Document) ([]*models.Document, error) {
	types := make(map[id.DocumentTypeID]*models.DocumentType)
	out := docs[:0]
	for _, doc := range docs {
		docType, ok := types[doc.TypeID]
		if !ok {
			var err error
			docType, err = s.types.FindByID(ctx, doc.TypeID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load document type")
			}
			types[doc.TypeID] = docType
		}
		if docType.CannotExpire {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *Scheduler) finish(report Report) Report {
	s.metrics.IncrementSweep(report.Status)
	return report
}

func groupByOwner(docs []*models.Document) map[id.OwnerRef][]*models.Document {
	groups := make(map[id.OwnerRef][]*models.Document)
	for _, doc := range docs {
		groups[doc.Owner] = append(groups[doc.Owner], doc)
	}
	return groups
}
