package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks DocumentStore,TypeStore,Rollup,FileStore,Dispatcher,Directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"legaldocs/internal/audit"
	"legaldocs/internal/document/metrics"
	"legaldocs/internal/document/models"
	"legaldocs/internal/expiry"
	"legaldocs/internal/filestore"
	"legaldocs/internal/owner"
	"legaldocs/internal/ownerkind"
	id "legaldocs/pkg/domain"
	dErrors "legaldocs/pkg/domain-errors"
	"legaldocs/pkg/platform/sentinel"
	"legaldocs/pkg/platform/tx"
	"legaldocs/pkg/requestcontext"
)

type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	ListByOwner(ctx context.Context, ref id.OwnerRef) ([]*models.Document, error)
	FindByOwnerAndType(ctx context.Context, ref id.OwnerRef, typeID id.DocumentTypeID) (*models.Document, error)
}

type TypeStore interface {
	Create(ctx context.Context, dt *models.DocumentType) error
	FindByID(ctx context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error)
	List(ctx context.Context) ([]*models.DocumentType, error)
}

// Rollup recomputes the owner-level legal state after document mutations.
type Rollup interface {
	ApplyIfChanged(ctx context.Context, ref id.OwnerRef) (owner.LegalState, error)
	ForceState(ctx context.Context, ref id.OwnerRef, target owner.LegalState) error
}

type FileStore interface {
	Store(ctx context.Context, data []byte, suggestedName string) (filestore.FileRef, error)
	Delete(ctx context.Context, ref filestore.FileRef) error
	Exists(ctx context.Context, ref filestore.FileRef) (bool, error)
}

type Dispatcher interface {
	Send(ctx context.Context, recipient, subject, body string) (bool, error)
}

type Directory interface {
	Contact(ctx context.Context, ref id.OwnerRef) (string, error)
}

// Config carries the service-level knobs sourced from the environment.
type Config struct {
	// AllowedExtensions whitelists upload file extensions, lowercase and
	// without the dot.
	AllowedExtensions []string
	// ThresholdDays is the expiry proximity window used for urgency and
	// the about-to-expire listing.
	ThresholdDays int
	// ValidationWorkflow switches urgency derivation to review-aware mode.
	ValidationWorkflow bool
}

// Service orchestrates document lifecycle operations. It keeps handlers thin
// and domain logic in models.
type Service struct {
	documents  DocumentStore
	types      TypeStore
	rollup     Rollup
	files      FileStore
	dispatcher Dispatcher
	directory  Directory
	registry   *ownerkind.Registry
	auditor    *audit.Publisher
	metrics    *metrics.Metrics
	runner     tx.Runner
	log        *slog.Logger
	cfg        Config
}

func NewService(
	documents DocumentStore,
	types TypeStore,
	rollup Rollup,
	files FileStore,
	dispatcher Dispatcher,
	directory Directory,
	registry *ownerkind.Registry,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	runner tx.Runner,
	log *slog.Logger,
	cfg Config,
) *Service {
	return &Service{
		documents:  documents,
		types:      types,
		rollup:     rollup,
		files:      files,
		dispatcher: dispatcher,
		directory:  directory,
		registry:   registry,
		auditor:    auditor,
		metrics:    m,
		runner:     runner,
		log:        log,
		cfg:        cfg,
	}
}

// CreateTypeParams is the validated input for CreateType.
type CreateTypeParams struct {
	Title                string
	Description          string
	CannotExpire         bool
	Mandatory            bool
	ApplicableOwnerKinds []string
}

// CreateType registers a new document type. Every applicable kind must be
// known to the registry; an empty set means the type applies to all kinds.
func (s *Service) CreateType(ctx context.Context, params CreateTypeParams) (*models.DocumentType, error) {
	for _, kind := range params.ApplicableOwnerKinds {
		if !s.registry.IsRegistered(kind) {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown owner kind: "+kind)
		}
	}
	dt, err := models.NewDocumentType(id.NewDocumentTypeID(), params.Title, params.Description, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	dt.CannotExpire = params.CannotExpire
	dt.Mandatory = params.Mandatory
	dt.ApplicableOwnerKinds = params.ApplicableOwnerKinds

	if err := s.types.Create(ctx, dt); err != nil {
		return nil, translateStoreErr(err, "document type")
	}
	return dt, nil
}

// CreateDocumentParams is the validated input for CreateDocument.
type CreateDocumentParams struct {
	TypeID         id.DocumentTypeID
	Owner          id.OwnerRef
	ExpirationDate *time.Time
	Notes          string
}

// CreateDocument registers a new document in the Waiting state for an owner.
// The document type must apply to the owner's kind.
func (s *Service) CreateDocument(ctx context.Context, params CreateDocumentParams) (*models.Document, *models.DocumentType, error) {
	if err := s.registry.ValidateRef(params.Owner); err != nil {
		return nil, nil, err
	}
	docType, err := s.loadType(ctx, params.TypeID)
	if err != nil {
		return nil, nil, err
	}
	if !s.registry.Applies(docType.ApplicableOwnerKinds, params.Owner.Kind) {
		return nil, nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("document type %q does not apply to owner kind %q", docType.Title, params.Owner.Kind))
	}

	now := requestcontext.Now(ctx)
	doc, err := models.NewDocument(id.NewDocumentID(), params.TypeID, params.Owner, now)
	if err != nil {
		return nil, nil, err
	}
	doc.ExpirationDate = params.ExpirationDate
	doc.Notes = params.Notes

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.documents.Create(ctx, doc); err != nil {
			return translateStoreErr(err, "document")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.metrics.IncrementDocumentCreated(params.Owner.Kind, "create")
	s.auditor.Record(ctx, audit.Event{
		Action:     audit.ActionDocumentCreated,
		Owner:      params.Owner,
		DocumentID: doc.ID.String(),
		Detail:     docType.Title,
	})
	s.recomputeOwner(ctx, params.Owner)
	return doc, docType, nil
}

// MarkValid records a positive review outcome.
func (s *Service) MarkValid(ctx context.Context, docID id.DocumentID) (*models.Document, *models.DocumentType, error) {
	return s.markStatus(ctx, docID, models.StatusValid)
}

// MarkInvalid records a negative review outcome.
func (s *Service) MarkInvalid(ctx context.Context, docID id.DocumentID) (*models.Document, *models.DocumentType, error) {
	return s.markStatus(ctx, docID, models.StatusInvalid)
}

// MarkWaiting sends a document back to the review queue.
func (s *Service) MarkWaiting(ctx context.Context, docID id.DocumentID) (*models.Document, *models.DocumentType, error) {
	return s.markStatus(ctx, docID, models.StatusWaiting)
}

func (s *Service) markStatus(ctx context.Context, docID id.DocumentID, status models.Status) (*models.Document, *models.DocumentType, error) {
	if docID.IsNil() {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "document id is required")
	}
	doc, err := s.documents.FindByID(ctx, docID)
	if err != nil {
		return nil, nil, translateStoreErr(err, "document")
	}
	docType, err := s.loadType(ctx, doc.TypeID)
	if err != nil {
		return nil, nil, err
	}
	if doc.Status == status {
		return doc, docType, nil
	}

	now := requestcontext.Now(ctx)
	doc.ApplyStatus(status, requestcontext.ReviewerID(ctx), now)

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.documents.Update(ctx, doc); err != nil {
			return translateStoreErr(err, "document")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.metrics.IncrementStatusTransition(string(status))
	s.auditor.Record(ctx, audit.Event{
		Action:     audit.ActionStatusChanged,
		Owner:      doc.Owner,
		DocumentID: doc.ID.String(),
		Detail:     string(status),
	})
	s.notifyStatusChange(ctx, doc, status)
	s.recomputeOwner(ctx, doc.Owner)
	return doc, docType, nil
}

// Upload is the raw file content submitted for a document.
type Upload struct {
	Filename string
	Data     []byte
}

// ReplaceDocument attaches a new file to the owner's document of the given
// type, creating the document if none exists yet. An existing document is
// reset to Waiting with its review and reminder history cleared, and its
// previous file is removed from storage.
func (s *Service) ReplaceDocument(ctx context.Context, ref id.OwnerRef, typeID id.DocumentTypeID, upload Upload) (*models.Document, *models.DocumentType, error) {
	if err := s.registry.ValidateRef(ref); err != nil {
		return nil, nil, err
	}
	docType, err := s.loadType(ctx, typeID)
	if err != nil {
		return nil, nil, err
	}
	if !s.registry.Applies(docType.ApplicableOwnerKinds, ref.Kind) {
		return nil, nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("document type %q does not apply to owner kind %q", docType.Title, ref.Kind))
	}
	ext, err := s.validateExtension(upload.Filename)
	if err != nil {
		return nil, nil, err
	}
	if len(upload.Data) == 0 {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "uploaded file is empty")
	}

	now := requestcontext.Now(ctx)
	action := audit.ActionDocumentCreated
	operation := "create"

	doc, err := s.documents.FindByOwnerAndType(ctx, ref, typeID)
	switch {
	case err == nil:
		if doc.FileRef != "" {
			if err := s.files.Delete(ctx, filestore.FileRef(doc.FileRef)); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "remove replaced file")
			}
		}
		doc.ResetForReplacement(now)
		action = audit.ActionDocumentReplaced
		operation = "replace"
	case errors.Is(err, sentinel.ErrNotFound):
		doc, err = models.NewDocument(id.NewDocumentID(), typeID, ref, now)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "find document")
	}

	fileRef, err := s.files.Store(ctx, upload.Data, fmt.Sprintf("Doc%s.%s", doc.ID.String(), ext))
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "store uploaded file")
	}
	doc.FileRef = string(fileRef)
	doc.UpdatedAt = now

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if action == audit.ActionDocumentReplaced {
			return translateStoreErr(s.documents.Update(ctx, doc), "document")
		}
		return translateStoreErr(s.documents.Create(ctx, doc), "document")
	})
	if err != nil {
		return nil, nil, err
	}

	s.metrics.IncrementDocumentCreated(ref.Kind, operation)
	s.auditor.Record(ctx, audit.Event{
		Action:     action,
		Owner:      ref,
		DocumentID: doc.ID.String(),
		Detail:     docType.Title,
	})
	s.recomputeOwner(ctx, ref)
	return doc, docType, nil
}

// DocumentWithType pairs a document with its resolved type. List surfaces
// need the type because cannot-expire types override any stored date when
// rendering expiry and urgency.
type DocumentWithType struct {
	Document *models.Document
	Type     *models.DocumentType
}

// ListDocumentsFor returns all documents attached to an owner with their
// types, soonest expiration first.
func (s *Service) ListDocumentsFor(ctx context.Context, ref id.OwnerRef) ([]DocumentWithType, error) {
	if err := s.registry.ValidateRef(ref); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByOwner(ctx, ref)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	return s.withTypes(ctx, docs)
}

// ListTypes returns the document types applicable to an owner kind,
// alphabetical by title.
func (s *Service) ListTypes(ctx context.Context, ownerKind string) ([]*models.DocumentType, error) {
	if !s.registry.IsRegistered(ownerKind) {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown owner kind: "+ownerKind)
	}
	all, err := s.types.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list document types")
	}
	var out []*models.DocumentType
	for _, dt := range all {
		if s.registry.Applies(dt.ApplicableOwnerKinds, ownerKind) {
			out = append(out, dt)
		}
	}
	return out, nil
}

// OwnerKinds returns the owner kinds this deployment accepts, sorted.
func (s *Service) OwnerKinds() []string {
	return s.registry.Kinds()
}

// GetDocument loads a single document with its type.
func (s *Service) GetDocument(ctx context.Context, docID id.DocumentID) (*models.Document, *models.DocumentType, error) {
	if docID.IsNil() {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "document id is required")
	}
	doc, err := s.documents.FindByID(ctx, docID)
	if err != nil {
		return nil, nil, translateStoreErr(err, "document")
	}
	docType, err := s.loadType(ctx, doc.TypeID)
	if err != nil {
		return nil, nil, err
	}
	return doc, docType, nil
}

// ListExpiring returns the owner's documents that are expired or expire
// within the configured threshold. Types that cannot expire never appear.
func (s *Service) ListExpiring(ctx context.Context, ref id.OwnerRef) ([]DocumentWithType, error) {
	if err := s.registry.ValidateRef(ref); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByOwner(ctx, ref)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	entries, err := s.withTypes(ctx, docs)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var out []DocumentWithType
	for _, entry := range entries {
		if entry.Type.CannotExpire {
			continue
		}
		facts := expiry.Evaluate(entry.Document.ExpirationDate, now, s.cfg.ThresholdDays)
		if facts.IsExpired || facts.Tier == expiry.TierAmber {
			out = append(out, entry)
		}
	}
	return out, nil
}

// withTypes resolves each document's type, fetching every distinct type
// only once.
func (s *Service) withTypes(ctx context.Context, docs []*models.Document) ([]DocumentWithType, error) {
	cache := make(map[id.DocumentTypeID]*models.DocumentType)
	out := make([]DocumentWithType, 0, len(docs))
	for _, doc := range docs {
		docType, ok := cache[doc.TypeID]
		if !ok {
			var err error
			docType, err = s.loadType(ctx, doc.TypeID)
			if err != nil {
				return nil, err
			}
			cache[doc.TypeID] = docType
		}
		out = append(out, DocumentWithType{Document: doc, Type: docType})
	}
	return out, nil
}

// RecomputeOwnerState forces a rollup recompute and returns the resulting
// legal state.
func (s *Service) RecomputeOwnerState(ctx context.Context, ref id.OwnerRef) (owner.LegalState, error) {
	return s.rollup.ApplyIfChanged(ctx, ref)
}

// ForceOwnerState overrides the owner's legal state, resetting conflicting
// document reviews.
func (s *Service) ForceOwnerState(ctx context.Context, ref id.OwnerRef, target owner.LegalState) error {
	return s.rollup.ForceState(ctx, ref, target)
}

// UrgencyClass exposes the admin-surface urgency tier for one document.
func (s *Service) UrgencyClass(doc *models.Document, docType *models.DocumentType, now time.Time) expiry.Tier {
	return doc.UrgencyClass(docType, now, s.cfg.ThresholdDays, s.cfg.ValidationWorkflow)
}

// recomputeOwner refreshes the owner rollup after a mutation. The mutation
// itself is already committed; rollup failures are logged, not surfaced.
func (s *Service) recomputeOwner(ctx context.Context, ref id.OwnerRef) {
	if _, err := s.rollup.ApplyIfChanged(ctx, ref); err != nil {
		s.log.ErrorContext(ctx, "owner rollup recompute failed",
			"owner", ref.String(), "error", err)
	}
}

// notifyStatusChange tells the owner about a review outcome. Delivery is
// best effort and never rolls back the transition.
func (s *Service) notifyStatusChange(ctx context.Context, doc *models.Document, status models.Status) {
	recipient, err := s.directory.Contact(ctx, doc.Owner)
	if err != nil {
		s.log.WarnContext(ctx, "owner contact unresolved, skipping notification",
			"owner", doc.Owner.String(), "error", err)
		return
	}
	subject := "Document review update"
	body := fmt.Sprintf("Your document was marked %s.", strings.ToLower(string(status)))
	if _, err := s.dispatcher.Send(ctx, recipient, subject, body); err != nil {
		s.log.WarnContext(ctx, "status notification failed",
			"owner", doc.Owner.String(), "error", err)
	}
}

func (s *Service) loadType(ctx context.Context, typeID id.DocumentTypeID) (*models.DocumentType, error) {
	if typeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "document type id is required")
	}
	docType, err := s.types.FindByID(ctx, typeID)
	if err != nil {
		return nil, translateStoreErr(err, "document type")
	}
	return docType, nil
}

// validateExtension checks the upload filename against the configured
// whitelist and returns the normalized extension.
func (s *Service) validateExtension(filename string) (string, error) {
	ext := filestore.ExtensionOf(filestore.FileRef(filename))
	if ext == "" {
		return "", dErrors.New(dErrors.CodeValidation, "uploaded file has no extension")
	}
	if !slices.Contains(s.cfg.AllowedExtensions, ext) {
		return "", dErrors.New(dErrors.CodeValidation, "file extension not allowed: "+ext)
	}
	return ext, nil
}

// translateStoreErr maps infrastructure sentinels onto domain errors.
func translateStoreErr(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, entity+" already exists")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.New(dErrors.CodeUnavailable, entity+" store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "store "+entity)
	}
}
