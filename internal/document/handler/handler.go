// Package handler exposes the document API over HTTP.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"legaldocs/internal/document/models"
	"legaldocs/internal/document/service"
	"legaldocs/internal/expiry"
	"legaldocs/internal/owner"
	id "legaldocs/pkg/domain"
	dErrors "legaldocs/pkg/domain-errors"
	"legaldocs/pkg/platform/httputil"
	"legaldocs/pkg/requestcontext"
)

// maxUploadBytes caps document uploads at 8 MiB.
const maxUploadBytes = 8 << 20

// reviewerHeader carries the authenticated reviewer's ID, set by the
// fronting gateway.
const reviewerHeader = "X-Reviewer-ID"

// Service defines the document operations the handler needs.
type Service interface {
	CreateDocument(ctx context.Context, params service.CreateDocumentParams) (*models.Document, *models.DocumentType, error)
	CreateType(ctx context.Context, params service.CreateTypeParams) (*models.DocumentType, error)
	GetDocument(ctx context.Context, docID id.DocumentID) (*models.Document, *models.DocumentType, error)
	MarkValid(ctx context.Context, docID id.DocumentID) (*models.Document, *models.DocumentType, error)
	MarkInvalid(ctx context.Context, docID id.DocumentID) (*models.Document, *models.DocumentType, error)
	MarkWaiting(ctx context.Context, docID id.DocumentID) (*models.Document, *models.DocumentType, error)
	ReplaceDocument(ctx context.Context, ref id.OwnerRef, typeID id.DocumentTypeID, upload service.Upload) (*models.Document, *models.DocumentType, error)
	ListDocumentsFor(ctx context.Context, ref id.OwnerRef) ([]service.DocumentWithType, error)
	ListExpiring(ctx context.Context, ref id.OwnerRef) ([]service.DocumentWithType, error)
	ListTypes(ctx context.Context, ownerKind string) ([]*models.DocumentType, error)
	OwnerKinds() []string
	RecomputeOwnerState(ctx context.Context, ref id.OwnerRef) (owner.LegalState, error)
	ForceOwnerState(ctx context.Context, ref id.OwnerRef, target owner.LegalState) error
	UrgencyClass(doc *models.Document, docType *models.DocumentType, now time.Time) expiry.Tier
}

// Config carries the handler-level rendering knobs.
type Config struct {
	ThresholdDays      int
	ValidationWorkflow bool
}

// Handler handles document API endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
	view    documentView
	cfg     Config
}

// New creates a new document Handler.
func New(svc Service, logger *slog.Logger, cfg Config) *Handler {
	return &Handler{
		service: svc,
		logger:  logger,
		view:    documentView{thresholdDays: cfg.ThresholdDays, workflowEnabled: cfg.ValidationWorkflow},
		cfg:     cfg,
	}
}

// Register registers the document routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requestScope)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", h.handleCreateDocument)
			r.Get("/{documentID}", h.handleGetDocument)
			r.Post("/{documentID}/valid", h.markHandler(h.service.MarkValid))
			r.Post("/{documentID}/invalid", h.markHandler(h.service.MarkInvalid))
			r.Post("/{documentID}/waiting", h.markHandler(h.service.MarkWaiting))
		})

		r.Route("/document-types", func(r chi.Router) {
			r.Get("/", h.handleListTypes)
			r.Post("/", h.handleCreateType)
		})

		r.Get("/owner-kinds", h.handleListOwnerKinds)

		r.Route("/owners/{ownerKind}/{ownerID}", func(r chi.Router) {
			r.Get("/documents", h.handleListDocuments)
			r.Get("/documents/expiring", h.handleListExpiring)
			r.Put("/documents/{typeID}/file", h.handleUploadFile)
			r.Post("/state/recompute", h.handleRecomputeState)
			r.Put("/state", h.handleForceState)
		})
	})
}

// requestScope copies the chi request ID and the reviewer header into the
// request context used below the transport layer.
func (h *Handler) requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		if raw := r.Header.Get(reviewerHeader); raw != "" {
			reviewer, err := id.ParseReviewerID(raw)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed "+reviewerHeader+" header"))
				return
			}
			ctx = requestcontext.WithReviewerID(ctx, reviewer)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[*CreateDocumentRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, docType, err := h.service.CreateDocument(ctx, service.CreateDocumentParams{
		TypeID:         req.ParsedTypeID(),
		Owner:          req.ParsedOwner(),
		ExpirationDate: req.ParsedExpiration(),
		Notes:          req.Notes,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "create document")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, h.view.fromDocument(doc, docType, requestcontext.Now(ctx)))
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	doc, docType, err := h.service.GetDocument(ctx, docID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "get document")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.view.fromDocument(doc, docType, requestcontext.Now(ctx)))
}

// markHandler builds a status transition endpoint around one service call.
func (h *Handler) markHandler(mark func(context.Context, id.DocumentID) (*models.Document, *models.DocumentType, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !h.cfg.ValidationWorkflow {
			httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "validation workflow is disabled"))
			return
		}
		docID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		doc, docType, err := mark(ctx, docID)
		if err != nil {
			h.writeServiceError(ctx, w, err, "mark document")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, h.view.fromDocument(doc, docType, requestcontext.Now(ctx)))
	}
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[*CreateTypeRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	dt, err := h.service.CreateType(ctx, service.CreateTypeParams{
		Title:                req.Title,
		Description:          req.Description,
		CannotExpire:         req.CannotExpire,
		Mandatory:            req.Mandatory,
		ApplicableOwnerKinds: req.ApplyOnlyTo,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "create document type")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromType(dt))
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerKind := r.URL.Query().Get("owner_kind")
	if ownerKind == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "owner_kind query parameter is required"))
		return
	}
	types, err := h.service.ListTypes(ctx, ownerKind)
	if err != nil {
		h.writeServiceError(ctx, w, err, "list document types")
		return
	}
	out := make([]*TypeResponse, 0, len(types))
	for _, dt := range types {
		out = append(out, fromType(dt))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// handleListOwnerKinds reports the owner kinds the deployment accepts, so
// callers can build owner references without guessing.
func (h *Handler) handleListOwnerKinds(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, OwnerKindsResponse{OwnerKinds: h.service.OwnerKinds()})
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	h.listDocuments(w, r, h.service.ListDocumentsFor)
}

func (h *Handler) handleListExpiring(w http.ResponseWriter, r *http.Request) {
	h.listDocuments(w, r, h.service.ListExpiring)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request, list func(context.Context, id.OwnerRef) ([]service.DocumentWithType, error)) {
	ctx := r.Context()
	ref, err := ownerRefFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := list(ctx, ref)
	if err != nil {
		h.writeServiceError(ctx, w, err, "list documents")
		return
	}
	now := requestcontext.Now(ctx)
	out := make([]*DocumentResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, h.view.fromDocument(entry.Document, entry.Type, now))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, err := ownerRefFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	typeID, err := id.ParseDocumentTypeID(chi.URLParam(r, "typeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "multipart form with a file field is required"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "file field is required"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "could not read uploaded file"))
		return
	}

	doc, docType, err := h.service.ReplaceDocument(ctx, ref, typeID, service.Upload{
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err, "replace document")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.view.fromDocument(doc, docType, requestcontext.Now(ctx)))
}

func (h *Handler) handleRecomputeState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, err := ownerRefFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, err := h.service.RecomputeOwnerState(ctx, ref)
	if err != nil {
		h.writeServiceError(ctx, w, err, "recompute owner state")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromState(ref.Kind, int64(ref.ID), state))
}

func (h *Handler) handleForceState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref, err := ownerRefFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[*ForceStateRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, err := owner.ParseLegalState(req.State)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.ForceOwnerState(ctx, ref, state); err != nil {
		h.writeServiceError(ctx, w, err, "force owner state")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromState(ref.Kind, int64(ref.ID), state))
}

// writeServiceError logs server-side failures and writes the mapped error.
// Client errors pass through without noise.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	code := dErrors.GetCode(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeUnavailable {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func ownerRefFromPath(r *http.Request) (id.OwnerRef, error) {
	kind := chi.URLParam(r, "ownerKind")
	rawID := chi.URLParam(r, "ownerID")
	ownerID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return id.OwnerRef{}, dErrors.New(dErrors.CodeValidation, "owner id must be an integer")
	}
	return id.NewOwnerRef(kind, id.OwnerID(ownerID))
}
