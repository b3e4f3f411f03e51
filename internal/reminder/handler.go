package reminder

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	id "legaldocs/pkg/domain"
	dErrors "legaldocs/pkg/domain-errors"
	"legaldocs/pkg/platform/httputil"
)

// Handler exposes the sweep trigger and the manual owner reminder.
type Handler struct {
	scheduler *Scheduler
	logger    *slog.Logger
}

func NewHandler(scheduler *Scheduler, logger *slog.Logger) *Handler {
	return &Handler{scheduler: scheduler, logger: logger}
}

// Register registers the reminder routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/internal/reminders/run", h.handleRunSweep)
	r.Post("/owners/{ownerKind}/{ownerID}/reminders", h.handleOwnerReminder)
}

func (h *Handler) handleRunSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.scheduler.RunSweep(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "reminder sweep failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleOwnerReminder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := chi.URLParam(r, "ownerKind")
	rawID := chi.URLParam(r, "ownerID")
	ownerID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "owner id must be an integer"))
		return
	}
	ref, err := id.NewOwnerRef(kind, id.OwnerID(ownerID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.scheduler.SendOwnerReminder(ctx, ref)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, outcome)
}
