package web

import (
	"encoding/json"
	"net/http"

	"github.com/hpungsan/cull/internal/decision"
	"github.com/hpungsan/cull/internal/errors"
	"github.com/hpungsan/cull/internal/triage"
)

// Handlers contains HTTP route handlers for the triage API.
type Handlers struct {
	svc   *triage.Service
	store decision.Store
}

// decisionRequest is the POST /api/decision body.
type decisionRequest struct {
	Handle   string `json:"handle"`
	Decision string `json:"decision"`
}

// HandleItems handles GET /api/items — every catalog item annotated with
// its current decision.
func (h *Handlers) HandleItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Items(r.Context())
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, items)
}

// HandleProgress handles GET /api/progress — aggregate triage counters.
func (h *Handlers) HandleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.svc.Progress(r.Context())
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, progress)
}

// HandleDecision handles POST /api/decision — record a keep/delete
// verdict for one handle. Invalid input is rejected before any write.
func (h *Handlers) HandleDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	if req.Handle == "" {
		renderError(w, errors.NewInvalidRequest("handle is required"))
		return
	}
	d, err := decision.Parse(req.Decision)
	if err != nil {
		renderError(w, errors.NewInvalidRequest(err.Error()))
		return
	}

	if err := h.store.Save(r.Context(), req.Handle, d); err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleDecisionDelete handles DELETE /api/decision/{handle} — clear a
// recorded verdict. Idempotent: clearing an absent handle succeeds.
func (h *Handlers) HandleDecisionDelete(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	if handle == "" {
		renderError(w, errors.NewInvalidRequest("handle is required"))
		return
	}

	if err := h.store.Delete(r.Context(), handle); err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleExport handles GET /api/export — CSV download of the items
// currently marked delete.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	csv, err := h.svc.ExportDeletions(r.Context())
	if err != nil {
		renderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=items-to-delete.csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(csv)
}

// renderJSON writes a JSON response with the given status.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes a structured error body with the status carried by
// the error, or 500 for anything unrecognized.
func renderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	if tErr, ok := err.(*errors.TriageError); ok {
		status = tErr.Status
		msg = tErr.Message
	}
	renderJSON(w, status, map[string]any{"error": msg})
}
