package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joeschweitzer/bayesian/internal/service"
)

type SessionHandler struct {
	svc *service.SessionService
}

func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type enterEvidenceRequest struct {
	State string `json:"state"`
}

// Open starts an evidence session over a stored network.
// POST /v1/networks/{id}/sessions
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	networkID, ok := parseID(w, chi.URLParam(r, "id"), "network")
	if !ok {
		return
	}

	sess, err := h.svc.Open(r.Context(), networkID)
	if err != nil {
		writeServiceError(w, err, "failed to open session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "session")
	if !ok {
		return
	}

	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DELETE /v1/sessions/{id}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "session")
	if !ok {
		return
	}

	if err := h.svc.Close(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to close session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EnterEvidence observes a variable in one state, replacing any earlier
// observation of it.
// PUT /v1/sessions/{id}/evidence/{variable}
func (h *SessionHandler) EnterEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "session")
	if !ok {
		return
	}

	var req enterEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.State == "" {
		writeError(w, http.StatusBadRequest, "state is required")
		return
	}

	sess, err := h.svc.EnterEvidence(r.Context(), id, chi.URLParam(r, "variable"), req.State)
	if err != nil {
		writeServiceError(w, err, "failed to enter evidence")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DELETE /v1/sessions/{id}/evidence/{variable}
func (h *SessionHandler) RetractEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "session")
	if !ok {
		return
	}

	sess, err := h.svc.RetractEvidence(r.Context(), id, chi.URLParam(r, "variable"))
	if err != nil {
		writeServiceError(w, err, "failed to retract evidence")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DELETE /v1/sessions/{id}/evidence
func (h *SessionHandler) ClearEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "session")
	if !ok {
		return
	}

	sess, err := h.svc.ClearEvidence(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to clear evidence")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Beliefs returns every variable's belief under the session's evidence.
// GET /v1/sessions/{id}/beliefs
func (h *SessionHandler) Beliefs(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "session")
	if !ok {
		return
	}

	result, err := h.svc.Beliefs(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to compute beliefs")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GET /v1/sessions/{id}/beliefs/{variable}
func (h *SessionHandler) Belief(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "session")
	if !ok {
		return
	}

	result, err := h.svc.Belief(r.Context(), id, chi.URLParam(r, "variable"))
	if err != nil {
		writeServiceError(w, err, "failed to compute belief")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
