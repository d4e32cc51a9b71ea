package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joeschweitzer/bayesian/internal/domain"
	"github.com/joeschweitzer/bayesian/internal/service"
	"go.uber.org/zap"
)

type NetworkHandler struct {
	svc      *service.NetworkService
	sessions *service.SessionService
	logger   *zap.Logger
}

func NewNetworkHandler(svc *service.NetworkService, sessions *service.SessionService, logger *zap.Logger) *NetworkHandler {
	return &NetworkHandler{svc: svc, sessions: sessions, logger: logger}
}

type createNetworkRequest struct {
	Name        string                   `json:"name" yaml:"name"`
	Description string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Definition  domain.NetworkDefinition `json:"definition" yaml:"definition"`
}

type networkResponse struct {
	ID               string                   `json:"id"`
	Name             string                   `json:"name"`
	Description      string                   `json:"description,omitempty"`
	Definition       domain.NetworkDefinition `json:"definition"`
	EliminationOrder []string                 `json:"elimination_order,omitempty"`
	CreatedAt        string                   `json:"created_at"`
	UpdatedAt        string                   `json:"updated_at"`
}

type networkSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Variables   int    `json:"variables"`
	CreatedAt   string `json:"created_at"`
}

type listNetworksResponse struct {
	Networks []networkSummary `json:"networks"`
	Count    int              `json:"count"`
}

type queryRequest struct {
	Variables []string          `json:"variables,omitempty"`
	Evidence  map[string]string `json:"evidence,omitempty"`
}

// Create validates, compiles and stores a network. The body may be JSON
// or, with an application/yaml content type, YAML.
// POST /v1/networks
func (h *NetworkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNetworkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	n := &domain.Network{
		Name:        req.Name,
		Description: req.Description,
		Definition:  req.Definition,
	}
	net, err := h.svc.Create(r.Context(), n)
	if err != nil {
		writeServiceError(w, err, "failed to create network")
		return
	}

	resp := toNetworkResponse(n)
	resp.EliminationOrder = net.EliminationOrder()
	writeJSON(w, http.StatusCreated, resp)
}

// List returns stored networks, newest first.
// GET /v1/networks?limit=N
func (h *NetworkHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	networks, err := h.svc.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err, "failed to list networks")
		return
	}

	resp := listNetworksResponse{Networks: make([]networkSummary, 0, len(networks))}
	for _, n := range networks {
		resp.Networks = append(resp.Networks, networkSummary{
			ID:          n.ID.String(),
			Name:        n.Name,
			Description: n.Description,
			Variables:   len(n.Definition.Variables),
			CreatedAt:   n.CreatedAt.Format(time.RFC3339),
		})
	}
	resp.Count = len(resp.Networks)
	writeJSON(w, http.StatusOK, resp)
}

// GET /v1/networks/{id}
func (h *NetworkHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "network")
	if !ok {
		return
	}

	n, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to get network")
		return
	}
	resp := toNetworkResponse(n)
	if net, err := h.svc.Compiled(r.Context(), id); err == nil {
		resp.EliminationOrder = net.EliminationOrder()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete removes a network and closes its open sessions.
// DELETE /v1/networks/{id}
func (h *NetworkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "network")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete network")
		return
	}
	if closed := h.sessions.CloseForNetwork(id); closed > 0 {
		h.logger.Info("closed sessions of deleted network",
			zap.String("network_id", id.String()),
			zap.Int("sessions", closed))
	}
	w.WriteHeader(http.StatusNoContent)
}

// Query computes beliefs under the given evidence without opening a session.
// POST /v1/networks/{id}/query
func (h *NetworkHandler) Query(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, chi.URLParam(r, "id"), "network")
	if !ok {
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Query(r.Context(), id, req.Variables, req.Evidence)
	if err != nil {
		writeServiceError(w, err, "failed to query network")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func toNetworkResponse(n *domain.Network) networkResponse {
	return networkResponse{
		ID:          n.ID.String(),
		Name:        n.Name,
		Description: n.Description,
		Definition:  n.Definition,
		CreatedAt:   n.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   n.UpdatedAt.Format(time.RFC3339),
	}
}
