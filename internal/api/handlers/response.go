package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/google/uuid"
	"github.com/joeschweitzer/bayesian/internal/bayesnet"
	"github.com/joeschweitzer/bayesian/internal/domain"
	"github.com/joeschweitzer/bayesian/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service and inference errors onto HTTP statuses.
// Anything unrecognised is reported as fallback without leaking details.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNetworkNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNetworkConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrInvalidDefinition),
		errors.Is(err, bayesnet.ErrUnknownVariable),
		errors.Is(err, bayesnet.ErrInvalidState):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, bayesnet.ErrZeroProbabilityEvidence):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func parseID(w http.ResponseWriter, raw, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody reads a JSON request body, or YAML when the content type says
// so. Unknown fields are rejected.
func decodeBody(r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return domain.DecodeStrict(r.Body, domain.FormatYAML, v)
	default:
		return domain.DecodeStrict(r.Body, domain.FormatJSON, v)
	}
}
