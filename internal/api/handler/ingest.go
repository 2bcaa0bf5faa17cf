package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/chessgraph/chessgraph/internal/api/apierr"
	"github.com/chessgraph/chessgraph/internal/api/request"
	"github.com/chessgraph/chessgraph/internal/api/response"
	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/services/lifecycle"
)

// IngestHandler handles ingestion and storage maintenance endpoints
type IngestHandler struct {
	manager *lifecycle.Manager
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(manager *lifecycle.Manager) *IngestHandler {
	return &IngestHandler{
		manager: manager,
	}
}

// Historical handles POST /api/v1/ingest/historical
func (h *IngestHandler) Historical(w http.ResponseWriter, r *http.Request) {
	var req request.HistoricalIngestRequest
	if err := decodeOptional(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	summary, err := h.manager.IngestHistorical(r.Context(), model.Username(req.Seed))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, summary)
}

// Incremental handles POST /api/v1/ingest/incremental
func (h *IngestHandler) Incremental(w http.ResponseWriter, r *http.Request) {
	var req request.IncrementalIngestRequest
	if err := decodeOptional(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if req.Months < 0 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("months must not be negative"))
		return
	}

	summary, err := h.manager.IncrementalUpdate(r.Context(), req.Months)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, summary)
}

// Usage handles GET /api/v1/storage/usage
func (h *IngestHandler) Usage(w http.ResponseWriter, r *http.Request) {
	report, err := h.manager.MonitorStorageUsage(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, report)
}

// Cleanup handles POST /api/v1/storage/cleanup
func (h *IngestHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req request.CleanupRequest
	if err := decodeOptional(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if req.MaxAgeYears < 0 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("max_age_years must not be negative"))
		return
	}

	result, err := h.manager.CleanupOldData(r.Context(), req.MaxAgeYears)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// decodeOptional decodes a JSON request body, treating an empty body as
// the zero request
func decodeOptional(r *http.Request, out any) error {
	err := json.NewDecoder(r.Body).Decode(out)
	if err != nil && !errors.Is(err, io.EOF) {
		return apierr.NewInvalidRequestError("invalid request body")
	}
	return nil
}
