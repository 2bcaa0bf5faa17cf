package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chessgraph/chessgraph/internal/api/apierr"
	"github.com/chessgraph/chessgraph/internal/api/response"
	"github.com/chessgraph/chessgraph/internal/model"
	"github.com/chessgraph/chessgraph/internal/services/lifecycle"
	"github.com/chessgraph/chessgraph/internal/store"
)

// GraphHandler handles graph query endpoints
type GraphHandler struct {
	manager *lifecycle.Manager
	store   store.Store
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(manager *lifecycle.Manager, st store.Store) *GraphHandler {
	return &GraphHandler{
		manager: manager,
		store:   st,
	}
}

// GetPath handles GET /api/v1/path/{username}. The player's most recent
// month is ingested first so a newly played game can complete the path.
func (h *GraphHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	username := model.NormalizeUsername(mux.Vars(r)["username"])
	if username == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("username is required"))
		return
	}

	path, err := h.manager.PathToSeed(r.Context(), username)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PathFromUsernames(path))
}

// GetPlayer handles GET /api/v1/players/{username}
func (h *GraphHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	username := model.NormalizeUsername(mux.Vars(r)["username"])
	if username == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("username is required"))
		return
	}

	player, err := h.store.GetPlayer(r.Context(), username)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// GetMetadata handles GET /api/v1/metadata
func (h *GraphHandler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.store.GetMetadata(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, meta)
}
