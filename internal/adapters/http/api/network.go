package api

import (
	"net/http"

	"github.com/okian/lapicque/internal/domain/model"
)

// NetworkDependencies defines the interface for frame reads.
type NetworkDependencies interface {
	Snapshot() (model.Snapshot, error)
}

// NetworkHandler serves the latest frame.
type NetworkHandler struct {
	deps NetworkDependencies
}

// NewNetworkHandler creates a new network handler.
func NewNetworkHandler(deps NetworkDependencies) *NetworkHandler {
	return &NetworkHandler{deps: deps}
}

// HandleGetNetwork handles GET /network requests.
func (h *NetworkHandler) HandleGetNetwork(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Snapshot()
	if err != nil {
		writeKindError(w, classify("api.get_network", err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
