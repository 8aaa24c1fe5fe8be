package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/lapicque/internal/adapters/repository"
)

const (
	defaultActivityLimit = 10
	maxActivityLimit     = 1000
)

// ActivityDependencies defines the interface for the spike ranking.
type ActivityDependencies interface {
	TopNeurons(ctx context.Context, n int) ([]repository.Entry, error)
	NeuronRank(ctx context.Context, id string) (repository.Entry, error)
}

// ActivityHandler serves the neurons ranked by spike count.
type ActivityHandler struct {
	deps     ActivityDependencies
	maxLimit int
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(deps ActivityDependencies, maxLimit int) *ActivityHandler {
	return &ActivityHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetTop handles GET /activity?limit=N requests.
func (h *ActivityHandler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_activity"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		n, err = strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeKindError(w, NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.TopNeurons(r.Context(), n)
	if err != nil {
		writeKindError(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetRank handles GET /activity/{neuron_id} requests.
func (h *ActivityHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/activity/")
	if id == "" || strings.Contains(id, "/") {
		writeKindError(w, NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.NeuronRank(r.Context(), id)
	if err != nil {
		writeKindError(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
