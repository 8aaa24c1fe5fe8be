package api

import (
	"net/http"
	"strings"

	"github.com/okian/lapicque/internal/domain/neuron"
)

// NeuronDependencies defines the interface for single neuron reads.
type NeuronDependencies interface {
	Neuron(id string) (neuron.State, error)
}

// NeuronHandler handles neuron requests.
type NeuronHandler struct {
	deps NeuronDependencies
}

// NewNeuronHandler creates a new neuron handler.
func NewNeuronHandler(deps NeuronDependencies) *NeuronHandler {
	return &NeuronHandler{deps: deps}
}

// HandleGetNeuron handles GET /neurons/{id} requests.
func (h *NeuronHandler) HandleGetNeuron(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_neuron"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/neurons/")
	if id == "" || strings.Contains(id, "/") {
		writeKindError(w, NewKind(op, ErrBadRequest))
		return
	}
	state, err := h.deps.Neuron(id)
	if err != nil {
		writeKindError(w, classify(op, err))
		return
	}
	writeJSON(w, http.StatusOK, state)
}
