package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/okian/lapicque/internal/domain/model"
)

// StimulusDependencies defines the interface for stimulus submission.
type StimulusDependencies interface {
	Submit(ctx context.Context, s model.Stimulus) (model.Receipt, error)
}

// StimuliHandler handles stimulus requests.
type StimuliHandler struct {
	deps StimulusDependencies
}

// NewStimuliHandler creates a new stimuli handler.
func NewStimuliHandler(deps StimulusDependencies) *StimuliHandler {
	return &StimuliHandler{deps: deps}
}

// stimulusRequest is the body of POST /stimuli.
type stimulusRequest struct {
	StimulusID string   `json:"stimulus_id"`
	NeuronID   string   `json:"neuron_id"`
	Kind       string   `json:"kind"`
	Value      *float64 `json:"value"`
}

func (s stimulusRequest) validate() (model.StimulusKind, error) {
	switch {
	case strings.TrimSpace(s.NeuronID) == "":
		return "", errors.New("missing neuron_id")
	case s.Value == nil:
		return "", errors.New("missing value")
	case math.IsNaN(*s.Value) || math.IsInf(*s.Value, 0):
		return "", errors.New("value must be finite")
	}
	return model.ParseStimulusKind(s.Kind)
}

type ackResponse struct {
	Status     string `json:"status"`
	StimulusID string `json:"stimulus_id"`
	Duplicate  bool   `json:"duplicate"`
}

// HandlePostStimulus handles POST /stimuli requests.
func (h *StimuliHandler) HandlePostStimulus(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_stimulus"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req stimulusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	kind, err := req.validate()
	if err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	receipt, err := h.deps.Submit(r.Context(), model.Stimulus{
		ID:       strings.TrimSpace(req.StimulusID),
		NeuronID: req.NeuronID,
		Kind:     kind,
		Value:    *req.Value,
	})
	if err != nil {
		writeKindError(w, classify(op, err))
		return
	}

	if receipt.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", StimulusID: receipt.ID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", StimulusID: receipt.ID})
}
