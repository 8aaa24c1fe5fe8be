package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/lapicque/internal/adapters/http/api"
	stimqueue "github.com/okian/lapicque/internal/adapters/mq/queue"
	"github.com/okian/lapicque/internal/adapters/repository"
	"github.com/okian/lapicque/internal/domain/model"
	"github.com/okian/lapicque/internal/domain/network"
	"github.com/okian/lapicque/internal/domain/neuron"
	. "github.com/smartystreets/goconvey/convey"
)

// mockSim records submissions and answers reads from fixed state.
type mockSim struct {
	seen      map[string]bool
	submitted []model.Stimulus
	submitErr error
	snapshot  model.Snapshot
	neurons   map[string]neuron.State
}

func newMockSim() *mockSim {
	return &mockSim{
		seen: make(map[string]bool),
		snapshot: model.Snapshot{Frame: 3, Tick: 30, Neurons: []neuron.State{
			{ID: "n0", Voltage: -60},
		}},
		neurons: map[string]neuron.State{"n0": {ID: "n0", Voltage: -60, Current: 25}},
	}
}

func (m *mockSim) Submit(_ context.Context, s model.Stimulus) (model.Receipt, error) {
	if m.submitErr != nil {
		return model.Receipt{}, m.submitErr
	}
	if _, ok := m.neurons[s.NeuronID]; !ok {
		return model.Receipt{}, network.ErrNeuronNotFound
	}
	if s.ID == "" {
		s.ID = "generated"
	}
	if m.seen[s.ID] {
		return model.Receipt{ID: s.ID, Duplicate: true}, nil
	}
	m.seen[s.ID] = true
	m.submitted = append(m.submitted, s)
	return model.Receipt{ID: s.ID}, nil
}

func (m *mockSim) Snapshot() (model.Snapshot, error) { return m.snapshot, nil }

var mockRanking = []repository.Entry{
	{Rank: 1, NeuronID: "n0", Spikes: 4},
	{Rank: 2, NeuronID: "n1", Spikes: 1},
}

func (m *mockSim) TopNeurons(_ context.Context, n int) ([]repository.Entry, error) {
	if n < 1 {
		return nil, repository.ErrInvalidLimit
	}
	return mockRanking[:min(n, len(mockRanking))], nil
}

func (m *mockSim) NeuronRank(_ context.Context, id string) (repository.Entry, error) {
	for _, e := range mockRanking {
		if e.NeuronID == id {
			return e, nil
		}
	}
	return repository.Entry{}, repository.ErrNotFound
}

func (m *mockSim) Neuron(id string) (neuron.State, error) {
	st, ok := m.neurons[id]
	if !ok {
		return neuron.State{}, network.ErrNeuronNotFound
	}
	return st, nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]any {
	return map[string]any{"started": true, "neurons": 1}
}

func newMux(sim *mockSim) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(sim, mockStats{}).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(rec.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestPostStimulus(t *testing.T) {
	Convey("Given the API over a mock simulation", t, func() {
		sim := newMockSim()
		mux := newMux(sim)

		Convey("When a valid stimulus is posted", func() {
			rec := do(mux, http.MethodPost, "/stimuli", `{"stimulus_id":"s1","neuron_id":"n0","kind":"excite","value":5}`)

			Convey("Then it is accepted and forwarded", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				body := decode(rec)
				So(body["status"], ShouldEqual, "accepted")
				So(body["stimulus_id"], ShouldEqual, "s1")
				So(len(sim.submitted), ShouldEqual, 1)
				So(sim.submitted[0].Kind, ShouldEqual, model.StimulusExcite)
				So(sim.submitted[0].Value, ShouldEqual, 5.0)
			})

			Convey("Then posting it again reports a duplicate", func() {
				rec := do(mux, http.MethodPost, "/stimuli", `{"stimulus_id":"s1","neuron_id":"n0","kind":"excite","value":5}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode(rec)["duplicate"], ShouldEqual, true)
				So(len(sim.submitted), ShouldEqual, 1)
			})
		})

		Convey("When a zero value without an id is posted", func() {
			rec := do(mux, http.MethodPost, "/stimuli", `{"neuron_id":"n0","kind":"current","value":0}`)

			Convey("Then the zero is kept and the id comes from the simulation", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(decode(rec)["stimulus_id"], ShouldEqual, "generated")
				So(sim.submitted[0].Value, ShouldEqual, 0.0)
			})
		})

		Convey("Then malformed requests are rejected with 400", func() {
			bodies := []string{
				`not json`,
				`{"kind":"excite","value":1}`,
				`{"neuron_id":"n0","kind":"excite"}`,
				`{"neuron_id":"n0","kind":"zap","value":1}`,
			}
			for _, b := range bodies {
				rec := do(mux, http.MethodPost, "/stimuli", b)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(rec)["code"], ShouldEqual, "bad_request")
			}
			So(len(sim.submitted), ShouldEqual, 0)
		})

		Convey("Then an unknown neuron is 404", func() {
			rec := do(mux, http.MethodPost, "/stimuli", `{"neuron_id":"n9","kind":"excite","value":1}`)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then a full queue is 429", func() {
			sim.submitErr = stimqueue.ErrFull
			rec := do(mux, http.MethodPost, "/stimuli", `{"neuron_id":"n0","kind":"excite","value":1}`)
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decode(rec)["code"], ShouldEqual, "backpressure")
		})

		Convey("Then a closed queue is 503", func() {
			sim.submitErr = stimqueue.ErrClosed
			rec := do(mux, http.MethodPost, "/stimuli", `{"neuron_id":"n0","kind":"excite","value":1}`)
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Then an unexpected failure is 500", func() {
			sim.submitErr = errors.New("boom")
			rec := do(mux, http.MethodPost, "/stimuli", `{"neuron_id":"n0","kind":"excite","value":1}`)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("Then GET is not routed", func() {
			So(do(mux, http.MethodGet, "/stimuli", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestActivityEndpoints(t *testing.T) {
	Convey("Given the API over a mock simulation", t, func() {
		mux := newMux(newMockSim())

		Convey("Then /activity returns the ranking with a default limit", func() {
			rec := do(mux, http.MethodGet, "/activity", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var entries []repository.Entry
			So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
			So(len(entries), ShouldEqual, 2)
			So(entries[0].NeuronID, ShouldEqual, "n0")
			So(entries[0].Spikes, ShouldEqual, uint64(4))
		})

		Convey("Then the limit is honored", func() {
			var entries []repository.Entry
			rec := do(mux, http.MethodGet, "/activity?limit=1", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
			So(len(entries), ShouldEqual, 1)
		})

		Convey("Then bad limits are 400", func() {
			So(do(mux, http.MethodGet, "/activity?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/activity?limit=x", "").Code, ShouldEqual, http.StatusBadRequest)
			rec := do(mux, http.MethodGet, "/activity?limit=5000", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("Then /activity/{id} returns one rank or 404", func() {
			rec := do(mux, http.MethodGet, "/activity/n1", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			body := decode(rec)
			So(body["rank"], ShouldEqual, 2.0)
			So(body["neuron_id"], ShouldEqual, "n1")

			So(do(mux, http.MethodGet, "/activity/n9", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/activity/a/b", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestReadEndpoints(t *testing.T) {
	Convey("Given the API over a mock simulation", t, func() {
		mux := newMux(newMockSim())

		Convey("Then /network returns the latest frame", func() {
			rec := do(mux, http.MethodGet, "/network", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var snap model.Snapshot
			So(json.Unmarshal(rec.Body.Bytes(), &snap), ShouldBeNil)
			So(snap.Tick, ShouldEqual, uint64(30))
			So(snap.Neurons[0].ID, ShouldEqual, "n0")
		})

		Convey("Then /neurons/{id} returns one neuron or 404", func() {
			rec := do(mux, http.MethodGet, "/neurons/n0", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["current"], ShouldEqual, 25.0)

			So(do(mux, http.MethodGet, "/neurons/n9", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/neurons/", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/neurons/a/b", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then /stats and /healthz answer with JSON", func() {
			rec := do(mux, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["started"], ShouldEqual, true)

			rec = do(mux, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(decode(rec)["status"], ShouldEqual, "ok")
		})

		Convey("Then /metrics exposes the simulation collectors", func() {
			do(mux, http.MethodGet, "/healthz", "")
			rec := do(mux, http.MethodGet, "/metrics", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "lapicque_sim_http_requests_total")
		})

		Convey("Then /dashboard serves the page", func() {
			rec := do(mux, http.MethodGet, "/dashboard", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "/network")
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given a wrapped kind error", t, func() {
		cause := errors.New("cause")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		Convey("Then it matches both the kind and the cause", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: cause")
		})

		Convey("Then NewKind has no cause", func() {
			err := api.NewKind("api.op", api.ErrNotFound)
			So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: not found")
		})
	})
}
