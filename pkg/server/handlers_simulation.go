package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hydroflow/hydroflow/pkg/scada"
	"github.com/hydroflow/hydroflow/pkg/simulation"
	"github.com/hydroflow/hydroflow/pkg/telemetry"
)

// runSimulation runs one scenario simulation and registers the result as a
// fresh SCADA resource.
func (s *Server) runSimulation(w http.ResponseWriter, r *http.Request,
	run func(*simulation.Scenario, context.Context) (*scada.Data, error)) {

	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, span := telemetry.StartSpanFromContext(r.Context(), "simulation.run")
	defer span.End()
	telemetry.SetSpanAttributes(ctx, attribute.String("scenario.id", chi.URLParam(r, "id")))

	data, err := run(sc, ctx)
	if err != nil {
		telemetry.RecordError(ctx, err)
		respondError(w, r, err)
		return
	}
	id := s.results.Create(data)
	jsonResponse(w, map[string]string{"data_id": id})
}

func (s *Server) handleRunSimulation(w http.ResponseWriter, r *http.Request) {
	s.runSimulation(w, r, (*simulation.Scenario).RunSimulation)
}

func (s *Server) handleRunBasicQuality(w http.ResponseWriter, r *http.Request) {
	s.runSimulation(w, r, (*simulation.Scenario).RunBasicQualitySimulation)
}

func (s *Server) handleRunAdvancedQuality(w http.ResponseWriter, r *http.Request) {
	s.runSimulation(w, r, (*simulation.Scenario).RunAdvancedQualitySimulation)
}

func (s *Server) handleGetScadaData(w http.ResponseWriter, r *http.Request) {
	data, err := s.results.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	jsonResponse(w, data)
}

func (s *Server) handleDeleteScadaData(w http.ResponseWriter, r *http.Request) {
	if _, err := s.results.Remove(chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
