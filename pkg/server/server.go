// Package server exposes scenarios and SCADA results as HTTP resources.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hydroflow/hydroflow/pkg/scada"
	"github.com/hydroflow/hydroflow/pkg/simulation"
)

// Server handles the REST API. Scenarios and simulation results live in
// separate registries; results outlive the scenario that produced them.
type Server struct {
	scenarios *Manager[*simulation.Scenario]
	results   *Manager[*scada.Data]
	router    chi.Router
}

// New creates a server with empty registries.
func New() *Server {
	s := &Server{
		scenarios: NewManager[*simulation.Scenario]("scenario"),
		results:   NewManager[*scada.Data]("scada data"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/scenario", func(r chi.Router) {
		r.Post("/", s.handleCreateScenario)
		r.Get("/", s.handleListScenarios)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleScenarioConfig)
			r.Get("/config", s.handleScenarioConfig)
			r.Delete("/", s.handleDeleteScenario)
			r.Get("/topology", s.handleTopology)

			r.Get("/general_params", s.handleGetGeneralParams)
			r.Put("/general_params", s.handlePutGeneralParams)
			r.Get("/sensor_config", s.handleGetSensorConfig)
			r.Put("/sensor_config", s.handlePutSensorConfig)
			r.Get("/model_uncertainty", s.handleGetModelUncertainty)
			r.Put("/model_uncertainty", s.handlePutModelUncertainty)
			r.Get("/sensor_noise", s.handleGetSensorNoise)
			r.Put("/sensor_noise", s.handlePutSensorNoise)

			r.Get("/leakages", s.handleGetLeakages)
			r.Post("/leakages", s.handleAddLeakage)
			r.Get("/sensor_faults", s.handleGetSensorFaults)
			r.Post("/sensor_faults", s.handleAddSensorFault)

			r.Post("/node/{nodeID}/demand_pattern", s.handleSetDemandPattern)

			r.Post("/simulation", s.handleRunSimulation)
			r.Post("/simulation/basic_quality", s.handleRunBasicQuality)
			r.Post("/simulation/advanced_quality", s.handleRunAdvancedQuality)

			r.Get("/export", s.handleExportScenario)
		})
	})

	r.Route("/scada/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetScadaData)
		r.Delete("/", s.handleDeleteScadaData)
		r.Get("/export", s.handleExportScadaData)
	})

	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases every live scenario.
func (s *Server) Close() error {
	for _, id := range s.scenarios.IDs() {
		if sc, err := s.scenarios.Remove(id); err == nil {
			sc.Close()
		}
	}
	return nil
}

// scenario fetches the scenario addressed by the request path.
func (s *Server) scenario(r *http.Request) (*simulation.Scenario, error) {
	return s.scenarios.Get(chi.URLParam(r, "id"))
}
