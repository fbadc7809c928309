package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hydroflow/hydroflow/pkg/simulation"
)

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var opts simulation.Options
	if err := decodeJSON(r, &opts); err != nil {
		respondError(w, r, err)
		return
	}
	sc, err := simulation.New(opts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id := s.scenarios.Create(sc)
	jsonResponse(w, map[string]string{"scenario_id": id})
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]interface{}{"scenario_ids": s.scenarios.IDs()})
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenarios.Remove(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	sc.Close()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScenarioConfig(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	cfg, err := sc.Config()
	if err != nil {
		respondError(w, r, err)
		return
	}
	jsonResponse(w, cfg)
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	topo, err := sc.Topology()
	if err != nil {
		respondError(w, r, err)
		return
	}
	jsonResponse(w, topo)
}

func (s *Server) handleGetGeneralParams(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	gp, err := sc.GeneralParams()
	if err != nil {
		respondError(w, r, err)
		return
	}
	jsonResponse(w, gp)
}

func (s *Server) handlePutGeneralParams(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var gp simulation.GeneralParams
	if err := decodeJSON(r, &gp); err != nil {
		respondError(w, r, err)
		return
	}
	if err := sc.SetGeneralParams(gp); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDemandPattern(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req struct {
		BaseDemand float64   `json:"base_demand"`
		PatternID  string    `json:"pattern_id"`
		Pattern    []float64 `json:"pattern"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	if err := sc.SetNodeDemandPattern(nodeID, req.BaseDemand, req.PatternID, req.Pattern); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
