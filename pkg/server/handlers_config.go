package server

import (
	"net/http"

	"github.com/hydroflow/hydroflow/pkg/scada"
	"github.com/hydroflow/hydroflow/pkg/simulation"
)

func (s *Server) handleGetSensorConfig(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	cfg, err := sc.SensorConfig()
	if err != nil {
		respondError(w, r, err)
		return
	}
	jsonResponse(w, cfg)
}

func (s *Server) handlePutSensorConfig(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var cfg scada.SensorConfig
	if err := decodeJSON(r, &cfg); err != nil {
		respondError(w, r, err)
		return
	}
	if err := sc.SetSensorConfig(cfg); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetModelUncertainty(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	mu, err := sc.ModelUncertainty()
	if err != nil {
		respondError(w, r, err)
		return
	}
	jsonResponse(w, mu)
}

func (s *Server) handlePutModelUncertainty(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var mu simulation.ModelUncertainty
	if err := decodeJSON(r, &mu); err != nil {
		respondError(w, r, err)
		return
	}
	if err := sc.SetModelUncertainty(mu); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSensorNoise(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	noise, err := sc.SensorNoise()
	if err != nil {
		respondError(w, r, err)
		return
	}
	if noise == nil {
		jsonResponse(w, struct{}{})
		return
	}
	jsonResponse(w, noise)
}

func (s *Server) handlePutSensorNoise(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var noise simulation.SensorNoise
	if err := decodeJSON(r, &noise); err != nil {
		respondError(w, r, err)
		return
	}
	if err := sc.SetSensorNoise(noise); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetLeakages(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	leaks, err := sc.Leakages()
	if err != nil {
		respondError(w, r, err)
		return
	}
	jsonResponse(w, leaks)
}

func (s *Server) handleAddLeakage(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var ev simulation.LeakEvent
	if err := decodeJSON(r, &ev); err != nil {
		respondError(w, r, err)
		return
	}
	if err := sc.AddLeakage(ev); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSensorFaults(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	faults, err := sc.SensorFaults()
	if err != nil {
		respondError(w, r, err)
		return
	}
	jsonResponse(w, faults)
}

func (s *Server) handleAddSensorFault(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scenario(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var f simulation.SensorFault
	if err := decodeJSON(r, &f); err != nil {
		respondError(w, r, err)
		return
	}
	if err := sc.AddSensorFault(f); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
