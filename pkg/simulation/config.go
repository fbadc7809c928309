package simulation

import (
	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
	"github.com/hydroflow/hydroflow/pkg/scada"
)

// GeneralParams are the scenario-wide simulation parameters.
// SimulationDuration is in days, time steps in seconds — the same split
// the EPANET tooling uses.
type GeneralParams struct {
	SimulationDuration int   `json:"simulation_duration"`
	HydraulicTimeStep  int64 `json:"hydraulic_time_step"`
	QualityTimeStep    int64 `json:"quality_time_step,omitempty"`
	ReportingTimeStep  int64 `json:"reporting_time_step,omitempty"`

	DemandModel string `json:"demand_model,omitempty"`
	FlowUnits   string `json:"flow_units,omitempty"`
}

// Validate checks basic parameter sanity.
func (p GeneralParams) Validate() error {
	if p.SimulationDuration <= 0 {
		return hferrors.New(hferrors.CodeInvalidModel, "simulation duration must be positive")
	}
	if p.HydraulicTimeStep <= 0 {
		return hferrors.New(hferrors.CodeInvalidModel, "hydraulic time step must be positive")
	}
	if p.QualityTimeStep < 0 || p.ReportingTimeStep < 0 {
		return hferrors.New(hferrors.CodeInvalidModel, "time steps must be non-negative")
	}
	return nil
}

// DurationSeconds returns the simulated duration in seconds.
func (p GeneralParams) DurationSeconds() int64 {
	return int64(p.SimulationDuration) * 86400
}

// Config is a snapshot of everything that defines a scenario. It is what
// the REST API returns for a configuration read.
type Config struct {
	INPTitle         string             `json:"inp_title,omitempty"`
	GeneralParams    GeneralParams      `json:"general_params"`
	SensorConfig     scada.SensorConfig `json:"sensor_config"`
	ModelUncertainty ModelUncertainty   `json:"model_uncertainty"`
	SensorNoise      *SensorNoise       `json:"sensor_noise,omitempty"`
	Leakages         []LeakEvent        `json:"leakages"`
	SensorFaults     []SensorFault      `json:"sensor_faults"`
}
