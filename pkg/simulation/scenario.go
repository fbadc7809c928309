package simulation

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/hydroflow/hydroflow/pkg/epanet"
	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
	"github.com/hydroflow/hydroflow/pkg/scada"
)

// Options configures a new scenario. Exactly one of INPPath, INP, or
// Network must be set.
type Options struct {
	// INPPath loads the network from an .inp file on disk.
	INPPath string `json:"inp_path,omitempty"`
	// INP holds inline .inp content.
	INP string `json:"inp,omitempty"`
	// Network uses an already-parsed model (not settable via JSON).
	Network *epanet.Network `json:"-"`

	GeneralParams *GeneralParams      `json:"general_params,omitempty"`
	SensorConfig  *scada.SensorConfig `json:"sensor_config,omitempty"`

	// EnableChemical sets up a single-species quality model, which turns
	// exports into .inp + .msx pairs.
	EnableChemical bool   `json:"enable_chemical,omitempty"`
	ChemicalName   string `json:"chemical_name,omitempty"`

	// Seed makes uncertainty sampling reproducible. Zero picks a fixed
	// default seed.
	Seed int64 `json:"seed,omitempty"`
}

// Scenario is a configured hydraulic/quality simulation instance.
// All methods are safe for concurrent use; the zero value is not usable,
// construct with New.
type Scenario struct {
	mu sync.Mutex

	network          *epanet.Network
	generalParams    GeneralParams
	sensorConfig     scada.SensorConfig
	modelUncertainty ModelUncertainty
	sensorNoise      *SensorNoise
	leakages         []LeakEvent
	sensorFaults     []SensorFault
	qualityModel     *epanet.MSXModel
	seed             int64
	closed           bool
}

// New creates a scenario from the given options.
func New(opts Options) (*Scenario, error) {
	var net *epanet.Network
	var err error
	switch {
	case opts.Network != nil:
		net = opts.Network
	case opts.INP != "":
		net, err = epanet.Parse(strings.NewReader(opts.INP))
	case opts.INPPath != "":
		net, err = epanet.ParseFile(opts.INPPath)
	default:
		return nil, hferrors.New(hferrors.CodeBadRequest, "no network given")
	}
	if err != nil {
		return nil, err
	}

	gp := GeneralParams{
		SimulationDuration: 1,
		HydraulicTimeStep:  net.Times.HydraulicStep,
		QualityTimeStep:    net.Times.QualityStep,
		ReportingTimeStep:  net.Times.ReportStep,
		FlowUnits:          net.Options.Units,
	}
	if net.Times.Duration > 0 {
		days := int(net.Times.Duration / 86400)
		if days < 1 {
			days = 1
		}
		gp.SimulationDuration = days
	}
	if opts.GeneralParams != nil {
		gp = *opts.GeneralParams
	}
	if err := gp.Validate(); err != nil {
		return nil, err
	}

	cfg := scada.EmptySensorConfig(net.NodeIDs(), net.LinkIDs())
	cfg.PlaceAllSensors()
	if opts.SensorConfig != nil {
		cfg = *opts.SensorConfig
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	s := &Scenario{
		network:       net,
		generalParams: gp,
		sensorConfig:  cfg,
		seed:          opts.Seed,
	}
	if s.seed == 0 {
		s.seed = 42
	}

	if opts.EnableChemical {
		name := opts.ChemicalName
		if name == "" {
			name = "Chlorine"
		}
		s.enableChemicalLocked(name)
	}

	return s, nil
}

// Close releases the scenario. Further operations fail.
func (s *Scenario) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Scenario) checkOpen() error {
	if s.closed {
		return hferrors.New(hferrors.CodeScenarioClosed, "scenario is closed")
	}
	return nil
}

// Config returns a snapshot of the scenario configuration.
func (s *Scenario) Config() (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return Config{}, err
	}
	return Config{
		INPTitle:         s.network.Title,
		GeneralParams:    s.generalParams,
		SensorConfig:     s.sensorConfig,
		ModelUncertainty: s.modelUncertainty,
		SensorNoise:      s.sensorNoise,
		Leakages:         append([]LeakEvent(nil), s.leakages...),
		SensorFaults:     append([]SensorFault(nil), s.sensorFaults...),
	}, nil
}

// Topology returns the graph view of the network.
func (s *Scenario) Topology() (Topology, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return Topology{}, err
	}
	return topologyOf(s.network), nil
}

// GeneralParams returns the current general parameters.
func (s *Scenario) GeneralParams() (GeneralParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return GeneralParams{}, err
	}
	return s.generalParams, nil
}

// SetGeneralParams replaces the general parameters.
func (s *Scenario) SetGeneralParams(p GeneralParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.generalParams = p
	s.network.Times.Duration = p.DurationSeconds()
	s.network.Times.HydraulicStep = p.HydraulicTimeStep
	if p.QualityTimeStep > 0 {
		s.network.Times.QualityStep = p.QualityTimeStep
	}
	if p.ReportingTimeStep > 0 {
		s.network.Times.ReportStep = p.ReportingTimeStep
	}
	return nil
}

// SensorConfig returns the current sensor configuration.
func (s *Scenario) SensorConfig() (scada.SensorConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return scada.SensorConfig{}, err
	}
	return s.sensorConfig, nil
}

// SetSensorConfig replaces the sensor configuration. The node/link lists
// must match the network.
func (s *Scenario) SetSensorConfig(cfg scada.SensorConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := coversNetwork("node", cfg.Nodes, s.network.NodeIDs()); err != nil {
		return err
	}
	if err := coversNetwork("link", cfg.Links, s.network.LinkIDs()); err != nil {
		return err
	}
	// Reading columns follow network element order.
	cfg.Nodes = s.network.NodeIDs()
	cfg.Links = s.network.LinkIDs()
	s.sensorConfig = cfg
	return nil
}

// coversNetwork checks that got names exactly the network's elements.
func coversNetwork(kind string, got, want []string) error {
	if len(got) != len(want) {
		return hferrors.Newf(hferrors.CodeBadRequest,
			"sensor config %s list does not cover the network", kind).
			WithContext("got", len(got)).
			WithContext("want", len(want))
	}
	remaining := make(map[string]bool, len(want))
	for _, id := range want {
		remaining[id] = true
	}
	for _, id := range got {
		if !remaining[id] {
			return hferrors.Newf(hferrors.CodeBadRequest,
				"sensor config names unknown %s", kind).
				WithContext("id", id)
		}
		delete(remaining, id)
	}
	return nil
}

// ModelUncertainty returns the configured model uncertainty.
func (s *Scenario) ModelUncertainty() (ModelUncertainty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return ModelUncertainty{}, err
	}
	return s.modelUncertainty, nil
}

// SetModelUncertainty replaces the model uncertainty.
func (s *Scenario) SetModelUncertainty(m ModelUncertainty) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.modelUncertainty = m
	return nil
}

// SensorNoise returns the configured sensor noise, nil when unset.
func (s *Scenario) SensorNoise() (*SensorNoise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.sensorNoise, nil
}

// SetSensorNoise replaces the sensor noise.
func (s *Scenario) SetSensorNoise(n SensorNoise) error {
	if err := n.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.sensorNoise = &n
	return nil
}

// Leakages returns the scheduled leak events.
func (s *Scenario) Leakages() ([]LeakEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return append([]LeakEvent(nil), s.leakages...), nil
}

// AddLeakage appends a leak event. The pipe must exist in the network.
func (s *Scenario) AddLeakage(e LeakEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, ok := s.network.Pipe(e.PipeID); !ok {
		return hferrors.UnknownPipe(e.PipeID)
	}
	s.leakages = append(s.leakages, e)
	return nil
}

// SensorFaults returns the scheduled sensor faults.
func (s *Scenario) SensorFaults() ([]SensorFault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return append([]SensorFault(nil), s.sensorFaults...), nil
}

// AddSensorFault appends a sensor fault event.
func (s *Scenario) AddSensorFault(f SensorFault) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.sensorFaults = append(s.sensorFaults, f)
	return nil
}

// SetNodeDemandPattern sets the base demand and demand pattern of one node.
func (s *Scenario) SetNodeDemandPattern(nodeID string, baseDemand float64, patternID string, multipliers []float64) error {
	if patternID == "" {
		return hferrors.New(hferrors.CodeBadRequest, "empty pattern id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	j, ok := s.network.Junction(nodeID)
	if !ok {
		return hferrors.New(hferrors.CodeUnknownNode, "junction not in network").
			WithContext("node_id", nodeID)
	}
	if len(multipliers) > 0 {
		s.network.SetPattern(epanet.Pattern{ID: patternID, Multipliers: multipliers})
	} else if _, ok := s.network.Pattern(patternID); !ok {
		return hferrors.New(hferrors.CodeBadRequest, "unknown pattern and no multipliers given").
			WithContext("pattern_id", patternID)
	}
	j.BaseDemand = baseDemand
	j.Pattern = patternID
	return nil
}

// QualityModel returns the multi-species quality model, nil when unset.
func (s *Scenario) QualityModel() *epanet.MSXModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qualityModel
}

// EnableChemicalAnalysis sets up a single-species decay model for the
// given chemical. Exports then produce an .msx companion file.
func (s *Scenario) EnableChemicalAnalysis(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if name == "" {
		name = "Chlorine"
	}
	s.enableChemicalLocked(name)
	return nil
}

func (s *Scenario) enableChemicalLocked(name string) {
	s.network.Options.Quality = "CHEMICAL"
	m := &epanet.MSXModel{
		Title:     name + " decay",
		Species:   []epanet.Species{{ID: speciesID(name), Units: "MG"}},
		Constants: map[string]float64{"Kb": 0.3},
		Pipes: []epanet.Reaction{{
			SpeciesID:  speciesID(name),
			Expression: "-Kb*" + speciesID(name),
		}},
	}
	for _, r := range s.network.Reservoirs {
		m.Quality = append(m.Quality, epanet.InitialQuality{
			NodeID: r.ID, SpeciesID: speciesID(name), Value: 0.8,
		})
	}
	s.qualityModel = m
}

func speciesID(name string) string {
	up := strings.ToUpper(name)
	if len(up) > 4 {
		up = up[:4]
	}
	return up
}

// SaveToEpanetFiles exports the scenario as an .inp file, plus an .msx
// file when a quality model is configured. Callers can check for the .msx
// file on disk to decide between single-file and archive delivery.
func (s *Scenario) SaveToEpanetFiles(inpPath, msxPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.network.WriteFile(inpPath); err != nil {
		return hferrors.Wrap(err, hferrors.CodeExportFailed, "write inp")
	}
	if s.qualityModel != nil && msxPath != "" {
		if err := s.qualityModel.WriteFile(msxPath); err != nil {
			// Do not leave a half-written export pair behind.
			os.Remove(inpPath)
			return hferrors.Wrap(err, hferrors.CodeExportFailed, "write msx")
		}
	}
	return nil
}

// RunSimulation runs the hydraulic simulation and returns fresh SCADA data.
func (s *Scenario) RunSimulation(ctx context.Context) (*scada.Data, error) {
	return s.run(ctx, qualityNone)
}

// RunBasicQualitySimulation runs hydraulics plus single-species
// first-order decay.
func (s *Scenario) RunBasicQualitySimulation(ctx context.Context) (*scada.Data, error) {
	return s.run(ctx, qualityBasic)
}

// RunAdvancedQualitySimulation runs hydraulics plus the configured
// multi-species quality model. A quality model must be configured.
func (s *Scenario) RunAdvancedQualitySimulation(ctx context.Context) (*scada.Data, error) {
	s.mu.Lock()
	hasModel := s.qualityModel != nil
	s.mu.Unlock()
	if !hasModel {
		return nil, hferrors.New(hferrors.CodeNoQualityModel,
			"no quality model configured, call EnableChemicalAnalysis first")
	}
	return s.run(ctx, qualityAdvanced)
}
