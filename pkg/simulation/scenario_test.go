package simulation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

const testINP = `[TITLE]
Two loop test net

[JUNCTIONS]
;ID  Elev  Demand  Pattern
J1   10    10      PAT
J2   5     5

[RESERVOIRS]
R1   60

[PIPES]
;ID  From  To  Length  Diameter  Roughness
L1   R1    J1  1000    300       120
L2   J1    J2  800     200       120

[PATTERNS]
PAT  0.5  1.5

[TIMES]
DURATION            24:00
HYDRAULIC TIMESTEP  1:00
REPORT TIMESTEP     1:00
PATTERN TIMESTEP    1:00

[COORDINATES]
R1  0    0
J1  100  0
J2  200  0

[END]
`

func newTestScenario(t *testing.T, opts Options) *Scenario {
	t.Helper()
	if opts.INP == "" {
		opts.INP = testINP
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewScenarioDefaults(t *testing.T) {
	s := newTestScenario(t, Options{})

	gp, err := s.GeneralParams()
	if err != nil {
		t.Fatal(err)
	}
	if gp.SimulationDuration != 1 {
		t.Fatalf("duration = %d days, want 1", gp.SimulationDuration)
	}
	if gp.HydraulicTimeStep != 3600 {
		t.Fatalf("hydraulic step = %d, want 3600", gp.HydraulicTimeStep)
	}

	cfg, err := s.SensorConfig()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.PressureSensors) != 3 || len(cfg.FlowSensors) != 2 {
		t.Fatalf("default sensors = %d pressure, %d flow", len(cfg.PressureSensors), len(cfg.FlowSensors))
	}

	topo, err := s.Topology()
	if err != nil {
		t.Fatal(err)
	}
	if len(topo.Nodes) != 3 || len(topo.Links) != 2 {
		t.Fatalf("topology has %d nodes, %d links", len(topo.Nodes), len(topo.Links))
	}
}

func TestSetSensorConfigMustCoverNetwork(t *testing.T) {
	s := newTestScenario(t, Options{})

	cfg, err := s.SensorConfig()
	if err != nil {
		t.Fatal(err)
	}

	partial := cfg
	partial.Links = []string{"L1"}
	partial.FlowSensors = []string{"L1"}
	if err := s.SetSensorConfig(partial); !hferrors.IsCode(err, hferrors.CodeBadRequest) {
		t.Fatalf("partial link list accepted: %v", err)
	}

	unknown := cfg
	unknown.Nodes = []string{"J1", "J2", "R9"}
	unknown.PressureSensors = nil
	unknown.DemandSensors = nil
	if err := s.SetSensorConfig(unknown); !hferrors.IsCode(err, hferrors.CodeBadRequest) {
		t.Fatalf("unknown node accepted: %v", err)
	}

	// A permuted but complete listing is accepted and runs with rows
	// sized for every network element.
	permuted := cfg
	permuted.Nodes = []string{"R1", "J2", "J1"}
	permuted.Links = []string{"L2", "L1"}
	permuted.FlowSensors = []string{"L1"}
	if err := s.SetSensorConfig(permuted); err != nil {
		t.Fatalf("SetSensorConfig: %v", err)
	}
	data, err := s.RunSimulation(context.Background())
	if err != nil {
		t.Fatalf("RunSimulation: %v", err)
	}
	if got := len(data.Flows[0]); got != 2 {
		t.Fatalf("flow columns = %d, want 2", got)
	}
}

func TestRunSimulation(t *testing.T) {
	s := newTestScenario(t, Options{})

	data, err := s.RunSimulation(context.Background())
	if err != nil {
		t.Fatalf("RunSimulation: %v", err)
	}
	if data.Steps() != 24 {
		t.Fatalf("steps = %d, want 24", data.Steps())
	}
	if data.Time[1] != 3600 {
		t.Fatalf("second timestamp = %d, want 3600", data.Time[1])
	}
	if data.NodeQuality != nil {
		t.Fatal("hydraulic run produced quality readings")
	}

	// Demand pattern alternates 0.5x and 1.5x on J1's base demand of 10.
	j1 := 0
	if data.Demands[0][j1] != 5 || data.Demands[1][j1] != 15 {
		t.Fatalf("patterned demands = %v, %v, want 5, 15", data.Demands[0][j1], data.Demands[1][j1])
	}

	p, err := data.PressureAt("J2")
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range p {
		if v <= 0 || v > 60 {
			t.Fatalf("pressure at step %d out of range: %v", i, v)
		}
	}
}

func TestRunSimulationDeterministic(t *testing.T) {
	a, err := newTestScenario(t, Options{Seed: 3}).RunSimulation(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := newTestScenario(t, Options{Seed: 3}).RunSimulation(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Pressures {
		for j := range a.Pressures[i] {
			if a.Pressures[i][j] != b.Pressures[i][j] {
				t.Fatalf("pressures diverge at [%d][%d]", i, j)
			}
		}
	}
}

func TestLeakChangesReadings(t *testing.T) {
	clean := newTestScenario(t, Options{})
	base, err := clean.RunSimulation(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	leaky := newTestScenario(t, Options{})
	err = leaky.AddLeakage(LeakEvent{
		PipeID: "L2", Diameter: 0.05, StartOffset: 6 * 3600, EndOffset: 12 * 3600, Kind: LeakAbrupt,
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := leaky.RunSimulation(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	baseFlow, _ := base.FlowAt("L1")
	leakFlow, _ := got.FlowAt("L1")
	basePress, _ := base.PressureAt("J2")
	leakPress, _ := got.PressureAt("J2")

	// Inside the leak window the upstream pipe carries the extra outflow
	// and pressures drop; outside it nothing changes.
	if leakFlow[8] <= baseFlow[8] {
		t.Fatalf("flow during leak %v not above baseline %v", leakFlow[8], baseFlow[8])
	}
	if leakPress[8] >= basePress[8] {
		t.Fatalf("pressure during leak %v not below baseline %v", leakPress[8], basePress[8])
	}
	if leakFlow[2] != baseFlow[2] {
		t.Fatalf("flow before leak window changed: %v vs %v", leakFlow[2], baseFlow[2])
	}
}

func TestAddLeakageUnknownPipe(t *testing.T) {
	s := newTestScenario(t, Options{})
	err := s.AddLeakage(LeakEvent{
		PipeID: "NOPE", Diameter: 0.05, StartOffset: 0, EndOffset: 3600, Kind: LeakAbrupt,
	})
	if !hferrors.IsCode(err, hferrors.CodeUnknownPipe) {
		t.Fatalf("expected unknown pipe, got %v", err)
	}
}

func TestBasicQualitySimulation(t *testing.T) {
	s := newTestScenario(t, Options{})
	data, err := s.RunBasicQualitySimulation(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if data.NodeQuality == nil || data.LinkQuality == nil {
		t.Fatal("quality run produced no quality readings")
	}

	// Concentration decays with travel distance from the reservoir:
	// R1 > J1 > J2. Node column order is junctions then reservoirs.
	q := data.NodeQuality[0]
	j1, j2, r1 := q[0], q[1], q[2]
	if !(r1 > j1 && j1 > j2) {
		t.Fatalf("quality not decaying along the network: R1=%v J1=%v J2=%v", r1, j1, j2)
	}
}

func TestAdvancedQualityRequiresModel(t *testing.T) {
	s := newTestScenario(t, Options{})
	_, err := s.RunAdvancedQualitySimulation(context.Background())
	if !hferrors.IsCode(err, hferrors.CodeNoQualityModel) {
		t.Fatalf("expected no-quality-model error, got %v", err)
	}

	if err := s.EnableChemicalAnalysis("Chlorine"); err != nil {
		t.Fatal(err)
	}
	data, err := s.RunAdvancedQualitySimulation(context.Background())
	if err != nil {
		t.Fatalf("advanced run after enabling chemistry: %v", err)
	}
	if data.NodeQuality == nil {
		t.Fatal("no quality readings")
	}
}

func TestSensorFaultStuckAtZero(t *testing.T) {
	s := newTestScenario(t, Options{})
	err := s.AddSensorFault(SensorFault{
		SensorID: "J2", Sensor: SensorPressure, Kind: FaultStuckAtZero,
		StartOffset: 0, EndOffset: 2 * 3600,
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := s.RunSimulation(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	p, _ := data.PressureAt("J2")
	if p[0] != 0 || p[1] != 0 {
		t.Fatalf("faulted readings = %v, %v, want zeros", p[0], p[1])
	}
	if p[3] == 0 {
		t.Fatal("reading after fault window still zero")
	}
}

func TestSetNodeDemandPattern(t *testing.T) {
	s := newTestScenario(t, Options{})

	err := s.SetNodeDemandPattern("NOPE", 1, "P2", []float64{1})
	if !hferrors.IsCode(err, hferrors.CodeUnknownNode) {
		t.Fatalf("expected unknown node, got %v", err)
	}

	if err := s.SetNodeDemandPattern("J2", 20, "P2", []float64{2, 0.5}); err != nil {
		t.Fatal(err)
	}
	data, err := s.RunSimulation(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	j2 := 1
	if data.Demands[0][j2] != 40 || data.Demands[1][j2] != 10 {
		t.Fatalf("demands after pattern change = %v, %v, want 40, 10",
			data.Demands[0][j2], data.Demands[1][j2])
	}
}

func TestSaveToEpanetFiles(t *testing.T) {
	dir := t.TempDir()
	inp := filepath.Join(dir, "net.inp")
	msx := filepath.Join(dir, "net.msx")

	s := newTestScenario(t, Options{})
	if err := s.SaveToEpanetFiles(inp, msx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(inp); err != nil {
		t.Fatalf("inp not written: %v", err)
	}
	if _, err := os.Stat(msx); !os.IsNotExist(err) {
		t.Fatal("msx written without a quality model")
	}

	chem := newTestScenario(t, Options{EnableChemical: true})
	inp2 := filepath.Join(dir, "chem.inp")
	msx2 := filepath.Join(dir, "chem.msx")
	if err := chem.SaveToEpanetFiles(inp2, msx2); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(msx2); err != nil {
		t.Fatalf("msx not written: %v", err)
	}
}

func TestClosedScenario(t *testing.T) {
	s := newTestScenario(t, Options{})
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Config(); !hferrors.IsCode(err, hferrors.CodeScenarioClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
	if _, err := s.RunSimulation(context.Background()); !hferrors.IsCode(err, hferrors.CodeScenarioClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}
