package epanet

import (
	"bytes"
	"strings"
	"testing"
)

const sampleINP = `
[TITLE]
Two-loop test network

[JUNCTIONS]
;ID  Elev  Demand  Pattern
J1   100   10      P1
J2   95    5       P1

[RESERVOIRS]
R1   120

[TANKS]
T1   110  2  0  5  10

[PIPES]
;ID  Node1  Node2  Length  Diam  Roughness
L1   R1     J1     1000    300   100
L2   J1     J2     800     200   100
L3   J2     T1     500     150   100  0  OPEN

[PATTERNS]
P1  1.0  1.2  0.8
P1  0.5  0.9  1.1

[TIMES]
DURATION            24:00
HYDRAULIC TIMESTEP  0:30
QUALITY TIMESTEP    0:05

[OPTIONS]
UNITS     LPS
QUALITY   CHEMICAL

[COORDINATES]
J1  10.0  20.0
J2  15.5  22.5

[END]
`

func TestParse(t *testing.T) {
	net, err := Parse(strings.NewReader(sampleINP))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if net.Title != "Two-loop test network" {
		t.Errorf("Title = %q", net.Title)
	}
	if len(net.Junctions) != 2 {
		t.Fatalf("expected 2 junctions, got %d", len(net.Junctions))
	}
	if net.Junctions[0].Pattern != "P1" || net.Junctions[0].BaseDemand != 10 {
		t.Errorf("junction J1 parsed wrong: %+v", net.Junctions[0])
	}
	if len(net.Pipes) != 3 {
		t.Fatalf("expected 3 pipes, got %d", len(net.Pipes))
	}
	if net.Pipes[2].Status != "OPEN" {
		t.Errorf("pipe L3 status = %q", net.Pipes[2].Status)
	}

	pat, ok := net.Pattern("P1")
	if !ok {
		t.Fatal("pattern P1 missing")
	}
	if len(pat.Multipliers) != 6 {
		t.Errorf("pattern P1 multipliers = %v, wanted 6 values across both rows", pat.Multipliers)
	}

	if net.Times.Duration != 24*3600 {
		t.Errorf("Duration = %d", net.Times.Duration)
	}
	if net.Times.HydraulicStep != 1800 {
		t.Errorf("HydraulicStep = %d", net.Times.HydraulicStep)
	}
	if net.Times.QualityStep != 300 {
		t.Errorf("QualityStep = %d", net.Times.QualityStep)
	}
	if net.Options.Quality != "CHEMICAL" {
		t.Errorf("Quality = %q", net.Options.Quality)
	}

	links := net.LinkIDs()
	if len(links) != 3 || links[0] != "L1" {
		t.Errorf("LinkIDs = %v", links)
	}
	nodes := net.NodeIDs()
	if len(nodes) != 4 {
		t.Errorf("NodeIDs = %v", nodes)
	}
}

func TestParseRejectsMalformedRow(t *testing.T) {
	bad := "[JUNCTIONS]\nJ1 not-a-number\n"
	if _, err := Parse(strings.NewReader(bad)); err == nil {
		t.Fatal("expected error for malformed junction row")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	net, err := Parse(strings.NewReader(sampleINP))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var buf bytes.Buffer
	if err := net.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	again, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("re-Parse failed: %v", err)
	}

	if len(again.Junctions) != len(net.Junctions) ||
		len(again.Pipes) != len(net.Pipes) ||
		len(again.Tanks) != len(net.Tanks) {
		t.Errorf("round trip lost elements: %+v", again)
	}
	if again.Times.Duration != net.Times.Duration {
		t.Errorf("round trip Duration = %d, want %d", again.Times.Duration, net.Times.Duration)
	}
	if again.Options.Quality != "CHEMICAL" {
		t.Errorf("round trip Quality = %q", again.Options.Quality)
	}
	pat, ok := again.Pattern("P1")
	if !ok || len(pat.Multipliers) != 6 {
		t.Errorf("round trip pattern = %+v", pat)
	}
}

func TestWriteRoundTripSubMinuteSteps(t *testing.T) {
	net, err := Parse(strings.NewReader(sampleINP))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	net.Times.HydraulicStep = 90
	net.Times.ReportStep = 45

	var buf bytes.Buffer
	if err := net.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	again, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("re-Parse failed: %v", err)
	}

	if again.Times.HydraulicStep != 90 {
		t.Errorf("round trip HydraulicStep = %d, want 90", again.Times.HydraulicStep)
	}
	if again.Times.ReportStep != 45 {
		t.Errorf("round trip ReportStep = %d, want 45", again.Times.ReportStep)
	}
}

func TestWriteMSX(t *testing.T) {
	m := &MSXModel{
		Title:   "chlorine decay",
		Species: []Species{{ID: "CL2", Units: "MG"}},
		Constants: map[string]float64{
			"Kb": 0.3,
		},
		Pipes:   []Reaction{{SpeciesID: "CL2", Expression: "-Kb*CL2"}},
		Quality: []InitialQuality{{NodeID: "R1", SpeciesID: "CL2", Value: 0.8}},
	}

	var buf bytes.Buffer
	if err := m.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"[SPECIES]", "BULK\tCL2\tMG", "RATE\tCL2\t-Kb*CL2", "NODE\tR1\tCL2\t0.8"} {
		if !strings.Contains(out, want) {
			t.Errorf("msx output missing %q:\n%s", want, out)
		}
	}
}
