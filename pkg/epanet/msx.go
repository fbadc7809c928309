package epanet

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Species is a chemical species tracked by a multi-species quality model.
type Species struct {
	ID    string
	Type  string // BULK or WALL
	Units string
}

// Reaction defines the rate expression for a species inside pipes.
type Reaction struct {
	SpeciesID  string
	Expression string
}

// InitialQuality sets the starting concentration of a species at a node.
type InitialQuality struct {
	NodeID    string
	SpeciesID string
	Value     float64
}

// MSXModel is a minimal multi-species extension model, written as a
// companion .msx file next to the .inp export.
type MSXModel struct {
	Title     string
	AreaUnits string
	RateUnits string
	Species   []Species
	Constants map[string]float64
	Pipes     []Reaction
	Quality   []InitialQuality
}

// WriteFile writes the model as an .msx file.
func (m *MSXModel) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write renders the model in .msx format.
func (m *MSXModel) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "[TITLE]")
	if m.Title != "" {
		fmt.Fprintln(bw, m.Title)
	}

	fmt.Fprintln(bw, "\n[OPTIONS]")
	area := m.AreaUnits
	if area == "" {
		area = "M2"
	}
	rate := m.RateUnits
	if rate == "" {
		rate = "HR"
	}
	fmt.Fprintf(bw, "AREA_UNITS\t%s\n", area)
	fmt.Fprintf(bw, "RATE_UNITS\t%s\n", rate)

	fmt.Fprintln(bw, "\n[SPECIES]")
	for _, s := range m.Species {
		typ := s.Type
		if typ == "" {
			typ = "BULK"
		}
		fmt.Fprintf(bw, "%s\t%s\t%s\n", typ, s.ID, s.Units)
	}

	if len(m.Constants) > 0 {
		fmt.Fprintln(bw, "\n[COEFFICIENTS]")
		for name, v := range m.Constants {
			fmt.Fprintf(bw, "CONSTANT\t%s\t%g\n", name, v)
		}
	}

	if len(m.Pipes) > 0 {
		fmt.Fprintln(bw, "\n[PIPES]")
		for _, r := range m.Pipes {
			fmt.Fprintf(bw, "RATE\t%s\t%s\n", r.SpeciesID, r.Expression)
		}
	}

	if len(m.Quality) > 0 {
		fmt.Fprintln(bw, "\n[QUALITY]")
		for _, q := range m.Quality {
			fmt.Fprintf(bw, "NODE\t%s\t%s\t%g\n", q.NodeID, q.SpeciesID, q.Value)
		}
	}

	return bw.Flush()
}
