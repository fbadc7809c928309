package epanet

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WriteFile writes the network as an .inp file.
func (n *Network) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := n.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write renders the network in .inp format.
func (n *Network) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "[TITLE]")
	if n.Title != "" {
		fmt.Fprintln(bw, n.Title)
	}

	fmt.Fprintln(bw, "\n[JUNCTIONS]")
	fmt.Fprintln(bw, ";ID\tElev\tDemand\tPattern")
	for _, j := range n.Junctions {
		fmt.Fprintf(bw, "%s\t%g\t%g\t%s\n", j.ID, j.Elevation, j.BaseDemand, j.Pattern)
	}

	fmt.Fprintln(bw, "\n[RESERVOIRS]")
	fmt.Fprintln(bw, ";ID\tHead")
	for _, r := range n.Reservoirs {
		fmt.Fprintf(bw, "%s\t%g\n", r.ID, r.Head)
	}

	fmt.Fprintln(bw, "\n[TANKS]")
	fmt.Fprintln(bw, ";ID\tElev\tInitLvl\tMinLvl\tMaxLvl\tDiam")
	for _, t := range n.Tanks {
		fmt.Fprintf(bw, "%s\t%g\t%g\t%g\t%g\t%g\n",
			t.ID, t.Elevation, t.InitLevel, t.MinLevel, t.MaxLevel, t.Diameter)
	}

	fmt.Fprintln(bw, "\n[PIPES]")
	fmt.Fprintln(bw, ";ID\tNode1\tNode2\tLength\tDiam\tRoughness\tMinorLoss\tStatus")
	for _, p := range n.Pipes {
		status := p.Status
		if status == "" {
			status = "OPEN"
		}
		fmt.Fprintf(bw, "%s\t%s\t%s\t%g\t%g\t%g\t0\t%s\n",
			p.ID, p.FromNode, p.ToNode, p.Length, p.Diameter, p.Roughness, status)
	}

	if len(n.Pumps) > 0 {
		fmt.Fprintln(bw, "\n[PUMPS]")
		fmt.Fprintln(bw, ";ID\tNode1\tNode2\tParameters")
		for _, p := range n.Pumps {
			fmt.Fprintf(bw, "%s\t%s\t%s\tPOWER %g\n", p.ID, p.FromNode, p.ToNode, p.Power)
		}
	}

	if len(n.Valves) > 0 {
		fmt.Fprintln(bw, "\n[VALVES]")
		fmt.Fprintln(bw, ";ID\tNode1\tNode2\tDiam\tType\tSetting")
		for _, v := range n.Valves {
			fmt.Fprintf(bw, "%s\t%s\t%s\t%g\t%s\t%g\n",
				v.ID, v.FromNode, v.ToNode, v.Diameter, v.Type, v.Setting)
		}
	}

	if len(n.Patterns) > 0 {
		fmt.Fprintln(bw, "\n[PATTERNS]")
		fmt.Fprintln(bw, ";ID\tMultipliers")
		for _, pat := range n.Patterns {
			// Six multipliers per row, EPANET convention.
			for i := 0; i < len(pat.Multipliers); i += 6 {
				end := i + 6
				if end > len(pat.Multipliers) {
					end = len(pat.Multipliers)
				}
				fmt.Fprintf(bw, "%s", pat.ID)
				for _, m := range pat.Multipliers[i:end] {
					fmt.Fprintf(bw, "\t%g", m)
				}
				fmt.Fprintln(bw)
			}
		}
	}

	fmt.Fprintln(bw, "\n[TIMES]")
	fmt.Fprintf(bw, "DURATION\t%s\n", clockString(n.Times.Duration))
	fmt.Fprintf(bw, "HYDRAULIC TIMESTEP\t%s\n", clockString(n.Times.HydraulicStep))
	fmt.Fprintf(bw, "QUALITY TIMESTEP\t%s\n", clockString(n.Times.QualityStep))
	fmt.Fprintf(bw, "PATTERN TIMESTEP\t%s\n", clockString(n.Times.PatternStep))
	fmt.Fprintf(bw, "REPORT TIMESTEP\t%s\n", clockString(n.Times.ReportStep))

	fmt.Fprintln(bw, "\n[OPTIONS]")
	fmt.Fprintf(bw, "UNITS\t%s\n", n.Options.Units)
	fmt.Fprintf(bw, "HEADLOSS\t%s\n", n.Options.Headloss)
	fmt.Fprintf(bw, "QUALITY\t%s\n", n.Options.Quality)

	if len(n.Coordinates) > 0 {
		fmt.Fprintln(bw, "\n[COORDINATES]")
		fmt.Fprintln(bw, ";Node\tX\tY")
		for _, id := range n.NodeIDs() {
			if c, ok := n.Coordinates[id]; ok {
				fmt.Fprintf(bw, "%s\t%g\t%g\n", id, c.X, c.Y)
			}
		}
	}

	fmt.Fprintln(bw, "\n[END]")
	return bw.Flush()
}

func clockString(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	if s := secs % 60; s != 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", h, m)
}
