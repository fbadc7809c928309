// Package epanet provides a minimal model of EPANET .inp files: enough of
// the network sections to drive scenario simulations and to round-trip
// exports. It is not a full EPANET implementation.
package epanet

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

// Junction is a demand node.
type Junction struct {
	ID         string
	Elevation  float64
	BaseDemand float64
	Pattern    string
}

// Reservoir is a fixed-head source node.
type Reservoir struct {
	ID   string
	Head float64
}

// Tank is a storage node.
type Tank struct {
	ID        string
	Elevation float64
	InitLevel float64
	MinLevel  float64
	MaxLevel  float64
	Diameter  float64
}

// Pipe is a link between two nodes.
type Pipe struct {
	ID        string
	FromNode  string
	ToNode    string
	Length    float64
	Diameter  float64
	Roughness float64
	Status    string
}

// Pump is a powered link.
type Pump struct {
	ID       string
	FromNode string
	ToNode   string
	Power    float64
}

// Valve is a controllable link.
type Valve struct {
	ID       string
	FromNode string
	ToNode   string
	Diameter float64
	Type     string
	Setting  float64
}

// Pattern is a time-multiplier series applied to base demands.
type Pattern struct {
	ID          string
	Multipliers []float64
}

// Coordinate is a node position for plotting.
type Coordinate struct {
	X float64
	Y float64
}

// Times holds the [TIMES] section, all values in seconds.
type Times struct {
	Duration      int64
	HydraulicStep int64
	QualityStep   int64
	PatternStep   int64
	ReportStep    int64
}

// Options holds the subset of [OPTIONS] we care about.
type Options struct {
	Units    string
	Headloss string
	Quality  string
}

// Network is a parsed .inp model.
type Network struct {
	Title       string
	Junctions   []Junction
	Reservoirs  []Reservoir
	Tanks       []Tank
	Pipes       []Pipe
	Pumps       []Pump
	Valves      []Valve
	Patterns    []Pattern
	Coordinates map[string]Coordinate
	Times       Times
	Options     Options
}

// NodeIDs returns all node identifiers in declaration order
// (junctions, reservoirs, tanks).
func (n *Network) NodeIDs() []string {
	ids := make([]string, 0, len(n.Junctions)+len(n.Reservoirs)+len(n.Tanks))
	for _, j := range n.Junctions {
		ids = append(ids, j.ID)
	}
	for _, r := range n.Reservoirs {
		ids = append(ids, r.ID)
	}
	for _, t := range n.Tanks {
		ids = append(ids, t.ID)
	}
	return ids
}

// LinkIDs returns all link identifiers in declaration order
// (pipes, pumps, valves).
func (n *Network) LinkIDs() []string {
	ids := make([]string, 0, len(n.Pipes)+len(n.Pumps)+len(n.Valves))
	for _, p := range n.Pipes {
		ids = append(ids, p.ID)
	}
	for _, p := range n.Pumps {
		ids = append(ids, p.ID)
	}
	for _, v := range n.Valves {
		ids = append(ids, v.ID)
	}
	return ids
}

// Pipe returns the pipe with the given id.
func (n *Network) Pipe(id string) (*Pipe, bool) {
	for i := range n.Pipes {
		if n.Pipes[i].ID == id {
			return &n.Pipes[i], true
		}
	}
	return nil, false
}

// Junction returns the junction with the given id.
func (n *Network) Junction(id string) (*Junction, bool) {
	for i := range n.Junctions {
		if n.Junctions[i].ID == id {
			return &n.Junctions[i], true
		}
	}
	return nil, false
}

// Pattern returns the pattern with the given id.
func (n *Network) Pattern(id string) (*Pattern, bool) {
	for i := range n.Patterns {
		if n.Patterns[i].ID == id {
			return &n.Patterns[i], true
		}
	}
	return nil, false
}

// SetPattern replaces or appends a demand pattern.
func (n *Network) SetPattern(p Pattern) {
	for i := range n.Patterns {
		if n.Patterns[i].ID == p.ID {
			n.Patterns[i] = p
			return
		}
	}
	n.Patterns = append(n.Patterns, p)
}

// ParseFile parses an .inp file from disk.
func ParseFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses an .inp model.
// Unknown sections are skipped; malformed rows inside known sections abort
// the parse.
func Parse(r io.Reader) (*Network, error) {
	net := &Network{
		Coordinates: make(map[string]Coordinate),
		Times: Times{
			HydraulicStep: 3600,
			QualityStep:   300,
			PatternStep:   3600,
			ReportStep:    3600,
		},
		Options: Options{Units: "LPS", Headloss: "H-W", Quality: "NONE"},
	}

	section := ""
	lineNo := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.Index(line, ";"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			section = strings.ToUpper(strings.Trim(line, "[]"))
			continue
		}

		fields := strings.Fields(line)
		var err error
		switch section {
		case "TITLE":
			if net.Title == "" {
				net.Title = line
			}
		case "JUNCTIONS":
			err = net.parseJunction(fields)
		case "RESERVOIRS":
			err = net.parseReservoir(fields)
		case "TANKS":
			err = net.parseTank(fields)
		case "PIPES":
			err = net.parsePipe(fields)
		case "PUMPS":
			err = net.parsePump(fields)
		case "VALVES":
			err = net.parseValve(fields)
		case "PATTERNS":
			err = net.parsePatternRow(fields)
		case "TIMES":
			err = net.parseTimesRow(fields)
		case "OPTIONS":
			net.parseOptionsRow(fields)
		case "COORDINATES":
			err = net.parseCoordinate(fields)
		case "END":
			// done
		default:
			// skip sections we do not model
		}
		if err != nil {
			return nil, hferrors.Wrapf(err, hferrors.CodeInvalidModel,
				"inp line %d", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return net, nil
}

func (n *Network) parseJunction(f []string) error {
	if len(f) < 2 {
		return fmt.Errorf("junction row needs id and elevation")
	}
	j := Junction{ID: f[0]}
	var err error
	if j.Elevation, err = strconv.ParseFloat(f[1], 64); err != nil {
		return err
	}
	if len(f) > 2 {
		if j.BaseDemand, err = strconv.ParseFloat(f[2], 64); err != nil {
			return err
		}
	}
	if len(f) > 3 {
		j.Pattern = f[3]
	}
	n.Junctions = append(n.Junctions, j)
	return nil
}

func (n *Network) parseReservoir(f []string) error {
	if len(f) < 2 {
		return fmt.Errorf("reservoir row needs id and head")
	}
	head, err := strconv.ParseFloat(f[1], 64)
	if err != nil {
		return err
	}
	n.Reservoirs = append(n.Reservoirs, Reservoir{ID: f[0], Head: head})
	return nil
}

func (n *Network) parseTank(f []string) error {
	if len(f) < 6 {
		return fmt.Errorf("tank row needs 6 fields")
	}
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(f[i+1], 64)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	n.Tanks = append(n.Tanks, Tank{
		ID: f[0], Elevation: vals[0], InitLevel: vals[1],
		MinLevel: vals[2], MaxLevel: vals[3], Diameter: vals[4],
	})
	return nil
}

func (n *Network) parsePipe(f []string) error {
	if len(f) < 6 {
		return fmt.Errorf("pipe row needs 6 fields")
	}
	p := Pipe{ID: f[0], FromNode: f[1], ToNode: f[2], Status: "OPEN"}
	var err error
	if p.Length, err = strconv.ParseFloat(f[3], 64); err != nil {
		return err
	}
	if p.Diameter, err = strconv.ParseFloat(f[4], 64); err != nil {
		return err
	}
	if p.Roughness, err = strconv.ParseFloat(f[5], 64); err != nil {
		return err
	}
	if len(f) > 7 {
		p.Status = strings.ToUpper(f[7])
	}
	n.Pipes = append(n.Pipes, p)
	return nil
}

func (n *Network) parsePump(f []string) error {
	if len(f) < 3 {
		return fmt.Errorf("pump row needs 3 fields")
	}
	p := Pump{ID: f[0], FromNode: f[1], ToNode: f[2]}
	// Optional "POWER value" keyword pair.
	for i := 3; i+1 < len(f); i += 2 {
		if strings.EqualFold(f[i], "POWER") {
			v, err := strconv.ParseFloat(f[i+1], 64)
			if err != nil {
				return err
			}
			p.Power = v
		}
	}
	n.Pumps = append(n.Pumps, p)
	return nil
}

func (n *Network) parseValve(f []string) error {
	if len(f) < 6 {
		return fmt.Errorf("valve row needs 6 fields")
	}
	v := Valve{ID: f[0], FromNode: f[1], ToNode: f[2], Type: strings.ToUpper(f[4])}
	var err error
	if v.Diameter, err = strconv.ParseFloat(f[3], 64); err != nil {
		return err
	}
	if v.Setting, err = strconv.ParseFloat(f[5], 64); err != nil {
		return err
	}
	n.Valves = append(n.Valves, v)
	return nil
}

func (n *Network) parsePatternRow(f []string) error {
	if len(f) < 2 {
		return fmt.Errorf("pattern row needs id and at least one multiplier")
	}
	id := f[0]
	var pat *Pattern
	for i := range n.Patterns {
		if n.Patterns[i].ID == id {
			pat = &n.Patterns[i]
			break
		}
	}
	if pat == nil {
		n.Patterns = append(n.Patterns, Pattern{ID: id})
		pat = &n.Patterns[len(n.Patterns)-1]
	}
	for _, s := range f[1:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		pat.Multipliers = append(pat.Multipliers, v)
	}
	return nil
}

func (n *Network) parseTimesRow(f []string) error {
	if len(f) < 2 {
		return nil
	}
	// Key may be one or two words ("DURATION", "HYDRAULIC TIMESTEP").
	key := strings.ToUpper(f[0])
	rest := f[1:]
	if len(f) >= 3 && !isTimeValue(f[1]) {
		key = key + " " + strings.ToUpper(f[1])
		rest = f[2:]
	}
	if len(rest) == 0 {
		return nil
	}
	secs, err := parseClockValue(rest)
	if err != nil {
		return err
	}

	switch key {
	case "DURATION":
		n.Times.Duration = secs
	case "HYDRAULIC TIMESTEP":
		n.Times.HydraulicStep = secs
	case "QUALITY TIMESTEP":
		n.Times.QualityStep = secs
	case "PATTERN TIMESTEP":
		n.Times.PatternStep = secs
	case "REPORT TIMESTEP":
		n.Times.ReportStep = secs
	}
	return nil
}

func (n *Network) parseOptionsRow(f []string) {
	if len(f) < 2 {
		return
	}
	switch strings.ToUpper(f[0]) {
	case "UNITS":
		n.Options.Units = strings.ToUpper(f[1])
	case "HEADLOSS":
		n.Options.Headloss = strings.ToUpper(f[1])
	case "QUALITY":
		n.Options.Quality = strings.ToUpper(f[1])
	}
}

func (n *Network) parseCoordinate(f []string) error {
	if len(f) < 3 {
		return fmt.Errorf("coordinate row needs 3 fields")
	}
	x, err := strconv.ParseFloat(f[1], 64)
	if err != nil {
		return err
	}
	y, err := strconv.ParseFloat(f[2], 64)
	if err != nil {
		return err
	}
	n.Coordinates[f[0]] = Coordinate{X: x, Y: y}
	return nil
}

func isTimeValue(s string) bool {
	if strings.Contains(s, ":") {
		return true
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// parseClockValue parses "H:MM", "H:MM:SS" or "<value> <unit>" into seconds.
func parseClockValue(f []string) (int64, error) {
	if strings.Contains(f[0], ":") {
		parts := strings.Split(f[0], ":")
		var secs int64
		mult := []int64{3600, 60, 1}
		for i, p := range parts {
			if i >= len(mult) {
				break
			}
			v, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return 0, err
			}
			secs += v * mult[i]
		}
		return secs, nil
	}

	v, err := strconv.ParseFloat(f[0], 64)
	if err != nil {
		return 0, err
	}
	unit := "HOURS"
	if len(f) > 1 {
		unit = strings.ToUpper(f[1])
	}
	switch {
	case strings.HasPrefix(unit, "SEC"):
		return int64(v), nil
	case strings.HasPrefix(unit, "MIN"):
		return int64(v * 60), nil
	case strings.HasPrefix(unit, "HOUR"):
		return int64(v * 3600), nil
	case strings.HasPrefix(unit, "DAY"):
		return int64(v * 86400), nil
	default:
		return 0, fmt.Errorf("unknown time unit %q", unit)
	}
}
