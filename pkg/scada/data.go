package scada

import (
	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

// Data holds the readings of one simulation run. Matrices are indexed
// [step][column], with columns covering every node/link of the sensor
// config regardless of sensor placement; GetData selects the metered
// columns.
type Data struct {
	SensorConfig SensorConfig `json:"sensor_config"`

	// Time holds the reading timestamps in seconds since scenario start.
	Time []int64 `json:"time"`

	Pressures   [][]float64 `json:"pressures,omitempty"`
	Flows       [][]float64 `json:"flows,omitempty"`
	Demands     [][]float64 `json:"demands,omitempty"`
	NodeQuality [][]float64 `json:"node_quality,omitempty"`
	LinkQuality [][]float64 `json:"link_quality,omitempty"`
}

// New allocates a Data with zeroed matrices for the given step count.
func New(cfg SensorConfig, steps int) *Data {
	d := &Data{
		SensorConfig: cfg,
		Time:         make([]int64, steps),
		Pressures:    newMatrix(steps, len(cfg.Nodes)),
		Flows:        newMatrix(steps, len(cfg.Links)),
		Demands:      newMatrix(steps, len(cfg.Nodes)),
	}
	return d
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// Steps returns the number of time steps.
func (d *Data) Steps() int {
	return len(d.Time)
}

// Validate checks matrix shapes against the sensor config.
func (d *Data) Validate() error {
	check := func(name string, m [][]float64, cols int) error {
		if m == nil {
			return nil
		}
		if len(m) != len(d.Time) {
			return hferrors.Newf(hferrors.CodeInvalidModel,
				"%s has %d rows, expected %d", name, len(m), len(d.Time))
		}
		for i, row := range m {
			if len(row) != cols {
				return hferrors.Newf(hferrors.CodeInvalidModel,
					"%s row %d has %d columns, expected %d", name, i, len(row), cols)
			}
		}
		return nil
	}

	nodes := len(d.SensorConfig.Nodes)
	links := len(d.SensorConfig.Links)
	for _, c := range []struct {
		name string
		m    [][]float64
		cols int
	}{
		{"pressures", d.Pressures, nodes},
		{"flows", d.Flows, links},
		{"demands", d.Demands, nodes},
		{"node_quality", d.NodeQuality, nodes},
		{"link_quality", d.LinkQuality, links},
	} {
		if err := check(c.name, c.m, c.cols); err != nil {
			return err
		}
	}
	return nil
}

// GetData returns the sensor readings as one matrix, one row per time step.
// Column order follows the sensor config: pressures, flows, demands,
// node quality, link quality — matching the label layout used by the
// benchmark loader.
func (d *Data) GetData() ([][]float64, error) {
	cols := d.SensorConfig.SensorCount()
	out := newMatrix(d.Steps(), cols)

	col := 0
	appendCols := func(sensors []string, index func(string) (int, error), m [][]float64, what string) error {
		for _, s := range sensors {
			idx, err := index(s)
			if err != nil {
				return err
			}
			if m == nil {
				return hferrors.Newf(hferrors.CodeInvalidModel,
					"no %s readings for sensor %s", what, s)
			}
			for t := range out {
				out[t][col] = m[t][idx]
			}
			col++
		}
		return nil
	}

	cfg := d.SensorConfig
	if err := appendCols(cfg.PressureSensors, cfg.NodeIndex, d.Pressures, "pressure"); err != nil {
		return nil, err
	}
	if err := appendCols(cfg.FlowSensors, cfg.LinkIndex, d.Flows, "flow"); err != nil {
		return nil, err
	}
	if err := appendCols(cfg.DemandSensors, cfg.NodeIndex, d.Demands, "demand"); err != nil {
		return nil, err
	}
	if err := appendCols(cfg.NodeQualitySensors, cfg.NodeIndex, d.NodeQuality, "node quality"); err != nil {
		return nil, err
	}
	if err := appendCols(cfg.LinkQualitySensors, cfg.LinkIndex, d.LinkQuality, "link quality"); err != nil {
		return nil, err
	}
	return out, nil
}

// PressureAt returns the pressure series at one metered node.
func (d *Data) PressureAt(nodeID string) ([]float64, error) {
	idx, err := d.SensorConfig.NodeIndex(nodeID)
	if err != nil {
		return nil, err
	}
	if d.Pressures == nil {
		return nil, hferrors.New(hferrors.CodeUnknownSensor, "no pressure readings recorded").
			WithContext("node_id", nodeID)
	}
	out := make([]float64, d.Steps())
	for t := range out {
		out[t] = d.Pressures[t][idx]
	}
	return out, nil
}

// FlowAt returns the flow series at one metered link.
func (d *Data) FlowAt(linkID string) ([]float64, error) {
	idx, err := d.SensorConfig.LinkIndex(linkID)
	if err != nil {
		return nil, err
	}
	if d.Flows == nil {
		return nil, hferrors.New(hferrors.CodeUnknownSensor, "no flow readings recorded").
			WithContext("link_id", linkID)
	}
	out := make([]float64, d.Steps())
	for t := range out {
		out[t] = d.Flows[t][idx]
	}
	return out, nil
}

// Concatenate appends another run's readings in time. Sensor configs must
// match exactly.
func (d *Data) Concatenate(other *Data) error {
	if d.SensorConfig.SensorCount() != other.SensorConfig.SensorCount() ||
		len(d.SensorConfig.Nodes) != len(other.SensorConfig.Nodes) ||
		len(d.SensorConfig.Links) != len(other.SensorConfig.Links) {
		return hferrors.New(hferrors.CodeInvalidModel, "sensor configs differ")
	}
	d.Time = append(d.Time, other.Time...)
	d.Pressures = append(d.Pressures, other.Pressures...)
	d.Flows = append(d.Flows, other.Flows...)
	d.Demands = append(d.Demands, other.Demands...)
	d.NodeQuality = append(d.NodeQuality, other.NodeQuality...)
	d.LinkQuality = append(d.LinkQuality, other.LinkQuality...)
	return nil
}
