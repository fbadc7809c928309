// Package scada holds simulated SCADA data: time-series sensor readings
// produced by scenario simulations, their sensor configuration, and
// persistence/export routines.
package scada

import (
	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

// SensorConfig describes the measurement points of a network.
// Nodes and Links list every element of the network; the sensor slices
// select the subset that is actually metered.
type SensorConfig struct {
	Nodes []string `json:"nodes"`
	Links []string `json:"links"`

	PressureSensors    []string `json:"pressure_sensors"`
	FlowSensors        []string `json:"flow_sensors"`
	DemandSensors      []string `json:"demand_sensors"`
	NodeQualitySensors []string `json:"node_quality_sensors"`
	LinkQualitySensors []string `json:"link_quality_sensors"`
}

// EmptySensorConfig returns a config that knows the network elements but
// has no sensors placed.
func EmptySensorConfig(nodes, links []string) SensorConfig {
	return SensorConfig{Nodes: nodes, Links: links}
}

// PlaceAllSensors meters every node (pressure, demand) and link (flow).
func (c *SensorConfig) PlaceAllSensors() {
	c.PressureSensors = append([]string(nil), c.Nodes...)
	c.DemandSensors = append([]string(nil), c.Nodes...)
	c.FlowSensors = append([]string(nil), c.Links...)
}

// Validate checks that every sensor references a known node or link.
func (c SensorConfig) Validate() error {
	nodes := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		nodes[n] = true
	}
	links := make(map[string]bool, len(c.Links))
	for _, l := range c.Links {
		links[l] = true
	}

	for _, s := range c.PressureSensors {
		if !nodes[s] {
			return hferrors.New(hferrors.CodeUnknownSensor, "pressure sensor at unknown node").
				WithContext("node_id", s)
		}
	}
	for _, s := range c.DemandSensors {
		if !nodes[s] {
			return hferrors.New(hferrors.CodeUnknownSensor, "demand sensor at unknown node").
				WithContext("node_id", s)
		}
	}
	for _, s := range c.NodeQualitySensors {
		if !nodes[s] {
			return hferrors.New(hferrors.CodeUnknownSensor, "quality sensor at unknown node").
				WithContext("node_id", s)
		}
	}
	for _, s := range c.FlowSensors {
		if !links[s] {
			return hferrors.New(hferrors.CodeUnknownSensor, "flow sensor at unknown link").
				WithContext("link_id", s)
		}
	}
	for _, s := range c.LinkQualitySensors {
		if !links[s] {
			return hferrors.New(hferrors.CodeUnknownSensor, "quality sensor at unknown link").
				WithContext("link_id", s)
		}
	}
	return nil
}

// NodeIndex resolves a node id to its column position.
func (c SensorConfig) NodeIndex(id string) (int, error) {
	for i, n := range c.Nodes {
		if n == id {
			return i, nil
		}
	}
	return -1, hferrors.New(hferrors.CodeUnknownNode, "node not in sensor config").
		WithContext("node_id", id)
}

// LinkIndex resolves a link id to its column position.
func (c SensorConfig) LinkIndex(id string) (int, error) {
	for i, l := range c.Links {
		if l == id {
			return i, nil
		}
	}
	return -1, hferrors.UnknownPipe(id)
}

// SensorCount returns the total number of configured sensors.
func (c SensorConfig) SensorCount() int {
	return len(c.PressureSensors) + len(c.FlowSensors) + len(c.DemandSensors) +
		len(c.NodeQualitySensors) + len(c.LinkQualitySensors)
}
