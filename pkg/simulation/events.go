// Package simulation provides the scenario simulator: a configured water
// network plus events and uncertainties, and the runs that turn it into
// SCADA data.
package simulation

import (
	"math"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

// LeakKind distinguishes how a leak opens.
type LeakKind string

const (
	// LeakAbrupt opens instantaneously at the start of the window.
	LeakAbrupt LeakKind = "abrupt"
	// LeakIncipient grows linearly from the start until the peak time,
	// then stays fully open until the end of the window.
	LeakIncipient LeakKind = "incipient"
)

// LeakEvent models a pipe failure with a diameter and an active window.
// Offsets are in seconds relative to the scenario start.
type LeakEvent struct {
	PipeID      string   `json:"link_id"`
	Diameter    float64  `json:"diameter"`
	StartOffset int64    `json:"start_time"`
	EndOffset   int64    `json:"end_time"`
	Kind        LeakKind `json:"type"`

	// PeakOffset is only meaningful for incipient leaks.
	PeakOffset int64 `json:"peak_time,omitempty"`
}

// Validate checks the event invariants: non-negative window, start <= end,
// known kind, and for incipient leaks start <= peak <= end.
func (e LeakEvent) Validate() error {
	if e.PipeID == "" {
		return hferrors.New(hferrors.CodeInvalidModel, "leak event without pipe id")
	}
	if e.StartOffset < 0 || e.EndOffset < 0 {
		return hferrors.New(hferrors.CodeInvalidModel, "leak window must be non-negative").
			WithContext("pipe_id", e.PipeID)
	}
	if e.StartOffset > e.EndOffset {
		return hferrors.New(hferrors.CodeInvalidModel, "leak start after end").
			WithContext("pipe_id", e.PipeID)
	}
	if e.Diameter <= 0 {
		return hferrors.New(hferrors.CodeInvalidModel, "leak diameter must be positive").
			WithContext("pipe_id", e.PipeID)
	}
	switch e.Kind {
	case LeakAbrupt:
	case LeakIncipient:
		if e.PeakOffset < e.StartOffset || e.PeakOffset > e.EndOffset {
			return hferrors.New(hferrors.CodeInvalidModel, "incipient peak outside leak window").
				WithContext("pipe_id", e.PipeID)
		}
	default:
		return hferrors.New(hferrors.CodeUnknownEventKind, "unknown leak kind").
			WithContext("kind", string(e.Kind))
	}
	return nil
}

// ActiveAt reports whether the leak is open at offset t (half-open window).
func (e LeakEvent) ActiveAt(t int64) bool {
	return t >= e.StartOffset && t < e.EndOffset
}

// Area returns the effective leak area at offset t. Abrupt leaks jump to
// the full orifice area; incipient leaks ramp linearly until the peak.
func (e LeakEvent) Area(t int64) float64 {
	if !e.ActiveAt(t) {
		return 0
	}
	full := math.Pi * (e.Diameter / 2) * (e.Diameter / 2)
	if e.Kind == LeakAbrupt {
		return full
	}
	if t >= e.PeakOffset {
		return full
	}
	span := e.PeakOffset - e.StartOffset
	if span <= 0 {
		return full
	}
	return full * float64(t-e.StartOffset) / float64(span)
}

// FaultKind distinguishes sensor fault behaviors.
type FaultKind string

const (
	// FaultStuckAtZero forces the reading to zero.
	FaultStuckAtZero FaultKind = "stuck_at_zero"
	// FaultConstantShift adds a constant offset to the reading.
	FaultConstantShift FaultKind = "constant_shift"
	// FaultGaussian adds zero-mean gaussian noise to the reading.
	FaultGaussian FaultKind = "gaussian"
)

// SensorKind names the quantity a sensor measures.
type SensorKind string

const (
	SensorPressure    SensorKind = "pressure"
	SensorFlow        SensorKind = "flow"
	SensorDemand      SensorKind = "demand"
	SensorNodeQuality SensorKind = "node_quality"
	SensorLinkQuality SensorKind = "link_quality"
)

// SensorFault corrupts the readings of one sensor inside a time window.
type SensorFault struct {
	SensorID    string     `json:"sensor_id"`
	Sensor      SensorKind `json:"sensor_type"`
	Kind        FaultKind  `json:"fault_type"`
	Parameter   float64    `json:"parameter,omitempty"`
	StartOffset int64      `json:"start_time"`
	EndOffset   int64      `json:"end_time"`
}

// Validate checks the fault invariants.
func (f SensorFault) Validate() error {
	if f.SensorID == "" {
		return hferrors.New(hferrors.CodeInvalidModel, "sensor fault without sensor id")
	}
	if f.StartOffset < 0 || f.StartOffset > f.EndOffset {
		return hferrors.New(hferrors.CodeInvalidModel, "invalid sensor fault window").
			WithContext("sensor_id", f.SensorID)
	}
	switch f.Sensor {
	case SensorPressure, SensorFlow, SensorDemand, SensorNodeQuality, SensorLinkQuality:
	default:
		return hferrors.New(hferrors.CodeUnknownEventKind, "unknown sensor type").
			WithContext("sensor_type", string(f.Sensor))
	}
	switch f.Kind {
	case FaultStuckAtZero, FaultConstantShift, FaultGaussian:
	default:
		return hferrors.New(hferrors.CodeUnknownEventKind, "unknown fault kind").
			WithContext("fault_type", string(f.Kind))
	}
	return nil
}

// ActiveAt reports whether the fault applies at offset t.
func (f SensorFault) ActiveAt(t int64) bool {
	return t >= f.StartOffset && t < f.EndOffset
}
