package simulation

import (
	"math/rand"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

// UncertaintyKind names a perturbation model.
type UncertaintyKind string

const (
	UncertaintyAbsoluteGaussian    UncertaintyKind = "absolute_gaussian"
	UncertaintyRelativeGaussian    UncertaintyKind = "relative_gaussian"
	UncertaintyAbsoluteUniform     UncertaintyKind = "absolute_uniform"
	UncertaintyRelativeUniform     UncertaintyKind = "relative_uniform"
	UncertaintyPercentageDeviation UncertaintyKind = "percentage_deviation"
)

// Uncertainty perturbs a value. The fields used depend on Type:
// gaussian kinds use Mean/Scale, uniform kinds Low/High, percentage
// deviation uses Deviation (a fraction, 0.05 = ±5%).
type Uncertainty struct {
	Type      UncertaintyKind `json:"type"`
	Mean      float64         `json:"mean,omitempty"`
	Scale     float64         `json:"scale,omitempty"`
	Low       float64         `json:"low,omitempty"`
	High      float64         `json:"high,omitempty"`
	Deviation float64         `json:"deviation,omitempty"`
}

// Validate checks the kind and its parameters.
func (u Uncertainty) Validate() error {
	switch u.Type {
	case UncertaintyAbsoluteGaussian, UncertaintyRelativeGaussian:
		if u.Scale < 0 {
			return hferrors.New(hferrors.CodeInvalidModel, "gaussian scale must be non-negative")
		}
	case UncertaintyAbsoluteUniform, UncertaintyRelativeUniform:
		if u.Low > u.High {
			return hferrors.New(hferrors.CodeInvalidModel, "uniform low above high")
		}
	case UncertaintyPercentageDeviation:
		if u.Deviation < 0 {
			return hferrors.New(hferrors.CodeInvalidModel, "deviation must be non-negative")
		}
	default:
		return hferrors.New(hferrors.CodeUnknownEventKind, "unknown uncertainty kind").
			WithContext("type", string(u.Type))
	}
	return nil
}

// Apply perturbs v using the given random source.
func (u Uncertainty) Apply(rng *rand.Rand, v float64) float64 {
	switch u.Type {
	case UncertaintyAbsoluteGaussian:
		return v + u.Mean + rng.NormFloat64()*u.Scale
	case UncertaintyRelativeGaussian:
		return v * (1 + rng.NormFloat64()*u.Scale)
	case UncertaintyAbsoluteUniform:
		return v + u.Low + rng.Float64()*(u.High-u.Low)
	case UncertaintyRelativeUniform:
		return v * (u.Low + rng.Float64()*(u.High-u.Low))
	case UncertaintyPercentageDeviation:
		return v * (1 + (rng.Float64()*2-1)*u.Deviation)
	default:
		return v
	}
}

// ModelUncertainty groups the per-parameter uncertainties applied to the
// network model before a run. Nil entries leave the parameter exact.
type ModelUncertainty struct {
	PipeLength    *Uncertainty `json:"pipe_length,omitempty"`
	PipeDiameter  *Uncertainty `json:"pipe_diameter,omitempty"`
	PipeRoughness *Uncertainty `json:"pipe_roughness,omitempty"`
	BaseDemand    *Uncertainty `json:"base_demand,omitempty"`
	DemandPattern *Uncertainty `json:"demand_pattern,omitempty"`
	Elevation     *Uncertainty `json:"elevation,omitempty"`
}

// Validate checks every set uncertainty.
func (m ModelUncertainty) Validate() error {
	for _, u := range []*Uncertainty{
		m.PipeLength, m.PipeDiameter, m.PipeRoughness,
		m.BaseDemand, m.DemandPattern, m.Elevation,
	} {
		if u == nil {
			continue
		}
		if err := u.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SensorNoise perturbs every sensor reading with one uncertainty.
type SensorNoise struct {
	Uncertainty Uncertainty `json:"uncertainty"`
}

// Validate checks the wrapped uncertainty.
func (n SensorNoise) Validate() error {
	return n.Uncertainty.Validate()
}
