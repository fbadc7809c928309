package simulation

import (
	"math"
	"testing"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

func TestLeakEventValidate(t *testing.T) {
	good := LeakEvent{PipeID: "L1", Diameter: 0.05, StartOffset: 0, EndOffset: 3600, Kind: LeakAbrupt}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	cases := []struct {
		name string
		ev   LeakEvent
		code hferrors.Code
	}{
		{
			name: "start after end",
			ev:   LeakEvent{PipeID: "L1", Diameter: 0.05, StartOffset: 7200, EndOffset: 3600, Kind: LeakAbrupt},
			code: hferrors.CodeInvalidModel,
		},
		{
			name: "zero diameter",
			ev:   LeakEvent{PipeID: "L1", StartOffset: 0, EndOffset: 3600, Kind: LeakAbrupt},
			code: hferrors.CodeInvalidModel,
		},
		{
			name: "unknown kind",
			ev:   LeakEvent{PipeID: "L1", Diameter: 0.05, StartOffset: 0, EndOffset: 3600, Kind: "gradual"},
			code: hferrors.CodeUnknownEventKind,
		},
		{
			name: "incipient peak outside window",
			ev: LeakEvent{PipeID: "L1", Diameter: 0.05, StartOffset: 0, EndOffset: 3600,
				Kind: LeakIncipient, PeakOffset: 7200},
			code: hferrors.CodeInvalidModel,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ev.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !hferrors.IsCode(err, tc.code) {
				t.Fatalf("got code %s, want %s", hferrors.GetCode(err), tc.code)
			}
		})
	}
}

func TestLeakArea(t *testing.T) {
	full := math.Pi * 0.025 * 0.025

	abrupt := LeakEvent{PipeID: "L1", Diameter: 0.05, StartOffset: 1000, EndOffset: 2000, Kind: LeakAbrupt}
	if got := abrupt.Area(999); got != 0 {
		t.Fatalf("area before window = %v", got)
	}
	if got := abrupt.Area(1000); math.Abs(got-full) > 1e-12 {
		t.Fatalf("abrupt area at start = %v, want %v", got, full)
	}
	if got := abrupt.Area(2000); got != 0 {
		t.Fatal("window end is exclusive")
	}

	inc := LeakEvent{PipeID: "L1", Diameter: 0.05, StartOffset: 0, EndOffset: 4000,
		Kind: LeakIncipient, PeakOffset: 2000}
	if got := inc.Area(1000); math.Abs(got-full/2) > 1e-12 {
		t.Fatalf("incipient midpoint area = %v, want %v", got, full/2)
	}
	if got := inc.Area(3000); math.Abs(got-full) > 1e-12 {
		t.Fatalf("incipient area past peak = %v, want %v", got, full)
	}
}

func TestSensorFaultValidate(t *testing.T) {
	good := SensorFault{SensorID: "J1", Sensor: SensorPressure, Kind: FaultStuckAtZero, EndOffset: 3600}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid fault rejected: %v", err)
	}

	bad := SensorFault{SensorID: "J1", Sensor: "temperature", Kind: FaultStuckAtZero, EndOffset: 3600}
	if err := bad.Validate(); !hferrors.IsCode(err, hferrors.CodeUnknownEventKind) {
		t.Fatalf("expected unknown event kind, got %v", err)
	}
}
