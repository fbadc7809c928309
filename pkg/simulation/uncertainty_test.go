package simulation

import (
	"math/rand"
	"testing"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

func TestUncertaintyValidate(t *testing.T) {
	if err := (Uncertainty{Type: UncertaintyAbsoluteGaussian, Scale: 0.1}).Validate(); err != nil {
		t.Fatalf("valid gaussian rejected: %v", err)
	}
	if err := (Uncertainty{Type: "triangular"}).Validate(); !hferrors.IsCode(err, hferrors.CodeUnknownEventKind) {
		t.Fatalf("expected unknown kind, got %v", err)
	}
	if err := (Uncertainty{Type: UncertaintyAbsoluteUniform, Low: 2, High: 1}).Validate(); err == nil {
		t.Fatal("low above high accepted")
	}
}

func TestUncertaintyApplyBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	u := Uncertainty{Type: UncertaintyPercentageDeviation, Deviation: 0.05}
	for i := 0; i < 1000; i++ {
		v := u.Apply(rng, 100)
		if v < 95 || v > 105 {
			t.Fatalf("deviation out of bounds: %v", v)
		}
	}

	rng = rand.New(rand.NewSource(1))
	u = Uncertainty{Type: UncertaintyAbsoluteUniform, Low: -1, High: 1}
	for i := 0; i < 1000; i++ {
		v := u.Apply(rng, 10)
		if v < 9 || v > 11 {
			t.Fatalf("uniform out of bounds: %v", v)
		}
	}
}

func TestUncertaintyApplyDeterministic(t *testing.T) {
	u := Uncertainty{Type: UncertaintyAbsoluteGaussian, Scale: 0.5}
	a := u.Apply(rand.New(rand.NewSource(7)), 10)
	b := u.Apply(rand.New(rand.NewSource(7)), 10)
	if a != b {
		t.Fatalf("same seed gave %v and %v", a, b)
	}
}
