package wiresim

import "testing"

func TestConstantDistributionAlwaysDrawsValue(t *testing.T) {
	rng := NewRNG(1)
	d := NewConstant(42)
	for i := 0; i < 10; i++ {
		if got := d.Draw(rng); got != 42 {
			t.Fatalf("Draw() = %v, want 42", got)
		}
	}
}

func TestUniformDistributionStaysInRange(t *testing.T) {
	rng := NewRNG(7)
	d := NewUniform(2, 5)
	for i := 0; i < 1000; i++ {
		v := d.Draw(rng)
		if v < 2 || v >= 5 {
			t.Fatalf("Draw() = %v, want in [2,5)", v)
		}
	}
}

func TestExponentialDistributionIsNonNegative(t *testing.T) {
	rng := NewRNG(3)
	d := NewExponential(10)
	for i := 0; i < 1000; i++ {
		v := d.Draw(rng)
		if v < 0 {
			t.Fatalf("Draw() = %v, want >= 0", v)
		}
	}
}

func TestDistributionDeterministicForFixedSeed(t *testing.T) {
	d := NewExponential(5)
	a := d.Draw(NewRNG(99))
	b := d.Draw(NewRNG(99))
	if a != b {
		t.Fatalf("draws differ for identical seed: %v vs %v", a, b)
	}
}

func TestDistributionSpecBuildRejectsUnknownKind(t *testing.T) {
	_, err := DistributionSpec{Kind: "gaussian"}.Build("size")
	if err == nil {
		t.Fatal("expected error for unknown distribution kind")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
}

func TestDistributionSpecBuildConstant(t *testing.T) {
	d, err := DistributionSpec{Kind: "constant", Value: 10}.Build("size")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if d.Kind != DistConstant || d.Value != 10 {
		t.Fatalf("got %+v", d)
	}
}

func TestDistributionSpecBuildConstantZero(t *testing.T) {
	d, err := DistributionSpec{Kind: "constant", Value: 0}.Build("processing")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := d.Draw(NewRNG(1)); got != 0 {
		t.Fatalf("Draw() = %v, want 0", got)
	}
}

func TestDistributionSpecBuildRejectsNegativeConstant(t *testing.T) {
	if _, err := (DistributionSpec{Kind: "constant", Value: -1}).Build("processing"); err == nil {
		t.Fatal("expected error for negative constant")
	}
}

func TestDistributionSpecBuildUniformRejectsBadRange(t *testing.T) {
	if _, err := (DistributionSpec{Kind: "uniform", Min: 5, Max: 5}).Build("x"); err == nil {
		t.Fatal("expected error for min == max")
	}
}
