package tests

import (
	"testing"

	"ridehail/internal/service"
)

func TestFareCompute_KnownValues(t *testing.T) {
	calc := service.NewFareCalculator(service.DefaultFareConfig())

	// base 5.00 + 10km * 1.50 + 20min * 0.25
	fare := calc.Compute(10, 20)
	if fare.Base != 5.00 {
		t.Errorf("expected base 5.00, got %v", fare.Base)
	}
	if fare.Distance != 15.00 {
		t.Errorf("expected distance component 15.00, got %v", fare.Distance)
	}
	if fare.Time != 5.00 {
		t.Errorf("expected time component 5.00, got %v", fare.Time)
	}
	if fare.Total != 25.00 {
		t.Errorf("expected total 25.00, got %v", fare.Total)
	}
	if fare.Currency != "USD" {
		t.Errorf("expected USD, got %s", fare.Currency)
	}
}

func TestFareCompute_RoundsToCents(t *testing.T) {
	calc := service.NewFareCalculator(service.DefaultFareConfig())

	// 1.234km * 1.50 = 1.851 -> 1.85
	fare := calc.Compute(1.234, 0)
	if fare.Distance != 1.85 {
		t.Errorf("expected distance 1.85, got %v", fare.Distance)
	}
	if fare.Total != 6.85 {
		t.Errorf("expected total 6.85, got %v", fare.Total)
	}
}

func TestFareCompute_ZeroTrip(t *testing.T) {
	calc := service.NewFareCalculator(service.DefaultFareConfig())

	fare := calc.Compute(0, 0)
	if fare.Total != fare.Base {
		t.Errorf("zero trip should cost the base fare, got %v", fare.Total)
	}
}

func TestFareCompute_Deterministic(t *testing.T) {
	calc := service.NewFareCalculator(service.DefaultFareConfig())

	first := calc.Compute(7.3, 14.6)
	for i := 0; i < 100; i++ {
		if got := calc.Compute(7.3, 14.6); got != first {
			t.Fatalf("fare drifted on recomputation: %+v != %+v", got, first)
		}
	}
}

func TestFareCompute_CustomRates(t *testing.T) {
	calc := service.NewFareCalculator(service.FareConfig{
		BaseFare:      2.00,
		PerKmRate:     0.80,
		PerMinuteRate: 0.10,
		Currency:      "BDT",
	})

	fare := calc.Compute(5, 10)
	if fare.Total != 7.00 {
		t.Errorf("expected total 7.00, got %v", fare.Total)
	}
	if fare.Currency != "BDT" {
		t.Errorf("expected BDT, got %s", fare.Currency)
	}
}
