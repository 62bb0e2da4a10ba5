package service

import (
	"math"

	"ridehail/internal/domain"
)

// FareConfig holds the pricing rates used by the FareCalculator.
type FareConfig struct {
	BaseFare      float64
	PerKmRate     float64
	PerMinuteRate float64
	Currency      string
}

// DefaultFareConfig returns the standard pricing rates.
func DefaultFareConfig() FareConfig {
	return FareConfig{
		BaseFare:      5.00,
		PerKmRate:     1.50,
		PerMinuteRate: 0.25,
		Currency:      "USD",
	}
}

// FareCalculator computes fare breakdowns from distance and duration.
// Deterministic: the same inputs always produce the same breakdown.
type FareCalculator struct {
	cfg FareConfig
}

// NewFareCalculator creates a FareCalculator with the given rates.
func NewFareCalculator(cfg FareConfig) *FareCalculator {
	return &FareCalculator{cfg: cfg}
}

// Compute returns the fare breakdown for the given distance and duration.
// Components and total are rounded to cents.
func (f *FareCalculator) Compute(distanceKm, durationMin float64) domain.Fare {
	base := f.cfg.BaseFare
	distance := roundCents(distanceKm * f.cfg.PerKmRate)
	duration := roundCents(durationMin * f.cfg.PerMinuteRate)

	return domain.Fare{
		Base:     base,
		Distance: distance,
		Time:     duration,
		Total:    roundCents(base + distance + duration),
		Currency: f.cfg.Currency,
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
