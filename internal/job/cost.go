package job

import (
	"time"

	"metapipe/internal/config"
)

// Estimator converts elapsed wall time and machine type into an estimated
// cost. Estimation is advisory: unknown machine types use a flat default
// rate instead of failing.
type Estimator struct {
	rates       map[string]float64
	defaultRate float64
}

// NewEstimator creates an estimator from an hourly rate table.
func NewEstimator(rates map[string]float64) *Estimator {
	return &Estimator{
		rates:       rates,
		defaultRate: config.DefaultHourlyRate,
	}
}

// Estimate returns elapsed hours times the machine type's hourly rate.
func (e *Estimator) Estimate(machineType string, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return elapsed.Hours() * e.Rate(machineType)
}

// Rate returns the hourly rate for a machine type.
func (e *Estimator) Rate(machineType string) float64 {
	if rate, ok := e.rates[machineType]; ok {
		return rate
	}
	return e.defaultRate
}
