package job

import (
	"math"
	"testing"
	"time"
)

func TestEstimator_KnownRates(t *testing.T) {
	t.Parallel()
	e := NewEstimator(map[string]float64{
		"n1-standard-16": 0.38,
		"n1-highmem-16":  0.47,
	})

	tests := []struct {
		machineType string
		elapsed     time.Duration
		want        float64
	}{
		{"n1-standard-16", time.Hour, 0.38},
		{"n1-standard-16", 2 * time.Hour, 0.76},
		{"n1-highmem-16", 30 * time.Minute, 0.235},
		{"n2-custom-weird", time.Hour, 0.50}, // default rate for unknown types
	}

	for _, tt := range tests {
		got := e.Estimate(tt.machineType, tt.elapsed)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Estimate(%q, %v) = %v, want %v", tt.machineType, tt.elapsed, got, tt.want)
		}
	}
}

func TestEstimator_ZeroElapsed(t *testing.T) {
	t.Parallel()
	e := NewEstimator(nil)
	if got := e.Estimate("n1-standard-16", 0); got != 0 {
		t.Errorf("Estimate with zero elapsed = %v, want 0", got)
	}
	if got := e.Estimate("n1-standard-16", -time.Hour); got != 0 {
		t.Errorf("Estimate with negative elapsed = %v, want 0", got)
	}
}

func TestEstimator_Linearity(t *testing.T) {
	t.Parallel()
	e := NewEstimator(map[string]float64{"n1-standard-16": 0.38})

	one := e.Estimate("n1-standard-16", time.Hour)
	three := e.Estimate("n1-standard-16", 3*time.Hour)
	if math.Abs(three-3*one) > 1e-9 {
		t.Errorf("cost is not linear in elapsed time: 1h=%v 3h=%v", one, three)
	}
}
