// Package backoff provides exponential backoff calculation.
package backoff

import (
	"math"
	"time"
)

const (
	defaultInitial = 100 * time.Millisecond
	defaultMax     = 5 * time.Second
)

// Exponential calculates exponential backoff for a given attempt.
// Attempt 1 returns initial, attempt 2 returns initial*2, and so on,
// capped at max. Zero or negative initial/max fall back to defaults.
func Exponential(attempt int, initial, max time.Duration) time.Duration {
	if initial <= 0 {
		initial = defaultInitial
	}
	if max <= 0 {
		max = defaultMax
	}
	if attempt < 1 {
		return initial
	}
	d := float64(initial) * math.Pow(2.0, float64(attempt-1))
	if d > float64(max) {
		return max
	}
	return time.Duration(d)
}
