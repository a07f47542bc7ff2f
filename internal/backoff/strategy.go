package backoff

import (
	"math"
	"math/rand"
	"time"
)

// maxExponent keeps base * 2^exponent inside the int64 range for any sane base.
const maxExponent = 30

// Strategy defines the interface for backoff calculation algorithms.
type Strategy interface {
	// Calculate returns the wait before retry number attempt (first retry = 1).
	Calculate(attempt int, base time.Duration) time.Duration
}

// EqualJitter implements exponential backoff scaled by a uniform factor in
// [0.5, 1.0): delay = base * 2^(attempt-1) * factor.
type EqualJitter struct {
	// Rand returns a value in [0, 1). Nil uses math/rand.
	Rand func() float64
	// Max caps the computed delay when positive. Zero leaves it uncapped.
	Max time.Duration
}

// Calculate implements the Strategy interface.
func (s EqualJitter) Calculate(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}

	exponent := attempt - 1
	if exponent > maxExponent {
		exponent = maxExponent
	}

	raw := float64(base) * pow(2, exponent) * s.factor()

	delay := time.Duration(math.MaxInt64)
	if raw < math.MaxInt64 {
		delay = time.Duration(raw)
	}
	if s.Max > 0 && delay > s.Max {
		delay = s.Max
	}
	return delay
}

// Range returns the inclusive lower and exclusive upper bound of the delay for
// an attempt before any cap is applied.
func Range(attempt int, base time.Duration) (time.Duration, time.Duration) {
	if attempt < 1 {
		attempt = 1
	}
	exponent := attempt - 1
	if exponent > maxExponent {
		exponent = maxExponent
	}
	upper := float64(base) * pow(2, exponent)
	return time.Duration(upper * 0.5), time.Duration(upper)
}

func (s EqualJitter) factor() float64 {
	sample := rand.Float64
	if s.Rand != nil {
		sample = s.Rand
	}

	f := sample()
	if f < 0 {
		f = 0
	}
	if f >= 1 {
		f = math.Nextafter(1, 0)
	}
	return 0.5 + f*0.5
}

// pow calculates base^exponent using integer exponentiation.
func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
