package backoff

import (
	"math/rand"
	"testing"
	"time"
)

func fixed(v float64) func() float64 {
	return func() float64 { return v }
}

func TestEqualJitterStrategy(t *testing.T) {
	tests := []struct {
		name     string
		attempt  int
		base     time.Duration
		rand     float64
		expected time.Duration
	}{
		{
			name:     "first retry lower bound",
			attempt:  1,
			base:     100 * time.Millisecond,
			rand:     0.0,
			expected: 50 * time.Millisecond,
		},
		{
			name:     "first retry midpoint",
			attempt:  1,
			base:     100 * time.Millisecond,
			rand:     0.5,
			expected: 75 * time.Millisecond,
		},
		{
			name:     "second retry doubles",
			attempt:  2,
			base:     100 * time.Millisecond,
			rand:     0.0,
			expected: 100 * time.Millisecond,
		},
		{
			name:     "third retry quadruples",
			attempt:  3,
			base:     300 * time.Millisecond,
			rand:     0.0,
			expected: 600 * time.Millisecond,
		},
		{
			name:     "attempt zero clamps to first retry",
			attempt:  0,
			base:     100 * time.Millisecond,
			rand:     0.0,
			expected: 50 * time.Millisecond,
		},
		{
			name:     "zero base",
			attempt:  4,
			base:     0,
			rand:     0.9,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := EqualJitter{Rand: fixed(tt.rand)}
			result := s.Calculate(tt.attempt, tt.base)
			if result != tt.expected {
				t.Errorf("Calculate(%d, %v) = %v, want %v", tt.attempt, tt.base, result, tt.expected)
			}
		})
	}
}

func TestEqualJitterBounds(t *testing.T) {
	src := rand.New(rand.NewSource(42))
	s := EqualJitter{Rand: src.Float64}
	base := 300 * time.Millisecond

	for attempt := 1; attempt <= 12; attempt++ {
		low, high := Range(attempt, base)
		for i := 0; i < 200; i++ {
			d := s.Calculate(attempt, base)
			if d < low || d >= high {
				t.Fatalf("attempt %d: delay %v outside [%v, %v)", attempt, d, low, high)
			}
		}
	}
}

func TestEqualJitterRandOutOfRange(t *testing.T) {
	s := EqualJitter{Rand: fixed(1.0)}
	d := s.Calculate(1, 100*time.Millisecond)
	if d >= 100*time.Millisecond {
		t.Errorf("expected delay below 100ms for out-of-range sample, got %v", d)
	}

	s = EqualJitter{Rand: fixed(-3)}
	d = s.Calculate(1, 100*time.Millisecond)
	if d != 50*time.Millisecond {
		t.Errorf("expected 50ms for negative sample, got %v", d)
	}
}

func TestEqualJitterMax(t *testing.T) {
	s := EqualJitter{Rand: fixed(0.99), Max: time.Second}
	if d := s.Calculate(10, 100*time.Millisecond); d != time.Second {
		t.Errorf("expected cap of 1s, got %v", d)
	}
}

func TestEqualJitterLargeAttemptDoesNotOverflow(t *testing.T) {
	s := EqualJitter{Rand: fixed(0.99)}
	if d := s.Calculate(500, time.Hour); d <= 0 {
		t.Errorf("expected positive delay for large attempt, got %v", d)
	}
}

func TestPow(t *testing.T) {
	tests := []struct {
		base     float64
		exponent int
		expected float64
	}{
		{2.0, 0, 1.0},
		{2.0, 1, 2.0},
		{2.0, 3, 8.0},
		{3.0, 2, 9.0},
	}

	for _, tt := range tests {
		result := pow(tt.base, tt.exponent)
		if result != tt.expected {
			t.Errorf("pow(%f, %d) = %f, want %f", tt.base, tt.exponent, result, tt.expected)
		}
	}
}

func BenchmarkEqualJitterStrategy(b *testing.B) {
	s := EqualJitter{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Calculate(i%10+1, 100*time.Millisecond)
	}
}
