package utils

import "testing"

func TestClamp(t *testing.T) {
	testCases := []struct {
		name          string
		v, lo, hi     float64
		expected      float64
	}{
		{"Below", -5, 0, 10, 0},
		{"Inside", 5, 0, 10, 5},
		{"Above", 15, 0, 10, 10},
		{"AtLow", 0, 0, 10, 0},
		{"AtHigh", 10, 0, 10, 10},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clamp(tc.v, tc.lo, tc.hi); got != tc.expected {
				t.Errorf("Clamp(%v, %v, %v) = %v, expected %v", tc.v, tc.lo, tc.hi, got, tc.expected)
			}
		})
	}
}

func TestSign(t *testing.T) {
	if Sign(-3) != -1 || Sign(3) != 1 || Sign(0) != 1 {
		t.Errorf("Sign must be -1 for negatives and +1 otherwise")
	}
}

func TestMin(t *testing.T) {
	if Min(2, 3) != 2 || Min(3, 2) != 2 {
		t.Error("Min returned the larger value")
	}
}

func TestTickPeriod(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.TickPeriod().Milliseconds(); got < 16 || got > 17 {
		t.Errorf("Expected ~16ms tick period at 60 Hz, got %dms", got)
	}
}
