package assert

import (
	"fmt"
	"math"
)

// That panics with the formatted message if cond does not hold.
func That(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// NonNegative panics if value is negative or NaN.
func NonNegative[N ~int | ~int32 | ~int64 | ~float64](name string, value N) {
	// NaN is the only value not equal to itself
	if value < 0 || value != value {
		panic(fmt.Sprintf("%s must not be negative, got %v", name, value))
	}
}

func Positive[N ~int | ~int32 | ~int64 | ~float64](name string, value N) {
	if value <= 0 || value != value {
		panic(fmt.Sprintf("%s must be positive, got %v", name, value))
	}
}

func Finite(name string, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		panic(fmt.Sprintf("%s must be finite, got %v", name, value))
	}
}
