package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// MeanStdDev returns the mean and the population standard deviation
// (divides by N, not N-1)
func MeanStdDev(data []float64) (mean, std float64) {
	switch len(data) {
	case 0:
		return 0.0, 0.0
	case 1:
		return data[0], 0.0
	}
	return stat.PopMeanStdDev(data, nil)
}

// MinMax returns the smallest and largest values, or zeros for an empty slice
func MinMax(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return 0.0, 0.0
	}
	return floats.Min(data), floats.Max(data)
}

// PeakAbs returns max(|x|)
func PeakAbs(data []float64) float64 {
	peak := 0.0
	for _, val := range data {
		if abs := math.Abs(val); abs > peak {
			peak = abs
		}
	}
	return peak
}

// Sum adds all values
func Sum(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Sum(data)
}

// Clamp constrains value to [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Lerp blends a and b: a*(1-t) + b*t.
// t == 0 returns a exactly and t == 1 returns b exactly.
func Lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// NumFrames is the number of full windows of size frameSize at hopSize that
// fit in n samples
func NumFrames(n, frameSize, hopSize int) int {
	if frameSize <= 0 || hopSize <= 0 || n < frameSize {
		return 0
	}
	return (n-frameSize)/hopSize + 1
}
