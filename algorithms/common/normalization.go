package common

// SilenceFloor is the peak below which a signal is treated as silent and
// left unscaled.
const SilenceFloor = 1e-10

// PeakNormalize scales signal by 1/max(|x|) into a new slice.
// A signal whose peak is below SilenceFloor is returned as an unchanged copy.
func PeakNormalize(signal []float64) []float64 {
	normalized := make([]float64, len(signal))

	peak := PeakAbs(signal)
	if peak < SilenceFloor {
		copy(normalized, signal)
		return normalized
	}

	for i, val := range signal {
		normalized[i] = val / peak
	}
	return normalized
}

// SumNormalize divides every value by the total so the result sums to 1.
// ok is false when the total is not positive; the input is then copied unchanged.
func SumNormalize(values []float64) (normalized []float64, ok bool) {
	normalized = make([]float64, len(values))
	copy(normalized, values)

	total := Sum(values)
	if total <= 0 {
		return normalized, false
	}
	for i := range normalized {
		normalized[i] /= total
	}
	return normalized, true
}
