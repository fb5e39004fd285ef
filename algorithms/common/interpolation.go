package common

// linearAt interpolates between data[floor(index)] and the next sample,
// clamping the upper neighbour to the last valid index
func linearAt(data []float64, index float64) float64 {
	lower := int(index)
	if lower >= len(data) {
		lower = len(data) - 1
	}
	upper := lower + 1
	if upper > len(data)-1 {
		upper = len(data) - 1
	}
	frac := index - float64(lower)

	return (1-frac)*data[lower] + frac*data[upper]
}

// ResampleLinear converts signal from originalRate to targetRate with linear
// interpolation. The output has floor(len*target/original) samples and output
// index i reads source position i*original/target. Equal rates return an
// identity copy.
func ResampleLinear(signal []float64, originalRate, targetRate int) []float64 {
	if originalRate == targetRate || originalRate <= 0 || targetRate <= 0 {
		out := make([]float64, len(signal))
		copy(out, signal)
		return out
	}
	if len(signal) == 0 {
		return []float64{}
	}

	newLength := len(signal) * targetRate / originalRate
	resampled := make([]float64, newLength)

	ratio := float64(originalRate) / float64(targetRate)
	for i := range resampled {
		resampled[i] = linearAt(signal, float64(i)*ratio)
	}

	return resampled
}
