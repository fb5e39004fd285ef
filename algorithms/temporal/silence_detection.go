package temporal

import (
	"math"
)

// SilenceTrimmer removes leading and trailing silence from a signal
type SilenceTrimmer struct {
	threshold float64
	padding   int
}

// NewSilenceTrimmer creates a trimmer. Samples with |x| > threshold count as
// sound, and padding samples of context are kept on each side.
func NewSilenceTrimmer(threshold float64, padding int) *SilenceTrimmer {
	if padding < 0 {
		padding = 0
	}
	return &SilenceTrimmer{
		threshold: threshold,
		padding:   padding,
	}
}

// Bounds returns the inclusive [start, end] sample range to keep.
// ok is false when no sample exceeds the threshold.
func (st *SilenceTrimmer) Bounds(signal []float64) (start, end int, ok bool) {
	first, last := -1, -1
	for i, s := range signal {
		if math.Abs(s) > st.threshold {
			first = i
			break
		}
	}
	if first < 0 {
		return 0, 0, false
	}
	for i := len(signal) - 1; i >= first; i-- {
		if math.Abs(signal[i]) > st.threshold {
			last = i
			break
		}
	}

	start = max(0, first-st.padding)
	end = min(len(signal)-1, last+st.padding)
	return start, end, true
}

// Trim returns a new slice holding the kept range, or an empty slice when
// the whole signal is below the threshold
func (st *SilenceTrimmer) Trim(signal []float64) []float64 {
	start, end, ok := st.Bounds(signal)
	if !ok {
		return []float64{}
	}

	trimmed := make([]float64, end-start+1)
	copy(trimmed, signal[start:end+1])
	return trimmed
}
