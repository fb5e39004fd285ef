// Package speech holds measures specific to the human voice
package speech

import (
	"math"
)

// VoiceQuality contains frame-level perturbation measures
type VoiceQuality struct {
	Jitter       float64 `json:"jitter"`        // Mean relative period change between voiced frames
	Shimmer      float64 `json:"shimmer"`       // Mean relative amplitude change between voiced frames
	VoicedFrames int     `json:"voiced_frames"` // Frames with a pitch estimate
}

// AnalyzeVoiceQuality measures jitter and shimmer from per-frame contours
// computed on the same hop. pitch holds F0 in Hz with 0 for unvoiced frames;
// energy holds the mean squared amplitude. Only pairs of adjacent voiced
// frames contribute, so unvoiced gaps break the sequence.
func AnalyzeVoiceQuality(pitch, energy []float64) VoiceQuality {
	var result VoiceQuality

	var periodSum, periodDiff, ampSum, ampDiff float64
	var periodPairs, ampPairs, ampFrames int

	for i, f0 := range pitch {
		if f0 <= 0 {
			continue
		}
		result.VoicedFrames++
		periodSum += 1 / f0

		hasAmp := i < len(energy)
		if hasAmp {
			ampSum += math.Sqrt(energy[i])
			ampFrames++
		}

		if i == 0 || pitch[i-1] <= 0 {
			continue
		}
		periodDiff += math.Abs(1/f0 - 1/pitch[i-1])
		periodPairs++
		if hasAmp {
			ampDiff += math.Abs(math.Sqrt(energy[i]) - math.Sqrt(energy[i-1]))
			ampPairs++
		}
	}

	if periodPairs > 0 && periodSum > 0 {
		meanPeriod := periodSum / float64(result.VoicedFrames)
		result.Jitter = (periodDiff / float64(periodPairs)) / meanPeriod
	}
	if ampPairs > 0 && ampSum > 0 {
		meanAmp := ampSum / float64(ampFrames)
		result.Shimmer = (ampDiff / float64(ampPairs)) / meanAmp
	}

	return result
}
