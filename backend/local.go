package backend

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-voz/algorithms/common"
	"github.com/RyanBlaney/sonido-voz/algorithms/spectral"
	"github.com/RyanBlaney/sonido-voz/algorithms/windowing"
)

// Local analysis defaults
const (
	DefaultMelBins = 80
	DefaultFFTSize = 512
	DefaultMelHop  = 128
)

// LocalConfig configures the local embedding backend
type LocalConfig struct {
	Dimension int
	MelBins   int
	FFTSize   int
	HopSize   int

	// Seed fixes the projection so embeddings are comparable across runs
	Seed uint64
}

// Local is an in-process EmbeddingBackend. Mel grids are log-mel
// spectrograms; embeddings project the per-bin mean and standard deviation
// through a fixed random matrix and are L2-normalized.
type Local struct {
	config     LocalConfig
	window     *windowing.Hann
	fft        *spectral.FFT
	projection *mat.Dense
}

var _ EmbeddingBackend = (*Local)(nil)

// NewLocal creates a Local backend. Zero config fields take defaults.
func NewLocal(config LocalConfig) *Local {
	if config.Dimension <= 0 {
		config.Dimension = 256
	}
	if config.MelBins <= 0 {
		config.MelBins = DefaultMelBins
	}
	if config.FFTSize <= 0 {
		config.FFTSize = DefaultFFTSize
	}
	if config.HopSize <= 0 {
		config.HopSize = DefaultMelHop
	}

	// pooled features are [means..., stds...]
	rows, cols := config.Dimension, 2*config.MelBins
	rng := rand.New(rand.NewPCG(config.Seed, 0x736f6e69646f))
	weights := make([]float64, rows*cols)
	for i := range weights {
		weights[i] = rng.NormFloat64()
	}

	return &Local{
		config:     config,
		window:     windowing.NewHann(config.FFTSize, false),
		fft:        spectral.NewFFT(),
		projection: mat.NewDense(rows, cols, weights),
	}
}

// Dimension returns the embedding length
func (l *Local) Dimension() int {
	return l.config.Dimension
}

func (l *Local) filterBank(rate int) *spectral.MelFilterBank {
	return spectral.NewMelFilterBank(l.config.MelBins, l.config.FFTSize, rate, 0, float64(rate)/2)
}

// Mel computes a log-mel spectrogram. Recordings shorter than one FFT frame
// give an empty grid.
func (l *Local) Mel(ctx context.Context, samples []float64, rate int) (MelGrid, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", rate)
	}

	numFrames := common.NumFrames(len(samples), l.config.FFTSize, l.config.HopSize)
	bank := l.filterBank(rate)

	grid := make(MelGrid, numFrames)
	for t := range numFrames {
		if t%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		start := t * l.config.HopSize
		frame := l.window.Apply(samples[start : start+l.config.FFTSize])
		grid[t] = bank.LogMel(l.fft.Power(frame))
	}
	return grid, nil
}

// Embed pools the grid per bin and projects it to Dimension values.
// An empty grid gives the zero vector.
func (l *Local) Embed(ctx context.Context, mel MelGrid) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embedding := make([]float32, l.config.Dimension)
	if mel.Frames() == 0 {
		return embedding, nil
	}
	if mel.Bins() != l.config.MelBins {
		return nil, fmt.Errorf("mel grid has %d bins, want %d", mel.Bins(), l.config.MelBins)
	}

	bins := l.config.MelBins
	pooled := make([]float64, 2*bins)
	column := make([]float64, mel.Frames())
	for b := range bins {
		for t, row := range mel {
			column[t] = row[b]
		}
		pooled[b], pooled[bins+b] = common.MeanStdDev(column)
	}

	var projected mat.VecDense
	projected.MulVec(l.projection, mat.NewVecDense(len(pooled), pooled))
	values := projected.RawVector().Data

	if norm := floats.Norm(values, 2); norm > 0 {
		floats.Scale(1/norm, values)
	}
	for i, v := range values {
		embedding[i] = float32(v)
	}
	return embedding, nil
}
