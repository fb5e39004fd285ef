package spectral

import (
	"math"
	"testing"
)

func TestMelRoundTrip(t *testing.T) {
	for _, hz := range []float64{0, 100, 1000, 8000} {
		if got := MelToHz(HzToMel(hz)); math.Abs(got-hz) > 1e-6 {
			t.Errorf("MelToHz(HzToMel(%v)) = %v", hz, got)
		}
	}
}

func TestMagnitudeOfBinAlignedSine(t *testing.T) {
	const n = 64
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Cos(2 * math.Pi * 4 * float64(i) / n)
	}

	mag := NewFFT().Magnitude(x)
	if len(mag) != n/2+1 {
		t.Fatalf("bins = %d", len(mag))
	}
	peak := 0
	for k := range mag {
		if mag[k] > mag[peak] {
			peak = k
		}
	}
	if peak != 4 {
		t.Fatalf("peak bin = %d, want 4", peak)
	}
	if math.Abs(mag[4]-n/2) > 1e-9 {
		t.Fatalf("peak magnitude = %v", mag[4])
	}
}

func TestFilterBankShape(t *testing.T) {
	fb := NewMelFilterBank(26, 1024, 22050, 0, 11025)
	if fb.NumFilters() != 26 {
		t.Fatalf("filters = %d", fb.NumFilters())
	}

	power := make([]float64, 513)
	for i := range power {
		power[i] = 1
	}
	for i, v := range fb.Apply(power) {
		if v < 0 {
			t.Fatalf("band %d negative: %v", i, v)
		}
	}
}

func TestMFCCSeriesShape(t *testing.T) {
	m, err := NewMFCC(MFCCParams{SampleRate: 22050, FrameSize: 1024, HopSize: 256})
	if err != nil {
		t.Fatal(err)
	}

	signal := make([]float64, 4096)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * 220 * float64(i) / 22050)
	}

	series := m.ComputeSeries(signal)
	if len(series) != 13 {
		t.Fatalf("coefficients = %d, want 13", len(series))
	}
	for c, seq := range series {
		if len(seq) != 13 {
			t.Fatalf("coefficient %d has %d frames, want 13", c, len(seq))
		}
		for _, v := range seq {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("coefficient %d not finite: %v", c, v)
			}
		}
	}
}

func TestMFCCShortSignal(t *testing.T) {
	m, err := NewMFCC(MFCCParams{SampleRate: 22050, FrameSize: 1024, HopSize: 256})
	if err != nil {
		t.Fatal(err)
	}
	series := m.ComputeSeries(make([]float64, 100))
	for c, seq := range series {
		if len(seq) != 0 {
			t.Fatalf("coefficient %d has %d frames", c, len(seq))
		}
	}
}

func TestMFCCRejectsTooManyCoefficients(t *testing.T) {
	_, err := NewMFCC(MFCCParams{SampleRate: 22050, FrameSize: 512, HopSize: 128, NumCoefficients: 40, NumMelFilters: 20})
	if err == nil {
		t.Fatal("expected error")
	}
}
