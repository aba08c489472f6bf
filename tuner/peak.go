package tuner

import (
	"fmt"

	"github.com/jphollanti/nofuzz-tuner/algorithms/spectral"
	"github.com/jphollanti/nofuzz-tuner/algorithms/windowing"
)

// SpectralPeakEstimator reports the loudest magnitude-spectrum bin within
// the configured frequency bounds. It is the crudest of the backends - one
// bin of resolution, no harmonic reasoning - but it is cheap and never
// locks onto a subharmonic, which makes it a useful cross-check against the
// autocorrelation methods.
type SpectralPeakEstimator struct {
	sampleRate int
	freqMin    float64
	freqMax    float64

	fft    *spectral.FFT
	window *windowing.Hann

	windowed  []float64
	magnitude []float64
}

// NewSpectralPeakEstimator creates a spectral-peak estimator for buffers of
// exactly size samples.
func NewSpectralPeakEstimator(sampleRate, size int, freqMin, freqMax float64) (*SpectralPeakEstimator, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if size < 8 {
		return nil, fmt.Errorf("buffer size must be at least 8, got %d", size)
	}
	if freqMin <= 0 || freqMax <= freqMin {
		return nil, fmt.Errorf("invalid frequency bounds [%f, %f]", freqMin, freqMax)
	}

	return &SpectralPeakEstimator{
		sampleRate: sampleRate,
		freqMin:    freqMin,
		freqMax:    freqMax,
		fft:        spectral.NewFFT(),
		window:     windowing.NewHann(size),
		windowed:   make([]float64, size),
		magnitude:  make([]float64, size),
	}, nil
}

// EstimateFreq returns the frequency of the strongest bin, or false when
// the bounded band carries no energy.
func (s *SpectralPeakEstimator) EstimateFreq(buf []float64) (float64, bool) {
	if len(buf) != len(s.windowed) {
		return 0, false
	}

	if err := s.window.Apply(s.windowed, buf); err != nil {
		return 0, false
	}

	spectrum := s.fft.Compute(s.windowed)
	s.magnitude = s.fft.Magnitude(s.magnitude, spectrum)

	binRes := float64(s.sampleRate) / float64(len(buf))
	minBin := int(s.freqMin / binRes)
	maxBin := int(s.freqMax/binRes) + 1
	if minBin < 1 {
		minBin = 1
	}
	if maxBin > len(buf)/2 {
		maxBin = len(buf) / 2
	}
	if minBin >= maxBin {
		return 0, false
	}

	peak := minBin
	for bin := minBin + 1; bin < maxBin; bin++ {
		if s.magnitude[bin] > s.magnitude[peak] {
			peak = bin
		}
	}
	if s.magnitude[peak] <= 0 {
		return 0, false
	}

	return float64(peak) * binRes, true
}
