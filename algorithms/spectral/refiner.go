package spectral

import (
	"fmt"
	"math"

	"github.com/jphollanti/nofuzz-tuner/algorithms/windowing"
)

// Refiner sharpens an approximate frequency estimate to sub-bin precision.
// It windows the buffer, takes the magnitude spectrum, locates the true
// local peak around the bin the estimate maps to, and applies parabolic
// interpolation between the three bins straddling that peak.
//
// All scratch space is sized at construction, so Refine does not allocate.
type Refiner struct {
	sampleRate    int
	size          int
	binResolution float64

	window *windowing.Hann
	fft    *FFT

	windowed  []float64
	magnitude []float64
}

// NewRefiner creates a refiner for buffers of exactly size samples.
// Power-of-two sizes keep the transform cheap but are not required.
func NewRefiner(sampleRate, size int) (*Refiner, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if size < 8 {
		return nil, fmt.Errorf("refiner buffer size must be at least 8, got %d", size)
	}

	return &Refiner{
		sampleRate:    sampleRate,
		size:          size,
		binResolution: float64(sampleRate) / float64(size),
		window:        windowing.NewHann(size),
		fft:           NewFFT(),
		windowed:      make([]float64, size),
		magnitude:     make([]float64, size),
	}, nil
}

// BinResolution returns the frequency spacing between adjacent bins in Hz.
func (r *Refiner) BinResolution() float64 {
	return r.binResolution
}

// Refine returns a sub-bin frequency near approxFreq, or false when the
// estimate maps too close to a spectrum edge for interpolation. The caller
// falls back to the unrefined estimate in that case.
func (r *Refiner) Refine(buf []float64, approxFreq float64) (float64, bool) {
	if len(buf) != r.size || approxFreq <= 0 {
		return 0, false
	}

	if err := r.window.Apply(r.windowed, buf); err != nil {
		return 0, false
	}

	spectrum := r.fft.Compute(r.windowed)
	r.magnitude = r.fft.Magnitude(r.magnitude, spectrum)

	// Only the first half of the spectrum carries independent information.
	half := r.size / 2
	approxBin := int(approxFreq / r.binResolution)
	if approxBin < 2 || approxBin >= half-2 {
		return 0, false
	}

	// The estimate may sit a bin off the true peak; take the local maximum
	// of the 3-bin neighborhood around it.
	peak := approxBin
	for bin := approxBin - 1; bin <= approxBin+1; bin++ {
		if r.magnitude[bin] > r.magnitude[peak] {
			peak = bin
		}
	}
	if peak < 1 || peak >= half-1 {
		return 0, false
	}

	mPrev := r.magnitude[peak-1]
	mPeak := r.magnitude[peak]
	mNext := r.magnitude[peak+1]

	denom := mPrev - 2*mPeak + mNext
	if math.Abs(denom) < 1e-12 {
		// Flat neighborhood, the parabola degenerates; bin center is the
		// best available answer.
		return float64(peak) * r.binResolution, true
	}

	delta := 0.5 * (mPrev - mNext) / denom
	return (float64(peak) + delta) * r.binResolution, true
}
