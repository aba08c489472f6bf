package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the go-dsp transform behind a small, allocation-aware surface.
type FFT struct{}

// NewFFT creates a new FFT calculator.
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the forward FFT of a real signal.
// go-dsp handles all sizes, including non-power-of-2.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// ComputeInverse computes the inverse FFT.
func (f *FFT) ComputeInverse(x []complex128) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.IFFT(x)
}

// Magnitude fills dst with the magnitude of each spectrum bin and returns
// it. When dst is too small a new slice is allocated; callers on the
// real-time path pass a preallocated dst so no allocation happens.
func (f *FFT) Magnitude(dst []float64, spectrum []complex128) []float64 {
	if cap(dst) < len(spectrum) {
		dst = make([]float64, len(spectrum))
	}
	dst = dst[:len(spectrum)]
	for i, c := range spectrum {
		dst[i] = cmplx.Abs(c)
	}
	return dst
}
