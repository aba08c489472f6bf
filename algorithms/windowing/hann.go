package windowing

import (
	"fmt"
	"math"
)

// Hann is a precomputed Hann window. The periodic form
// 0.5 - 0.5*cos(2*pi*i/N) is the right one ahead of an FFT; the symmetric
// form (denominator N-1) exists for filter design use.
type Hann struct {
	size         int
	coefficients []float64
}

// NewHann creates a periodic Hann window of the given size.
func NewHann(size int) *Hann {
	return newHann(size, false)
}

// NewHannSymmetric creates a symmetric Hann window of the given size.
func NewHannSymmetric(size int) *Hann {
	return newHann(size, true)
}

func newHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:         size,
		coefficients: make([]float64, size),
	}

	denominator := float64(size)
	if symmetric {
		denominator = float64(size - 1)
	}

	for i := 0; i < size; i++ {
		h.coefficients[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/denominator)
	}

	return h
}

// Apply multiplies the signal by the window into dst. dst and signal may be
// the same slice; both must match the window size.
func (h *Hann) Apply(dst, signal []float64) error {
	if len(signal) != h.size || len(dst) != h.size {
		return fmt.Errorf("signal length (%d) and dst length (%d) must match window size (%d)",
			len(signal), len(dst), h.size)
	}

	for i := range signal {
		dst[i] = signal[i] * h.coefficients[i]
	}

	return nil
}

// ApplyInPlace applies the window to a signal in-place.
func (h *Hann) ApplyInPlace(signal []float64) error {
	return h.Apply(signal, signal)
}

// Coefficients returns a copy of the window coefficients.
func (h *Hann) Coefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// Size returns the window size.
func (h *Hann) Size() int {
	return h.size
}
