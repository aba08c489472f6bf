package filters

import (
	"fmt"
	"math"
)

// Biquad is a single second-order IIR filter stage in Direct Form I.
//
// Coefficients come from Robert Bristow-Johnson's cookbook formulas:
// https://webaudio.github.io/Audio-EQ-Cookbook/audio-eq-cookbook.html
// Every coefficient is normalized by a0 before storage, so the recurrence is
//
//	y[n] = b0*x[n] + b1*x[n-1] + b2*x[n-2] - a1*y[n-1] - a2*y[n-2]
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64 // input history
	y1, y2 float64 // output history
}

type biquadShape int

const (
	shapeHighpass biquadShape = iota
	shapeLowpass
	shapeNotch
	shapeBandpass
)

// NewHighpass creates a highpass biquad with corner frequency fc.
func NewHighpass(sampleRate int, fc, q float64) (*Biquad, error) {
	return newBiquad(shapeHighpass, sampleRate, fc, q)
}

// NewLowpass creates a lowpass biquad with corner frequency fc.
func NewLowpass(sampleRate int, fc, q float64) (*Biquad, error) {
	return newBiquad(shapeLowpass, sampleRate, fc, q)
}

// NewNotch creates a notch biquad centered on fc. Higher Q narrows the cut.
func NewNotch(sampleRate int, fc, q float64) (*Biquad, error) {
	return newBiquad(shapeNotch, sampleRate, fc, q)
}

// NewBandpass creates a bandpass biquad centered on fc.
func NewBandpass(sampleRate int, fc, q float64) (*Biquad, error) {
	return newBiquad(shapeBandpass, sampleRate, fc, q)
}

func newBiquad(shape biquadShape, sampleRate int, fc, q float64) (*Biquad, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	nyquist := float64(sampleRate) / 2
	if fc <= 0 || fc >= nyquist {
		return nil, fmt.Errorf("frequency must be between 0 and Nyquist (%.0f Hz), got %.2f", nyquist, fc)
	}
	if q <= 0 {
		return nil, fmt.Errorf("Q must be positive, got %f", q)
	}

	w0 := 2 * math.Pi * fc / float64(sampleRate)
	cosw0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	var b0, b1, b2 float64
	switch shape {
	case shapeHighpass:
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
	case shapeLowpass:
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
	case shapeNotch:
		b0 = 1
		b1 = -2 * cosw0
		b2 = 1
	case shapeBandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
	}

	// All shapes share the same denominator.
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return &Biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}, nil
}

// Process filters a single sample. O(1), no allocation, no failure mode.
func (b *Biquad) Process(x float64) float64 {
	y := b.b0*x + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2

	b.x2 = b.x1
	b.x1 = x
	b.y2 = b.y1
	b.y1 = y

	return y
}

// Reset clears the filter history. Call between discontinuous segments.
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// Coefficients returns the normalized biquad coefficients (a0 is 1).
func (b *Biquad) Coefficients() (b0, b1, b2, a1, a2 float64) {
	return b.b0, b.b1, b.b2, b.a1, b.a2
}
