package tuner

import (
	"fmt"
)

// NSDFEstimator is a McLeod-style pitch estimator built on the normalized
// square difference function.
//
// Reference: McLeod, P., Wyvill, G. (2005). "A smarter way to find pitch"
//
// NSDF(tau) = 2*ACF(tau) / (m(0) + m(tau)) lies in [-1, 1]; the lag of the
// highest maximum past the first zero crossing is the period, and the value
// at that maximum is the clarity of the pitch. Frames whose power or
// clarity fall below the configured thresholds report no pitch.
type NSDFEstimator struct {
	sampleRate       int
	powerThreshold   float64
	clarityThreshold float64

	nsdf []float64
}

// NewNSDFEstimator creates an NSDF estimator. Typical thresholds for a
// guitar signal: power 0.0001 (mean-square), clarity 0.7.
func NewNSDFEstimator(sampleRate int, powerThreshold, clarityThreshold float64) (*NSDFEstimator, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if clarityThreshold <= 0 || clarityThreshold >= 1 {
		return nil, fmt.Errorf("clarity threshold must be in (0, 1), got %f", clarityThreshold)
	}
	if powerThreshold < 0 {
		return nil, fmt.Errorf("power threshold must be non-negative, got %f", powerThreshold)
	}

	return &NSDFEstimator{
		sampleRate:       sampleRate,
		powerThreshold:   powerThreshold,
		clarityThreshold: clarityThreshold,
	}, nil
}

// EstimateFreq returns the fundamental of buf, or false for unvoiced or
// too-quiet frames.
func (n *NSDFEstimator) EstimateFreq(buf []float64) (float64, bool) {
	half := len(buf) / 2
	if half < 2 {
		return 0, false
	}

	power := 0.0
	for _, x := range buf {
		power += x * x
	}
	power /= float64(len(buf))
	if power < n.powerThreshold {
		return 0, false
	}

	if cap(n.nsdf) < half {
		n.nsdf = make([]float64, half)
	}
	nsdf := n.nsdf[:half]

	for tau := 0; tau < half; tau++ {
		acf := 0.0
		m := 0.0
		for j := 0; j < half; j++ {
			x1 := buf[j]
			x2 := buf[j+tau]
			acf += x1 * x2
			m += x1*x1 + x2*x2
		}
		if m > 0 {
			nsdf[tau] = 2 * acf / m
		} else {
			nsdf[tau] = 0
		}
	}

	// Skip the lag-0 lobe: maxima only count after the first negative
	// crossing.
	start := 1
	for start < half && nsdf[start] > 0 {
		start++
	}
	if start >= half {
		return 0, false
	}

	// Highest local maximum past the crossing.
	bestTau := -1
	bestVal := 0.0
	for tau := start + 1; tau < half-1; tau++ {
		if nsdf[tau] > nsdf[tau-1] && nsdf[tau] >= nsdf[tau+1] && nsdf[tau] > bestVal {
			bestTau = tau
			bestVal = nsdf[tau]
		}
	}
	if bestTau < 0 || bestVal < n.clarityThreshold {
		return 0, false
	}

	period := parabolicMaximum(nsdf, bestTau)
	if period <= 0 {
		return 0, false
	}

	return float64(n.sampleRate) / period, true
}

// parabolicMaximum refines the location of a local maximum to fractional
// precision. Same fit as parabolicMinimum; the extremum type only depends
// on the neighborhood.
func parabolicMaximum(data []float64, idx int) float64 {
	return parabolicMinimum(data, idx)
}
