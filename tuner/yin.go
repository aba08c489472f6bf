package tuner

import (
	"fmt"
)

// YinEstimator implements the YIN fundamental-frequency estimator.
//
// Reference: de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental
// frequency estimator for speech and music"
//
// The difference function is evaluated only over the lag range implied by
// the configured frequency bounds, and the first local minimum of the
// cumulative mean normalized difference below the threshold is sharpened
// with parabolic interpolation before conversion back to Hz.
type YinEstimator struct {
	threshold  float64
	freqMin    float64
	freqMax    float64
	sampleRate int

	diff  []float64
	cmndf []float64
}

// NewYinEstimator creates a YIN estimator. Threshold is the absolute CMNDF
// acceptance level, typically 0.1-0.2 for a clean instrument signal.
func NewYinEstimator(threshold, freqMin, freqMax float64, sampleRate int) (*YinEstimator, error) {
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("yin threshold must be in (0, 1), got %f", threshold)
	}
	if freqMin <= 0 || freqMax <= freqMin {
		return nil, fmt.Errorf("invalid frequency bounds [%f, %f]", freqMin, freqMax)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if float64(sampleRate)/freqMin < 2 {
		return nil, fmt.Errorf("freq_min %f is not resolvable at %d Hz", freqMin, sampleRate)
	}

	return &YinEstimator{
		threshold:  threshold,
		freqMin:    freqMin,
		freqMax:    freqMax,
		sampleRate: sampleRate,
	}, nil
}

// EstimateFreq returns the fundamental of buf, or false when no lag clears
// the threshold.
func (y *YinEstimator) EstimateFreq(buf []float64) (float64, bool) {
	half := len(buf) / 2
	if half < 2 {
		return 0, false
	}

	// Lag bounds from the frequency bounds, clamped to the usable range.
	tauMin := int(float64(y.sampleRate) / y.freqMax)
	tauMax := int(float64(y.sampleRate)/y.freqMin) + 1
	if tauMin < 1 {
		tauMin = 1
	}
	if tauMax > half {
		tauMax = half
	}
	if tauMin >= tauMax {
		return 0, false
	}

	if cap(y.diff) < half {
		y.diff = make([]float64, half)
		y.cmndf = make([]float64, half)
	}
	diff := y.diff[:half]
	cmndf := y.cmndf[:half]

	// Difference function d(tau) = sum_j (x[j] - x[j+tau])^2.
	for tau := 1; tau < half; tau++ {
		sum := 0.0
		for j := 0; j < half; j++ {
			delta := buf[j] - buf[j+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}

	// Cumulative mean normalized difference.
	cmndf[0] = 1
	runningSum := 0.0
	for tau := 1; tau < half; tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmndf[tau] = 1
		} else {
			cmndf[tau] = diff[tau] * float64(tau) / runningSum
		}
	}

	// First local minimum below the threshold wins.
	minTau := -1
	for tau := tauMin; tau < tauMax; tau++ {
		if cmndf[tau] < y.threshold {
			for tau+1 < tauMax && cmndf[tau+1] < cmndf[tau] {
				tau++
			}
			minTau = tau
			break
		}
	}
	if minTau < 0 {
		return 0, false
	}

	period := parabolicMinimum(cmndf, minTau)
	if period <= 0 {
		return 0, false
	}

	freq := float64(y.sampleRate) / period
	if freq < y.freqMin || freq > y.freqMax {
		return 0, false
	}

	return freq, true
}

// parabolicMinimum refines the location of a local minimum to fractional
// precision by fitting a parabola through the point and its neighbors.
func parabolicMinimum(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	y1 := data[idx-1]
	y2 := data[idx]
	y3 := data[idx+1]

	a := (y1 - 2*y2 + y3) / 2
	if a == 0 {
		return float64(idx)
	}
	b := (y3 - y1) / 2

	return float64(idx) - b/(2*a)
}
