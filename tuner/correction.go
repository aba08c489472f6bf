package tuner

import "math"

// Post-estimation correction heuristics. Both are pure functions over
// frequency ratios, applied after spectral refinement: harmonic correction
// first, then octave correction.

// CorrectHarmonic undoes harmonic lock, where the refiner settled on a
// whole-number multiple of the estimator's approximate fundamental. When
// refined/approx rounds to an integer in [1.5, 4.0] with rounding error
// under tolerance, the refined value is divided back down. A ratio near
// one half means the refiner found a subharmonic instead, and the value is
// doubled. Anything else passes through unchanged.
func CorrectHarmonic(refined, approx, tolerance float64) float64 {
	if refined <= 0 || approx <= 0 {
		return refined
	}

	ratio := refined / approx
	rounded := math.Round(ratio)

	if rounded >= 1.5 && rounded <= 4.0 && math.Abs(ratio-rounded) < tolerance {
		return refined / rounded
	}
	if ratio > 0.4 && ratio < 0.6 {
		return refined * 2
	}
	return refined
}

// CorrectOctave snaps a detection to the expected frequency's octave when
// the detector landed exactly one octave up or down. The octave candidate
// must be both within toleranceCents of the detection and strictly closer
// than the direct distance; otherwise the detection stands. An expected
// frequency of zero or less disables the correction.
func CorrectOctave(detected, expected, toleranceCents float64) float64 {
	if expected <= 0 || detected <= 0 {
		return detected
	}

	direct := centsBetween(detected, expected)
	octaveUp := centsBetween(detected, 2*expected)
	octaveDown := centsBetween(detected, expected/2)

	if octaveUp < toleranceCents && octaveUp < direct {
		return detected / 2
	}
	if octaveDown < toleranceCents && octaveDown < direct {
		return detected * 2
	}
	return detected
}

// Cents converts a frequency ratio to the logarithmic cents scale,
// 1200 per octave. Negative when f is below reference.
func Cents(f, reference float64) float64 {
	return 1200 * math.Log2(f/reference)
}

func centsBetween(a, b float64) float64 {
	return math.Abs(Cents(a, b))
}
