package tuner

import (
	"github.com/jphollanti/nofuzz-tuner/algorithms/common"
)

// Quality score weights and scales.
const (
	qualityHistorySize = 8

	// Frequency stability maps a standard deviation of 0 Hz to 1.0 and
	// 5 Hz or more to 0.
	stabilityStdDevScale = 5.0

	// An RMS of 0.05 (a comfortably plucked string) already saturates the
	// loudness term.
	rmsScoreScale = 20.0

	weightRMS       = 0.4
	weightStability = 0.4
	weightHarmonic  = 0.2

	// Placeholder harmonic-ratio input. A measured harmonic-to-noise value
	// would slot in here; until one is designed in, the term stays a
	// constant so scores remain comparable across versions.
	fixedHarmonicRatio = 0.1
)

// QualityScorer turns loudness, frequency stability, and a harmonic-ratio
// signal into a single confidence value in [0, 1]. It keeps a short rolling
// window of accepted frequencies to measure stability.
type QualityScorer struct {
	history []float64
}

// NewQualityScorer creates a scorer with an empty stability history.
func NewQualityScorer() *QualityScorer {
	return &QualityScorer{
		history: make([]float64, 0, qualityHistorySize),
	}
}

// Score records freq into the stability window and returns the combined
// confidence for a frame at the given input RMS.
func (q *QualityScorer) Score(freq, rms float64) float64 {
	if len(q.history) == qualityHistorySize {
		copy(q.history, q.history[1:])
		q.history = q.history[:qualityHistorySize-1]
	}
	q.history = append(q.history, freq)

	rmsScore := common.Clamp(rms*rmsScoreScale, 0, 1)
	stability := q.stability()
	harmonicScore := 1 - fixedHarmonicRatio

	score := weightRMS*rmsScore + weightStability*stability + weightHarmonic*harmonicScore
	return common.Clamp(score, 0, 1)
}

// stability is 1 - stddev/5 clamped to [0, 1]; a single entry counts as
// perfectly stable.
func (q *QualityScorer) stability() float64 {
	if len(q.history) < 2 {
		return 1
	}
	stddev := common.StandardDeviation(q.history)
	return common.Clamp(1-stddev/stabilityStdDevScale, 0, 1)
}

// Reset clears the stability history.
func (q *QualityScorer) Reset() {
	q.history = q.history[:0]
}
