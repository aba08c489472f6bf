package tuner

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/jphollanti/nofuzz-tuner/algorithms/common"
	"github.com/jphollanti/nofuzz-tuner/algorithms/filters"
	"github.com/jphollanti/nofuzz-tuner/algorithms/spectral"
	"github.com/jphollanti/nofuzz-tuner/logging"
)

// AGC never amplifies more than this, so near-silent frames are not blown
// up into pure noise.
const agcMaxGain = 10.0

// Engine is the per-audio-source pitch detection pipeline. One engine owns
// one estimator, one filter chain, and its smoothing state; it is
// single-threaded by design, driven by whoever owns the audio callback.
// Concurrent streams each need their own engine. The tuning registry is the
// only shared piece and synchronizes internally.
//
// Detect runs to completion per frame, never blocks, and never reports a
// per-frame problem as an error: a bad frame simply yields no result.
type Engine struct {
	params   Params
	est      Estimator
	chain    *filters.Chain
	refiner  *spectral.Refiner
	averager *common.WindowedAverage
	smoother *common.ExponentialSmoother
	scorer   *QualityScorer
	registry *Registry
	log      logging.Logger

	work []float64
}

// NewEngine creates an engine with the default YIN estimator. The registry
// is passed in rather than ambient so independent engines (and tests) can
// hold independent registries.
func NewEngine(params Params, registry *Registry) (*Engine, error) {
	est, err := NewYinEstimator(params.Threshold, params.FreqMin, params.FreqMax, params.SampleRate)
	if err != nil {
		return nil, err
	}
	return NewEngineWithEstimator(params, registry, est)
}

// NewEngineFromPreset creates an engine from an instrument preset name.
func NewEngineFromPreset(preset string, registry *Registry) (*Engine, error) {
	return NewEngine(PresetParams(preset), registry)
}

// NewEngineWithEstimator creates an engine around a caller-supplied
// estimator backend.
func NewEngineWithEstimator(params Params, registry *Registry, est Estimator) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("engine params: %w", err)
	}
	if registry == nil {
		return nil, fmt.Errorf("engine requires a tuning registry")
	}
	if est == nil {
		return nil, fmt.Errorf("engine requires an estimator")
	}

	chain, err := filters.NewChain(params.SampleRate, params.Filters)
	if err != nil {
		return nil, err
	}

	refiner, err := spectral.NewRefiner(params.SampleRate, params.BlockSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		params:   params,
		est:      est,
		chain:    chain,
		refiner:  refiner,
		scorer:   NewQualityScorer(),
		registry: registry,
		log:      logging.GetGlobalLogger().WithFields(logging.Fields{"component": "engine"}),
		work:     make([]float64, params.BlockSize),
	}

	if params.EnableOutlierGate {
		e.averager, err = common.NewWindowedAverage(params.AveragingWindowSize)
		if err != nil {
			return nil, err
		}
	}
	if params.EnableSmoothing {
		e.smoother, err = common.NewExponentialSmoother(params.SmoothingAlpha)
		if err != nil {
			return nil, err
		}
	}

	return e, nil
}

// SetExpectedFrequency sets the prior for octave correction, typically the
// target frequency of the string being tuned. Zero disables it.
func (e *Engine) SetExpectedFrequency(hz float64) {
	e.params.ExpectedFreq = hz
}

// EnableAGC toggles automatic gain control toward targetRMS.
func (e *Engine) EnableAGC(enabled bool, targetRMS float64) {
	e.params.EnableAGC = enabled
	if targetRMS > 0 {
		e.params.AGCTargetRMS = targetRMS
	}
}

// EnableHarmonicCorrection toggles the harmonic-lock heuristic.
func (e *Engine) EnableHarmonicCorrection(enabled bool) {
	e.params.EnableHarmonicCorrection = enabled
}

// EnableOctaveCorrection toggles the octave-error heuristic.
func (e *Engine) EnableOctaveCorrection(enabled bool) {
	e.params.EnableOctaveCorrection = enabled
}

// AddStringFilter appends a narrow bandpass centered on a string frequency
// to the conditioning chain.
func (e *Engine) AddStringFilter(hz float64) error {
	return e.chain.AddBandpass(hz)
}

// Params returns a copy of the engine's current parameters.
func (e *Engine) Params() Params {
	return e.params
}

// RegisterTuning adds or replaces a tuning in the engine's registry.
func (e *Engine) RegisterTuning(id, label string, names []string, freqs []float64) (TuningTable, error) {
	return e.registry.Register(id, label, names, freqs)
}

// ListTunings returns the tunings known to the engine's registry.
func (e *Engine) ListTunings() []TuningTable {
	return e.registry.List()
}

// Detect runs one buffer through the full pipeline and matches the outcome
// against the named tuning. The second return value is false when the frame
// produced no usable pitch: silence, no periodicity, refinement out of
// range, outlier rejection, or an unknown tuning id.
func (e *Engine) Detect(buf []float64, tuningID string) (*Result, bool) {
	if len(buf) == 0 {
		return nil, false
	}

	// Input level before any conditioning; feeds the noise gate and the
	// quality score.
	rms := common.RMS(buf)

	// Work on a private copy so the caller's buffer survives, reusing the
	// engine's scratch space.
	if cap(e.work) < len(buf) {
		e.work = make([]float64, len(buf))
	}
	work := e.work[:len(buf)]
	copy(work, buf)

	if e.params.EnableAGC && rms > 0 {
		gain := e.params.AGCTargetRMS / rms
		if gain > agcMaxGain {
			gain = agcMaxGain
		}
		floats.Scale(gain, work)
	}

	e.chain.ProcessBuffer(work)

	if rms < e.params.NoiseFloor {
		return nil, false
	}

	approx, ok := e.est.EstimateFreq(work)
	if !ok {
		return nil, false
	}

	freq := approx
	if e.params.EnableRefinement && len(work) == e.params.BlockSize {
		if refined, ok := e.refiner.Refine(work, approx); ok {
			if e.params.EnableHarmonicCorrection {
				refined = CorrectHarmonic(refined, approx, e.params.HarmonicTolerance)
			}
			freq = refined
		}
	}
	if freq <= 0 {
		return nil, false
	}

	if e.params.EnableOctaveCorrection && e.params.ExpectedFreq > 0 {
		freq = CorrectOctave(freq, e.params.ExpectedFreq, e.params.OctaveToleranceCents)
	}

	if e.averager != nil {
		mean, hasMean := e.averager.Average()
		e.averager.Push(freq)
		if hasMean {
			dev := freq - mean
			if dev < 0 {
				dev = -dev
			}
			if dev > e.params.OutlierThresholdHz {
				e.log.Debug("outlier gate rejected frame", logging.Fields{
					"freq": freq, "window_mean": mean,
				})
				return nil, false
			}
		}
	}

	if e.smoother != nil {
		freq = e.smoother.Update(freq)
	}

	confidence := e.scorer.Score(freq, rms)

	note, distance, ok := e.registry.NearestNote(tuningID, freq)
	if !ok {
		e.log.Debug("unknown tuning id", logging.Fields{"tuning": tuningID})
		return nil, false
	}

	return &Result{
		Freq:       freq,
		Tuning:     tuningID,
		Note:       note.Name,
		NoteFreq:   note.Frequency,
		Distance:   distance,
		Cents:      Cents(freq, note.Frequency),
		Confidence: confidence,
		RMS:        rms,
	}, true
}

// Reset clears cross-frame state: filter histories, the outlier window, the
// exponential smoother, and the stability history. Call between strings or
// after a capture gap.
func (e *Engine) Reset() {
	e.chain.Reset()
	if e.averager != nil {
		e.averager.Reset()
	}
	if e.smoother != nil {
		e.smoother.Reset()
	}
	e.scorer.Reset()
}
