package tuner

import (
	"fmt"

	"github.com/jphollanti/nofuzz-tuner/algorithms/filters"
	"github.com/jphollanti/nofuzz-tuner/logging"
)

// Params is the flat configuration surface of a pitch engine. Zero values
// are not usable; start from DefaultParams or a preset and adjust.
type Params struct {
	SampleRate int `json:"sample_rate" yaml:"sample_rate"`
	BlockSize  int `json:"block_size" yaml:"block_size"`

	// Threshold is the YIN acceptance threshold of the default estimator.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// FreqMin/FreqMax bound the searchable fundamental range in Hz.
	FreqMin float64 `json:"freq_min" yaml:"freq_min"`
	FreqMax float64 `json:"freq_max" yaml:"freq_max"`

	// NoiseFloor is the pre-filter RMS below which a frame is treated as
	// silence and dropped.
	NoiseFloor float64 `json:"noise_floor" yaml:"noise_floor"`

	// Filters selects the fixed stages of the conditioning chain.
	Filters filters.ChainConfig `json:"filters" yaml:"filters"`

	// Refinement sharpens the estimator output to sub-bin precision.
	EnableRefinement bool `json:"enable_refinement" yaml:"enable_refinement"`

	// Harmonic correction undoes harmonic/subharmonic lock after
	// refinement. Tolerance is the accepted rounding error of the
	// harmonic ratio.
	EnableHarmonicCorrection bool    `json:"enable_harmonic_correction" yaml:"enable_harmonic_correction"`
	HarmonicTolerance        float64 `json:"harmonic_tolerance" yaml:"harmonic_tolerance"`

	// Octave correction snaps detections an octave off the expected
	// frequency. It only runs when an expected frequency is set.
	EnableOctaveCorrection bool    `json:"enable_octave_correction" yaml:"enable_octave_correction"`
	OctaveToleranceCents   float64 `json:"octave_tolerance_cents" yaml:"octave_tolerance_cents"`
	ExpectedFreq           float64 `json:"expected_freq" yaml:"expected_freq"`

	// The outlier gate drops frames deviating too far from the recent
	// window mean.
	EnableOutlierGate   bool    `json:"enable_outlier_gate" yaml:"enable_outlier_gate"`
	OutlierThresholdHz  float64 `json:"outlier_threshold_hz" yaml:"outlier_threshold_hz"`
	AveragingWindowSize int     `json:"averaging_window_size" yaml:"averaging_window_size"`

	// Exponential smoothing of the emitted frequency.
	EnableSmoothing bool    `json:"enable_smoothing" yaml:"enable_smoothing"`
	SmoothingAlpha  float64 `json:"smoothing_alpha" yaml:"smoothing_alpha"`

	// AGC normalizes input loudness toward a target RMS before filtering.
	EnableAGC    bool    `json:"enable_agc" yaml:"enable_agc"`
	AGCTargetRMS float64 `json:"agc_target_rms" yaml:"agc_target_rms"`
}

// DefaultParams returns the acoustic-guitar defaults: 48 kHz, large blocks
// for low-string resolution, rumble and mains-hum filtering, refinement and
// correction heuristics on.
func DefaultParams() Params {
	return Params{
		SampleRate: 48000,
		BlockSize:  8192,
		Threshold:  0.15,
		FreqMin:    60,
		FreqMax:    500,
		NoiseFloor: 0.01,
		Filters: filters.ChainConfig{
			Rumble:    true,
			Hum50:     true,
			Hum60:     true,
			AntiAlias: true,
		},
		EnableRefinement:         true,
		EnableHarmonicCorrection: true,
		HarmonicTolerance:        0.05,
		EnableOctaveCorrection:   false,
		OctaveToleranceCents:     50,
		EnableOutlierGate:        true,
		OutlierThresholdHz:       5.5,
		AveragingWindowSize:      5,
		EnableSmoothing:          true,
		SmoothingAlpha:           0.3,
		EnableAGC:                false,
		AGCTargetRMS:             0.1,
	}
}

// Preset names accepted by PresetParams.
const (
	PresetAcoustic          = "acoustic"
	PresetElectricClean     = "electric-clean"
	PresetElectricDistorted = "electric-distorted"
	PresetClassical         = "classical"
	PresetBass              = "bass"
	PresetExtendedRange     = "extended-range"
)

// PresetParams returns tuned parameters for an instrument preset. Unknown
// names fall back to the acoustic defaults with a warning rather than
// failing, so a typo in a config file still produces a working tuner.
func PresetParams(name string) Params {
	p := DefaultParams()

	switch name {
	case PresetAcoustic, "":
		// Defaults are the acoustic preset.

	case PresetElectricClean:
		// Pickups hum at the mains harmonics too.
		p.Filters.Hum100 = true
		p.Filters.Hum120 = true

	case PresetElectricDistorted:
		// Distortion piles energy onto the upper harmonics; the estimator
		// needs the harmonic-lock escape hatch wide open and a hotter
		// noise floor.
		p.Filters.Hum100 = true
		p.Filters.Hum120 = true
		p.HarmonicTolerance = 0.1
		p.NoiseFloor = 0.02
		p.SmoothingAlpha = 0.2

	case PresetClassical:
		// Nylon strings are quiet; let AGC bring them up.
		p.EnableAGC = true
		p.NoiseFloor = 0.005

	case PresetBass:
		// Low B0 is 30.87 Hz; the rumble highpass would eat it.
		p.FreqMin = 28
		p.FreqMax = 250
		p.Filters.Rumble = false

	case PresetExtendedRange:
		// 7/8-string instruments reach F#1 (23.12 Hz) and beyond.
		p.FreqMin = 22
		p.FreqMax = 500
		p.Filters.Rumble = false

	default:
		logging.Warn("unknown instrument preset, using acoustic defaults",
			logging.Fields{"preset": name})
	}

	return p
}

// Validate checks the parameter combinations a constructor relies on.
func (p Params) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", p.SampleRate)
	}
	if p.BlockSize < 8 {
		return fmt.Errorf("block size must be at least 8, got %d", p.BlockSize)
	}
	if p.FreqMin <= 0 || p.FreqMax <= p.FreqMin {
		return fmt.Errorf("invalid frequency bounds [%f, %f]", p.FreqMin, p.FreqMax)
	}
	if p.FreqMax >= float64(p.SampleRate)/2 {
		return fmt.Errorf("freq_max %f exceeds Nyquist for %d Hz", p.FreqMax, p.SampleRate)
	}
	if p.NoiseFloor < 0 {
		return fmt.Errorf("noise floor must be non-negative, got %f", p.NoiseFloor)
	}
	if p.EnableOutlierGate && p.AveragingWindowSize <= 0 {
		return fmt.Errorf("averaging window size must be positive, got %d", p.AveragingWindowSize)
	}
	if p.EnableSmoothing && (p.SmoothingAlpha <= 0 || p.SmoothingAlpha > 1) {
		return fmt.Errorf("smoothing alpha must be in (0, 1], got %f", p.SmoothingAlpha)
	}
	if p.EnableAGC && p.AGCTargetRMS <= 0 {
		return fmt.Errorf("AGC target RMS must be positive, got %f", p.AGCTargetRMS)
	}
	return nil
}
