package filters

import "fmt"

// ChainConfig selects the fixed-purpose stages of a filter chain. The
// stages always run in the order the fields are declared here; string-focus
// bandpass stages added later run after all of them.
type ChainConfig struct {
	// Rumble enables a highpass near the bottom of the guitar range to
	// strip handling noise and room rumble.
	Rumble bool `json:"rumble" yaml:"rumble"`

	// Hum50/Hum60 notch out mains hum; Hum100/Hum120 their first harmonic.
	Hum50  bool `json:"hum_50" yaml:"hum_50"`
	Hum60  bool `json:"hum_60" yaml:"hum_60"`
	Hum100 bool `json:"hum_100" yaml:"hum_100"`
	Hum120 bool `json:"hum_120" yaml:"hum_120"`

	// AntiAlias enables a lowpass well below Nyquist. Harmonics above
	// 5 kHz contribute nothing to fundamental estimation.
	AntiAlias bool `json:"anti_alias" yaml:"anti_alias"`
}

// Fixed-purpose stage tunings. Hum notches are narrow so they leave nearby
// string fundamentals (e.g. B1 at 61.7 Hz) intact.
const (
	rumbleCutoffHz    = 60.0
	rumbleQ           = 0.707
	humNotchQ         = 30.0
	antiAliasCutoffHz = 5000.0
	antiAliasQ        = 0.707
	stringFocusQ      = 8.0
)

// Chain is an ordered cascade of biquad stages. Topology is fixed at
// construction except for explicit AddBandpass calls; no stage is ever
// skipped per sample.
type Chain struct {
	sampleRate int
	stages     []*Biquad
}

// NewChain builds a cascade from the enabled stages of cfg, in declaration
// order.
func NewChain(sampleRate int, cfg ChainConfig) (*Chain, error) {
	c := &Chain{sampleRate: sampleRate}

	type stageDef struct {
		enabled bool
		build   func() (*Biquad, error)
	}

	defs := []stageDef{
		{cfg.Rumble, func() (*Biquad, error) { return NewHighpass(sampleRate, rumbleCutoffHz, rumbleQ) }},
		{cfg.Hum50, func() (*Biquad, error) { return NewNotch(sampleRate, 50, humNotchQ) }},
		{cfg.Hum60, func() (*Biquad, error) { return NewNotch(sampleRate, 60, humNotchQ) }},
		{cfg.Hum100, func() (*Biquad, error) { return NewNotch(sampleRate, 100, humNotchQ) }},
		{cfg.Hum120, func() (*Biquad, error) { return NewNotch(sampleRate, 120, humNotchQ) }},
		{cfg.AntiAlias, func() (*Biquad, error) { return NewLowpass(sampleRate, antiAliasCutoffHz, antiAliasQ) }},
	}

	for _, s := range defs {
		if !s.enabled {
			continue
		}
		stage, err := s.build()
		if err != nil {
			return nil, fmt.Errorf("building filter chain: %w", err)
		}
		c.stages = append(c.stages, stage)
	}

	return c, nil
}

// AddBandpass appends a narrow bandpass stage centered on a string
// frequency, focusing the chain on the string being tuned.
func (c *Chain) AddBandpass(centerHz float64) error {
	stage, err := NewBandpass(c.sampleRate, centerHz, stringFocusQ)
	if err != nil {
		return fmt.Errorf("adding string filter at %.2f Hz: %w", centerHz, err)
	}
	c.stages = append(c.stages, stage)
	return nil
}

// Process runs one sample through every stage in order.
func (c *Chain) Process(x float64) float64 {
	for _, stage := range c.stages {
		x = stage.Process(x)
	}
	return x
}

// ProcessBuffer filters a buffer in place.
func (c *Chain) ProcessBuffer(buf []float64) {
	for i, x := range buf {
		buf[i] = c.Process(x)
	}
}

// Len returns the number of stages in the cascade.
func (c *Chain) Len() int {
	return len(c.stages)
}

// Reset clears the history of every stage.
func (c *Chain) Reset() {
	for _, stage := range c.stages {
		stage.Reset()
	}
}
