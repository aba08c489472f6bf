package filters

import (
	"math"
	"testing"
)

func TestChainStageCountFollowsConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  ChainConfig
		want int
	}{
		{"empty", ChainConfig{}, 0},
		{"rumble only", ChainConfig{Rumble: true}, 1},
		{"all hum notches", ChainConfig{Hum50: true, Hum60: true, Hum100: true, Hum120: true}, 4},
		{"full", ChainConfig{Rumble: true, Hum50: true, Hum60: true, Hum100: true, Hum120: true, AntiAlias: true}, 6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewChain(48000, tc.cfg)
			if err != nil {
				t.Fatalf("NewChain() error = %v", err)
			}
			if c.Len() != tc.want {
				t.Fatalf("chain has %d stages, want %d", c.Len(), tc.want)
			}
		})
	}
}

func TestChainEmptyIsIdentity(t *testing.T) {
	c, err := NewChain(48000, ChainConfig{})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	buf := sine(110, 48000, 256)
	want := make([]float64, len(buf))
	copy(want, buf)

	c.ProcessBuffer(buf)
	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("empty chain modified sample %d: %f != %f", i, buf[i], want[i])
		}
	}
}

func TestChainAddBandpassAppends(t *testing.T) {
	c, err := NewChain(48000, ChainConfig{Rumble: true})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	if err := c.AddBandpass(82.41); err != nil {
		t.Fatalf("AddBandpass() error = %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("chain has %d stages after AddBandpass, want 2", c.Len())
	}

	if err := c.AddBandpass(-5); err == nil {
		t.Fatal("expected error for negative center frequency")
	}
}

func TestChainRemovesHumKeepsSignal(t *testing.T) {
	c, err := NewChain(48000, ChainConfig{Hum50: true, Hum60: true})
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}

	// 110 Hz string plus 60 Hz hum at equal level.
	n := 48000
	buf := make([]float64, n)
	for i := range buf {
		ts := float64(i) / 48000
		buf[i] = 0.5*math.Sin(2*math.Pi*110*ts) + 0.5*math.Sin(2*math.Pi*60*ts)
	}

	c.ProcessBuffer(buf)

	// Correlate the tail against both components.
	tail := buf[n/2:]
	var humPower, stringPower float64
	for i, v := range tail {
		ts := float64(i+n/2) / 48000
		humPower += v * math.Sin(2*math.Pi*60*ts)
		stringPower += v * math.Sin(2*math.Pi*110*ts)
	}
	humPower = math.Abs(humPower) / float64(len(tail))
	stringPower = math.Abs(stringPower) / float64(len(tail))

	if humPower > stringPower/10 {
		t.Fatalf("hum correlation %f not well below string correlation %f", humPower, stringPower)
	}
}
