package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gordonklaus/portaudio"
	"gopkg.in/yaml.v3"

	"github.com/jphollanti/nofuzz-tuner/logging"
	"github.com/jphollanti/nofuzz-tuner/tuner"
)

// Config is the on-disk configuration of the console tuner.
type Config struct {
	// Preset selects instrument defaults; Engine overrides them when set.
	Preset string        `yaml:"preset"`
	Engine *tuner.Params `yaml:"engine"`

	Tuning    string `yaml:"tuning"`
	Estimator string `yaml:"estimator"` // yin | nsdf | spectral-peak

	// NSDF backend thresholds.
	PowerThreshold   float64 `yaml:"power_threshold"`
	ClarityThreshold float64 `yaml:"clarity_threshold"`

	// CentsTolerance is the in-tune display band.
	CentsTolerance float64 `yaml:"cents_tolerance"`

	Verbose bool `yaml:"verbose"`
}

func defaultConfig() Config {
	return Config{
		Preset:           tuner.PresetAcoustic,
		Tuning:           "standard-e",
		Estimator:        "yin",
		PowerThreshold:   0.0001,
		ClarityThreshold: 0.7,
		CentsTolerance:   5,
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func buildEngine(cfg Config, registry *tuner.Registry) (*tuner.Engine, error) {
	params := tuner.PresetParams(cfg.Preset)
	if cfg.Engine != nil {
		params = *cfg.Engine
	}

	switch cfg.Estimator {
	case "", "yin":
		return tuner.NewEngine(params, registry)
	case "nsdf":
		est, err := tuner.NewNSDFEstimator(params.SampleRate, cfg.PowerThreshold, cfg.ClarityThreshold)
		if err != nil {
			return nil, err
		}
		return tuner.NewEngineWithEstimator(params, registry, est)
	case "spectral-peak":
		est, err := tuner.NewSpectralPeakEstimator(params.SampleRate, params.BlockSize, params.FreqMin, params.FreqMax)
		if err != nil {
			return nil, err
		}
		return tuner.NewEngineWithEstimator(params, registry, est)
	default:
		return nil, fmt.Errorf("unknown estimator %q", cfg.Estimator)
	}
}

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	tuning := flag.String("tuning", "", "tuning id (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.Fatal(err, "configuration failed")
	}
	if *tuning != "" {
		cfg.Tuning = *tuning
	}
	if cfg.Verbose {
		logging.SetLevel(logging.DebugLevel)
	}

	registry := tuner.NewDefaultRegistry()
	engine, err := buildEngine(cfg, registry)
	if err != nil {
		logging.Fatal(err, "building engine failed")
	}

	if _, ok := registry.Lookup(cfg.Tuning); !ok {
		ids := make([]string, 0)
		for _, t := range registry.List() {
			ids = append(ids, t.ID)
		}
		logging.Fatal(fmt.Errorf("unknown tuning %q, have %v", cfg.Tuning, ids), "configuration failed")
	}

	if err := run(cfg, engine); err != nil {
		logging.Fatal(err, "capture failed")
	}
}

func run(cfg Config, engine *tuner.Engine) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	params := engine.Params()
	in := make([]float32, params.BlockSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(params.SampleRate), len(in), in)
	if err != nil {
		return fmt.Errorf("opening input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting input stream: %w", err)
	}
	defer stream.Stop()

	logging.Info("listening", logging.Fields{
		"tuning":      cfg.Tuning,
		"estimator":   cfg.Estimator,
		"sample_rate": params.SampleRate,
		"block_size":  params.BlockSize,
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	buf := make([]float64, len(in))
	for {
		select {
		case <-interrupt:
			fmt.Println()
			logging.Info("done")
			return nil
		default:
		}

		if err := stream.Read(); err != nil {
			// Overflows happen when detection runs longer than one block;
			// skip the frame and keep going.
			logging.Debug("input read failed", logging.Fields{"error": err.Error()})
			continue
		}
		for i, s := range in {
			buf[i] = float64(s)
		}

		result, ok := engine.Detect(buf, cfg.Tuning)
		if !ok {
			continue
		}
		render(result, cfg.CentsTolerance)
	}
}

// render rewrites a single console line with the current detection.
func render(r *tuner.Result, centsTolerance float64) {
	direction := "in tune"
	if !r.InTune(centsTolerance) {
		if r.Cents < 0 {
			direction = "tune up"
		} else {
			direction = "tune down"
		}
	}
	fmt.Printf("\r\033[K%s  %7.2f Hz  %+6.1f cents  conf %.2f  %s",
		r.Note, r.Freq, r.Cents, r.Confidence, direction)
}
