package tuner

import (
	"math"
	"testing"
)

func newTestEngine(t *testing.T, params Params) *Engine {
	t.Helper()
	e, err := NewEngine(params, NewDefaultRegistry())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestEngineConstructionValidation(t *testing.T) {
	p := DefaultParams()
	p.SampleRate = 0
	if _, err := NewEngine(p, NewDefaultRegistry()); err == nil {
		t.Fatal("expected error for invalid params")
	}

	if _, err := NewEngine(DefaultParams(), nil); err == nil {
		t.Fatal("expected error for nil registry")
	}

	if _, err := NewEngineWithEstimator(DefaultParams(), NewDefaultRegistry(), nil); err == nil {
		t.Fatal("expected error for nil estimator")
	}
}

func TestEngineEndToEndLowEString(t *testing.T) {
	params := DefaultParams()
	e := newTestEngine(t, params)

	buf := sineFrame(82.41, params.SampleRate, params.BlockSize, 0.5)
	result, ok := e.Detect(buf, "standard-e")
	if !ok {
		t.Fatal("Detect found no pitch in a clean E2 sinusoid")
	}

	if result.Note != "E2" {
		t.Fatalf("matched note = %s, want E2", result.Note)
	}
	if math.Abs(result.Cents) >= 5 {
		t.Fatalf("cents deviation = %f, want |cents| < 5", result.Cents)
	}
	if result.Tuning != "standard-e" {
		t.Fatalf("tuning = %s, want standard-e", result.Tuning)
	}
	if result.NoteFreq != 82.41 {
		t.Fatalf("note frequency = %f, want 82.41", result.NoteFreq)
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Fatalf("confidence = %f, want in (0, 1]", result.Confidence)
	}
	wantRMS := 0.5 / math.Sqrt2
	if math.Abs(result.RMS-wantRMS) > 0.01 {
		t.Fatalf("RMS = %f, want ~%f", result.RMS, wantRMS)
	}
}

func TestEngineSilenceYieldsNoResult(t *testing.T) {
	params := DefaultParams()
	e := newTestEngine(t, params)

	if _, ok := e.Detect(make([]float64, params.BlockSize), "standard-e"); ok {
		t.Fatal("silence produced a result")
	}
	if _, ok := e.Detect(nil, "standard-e"); ok {
		t.Fatal("empty buffer produced a result")
	}
}

func TestEngineUnknownTuningYieldsNoResult(t *testing.T) {
	params := DefaultParams()
	e := newTestEngine(t, params)

	buf := sineFrame(110, params.SampleRate, params.BlockSize, 0.5)
	if _, ok := e.Detect(buf, "no-such-tuning"); ok {
		t.Fatal("unknown tuning produced a result")
	}
}

func TestEngineOctaveCorrectionHalvesDoubledInput(t *testing.T) {
	params := DefaultParams()
	e := newTestEngine(t, params)

	e.SetExpectedFrequency(82.41)
	e.EnableOctaveCorrection(true)

	// One octave above the string being tuned.
	buf := sineFrame(164.82, params.SampleRate, params.BlockSize, 0.5)
	result, ok := e.Detect(buf, "standard-e")
	if !ok {
		t.Fatal("Detect found no pitch")
	}
	if math.Abs(result.Freq-82.41) > 1.0 {
		t.Fatalf("octave correction gave %f Hz, want ~82.41", result.Freq)
	}
	if result.Note != "E2" {
		t.Fatalf("matched note = %s, want E2", result.Note)
	}
}

func TestEngineOutlierGateSuppressesJump(t *testing.T) {
	params := DefaultParams()
	params.EnableSmoothing = false
	e := newTestEngine(t, params)

	settle := sineFrame(110, params.SampleRate, params.BlockSize, 0.5)
	if _, ok := e.Detect(settle, "standard-e"); !ok {
		t.Fatal("first frame rejected")
	}

	// A 20 Hz jump is far past the 5.5 Hz gate.
	jump := sineFrame(130, params.SampleRate, params.BlockSize, 0.5)
	if _, ok := e.Detect(jump, "standard-e"); ok {
		t.Fatal("outlier frame was not suppressed")
	}

	// Rejected values still enter the window, so a sustained new pitch is
	// accepted once the window mean catches up.
	accepted := false
	for i := 0; i < params.AveragingWindowSize+2; i++ {
		if _, ok := e.Detect(jump, "standard-e"); ok {
			accepted = true
			break
		}
	}
	if !accepted {
		t.Fatal("sustained pitch change never re-accepted")
	}
}

func TestEngineEmitsUnaveragedValue(t *testing.T) {
	params := DefaultParams()
	params.EnableSmoothing = false
	e := newTestEngine(t, params)

	if _, ok := e.Detect(sineFrame(110, params.SampleRate, params.BlockSize, 0.5), "standard-e"); !ok {
		t.Fatal("first frame rejected")
	}

	// 112 Hz passes the gate; the emitted value must be the fresh
	// estimate, not the window mean (~111).
	result, ok := e.Detect(sineFrame(112, params.SampleRate, params.BlockSize, 0.5), "standard-e")
	if !ok {
		t.Fatal("second frame rejected")
	}
	if math.Abs(result.Freq-112) > 0.5 {
		t.Fatalf("emitted %f Hz, want the un-averaged ~112", result.Freq)
	}
}

func TestEngineAGCRecoversQuietSignal(t *testing.T) {
	params := DefaultParams()
	e := newTestEngine(t, params)
	e.EnableAGC(true, 0.1)

	// Quiet but above the noise floor.
	buf := sineFrame(110, params.SampleRate, params.BlockSize, 0.02)
	result, ok := e.Detect(buf, "standard-e")
	if !ok {
		t.Fatal("AGC engine found no pitch in a quiet signal")
	}
	if result.Note != "A2" {
		t.Fatalf("matched note = %s, want A2", result.Note)
	}
	// Result reports the pre-AGC input level.
	wantRMS := 0.02 / math.Sqrt2
	if math.Abs(result.RMS-wantRMS) > 0.005 {
		t.Fatalf("RMS = %f, want pre-AGC ~%f", result.RMS, wantRMS)
	}
}

func TestEngineAddStringFilter(t *testing.T) {
	params := DefaultParams()
	e := newTestEngine(t, params)

	if err := e.AddStringFilter(110); err != nil {
		t.Fatalf("AddStringFilter() error = %v", err)
	}

	buf := sineFrame(110, params.SampleRate, params.BlockSize, 0.5)
	result, ok := e.Detect(buf, "standard-e")
	if !ok {
		t.Fatal("Detect found no pitch through the string filter")
	}
	if result.Note != "A2" {
		t.Fatalf("matched note = %s, want A2", result.Note)
	}

	if err := e.AddStringFilter(-1); err == nil {
		t.Fatal("expected error for invalid string frequency")
	}
}

func TestEngineDetectLeavesInputIntact(t *testing.T) {
	params := DefaultParams()
	e := newTestEngine(t, params)
	e.EnableAGC(true, 0.1)

	buf := sineFrame(110, params.SampleRate, params.BlockSize, 0.5)
	want := make([]float64, len(buf))
	copy(want, buf)

	e.Detect(buf, "standard-e")
	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("Detect mutated caller buffer at %d", i)
		}
	}
}

func TestEngineResetClearsSmoothingState(t *testing.T) {
	params := DefaultParams()
	e := newTestEngine(t, params)

	for i := 0; i < 3; i++ {
		e.Detect(sineFrame(110, params.SampleRate, params.BlockSize, 0.5), "standard-e")
	}
	e.Reset()

	// A new pitch right after reset must not be gated against stale
	// history.
	result, ok := e.Detect(sineFrame(196, params.SampleRate, params.BlockSize, 0.5), "standard-e")
	if !ok {
		t.Fatal("post-reset frame rejected")
	}
	if result.Note != "G3" {
		t.Fatalf("matched note = %s, want G3", result.Note)
	}
}

func TestEnginePresets(t *testing.T) {
	registry := NewDefaultRegistry()
	for _, preset := range []string{
		PresetAcoustic, PresetElectricClean, PresetElectricDistorted,
		PresetClassical, PresetBass, PresetExtendedRange,
	} {
		if _, err := NewEngineFromPreset(preset, registry); err != nil {
			t.Fatalf("NewEngineFromPreset(%q) error = %v", preset, err)
		}
	}

	// Unknown preset falls back to the acoustic defaults.
	e, err := NewEngineFromPreset("theremin", registry)
	if err != nil {
		t.Fatalf("NewEngineFromPreset(unknown) error = %v", err)
	}
	if e.Params().SampleRate != DefaultParams().SampleRate {
		t.Fatal("unknown preset did not fall back to defaults")
	}
}
