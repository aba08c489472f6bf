package tuner

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/jphollanti/nofuzz-tuner/logging"
)

// Registration failure modes.
var (
	ErrNoteCountMismatch = errors.New("note name and frequency counts differ")
	ErrDuplicateNote     = errors.New("duplicate note name in tuning")
	ErrInvalidFrequency  = errors.New("note frequency must be positive")
)

// Note is one target pitch within a tuning.
type Note struct {
	Name      string  `json:"name"`
	Frequency float64 `json:"frequency"`
}

// TuningTable is a registered tuning: an id, a human-readable label, and
// the notes sorted by ascending frequency.
type TuningTable struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Notes []Note `json:"notes"`
}

// Registry maps tuning ids to note tables. It is the one piece of shared
// mutable state in the tuner: registrations happen off the audio thread,
// nearest-note lookups happen once per detected frame, and both serialize
// through a single RWMutex.
type Registry struct {
	mu      sync.RWMutex
	tunings map[string]TuningTable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tunings: make(map[string]TuningTable)}
}

// NewDefaultRegistry creates a registry pre-loaded with the built-in guitar
// tunings: standard E, half-step-down, and drop D.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	builtins := []struct {
		id    string
		label string
		names []string
		freqs []float64
	}{
		{
			id:    "standard-e",
			label: "Standard E",
			names: []string{"E2", "A2", "D3", "G3", "B3", "E4"},
			freqs: []float64{82.41, 110.00, 146.83, 196.00, 246.94, 329.63},
		},
		{
			id:    "flat-e",
			label: "Standard Eb (half-step down)",
			names: []string{"Eb2", "Ab2", "Db3", "Gb3", "Bb3", "Eb4"},
			freqs: []float64{77.78, 103.83, 138.59, 185.00, 233.08, 311.13},
		},
		{
			id:    "drop-d",
			label: "Drop D",
			names: []string{"D2", "A2", "D3", "G3", "B3", "E4"},
			freqs: []float64{73.42, 110.00, 146.83, 196.00, 246.94, 329.63},
		},
	}

	for _, b := range builtins {
		// Built-in tables are well-formed; a failure here is a programming
		// error, not a runtime condition.
		if _, err := r.Register(b.id, b.label, b.names, b.freqs); err != nil {
			panic(fmt.Sprintf("registering built-in tuning %q: %v", b.id, err))
		}
	}

	return r
}

// Register adds or replaces a tuning. Names and frequencies are parallel
// slices; a length mismatch, a duplicate note name, or a non-positive
// frequency rejects the whole registration.
func (r *Registry) Register(id, label string, names []string, freqs []float64) (TuningTable, error) {
	if len(names) != len(freqs) {
		return TuningTable{}, fmt.Errorf("tuning %q: %w (%d names, %d frequencies)",
			id, ErrNoteCountMismatch, len(names), len(freqs))
	}

	notes := make([]Note, len(names))
	seen := make(map[string]struct{}, len(names))
	for i, name := range names {
		if freqs[i] <= 0 {
			return TuningTable{}, fmt.Errorf("tuning %q note %q: %w (%.2f Hz)",
				id, name, ErrInvalidFrequency, freqs[i])
		}
		if _, dup := seen[name]; dup {
			return TuningTable{}, fmt.Errorf("tuning %q: %w (%q)", id, ErrDuplicateNote, name)
		}
		seen[name] = struct{}{}
		notes[i] = Note{Name: name, Frequency: freqs[i]}
	}

	// Ascending frequency order makes nearest-note lookups deterministic:
	// on an exact tie the lower note wins.
	sort.Slice(notes, func(i, j int) bool { return notes[i].Frequency < notes[j].Frequency })

	table := TuningTable{ID: id, Label: label, Notes: notes}

	r.mu.Lock()
	_, replaced := r.tunings[id]
	r.tunings[id] = table
	r.mu.Unlock()

	logging.Debug("tuning registered", logging.Fields{
		"id": id, "notes": len(notes), "replaced": replaced,
	})

	return table, nil
}

// NearestNote finds the note in the tuning whose frequency is closest to
// freq, returning the note, the absolute distance in Hz, and whether the
// tuning id is known. Ties break toward the lower-frequency note.
func (r *Registry) NearestNote(id string, freq float64) (Note, float64, bool) {
	r.mu.RLock()
	table, ok := r.tunings[id]
	r.mu.RUnlock()

	if !ok || len(table.Notes) == 0 {
		return Note{}, 0, false
	}

	best := table.Notes[0]
	bestDist := math.Abs(best.Frequency - freq)
	for _, note := range table.Notes[1:] {
		if d := math.Abs(note.Frequency - freq); d < bestDist {
			best = note
			bestDist = d
		}
	}

	return best, bestDist, true
}

// Lookup returns the table registered under id.
func (r *Registry) Lookup(id string) (TuningTable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tunings[id]
	return table, ok
}

// List returns all registered tunings sorted by id.
func (r *Registry) List() []TuningTable {
	r.mu.RLock()
	tables := make([]TuningTable, 0, len(r.tunings))
	for _, t := range r.tunings {
		tables = append(tables, t)
	}
	r.mu.RUnlock()

	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	return tables
}
