package tuner

import (
	"errors"
	"math"
	"testing"
)

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register("bad", "Bad", []string{"E2", "A2"}, []float64{82.41})
	if !errors.Is(err, ErrNoteCountMismatch) {
		t.Fatalf("mismatched lengths: got %v, want ErrNoteCountMismatch", err)
	}

	_, err = r.Register("bad", "Bad", []string{"E2", "E2"}, []float64{82.41, 110})
	if !errors.Is(err, ErrDuplicateNote) {
		t.Fatalf("duplicate note: got %v, want ErrDuplicateNote", err)
	}

	_, err = r.Register("bad", "Bad", []string{"E2"}, []float64{-82.41})
	if !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("negative frequency: got %v, want ErrInvalidFrequency", err)
	}

	if _, ok := r.Lookup("bad"); ok {
		t.Fatal("failed registration must not leave a table behind")
	}
}

func TestNearestNoteSelfMatch(t *testing.T) {
	r := NewDefaultRegistry()

	table, ok := r.Lookup("standard-e")
	if !ok {
		t.Fatal("standard-e missing from default registry")
	}

	for _, note := range table.Notes {
		got, dist, ok := r.NearestNote("standard-e", note.Frequency)
		if !ok {
			t.Fatalf("NearestNote(%s) not found", note.Name)
		}
		if got.Name != note.Name || dist != 0 {
			t.Fatalf("NearestNote(%.2f) = %s at distance %f, want exact %s",
				note.Frequency, got.Name, dist, note.Name)
		}
	}
}

func TestNearestNotePicksCloserNeighbor(t *testing.T) {
	r := NewDefaultRegistry()

	// Between E2 (82.41) and A2 (110.00), closer to A2.
	freq := 100.0
	note, dist, ok := r.NearestNote("standard-e", freq)
	if !ok {
		t.Fatal("NearestNote not found")
	}
	if note.Name != "A2" {
		t.Fatalf("NearestNote(%.1f) = %s, want A2", freq, note.Name)
	}
	if math.Abs(dist-10.0) > 1e-9 {
		t.Fatalf("distance = %f, want 10", dist)
	}

	// And closer to E2.
	note, dist, _ = r.NearestNote("standard-e", 85.0)
	if note.Name != "E2" {
		t.Fatalf("NearestNote(85) = %s, want E2", note.Name)
	}
	if math.Abs(dist-(85.0-82.41)) > 1e-9 {
		t.Fatalf("distance = %f, want %f", dist, 85.0-82.41)
	}
}

func TestNearestNoteUnknownTuning(t *testing.T) {
	r := NewDefaultRegistry()
	if _, _, ok := r.NearestNote("no-such-tuning", 110); ok {
		t.Fatal("unknown tuning id must report not found")
	}
}

func TestNearestNoteTieBreaksLow(t *testing.T) {
	r := NewRegistry()
	// Register high note first to prove insertion order does not matter.
	if _, err := r.Register("tie", "Tie", []string{"HI", "LO"}, []float64{200, 100}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	note, dist, ok := r.NearestNote("tie", 150)
	if !ok {
		t.Fatal("NearestNote not found")
	}
	if note.Name != "LO" {
		t.Fatalf("tie broke to %s, want the lower-frequency note LO", note.Name)
	}
	if dist != 50 {
		t.Fatalf("distance = %f, want 50", dist)
	}
}

func TestRegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register("x", "First", []string{"A"}, []float64{100}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := r.Register("x", "Second", []string{"B"}, []float64{200}); err != nil {
		t.Fatalf("re-Register() error = %v", err)
	}

	table, _ := r.Lookup("x")
	if table.Label != "Second" || len(table.Notes) != 1 || table.Notes[0].Name != "B" {
		t.Fatalf("re-registration did not overwrite: %+v", table)
	}
}

func TestListSortedByID(t *testing.T) {
	r := NewDefaultRegistry()
	tables := r.List()
	if len(tables) != 3 {
		t.Fatalf("default registry has %d tunings, want 3", len(tables))
	}
	for i := 1; i < len(tables); i++ {
		if tables[i-1].ID >= tables[i].ID {
			t.Fatalf("List() not sorted: %s before %s", tables[i-1].ID, tables[i].ID)
		}
	}
}

func TestRegistryNotesSortedByFrequency(t *testing.T) {
	r := NewDefaultRegistry()
	table, _ := r.Lookup("drop-d")
	for i := 1; i < len(table.Notes); i++ {
		if table.Notes[i-1].Frequency > table.Notes[i].Frequency {
			t.Fatalf("notes not sorted by frequency: %+v", table.Notes)
		}
	}
	if table.Notes[0].Name != "D2" {
		t.Fatalf("lowest drop-d note = %s, want D2", table.Notes[0].Name)
	}
}
