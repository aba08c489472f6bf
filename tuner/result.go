package tuner

// Result is an immutable snapshot of one successful detection: the measured
// frequency, the closest note in the requested tuning, and how far off it
// is. Cents are the musician-facing unit, 1200 per octave, negative when
// the string is flat.
type Result struct {
	// Freq is the detected fundamental after refinement, correction, and
	// smoothing, in Hz.
	Freq float64 `json:"freq"`

	// Tuning is the id of the tuning the note was matched against.
	Tuning string `json:"tuning"`

	// Note is the name of the closest note in the tuning.
	Note string `json:"note"`

	// NoteFreq is that note's target frequency in Hz.
	NoteFreq float64 `json:"note_freq"`

	// Distance is |Freq - NoteFreq| in Hz.
	Distance float64 `json:"distance"`

	// Cents is 1200*log2(Freq/NoteFreq).
	Cents float64 `json:"cents"`

	// Confidence is the quality score in [0, 1].
	Confidence float64 `json:"confidence"`

	// RMS is the pre-filter input level the frame was measured at.
	RMS float64 `json:"rms"`
}

// InTune reports whether the deviation is inside the given cents tolerance.
func (r *Result) InTune(toleranceCents float64) bool {
	if r.Cents < 0 {
		return -r.Cents <= toleranceCents
	}
	return r.Cents <= toleranceCents
}
