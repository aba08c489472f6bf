package common

import "fmt"

// WindowedAverage is a fixed-capacity FIFO of recent values. Once full,
// pushing a new value evicts the oldest one. It backs the outlier gate in
// the pitch engine: a fresh estimate is compared against the window mean
// before being accepted.
type WindowedAverage struct {
	values   []float64
	capacity int
	head     int
	size     int
}

// NewWindowedAverage creates an averager holding the last capacity values.
func NewWindowedAverage(capacity int) (*WindowedAverage, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("window capacity must be positive, got %d", capacity)
	}
	return &WindowedAverage{
		values:   make([]float64, capacity),
		capacity: capacity,
	}, nil
}

// Push adds a value, evicting the oldest entry when the window is full.
func (w *WindowedAverage) Push(v float64) {
	w.values[w.head] = v
	w.head = (w.head + 1) % w.capacity
	if w.size < w.capacity {
		w.size++
	}
}

// Average returns the arithmetic mean of the window contents.
// The second return value is false when the window is empty.
func (w *WindowedAverage) Average() (float64, bool) {
	if w.size == 0 {
		return 0, false
	}
	sum := 0.0
	for i := 0; i < w.size; i++ {
		sum += w.values[i]
	}
	return sum / float64(w.size), true
}

// Len returns the number of values currently held.
func (w *WindowedAverage) Len() int {
	return w.size
}

// Full reports whether the window has reached capacity.
func (w *WindowedAverage) Full() bool {
	return w.size == w.capacity
}

// Reset empties the window.
func (w *WindowedAverage) Reset() {
	w.head = 0
	w.size = 0
}

// ExponentialSmoother is a first-order exponential moving average,
// state = alpha*new + (1-alpha)*state, seeded by the first observed value.
// Larger alpha tracks faster; smaller alpha holds steadier.
type ExponentialSmoother struct {
	alpha  float64
	state  float64
	seeded bool
}

// NewExponentialSmoother creates a smoother with the given responsiveness.
// Alpha must be in (0, 1].
func NewExponentialSmoother(alpha float64) (*ExponentialSmoother, error) {
	if alpha <= 0 || alpha > 1 {
		return nil, fmt.Errorf("smoothing alpha must be in (0, 1], got %f", alpha)
	}
	return &ExponentialSmoother{alpha: alpha}, nil
}

// Update folds a new observation into the state and returns the new state.
func (e *ExponentialSmoother) Update(v float64) float64 {
	if !e.seeded {
		e.state = v
		e.seeded = true
		return e.state
	}
	e.state = e.alpha*v + (1-e.alpha)*e.state
	return e.state
}

// Value returns the current state; false before the first Update.
func (e *ExponentialSmoother) Value() (float64, bool) {
	return e.state, e.seeded
}

// Reset clears the state so the next Update seeds it again.
func (e *ExponentialSmoother) Reset() {
	e.state = 0
	e.seeded = false
}
