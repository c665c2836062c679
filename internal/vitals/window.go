package vitals

import (
	"math"

	"github.com/vitalwatch/vitalwatch/internal/domain"
)

// hrvSamples is how many of the most recent heart-rate values feed the
// variability estimate.
const hrvSamples = 10

// Window is a bounded FIFO buffer of the most recent readings for one
// patient. Insertion order is arrival order and is never changed; the oldest
// reading is evicted once capacity is exceeded. A window is owned by a single
// ingest pipeline and is not safe for concurrent use on its own.
type Window struct {
	capacity int
	readings []domain.Reading
}

// Stats are aggregate statistics over the heart-rate values currently held
// in a window. Readings without a heart rate are retained in the window but
// excluded from the aggregate. All fields are zero on an empty window.
type Stats struct {
	Mean        float64
	Min         float64
	Max         float64
	Variability float64
	Samples     int
}

// NewWindow creates a window holding at most capacity readings. Capacity
// below 1 is treated as 1.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		capacity: capacity,
		readings: make([]domain.Reading, 0, capacity),
	}
}

// Push appends a reading, evicting the oldest when the window is full.
func (w *Window) Push(reading domain.Reading) {
	if len(w.readings) == w.capacity {
		copy(w.readings, w.readings[1:])
		w.readings = w.readings[:len(w.readings)-1]
	}
	w.readings = append(w.readings, reading)
}

// Len returns the number of readings currently held
func (w *Window) Len() int {
	return len(w.readings)
}

// Capacity returns the configured bound
func (w *Window) Capacity() int {
	return w.capacity
}

// Readings returns a copy of the held readings in arrival order
func (w *Window) Readings() []domain.Reading {
	out := make([]domain.Reading, len(w.readings))
	copy(out, w.readings)
	return out
}

// Latest returns the most recently pushed reading, or nil if empty
func (w *Window) Latest() *domain.Reading {
	if len(w.readings) == 0 {
		return nil
	}
	r := w.readings[len(w.readings)-1]
	return &r
}

// Stats computes aggregate statistics over the window. It never fails: an
// empty window (or one with no heart-rate values) yields zeroed stats.
//
// Variability is the root-mean-square of successive differences over the
// most recent heart-rate values, 0 when fewer than two are available. This
// is a deliberate simplification over spot heart-rate samples, not clinical
// HRV, which would need consistent beat-to-beat R-R intervals.
func (w *Window) Stats() Stats {
	bpm := make([]float64, 0, len(w.readings))
	for _, r := range w.readings {
		if r.BPM != nil {
			bpm = append(bpm, *r.BPM)
		}
	}
	if len(bpm) == 0 {
		return Stats{}
	}

	sum := 0.0
	min := bpm[0]
	max := bpm[0]
	for _, v := range bpm {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	return Stats{
		Mean:        sum / float64(len(bpm)),
		Min:         min,
		Max:         max,
		Variability: rmssd(recent(bpm, hrvSamples)),
		Samples:     len(bpm),
	}
}

// recent returns the last n values of vs in arrival order
func recent(vs []float64, n int) []float64 {
	if len(vs) <= n {
		return vs
	}
	return vs[len(vs)-n:]
}

// rmssd is the root-mean-square of successive differences
func rmssd(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(vs); i++ {
		diff := vs[i] - vs[i-1]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(vs)-1))
}
