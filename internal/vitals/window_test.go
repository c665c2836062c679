package vitals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalwatch/vitalwatch/internal/domain"
)

func bpmReading(bpm float64) domain.Reading {
	return domain.Reading{BPM: &bpm}
}

func TestWindow_CapacityAndFIFO(t *testing.T) {
	w := NewWindow(3)

	for _, bpm := range []float64{70, 71, 72, 73, 74} {
		w.Push(bpmReading(bpm))
		assert.LessOrEqual(t, w.Len(), 3)
	}

	readings := w.Readings()
	require.Len(t, readings, 3)
	assert.Equal(t, 72.0, *readings[0].BPM)
	assert.Equal(t, 73.0, *readings[1].BPM)
	assert.Equal(t, 74.0, *readings[2].BPM)
}

func TestWindow_Latest(t *testing.T) {
	w := NewWindow(5)
	assert.Nil(t, w.Latest())

	w.Push(bpmReading(80))
	w.Push(bpmReading(85))
	require.NotNil(t, w.Latest())
	assert.Equal(t, 85.0, *w.Latest().BPM)
}

func TestWindow_StatsEmpty(t *testing.T) {
	w := NewWindow(20)

	stats := w.Stats()
	assert.Zero(t, stats.Mean)
	assert.Zero(t, stats.Min)
	assert.Zero(t, stats.Max)
	assert.Zero(t, stats.Variability)
	assert.Zero(t, stats.Samples)
}

func TestWindow_StatsSkipsReadingsWithoutBPM(t *testing.T) {
	w := NewWindow(20)
	w.Push(bpmReading(60))
	temp := 37.1
	w.Push(domain.Reading{Temperature: &temp})
	w.Push(bpmReading(80))

	stats := w.Stats()
	assert.Equal(t, 2, stats.Samples)
	assert.Equal(t, 70.0, stats.Mean)
	assert.Equal(t, 60.0, stats.Min)
	assert.Equal(t, 80.0, stats.Max)
	// The reading with no heart rate is still held.
	assert.Equal(t, 3, w.Len())
}

func TestWindow_StatsIdempotent(t *testing.T) {
	w := NewWindow(20)
	for _, bpm := range []float64{72, 75, 130, 76} {
		w.Push(bpmReading(bpm))
	}

	first := w.Stats()
	second := w.Stats()
	assert.Equal(t, first, second)
	assert.Equal(t, 130.0, first.Max)
	assert.Equal(t, 72.0, first.Min)
}

func TestWindow_Variability(t *testing.T) {
	w := NewWindow(20)

	w.Push(bpmReading(70))
	assert.Zero(t, w.Stats().Variability, "single sample has no variability")

	// Successive differences 10, -10, 10 → RMSSD = 10.
	w.Push(bpmReading(80))
	w.Push(bpmReading(70))
	w.Push(bpmReading(80))
	assert.InDelta(t, 10.0, w.Stats().Variability, 1e-9)
}

func TestWindow_VariabilityUsesMostRecentTen(t *testing.T) {
	w := NewWindow(100)
	// Wild swings first, then a flat run of 11 samples. Only the last 10
	// (all identical) should feed the estimate.
	w.Push(bpmReading(40))
	w.Push(bpmReading(180))
	for i := 0; i < 11; i++ {
		w.Push(bpmReading(75))
	}
	assert.Zero(t, w.Stats().Variability)
}
