package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
	"github.com/vitalwatch/vitalwatch/internal/realtime"
	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

const maxPlausibleBPM = 400

// ConditionSink receives the conditions triggered by an accepted reading
type ConditionSink interface {
	ProcessConditions(ctx context.Context, reading *domain.Reading, conditions []vitals.Condition) []domain.Alert
}

// IngestResult is what one accepted reading produced
type IngestResult struct {
	Status     vitals.HealthStatus
	Stats      vitals.Stats
	Conditions []vitals.Condition
	Alerts     []domain.Alert
}

// MonitorService is the ingest boundary: it validates each sample, appends
// it to the patient's rolling window, classifies exactly once per accepted
// reading, and hands triggered conditions to the alert deriver. Windows are
// in-memory and owned per patient; readings for one patient are processed in
// arrival order while distinct patients proceed independently.
type MonitorService struct {
	readingRepo domain.ReadingRepository
	alerts      ConditionSink
	publisher   realtime.Publisher
	capacity    int
	logger      *slog.Logger

	mu      sync.RWMutex
	windows map[uint]*vitals.Window
}

// NewMonitorService creates the ingest pipeline with per-patient windows of
// the given capacity
func NewMonitorService(
	readingRepo domain.ReadingRepository,
	alerts ConditionSink,
	publisher realtime.Publisher,
	capacity int,
	logger *slog.Logger,
) *MonitorService {
	return &MonitorService{
		readingRepo: readingRepo,
		alerts:      alerts,
		publisher:   publisher,
		capacity:    capacity,
		logger:      logger,
		windows:     make(map[uint]*vitals.Window),
	}
}

// Ingest accepts one sensor sample. Partial readings are fine; a present but
// out-of-range heart rate is rejected before touching the window. Reading
// persistence failures degrade to in-memory operation: the classification
// still happened and is never rolled back.
func (s *MonitorService) Ingest(ctx context.Context, reading *domain.Reading) (*IngestResult, error) {
	if reading == nil || reading.PatientID == 0 {
		return nil, apperrors.NewValidationError("reading must carry a patient id")
	}
	if reading.BPM != nil {
		bpm := *reading.BPM
		if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 || bpm > maxPlausibleBPM {
			return nil, apperrors.NewValidationError("heart rate out of representable range").
				WithContext("bpm", bpm)
		}
	}

	s.mu.Lock()
	window, ok := s.windows[reading.PatientID]
	if !ok {
		window = vitals.NewWindow(s.capacity)
		s.windows[reading.PatientID] = window
	}
	window.Push(*reading)
	stats := window.Stats()
	s.mu.Unlock()

	conditions := vitals.Classify(*reading, stats)

	if err := s.readingRepo.Insert(ctx, reading); err != nil {
		s.logger.Error("Failed to persist reading, continuing on in-memory state",
			"patient_id", reading.PatientID, "error", err)
	}

	result := &IngestResult{
		Stats:      stats,
		Conditions: conditions,
		Alerts:     s.alerts.ProcessConditions(ctx, reading, conditions),
	}
	if reading.BPM != nil {
		result.Status = vitals.Status(*reading.BPM)
	} else {
		result.Status = vitals.StatusNormal
	}

	s.publishReading(ctx, reading)
	return result, nil
}

// Stats returns the rolling statistics for a patient. Safe on unknown
// patients: an empty window yields zeroed stats.
func (s *MonitorService) Stats(patientID uint) vitals.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	window, ok := s.windows[patientID]
	if !ok {
		return vitals.Stats{}
	}
	return window.Stats()
}

// Snapshot returns the patient's current window contents in arrival order
func (s *MonitorService) Snapshot(patientID uint) []domain.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	window, ok := s.windows[patientID]
	if !ok {
		return nil
	}
	return window.Readings()
}

// RecentReadings reads persisted history, newest first
func (s *MonitorService) RecentReadings(ctx context.Context, patientID uint, limit int) ([]domain.Reading, error) {
	return s.readingRepo.Recent(ctx, patientID, limit)
}

func (s *MonitorService) publishReading(ctx context.Context, reading *domain.Reading) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(reading)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.Event{
		Kind:      realtime.KindReading,
		PatientID: reading.PatientID,
		Payload:   payload,
		At:        time.Now(),
	}); err != nil {
		s.logger.Warn("Failed to publish reading event",
			"patient_id", reading.PatientID, "error", err)
	}
}
