package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vitalwatch/vitalwatch/internal/domain"
	"github.com/vitalwatch/vitalwatch/internal/location"
	"github.com/vitalwatch/vitalwatch/internal/notifier"
	"github.com/vitalwatch/vitalwatch/internal/realtime"
	"github.com/vitalwatch/vitalwatch/internal/utils"
	"github.com/vitalwatch/vitalwatch/internal/vitals"
)

// EmailDispatcher delivers a message to a recipient list through the
// provider fallback chain.
type EmailDispatcher interface {
	Send(ctx context.Context, to []string, subject, body string) (*notifier.DispatchResult, error)
}

// severityFor maps a triggered condition to an alert severity
var severityFor = map[vitals.Condition]string{
	vitals.ConditionHeartRateCritical: domain.SeverityCritical,
	vitals.ConditionHeartRateHigh:     domain.SeverityHigh,
	vitals.ConditionHeartRateLow:      domain.SeverityMedium,
	vitals.ConditionLowOxygen:         domain.SeverityCritical,
	vitals.ConditionFever:             domain.SeverityMedium,
	vitals.ConditionSensorFault:       domain.SeverityMedium,
	vitals.ConditionIrregularRhythm:   domain.SeverityMedium,
}

// SOSResult reports the outcome of a manual distress broadcast
type SOSResult struct {
	Alert    *domain.Alert
	Dispatch *notifier.DispatchResult
	// Guardians is how many emergency contacts were resolved. Zero means
	// the alert was recorded but nobody could be emailed.
	Guardians int
}

// AlertService turns triggered conditions into persisted alerts, applying a
// per-(patient, condition) cool-down so a persisting condition does not
// flood caretakers on every ingest cycle. Manual SOS alerts bypass both
// classification and the cool-down.
type AlertService struct {
	alertRepo    domain.AlertRepository
	guardianRepo domain.GuardianRepository
	userRepo     domain.UserRepository
	cooldown     Cooldown
	dispatcher   EmailDispatcher
	resolver     location.Resolver
	publisher    realtime.Publisher
	logger       *slog.Logger
}

// NewAlertService creates the alert deriver
func NewAlertService(
	alertRepo domain.AlertRepository,
	guardianRepo domain.GuardianRepository,
	userRepo domain.UserRepository,
	cooldown Cooldown,
	dispatcher EmailDispatcher,
	resolver location.Resolver,
	publisher realtime.Publisher,
	logger *slog.Logger,
) *AlertService {
	return &AlertService{
		alertRepo:    alertRepo,
		guardianRepo: guardianRepo,
		userRepo:     userRepo,
		cooldown:     cooldown,
		dispatcher:   dispatcher,
		resolver:     resolver,
		publisher:    publisher,
		logger:       logger,
	}
}

// ProcessConditions derives one alert per triggered condition that is not in
// cool-down. Persistence failures are logged and skipped so one bad insert
// never blocks the remaining conditions or the ingest pipeline; automatic
// alerts reach caretakers through the read path, not email.
func (s *AlertService) ProcessConditions(ctx context.Context, reading *domain.Reading, conditions []vitals.Condition) []domain.Alert {
	var created []domain.Alert

	for _, condition := range conditions {
		if !s.cooldown.Allow(ctx, reading.PatientID, condition) {
			continue
		}

		alert := domain.Alert{
			EventID:   uuid.NewString(),
			PatientID: reading.PatientID,
			AlertType: alertTypeFor(condition),
			Severity:  severityFor[condition],
			Message:   alertMessage(condition, reading),
			Latitude:  reading.Latitude,
			Longitude: reading.Longitude,
		}

		if err := s.alertRepo.Insert(ctx, &alert); err != nil {
			// Disarm the window Allow just armed: nothing was recorded, so
			// the next reading with this condition must be free to retry.
			s.cooldown.Release(ctx, reading.PatientID, condition)
			s.logger.Error("Failed to persist alert",
				"patient_id", reading.PatientID,
				"condition", condition,
				"error", err)
			continue
		}

		s.publishAlert(ctx, &alert)
		s.logger.Info("Alert created",
			"event_id", alert.EventID,
			"patient_id", alert.PatientID,
			"severity", alert.Severity,
			"condition", condition)
		created = append(created, alert)
	}

	return created
}

// TriggerSOS records a manual distress alert and broadcasts it to the
// patient's guardians by email. Location is best effort: an unavailable
// position never blocks the send.
func (s *AlertService) TriggerSOS(ctx context.Context, patientID uint) (*SOSResult, error) {
	patient, err := s.userRepo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	var lat, lng *float64
	locationLine := "Location unavailable"
	if point, err := s.resolver.Current(ctx, patientID); err == nil {
		lat, lng = &point.Lat, &point.Lng
		locationLine = utils.MapsLink(point.Lat, point.Lng)
	} else {
		s.logger.Warn("Proceeding without location for SOS",
			"patient_id", patientID, "error", err)
	}

	alert := &domain.Alert{
		EventID:   uuid.NewString(),
		PatientID: patientID,
		AlertType: domain.AlertTypeManual,
		Severity:  domain.SeverityCritical,
		Message:   fmt.Sprintf("%s triggered an emergency alert", patient.Name),
		Latitude:  lat,
		Longitude: lng,
	}
	if err := s.alertRepo.Insert(ctx, alert); err != nil {
		return nil, err
	}
	s.publishAlert(ctx, alert)

	result := &SOSResult{Alert: alert}

	guardians, err := s.guardianRepo.ListByPatient(ctx, patientID)
	if err != nil {
		s.logger.Error("Failed to resolve guardians for SOS",
			"patient_id", patientID, "error", err)
		return result, nil
	}
	result.Guardians = len(guardians)
	if len(guardians) == 0 {
		s.logger.Warn("No guardians configured for SOS broadcast",
			"patient_id", patientID)
		return result, nil
	}

	recipients := make([]string, 0, len(guardians))
	for _, g := range guardians {
		recipients = append(recipients, g.Email)
	}

	subject := fmt.Sprintf("🚨 Emergency Alert - %s", patient.Name)
	body := fmt.Sprintf("⚠️ Emergency Alert: %s is in distress!\nCurrent Location: %s\nPlease check immediately.",
		patient.Name, locationLine)

	dispatch, err := s.dispatcher.Send(ctx, recipients, subject, body)
	result.Dispatch = dispatch
	if err != nil {
		// The alert is already recorded and visible to caretakers; a dead
		// email chain is reported, not fatal.
		s.logger.Error("SOS email dispatch failed",
			"patient_id", patientID, "error", err)
	}

	return result, nil
}

// ListAlerts returns up to limit alerts for a patient, newest first
func (s *AlertService) ListAlerts(ctx context.Context, patientID uint, limit int) ([]domain.Alert, error) {
	return s.alertRepo.ListByPatient(ctx, patientID, limit)
}

// UnreadAlerts returns a patient's unacknowledged alerts, newest first.
// Feeds the caretaker dashboard badge.
func (s *AlertService) UnreadAlerts(ctx context.Context, patientID uint) ([]domain.Alert, error) {
	return s.alertRepo.ListUnread(ctx, patientID)
}

// MarkRead acknowledges all of a patient's alerts
func (s *AlertService) MarkRead(ctx context.Context, patientID uint) error {
	return s.alertRepo.MarkAllRead(ctx, patientID)
}

func (s *AlertService) publishAlert(ctx context.Context, alert *domain.Alert) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, realtime.Event{
		Kind:      realtime.KindAlert,
		PatientID: alert.PatientID,
		Payload:   payload,
		At:        time.Now(),
	}); err != nil {
		s.logger.Warn("Failed to publish alert event",
			"event_id", alert.EventID, "error", err)
	}
}

func alertTypeFor(condition vitals.Condition) string {
	if condition == vitals.ConditionSensorFault {
		return domain.AlertTypeSensorFault
	}
	return domain.AlertTypeAuto
}

func alertMessage(condition vitals.Condition, reading *domain.Reading) string {
	switch condition {
	case vitals.ConditionHeartRateCritical:
		return fmt.Sprintf("Critical heart rate detected: %.0f BPM", *reading.BPM)
	case vitals.ConditionHeartRateHigh:
		return fmt.Sprintf("Elevated heart rate: %.0f BPM", *reading.BPM)
	case vitals.ConditionHeartRateLow:
		return fmt.Sprintf("Low heart rate: %.0f BPM", *reading.BPM)
	case vitals.ConditionLowOxygen:
		return fmt.Sprintf("Low blood oxygen detected: %.1f%%", *reading.SpO2)
	case vitals.ConditionFever:
		return fmt.Sprintf("Fever detected: %.1f°C", *reading.Temperature)
	case vitals.ConditionIrregularRhythm:
		return "Irregular heart rhythm detected"
	case vitals.ConditionSensorFault:
		return "Sensor fault reported by device"
	default:
		return string(condition)
	}
}
