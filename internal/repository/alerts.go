package repository

import (
	"context"

	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
	"gorm.io/gorm"
)

// AlertRepository handles alert persistence
type AlertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Insert persists a new alert
func (r *AlertRepository) Insert(ctx context.Context, alert *domain.Alert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("alert already recorded")
		}
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// ListByPatient returns up to limit alerts for a patient, newest first
func (r *AlertRepository) ListByPatient(ctx context.Context, patientID uint, limit int) ([]domain.Alert, error) {
	var alerts []domain.Alert
	if err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return alerts, nil
}

// ListUnread returns unread alerts for a patient, newest first
func (r *AlertRepository) ListUnread(ctx context.Context, patientID uint) ([]domain.Alert, error) {
	var alerts []domain.Alert
	if err := r.db.WithContext(ctx).
		Where("patient_id = ? AND is_read = ?", patientID, false).
		Order("created_at DESC").
		Find(&alerts).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return alerts, nil
}

// MarkAllRead flips the read flag for all of a patient's alerts. Only the
// flag is touched; alert content stays immutable.
func (r *AlertRepository) MarkAllRead(ctx context.Context, patientID uint) error {
	if err := r.db.WithContext(ctx).
		Model(&domain.Alert{}).
		Where("patient_id = ? AND is_read = ?", patientID, false).
		Update("is_read", true).Error; err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}
