package repository

import (
	"context"

	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
	"gorm.io/gorm"
)

// ReadingRepository handles sensor reading persistence
type ReadingRepository struct {
	db *gorm.DB
}

// NewReadingRepository creates a new reading repository
func NewReadingRepository(db *gorm.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Insert appends a reading. Readings are never updated afterwards.
func (r *ReadingRepository) Insert(ctx context.Context, reading *domain.Reading) error {
	if err := r.db.WithContext(ctx).Create(reading).Error; err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// Recent returns up to limit readings for a patient, newest first.
func (r *ReadingRepository) Recent(ctx context.Context, patientID uint, limit int) ([]domain.Reading, error) {
	var readings []domain.Reading
	if err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&readings).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return readings, nil
}
