package repository

import (
	"context"

	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
	"gorm.io/gorm"
)

// GuardianRepository handles emergency contact persistence
type GuardianRepository struct {
	db *gorm.DB
}

// NewGuardianRepository creates a new guardian repository
func NewGuardianRepository(db *gorm.DB) *GuardianRepository {
	return &GuardianRepository{db: db}
}

// Insert adds an emergency contact. A duplicate (patient, email) pair maps
// to a conflict error.
func (r *GuardianRepository) Insert(ctx context.Context, guardian *domain.Guardian) error {
	if err := r.db.WithContext(ctx).Create(guardian).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("guardian already added")
		}
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// Delete removes an emergency contact by id
func (r *GuardianRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Guardian{}, id).Error; err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// ListByPatient returns all emergency contacts for a patient
func (r *GuardianRepository) ListByPatient(ctx context.Context, patientID uint) ([]domain.Guardian, error) {
	var guardians []domain.Guardian
	if err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Find(&guardians).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return guardians, nil
}
