package repository

import (
	"context"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
	"gorm.io/gorm"
)

// AssignmentRepository handles caretaker-to-patient assignments
type AssignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Insert creates an assignment. A duplicate (caretaker, patient) pair maps
// to a conflict error so the caller can show "already assigned".
func (r *AssignmentRepository) Insert(ctx context.Context, caretakerID, patientID uint) (*domain.Assignment, error) {
	assignment := &domain.Assignment{
		CaretakerID: caretakerID,
		PatientID:   patientID,
		AssignedAt:  time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflictError("patient already assigned")
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return assignment, nil
}

// Delete removes an assignment
func (r *AssignmentRepository) Delete(ctx context.Context, caretakerID, patientID uint) error {
	if err := r.db.WithContext(ctx).
		Where("caretaker_id = ? AND patient_id = ?", caretakerID, patientID).
		Delete(&domain.Assignment{}).Error; err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// ListByCaretaker returns all assignments held by a caretaker
func (r *AssignmentRepository) ListByCaretaker(ctx context.Context, caretakerID uint) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	if err := r.db.WithContext(ctx).
		Where("caretaker_id = ?", caretakerID).
		Order("assigned_at DESC").
		Find(&assignments).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return assignments, nil
}

// ListCaretakersFor returns the ids of caretakers assigned to a patient
func (r *AssignmentRepository) ListCaretakersFor(ctx context.Context, patientID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&domain.Assignment{}).
		Where("patient_id = ?", patientID).
		Pluck("caretaker_id", &ids).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return ids, nil
}
