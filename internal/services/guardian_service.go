package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
)

// GuardianService manages a patient's emergency contacts
type GuardianService struct {
	guardianRepo domain.GuardianRepository
	logger       *slog.Logger
}

// NewGuardianService creates the guardian service
func NewGuardianService(guardianRepo domain.GuardianRepository, logger *slog.Logger) *GuardianService {
	return &GuardianService{
		guardianRepo: guardianRepo,
		logger:       logger,
	}
}

// Add registers an emergency contact. Re-adding the same email for the same
// patient is a non-fatal conflict.
func (s *GuardianService) Add(ctx context.Context, patientID uint, name, email string) (*domain.Guardian, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("guardian email is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("guardian name is required")
	}

	guardian := &domain.Guardian{
		PatientID: patientID,
		Name:      name,
		Email:     email,
	}
	if err := s.guardianRepo.Insert(ctx, guardian); err != nil {
		return nil, err
	}

	s.logger.Info("Guardian added", "patient_id", patientID)
	return guardian, nil
}

// Remove deletes an emergency contact
func (s *GuardianService) Remove(ctx context.Context, id uint) error {
	return s.guardianRepo.Delete(ctx, id)
}

// List returns a patient's emergency contacts
func (s *GuardianService) List(ctx context.Context, patientID uint) ([]domain.Guardian, error) {
	return s.guardianRepo.ListByPatient(ctx, patientID)
}
