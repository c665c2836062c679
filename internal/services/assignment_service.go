package services

import (
	"context"
	"log/slog"

	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
)

// AssignmentService resolves who gets told about a patient: assigned
// caretakers for automatic alerts, guardians for manual broadcasts. It is
// also the write path for the assignment relation itself.
type AssignmentService struct {
	assignmentRepo domain.AssignmentRepository
	guardianRepo   domain.GuardianRepository
	userRepo       domain.UserRepository
	logger         *slog.Logger
}

// NewAssignmentService creates the assignment router
func NewAssignmentService(
	assignmentRepo domain.AssignmentRepository,
	guardianRepo domain.GuardianRepository,
	userRepo domain.UserRepository,
	logger *slog.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		guardianRepo:   guardianRepo,
		userRepo:       userRepo,
		logger:         logger,
	}
}

// Assign links a caretaker to a patient. Assigning the same pair twice is a
// non-fatal conflict ("already assigned"), not a crash.
func (s *AssignmentService) Assign(ctx context.Context, caretakerID, patientID uint) (*domain.Assignment, error) {
	caretaker, err := s.userRepo.GetByID(ctx, caretakerID)
	if err != nil {
		return nil, err
	}
	if caretaker.Role != domain.RoleCaretaker {
		return nil, apperrors.NewValidationError("only caretakers can be assigned to patients")
	}

	assignment, err := s.assignmentRepo.Insert(ctx, caretakerID, patientID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Caretaker assigned",
		"caretaker_id", caretakerID, "patient_id", patientID)
	return assignment, nil
}

// Unassign removes the monitoring relationship
func (s *AssignmentService) Unassign(ctx context.Context, caretakerID, patientID uint) error {
	return s.assignmentRepo.Delete(ctx, caretakerID, patientID)
}

// AssignedPatients returns the assignments held by a caretaker
func (s *AssignmentService) AssignedPatients(ctx context.Context, caretakerID uint) ([]domain.Assignment, error) {
	return s.assignmentRepo.ListByCaretaker(ctx, caretakerID)
}

// RecipientsFor returns the ids of caretakers with an active assignment to
// the patient
func (s *AssignmentService) RecipientsFor(ctx context.Context, patientID uint) ([]uint, error) {
	return s.assignmentRepo.ListCaretakersFor(ctx, patientID)
}

// GuardiansFor returns the patient's emergency contacts, used only for
// manual distress broadcasts
func (s *AssignmentService) GuardiansFor(ctx context.Context, patientID uint) ([]domain.Guardian, error) {
	return s.guardianRepo.ListByPatient(ctx, patientID)
}
