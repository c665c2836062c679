package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
)

func newAssignmentService(assignmentRepo *fakeAssignmentRepo, guardianRepo *fakeGuardianRepo, userRepo *fakeUserRepo) *AssignmentService {
	return NewAssignmentService(assignmentRepo, guardianRepo, userRepo, testLogger())
}

func TestAssign_LinksCaretakerToPatient(t *testing.T) {
	userRepo := newFakeUserRepo(
		domain.User{Name: "Nadia", Role: domain.RoleCaretaker},
		domain.User{Name: "Asha", Role: domain.RolePatient},
	)
	svc := newAssignmentService(newFakeAssignmentRepo(), &fakeGuardianRepo{}, userRepo)

	assignment, err := svc.Assign(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(1), assignment.CaretakerID)
	assert.Equal(t, uint(2), assignment.PatientID)

	recipients, err := svc.RecipientsFor(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, recipients)
}

func TestAssign_DuplicatePairIsNonFatalConflict(t *testing.T) {
	userRepo := newFakeUserRepo(domain.User{Name: "Nadia", Role: domain.RoleCaretaker})
	svc := newAssignmentService(newFakeAssignmentRepo(), &fakeGuardianRepo{}, userRepo)

	_, err := svc.Assign(context.Background(), 1, 2)
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	// the original assignment is untouched
	recipients, err := svc.RecipientsFor(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, recipients)
}

func TestAssign_RejectsNonCaretaker(t *testing.T) {
	userRepo := newFakeUserRepo(domain.User{Name: "Asha", Role: domain.RolePatient})
	svc := newAssignmentService(newFakeAssignmentRepo(), &fakeGuardianRepo{}, userRepo)

	_, err := svc.Assign(context.Background(), 1, 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestAssign_UnknownCaretakerFails(t *testing.T) {
	svc := newAssignmentService(newFakeAssignmentRepo(), &fakeGuardianRepo{}, newFakeUserRepo())

	_, err := svc.Assign(context.Background(), 42, 2)
	assert.Error(t, err)
}

func TestUnassign_RemovesRelation(t *testing.T) {
	userRepo := newFakeUserRepo(domain.User{Name: "Nadia", Role: domain.RoleCaretaker})
	svc := newAssignmentService(newFakeAssignmentRepo(), &fakeGuardianRepo{}, userRepo)

	_, err := svc.Assign(context.Background(), 1, 2)
	require.NoError(t, err)
	require.NoError(t, svc.Unassign(context.Background(), 1, 2))

	recipients, err := svc.RecipientsFor(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, recipients)

	// the pair can be re-assigned after removal
	_, err = svc.Assign(context.Background(), 1, 2)
	assert.NoError(t, err)
}

func TestAssignedPatients_ListsOnlyOwnAssignments(t *testing.T) {
	userRepo := newFakeUserRepo(
		domain.User{Name: "Nadia", Role: domain.RoleCaretaker},
		domain.User{Name: "Omar", Role: domain.RoleCaretaker},
	)
	svc := newAssignmentService(newFakeAssignmentRepo(), &fakeGuardianRepo{}, userRepo)

	_, err := svc.Assign(context.Background(), 1, 10)
	require.NoError(t, err)
	_, err = svc.Assign(context.Background(), 1, 11)
	require.NoError(t, err)
	_, err = svc.Assign(context.Background(), 2, 12)
	require.NoError(t, err)

	mine, err := svc.AssignedPatients(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, uint(10), mine[0].PatientID)
	assert.Equal(t, uint(11), mine[1].PatientID)
}

func TestGuardiansFor_ReturnsEmergencyContacts(t *testing.T) {
	guardianRepo := &fakeGuardianRepo{}
	require.NoError(t, guardianRepo.Insert(context.Background(),
		&domain.Guardian{PatientID: 2, Name: "Ravi", Email: "ravi@example.com"}))
	svc := newAssignmentService(newFakeAssignmentRepo(), guardianRepo, newFakeUserRepo())

	guardians, err := svc.GuardiansFor(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, guardians, 1)
	assert.Equal(t, "ravi@example.com", guardians[0].Email)
}
