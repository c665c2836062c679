package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalwatch/vitalwatch/internal/apperrors"
)

func TestGuardianAdd_NormalizesEmail(t *testing.T) {
	svc := NewGuardianService(&fakeGuardianRepo{}, testLogger())

	guardian, err := svc.Add(context.Background(), 1, "Ravi", "  Ravi@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", guardian.Email)
	assert.Equal(t, uint(1), guardian.PatientID)
}

func TestGuardianAdd_ValidatesInput(t *testing.T) {
	svc := NewGuardianService(&fakeGuardianRepo{}, testLogger())

	_, err := svc.Add(context.Background(), 1, "Ravi", "not-an-email")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.Add(context.Background(), 1, "   ", "ravi@example.com")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestGuardianAdd_DuplicateEmailIsConflict(t *testing.T) {
	svc := NewGuardianService(&fakeGuardianRepo{}, testLogger())

	_, err := svc.Add(context.Background(), 1, "Ravi", "ravi@example.com")
	require.NoError(t, err)

	// case differences collapse onto the same stored contact
	_, err = svc.Add(context.Background(), 1, "Ravi", "RAVI@example.com")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	// the same email on another patient is fine
	_, err = svc.Add(context.Background(), 2, "Ravi", "ravi@example.com")
	assert.NoError(t, err)
}

func TestGuardianRemove_ThenListIsEmpty(t *testing.T) {
	svc := NewGuardianService(&fakeGuardianRepo{}, testLogger())

	guardian, err := svc.Add(context.Background(), 1, "Ravi", "ravi@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Remove(context.Background(), guardian.ID))

	guardians, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, guardians)
}
