package domain

import (
	"context"
)

// ReadingRepository persists sensor readings
type ReadingRepository interface {
	Insert(ctx context.Context, reading *Reading) error
	Recent(ctx context.Context, patientID uint, limit int) ([]Reading, error)
}

// AlertRepository persists alerts
type AlertRepository interface {
	Insert(ctx context.Context, alert *Alert) error
	ListByPatient(ctx context.Context, patientID uint, limit int) ([]Alert, error)
	ListUnread(ctx context.Context, patientID uint) ([]Alert, error)
	MarkAllRead(ctx context.Context, patientID uint) error
}

// AssignmentRepository persists caretaker-to-patient assignments
type AssignmentRepository interface {
	Insert(ctx context.Context, caretakerID, patientID uint) (*Assignment, error)
	Delete(ctx context.Context, caretakerID, patientID uint) error
	ListByCaretaker(ctx context.Context, caretakerID uint) ([]Assignment, error)
	ListCaretakersFor(ctx context.Context, patientID uint) ([]uint, error)
}

// GuardianRepository persists emergency contacts
type GuardianRepository interface {
	Insert(ctx context.Context, guardian *Guardian) error
	Delete(ctx context.Context, id uint) error
	ListByPatient(ctx context.Context, patientID uint) ([]Guardian, error)
}

// UserRepository persists users
type UserRepository interface {
	GetOrCreate(ctx context.Context, email, name, role string) (*User, error)
	GetByID(ctx context.Context, id uint) (*User, error)
	ListPatients(ctx context.Context) ([]User, error)
}
