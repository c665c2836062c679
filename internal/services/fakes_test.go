package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
	"github.com/vitalwatch/vitalwatch/internal/location"
	"github.com/vitalwatch/vitalwatch/internal/notifier"
	"github.com/vitalwatch/vitalwatch/internal/realtime"
)

func testLogger() *slog.Logger {
	return slog.Default()
}

type fakeReadingRepo struct {
	readings  []domain.Reading
	insertErr error
	nextID    uint
}

func (f *fakeReadingRepo) Insert(ctx context.Context, reading *domain.Reading) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	reading.ID = f.nextID
	f.readings = append(f.readings, *reading)
	return nil
}

func (f *fakeReadingRepo) Recent(ctx context.Context, patientID uint, limit int) ([]domain.Reading, error) {
	var out []domain.Reading
	for i := len(f.readings) - 1; i >= 0 && len(out) < limit; i-- {
		if f.readings[i].PatientID == patientID {
			out = append(out, f.readings[i])
		}
	}
	return out, nil
}

type fakeAlertRepo struct {
	alerts    []domain.Alert
	insertErr error
}

func (f *fakeAlertRepo) Insert(ctx context.Context, alert *domain.Alert) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	alert.ID = uint(len(f.alerts) + 1)
	f.alerts = append(f.alerts, *alert)
	return nil
}

func (f *fakeAlertRepo) ListByPatient(ctx context.Context, patientID uint, limit int) ([]domain.Alert, error) {
	var out []domain.Alert
	for i := len(f.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		if f.alerts[i].PatientID == patientID {
			out = append(out, f.alerts[i])
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) ListUnread(ctx context.Context, patientID uint) ([]domain.Alert, error) {
	var out []domain.Alert
	for _, a := range f.alerts {
		if a.PatientID == patientID && !a.IsRead {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) MarkAllRead(ctx context.Context, patientID uint) error {
	for i := range f.alerts {
		if f.alerts[i].PatientID == patientID {
			f.alerts[i].IsRead = true
		}
	}
	return nil
}

type pair struct {
	caretakerID uint
	patientID   uint
}

type fakeAssignmentRepo struct {
	pairs map[pair]domain.Assignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{pairs: make(map[pair]domain.Assignment)}
}

func (f *fakeAssignmentRepo) Insert(ctx context.Context, caretakerID, patientID uint) (*domain.Assignment, error) {
	key := pair{caretakerID, patientID}
	if _, exists := f.pairs[key]; exists {
		return nil, apperrors.NewConflictError("patient already assigned")
	}
	assignment := domain.Assignment{CaretakerID: caretakerID, PatientID: patientID}
	assignment.ID = uint(len(f.pairs) + 1)
	f.pairs[key] = assignment
	return &assignment, nil
}

func (f *fakeAssignmentRepo) Delete(ctx context.Context, caretakerID, patientID uint) error {
	delete(f.pairs, pair{caretakerID, patientID})
	return nil
}

func (f *fakeAssignmentRepo) ListByCaretaker(ctx context.Context, caretakerID uint) ([]domain.Assignment, error) {
	var out []domain.Assignment
	for key, a := range f.pairs {
		if key.caretakerID == caretakerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAssignmentRepo) ListCaretakersFor(ctx context.Context, patientID uint) ([]uint, error) {
	var out []uint
	for key := range f.pairs {
		if key.patientID == patientID {
			out = append(out, key.caretakerID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

type fakeGuardianRepo struct {
	guardians []domain.Guardian
	listErr   error
}

func (f *fakeGuardianRepo) Insert(ctx context.Context, guardian *domain.Guardian) error {
	for _, g := range f.guardians {
		if g.PatientID == guardian.PatientID && g.Email == guardian.Email {
			return apperrors.NewConflictError("guardian already added")
		}
	}
	guardian.ID = uint(len(f.guardians) + 1)
	f.guardians = append(f.guardians, *guardian)
	return nil
}

func (f *fakeGuardianRepo) Delete(ctx context.Context, id uint) error {
	for i, g := range f.guardians {
		if g.ID == id {
			f.guardians = append(f.guardians[:i], f.guardians[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeGuardianRepo) ListByPatient(ctx context.Context, patientID uint) ([]domain.Guardian, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Guardian
	for _, g := range f.guardians {
		if g.PatientID == patientID {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[uint]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uint]domain.User)}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = uint(len(f.users) + 1)
		}
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetOrCreate(ctx context.Context, email, name, role string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	user := domain.User{Email: email, Name: name, Role: role}
	user.ID = uint(len(f.users) + 1)
	f.users[user.ID] = user
	return &user, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrorTypeDatabase, "USER_NOT_FOUND", "User not found")
	}
	return &u, nil
}

func (f *fakeUserRepo) ListPatients(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.Role == domain.RolePatient {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeDispatcher struct {
	sends   int
	lastTo  []string
	lastSub string
	result  *notifier.DispatchResult
	err     error
}

func (f *fakeDispatcher) Send(ctx context.Context, to []string, subject, body string) (*notifier.DispatchResult, error) {
	f.sends++
	f.lastTo = to
	f.lastSub = subject
	if f.result != nil {
		return f.result, f.err
	}
	return &notifier.DispatchResult{Success: true, Provider: "resend"}, f.err
}

type fakeResolver struct {
	point *location.Point
	err   error
}

func (f *fakeResolver) Current(ctx context.Context, patientID uint) (*location.Point, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.point, nil
}

type fakePublisher struct {
	events []realtime.Event
}

func (f *fakePublisher) Publish(ctx context.Context, event realtime.Event) error {
	f.events = append(f.events, event)
	return nil
}
