package repository

import (
	"context"
	"errors"

	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
	"gorm.io/gorm"
)

// UserRepository handles user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate gets an existing user by email or registers a new one. The
// role is set once at creation and never changed afterwards.
func (r *UserRepository) GetOrCreate(ctx context.Context, email, name, role string) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error == nil {
		return &user, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewDatabaseError(result.Error)
	}

	user = domain.User{
		Email: email,
		Name:  name,
		Role:  role,
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflictError("user already registered")
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return &user, nil
}

// GetByID gets a user by primary key
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrorTypeDatabase, "USER_NOT_FOUND", "User not found")
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return &user, nil
}

// ListPatients returns all users registered with the Patient role
func (r *UserRepository) ListPatients(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.db.WithContext(ctx).
		Where("role = ?", domain.RolePatient).
		Find(&users).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return users, nil
}
