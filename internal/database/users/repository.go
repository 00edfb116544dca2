// Package users provides database operations for user accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.FindByEmail(ctx, email)
package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/stockcast/internal/auth"
	"github.com/mrlokans/stockcast/internal/entities"
)

// publicColumns excludes password_hash.
var publicColumns = []string{"id", "name", "email", "email_key", "created_at", "updated_at"}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

var _ auth.Store = (*Repository)(nil)

// NewRepository creates a new users repository. db should be opened with
// TranslateError so duplicate emails surface as gorm.ErrDuplicatedKey.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByEmail looks a user up by case-insensitive email, including the password hash.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).
		Where("email_key = ?", entities.NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// FindByID retrieves a user by ID without the password hash.
func (r *Repository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).
		Select(publicColumns).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// FindCredentialsByID retrieves a user by ID including the password hash.
func (r *Repository) FindCredentialsByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// Create inserts a new user. The unique index on email_key rejects duplicates.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	if user.EmailKey == "" {
		user.EmailKey = entities.NormalizeEmail(user.Email)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})
	if err != nil {
		return mapError(err)
	}
	return nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return auth.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", auth.ErrDuplicateIdentity, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
