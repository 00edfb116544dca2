package auth

import (
	"context"

	"github.com/mrlokans/stockcast/internal/entities"
)

// Store persists user records. Implementations live under internal/database.
//
// Lookups are case-insensitive on email. Absent records return ErrUserNotFound,
// and Create returns ErrDuplicateIdentity when the email is already taken.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	// FindByID returns the user without PasswordHash.
	FindByID(ctx context.Context, id string) (*entities.User, error)
	// FindCredentialsByID returns the user including PasswordHash, for step-up checks.
	FindCredentialsByID(ctx context.Context, id string) (*entities.User, error)
	Create(ctx context.Context, user *entities.User) error
}

// AuditLogger records authentication outcomes. A nil AuditLogger disables auditing.
type AuditLogger interface {
	LogAuth(userID, action, ipAddr, userAgent string, success bool)
}
