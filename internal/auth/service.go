package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/stockcast/internal/entities"
	"github.com/mrlokans/stockcast/internal/logging"
)

// Field limits
const (
	MaxEmailLength = 254 // RFC 5321
	MaxNameLength  = 100
)

// Profile is the public view of a user. It never carries the password hash.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func profileOf(u *entities.User) *Profile {
	return &Profile{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Session is the result of a successful register or login.
type Session struct {
	Profile   Profile
	Token     string
	ExpiresAt time.Time
}

// RegisterInput holds the fields accepted at registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Service implements registration, login, session checks and step-up
// verification on top of a Store, a Hasher and a TokenCodec.
type Service struct {
	store  Store
	hasher Hasher
	codec  *TokenCodec
	logger logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new authentication service.
func NewService(store Store, hasher Hasher, codec *TokenCodec, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		store:  store,
		hasher: hasher,
		codec:  codec,
		logger: logger.With("component", "auth"),
	}
}

// Register creates an account and opens a session for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	switch {
	case in.Email == "":
		return nil, newError(KindValidation, msgMissingFields, ErrEmailRequired)
	case in.Password == "":
		return nil, newError(KindValidation, msgMissingFields, ErrPasswordRequired)
	case len(in.Email) > MaxEmailLength:
		return nil, newError(KindValidation, ErrEmailTooLong.Error(), ErrEmailTooLong)
	case len(in.Name) > MaxNameLength:
		return nil, newError(KindValidation, ErrNameTooLong.Error(), ErrNameTooLong)
	case len(in.Password) > MaxPasswordLength:
		return nil, newError(KindValidation, ErrPasswordTooLong.Error(), ErrPasswordTooLong)
	}

	_, err := s.store.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, newError(KindConflict, msgUserExists, ErrDuplicateIdentity)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, s.internal(ctx, "failed to check existing user", err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal(ctx, "failed to hash password", err)
	}

	user := &entities.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		EmailKey:     entities.NormalizeEmail(in.Email),
		PasswordHash: passwordHash,
	}

	if err := s.store.Create(ctx, user); err != nil {
		// Lost a race against a concurrent registration of the same email.
		if errors.Is(err, ErrDuplicateIdentity) {
			return nil, newError(KindConflict, msgUserExists, err)
		}
		return nil, s.internal(ctx, "failed to create user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.issue(ctx, user)
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, newError(KindInvalidCredentials, msgInvalidCredentials, nil)
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.equalizeTiming(password)
			s.logger.Debug(ctx, "login rejected", "reason", "unknown email")
			return nil, newError(KindInvalidCredentials, msgInvalidCredentials, nil)
		}
		return nil, s.internal(ctx, "failed to find user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, "failed to verify password", err)
	}
	if !ok {
		s.logger.Debug(ctx, "login rejected", "reason", "password mismatch", "user_id", user.ID)
		return nil, newError(KindInvalidCredentials, msgInvalidCredentials, nil)
	}

	return s.issue(ctx, user)
}

// CheckSession resolves a token to the current profile. Any failure,
// including an absent token, yields nil rather than an error.
func (s *Service) CheckSession(ctx context.Context, token string) *Profile {
	profile, err := s.Authorize(ctx, token)
	if err != nil {
		return nil
	}
	return profile
}

// Authorize is the guard for protected operations. A missing, invalid or
// expired token and a vanished subject are all KindUnauthorized; the cause
// is kept for diagnostics only.
func (s *Service) Authorize(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, Unauthorized()
	}

	st, err := s.codec.Decode(token)
	if err != nil {
		s.logger.Debug(ctx, "session rejected", "reason", err.Error())
		return nil, newError(KindUnauthorized, msgNotAuthorized, err)
	}

	user, err := s.store.FindByID(ctx, st.SubjectID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Debug(ctx, "session rejected", "reason", "subject not found", "user_id", st.SubjectID)
			return nil, newError(KindUnauthorized, msgNotAuthorized, err)
		}
		return nil, s.internal(ctx, "failed to load session user", err)
	}

	return profileOf(user), nil
}

// VerifyPassword re-checks the password of an authenticated user before a
// sensitive action. It changes no state; a mismatch is (false, nil).
func (s *Service) VerifyPassword(ctx context.Context, userID, password string) (bool, error) {
	if password == "" {
		return false, newError(KindValidation, msgPasswordRequired, ErrPasswordRequired)
	}

	user, err := s.store.FindCredentialsByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, newError(KindNotFound, msgUserNotFound, err)
		}
		return false, s.internal(ctx, "failed to load user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return false, s.internal(ctx, "failed to verify password", err)
	}
	return ok, nil
}

func (s *Service) issue(ctx context.Context, user *entities.User) (*Session, error) {
	token, st, err := s.codec.Encode(user.ID)
	if err != nil {
		return nil, s.internal(ctx, "failed to issue token", err)
	}
	return &Session{
		Profile:   *profileOf(user),
		Token:     token,
		ExpiresAt: st.ExpiresAt,
	}, nil
}

// equalizeTiming runs one hash comparison for unknown accounts so that
// response time does not reveal whether the email is registered.
func (s *Service) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		secret, err := GenerateSecret()
		if err != nil {
			return
		}
		s.dummyHash, _ = s.hasher.Hash(secret[:MaxPasswordLength/2])
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

func (s *Service) internal(ctx context.Context, msg string, err error) *Error {
	s.logger.Error(ctx, msg, "error", err)
	return newError(KindInternal, msgInternal, err)
}
