package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/stockcast/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSecret = []byte(strings.Repeat("k", MinSecretLength))

// memStore is an in-memory Store keyed like the real repositories.
type memStore struct {
	mu      sync.Mutex
	byID    map[string]*entities.User
	byEmail map[string]string
	failErr error
}

func newMemStore() *memStore {
	return &memStore{
		byID:    make(map[string]*entities.User),
		byEmail: make(map[string]string),
	}
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	id, ok := s.byEmail[entities.NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *s.byID[id]
	return &u, nil
}

func (s *memStore) FindByID(ctx context.Context, id string) (*entities.User, error) {
	u, err := s.FindCredentialsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *memStore) FindCredentialsByID(_ context.Context, id string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) Create(_ context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	if _, taken := s.byEmail[user.EmailKey]; taken {
		return ErrDuplicateIdentity
	}
	cp := *user
	s.byID[user.ID] = &cp
	s.byEmail[user.EmailKey] = user.ID
	return nil
}

func (s *memStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		delete(s.byEmail, u.EmailKey)
		delete(s.byID, id)
	}
}

// countingHasher wraps BcryptHasher and counts Verify calls.
type countingHasher struct {
	*BcryptHasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(password, hash string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.BcryptHasher.Verify(password, hash)
}

func (h *countingHasher) verifyCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

var errStoreDown = errors.New("database is down")

func newTestCodec(t *testing.T, opts ...TokenOption) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(testSecret, opts...)
	if err != nil {
		t.Fatalf("NewTokenCodec() error = %v", err)
	}
	return codec
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	// Low cost for faster tests
	svc := NewService(store, NewBcryptHasher(4), newTestCodec(t), nil)
	return svc, store
}

// fixedClock returns a clock function that reports the pointed-to time.
func fixedClock(now *time.Time) func() time.Time {
	return func() time.Time { return *now }
}
