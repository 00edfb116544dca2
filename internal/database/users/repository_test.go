package users

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/stockcast/internal/auth"
	"github.com/mrlokans/stockcast/internal/database"
	"github.com/mrlokans/stockcast/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "users.db")

	db, err := gorm.Open(sqlite.Open(database.DSN(dbPath)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	return NewRepository(db)
}

func countUsers(t *testing.T, repo *Repository) int64 {
	t.Helper()
	var count int64
	require.NoError(t, repo.db.Model(&entities.User{}).Count(&count).Error)
	return count
}

func newUser(name, email string) *entities.User {
	return &entities.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		EmailKey:     entities.NormalizeEmail(email),
		PasswordHash: "$2a$04$hash",
	}
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	user := newUser("Ann", "Ann@X.com")
	require.NoError(t, repo.Create(ctx, user))
	assert.False(t, user.CreatedAt.IsZero())

	assert.Equal(t, int64(1), countUsers(t, repo))
}

func TestRepository_Create_FillsEmailKey(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	user := newUser("Ann", "Ann@X.com")
	user.EmailKey = ""
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, "ann@x.com", user.EmailKey)
}

func TestRepository_Create_Duplicate(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("Ann", "ann@x.com")))

	err := repo.Create(ctx, newUser("Other Ann", "ANN@x.com"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrDuplicateIdentity), "got %v", err)

	assert.Equal(t, int64(1), countUsers(t, repo))
}

func TestRepository_Create_ConcurrentDuplicates(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	const attempts = 5
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, newUser("Ann", "ann@x.com"))
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	assert.Equal(t, int64(1), countUsers(t, repo))
}

func TestRepository_FindByEmail(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	created := newUser("Ann", "ann@x.com")
	require.NoError(t, repo.Create(ctx, created))

	for _, email := range []string{"ann@x.com", "ANN@X.COM", "Ann@x.com"} {
		user, err := repo.FindByEmail(ctx, email)
		require.NoError(t, err, email)
		assert.Equal(t, created.ID, user.ID)
		assert.Equal(t, "ann@x.com", user.Email)
		assert.Equal(t, created.PasswordHash, user.PasswordHash)
	}
}

func TestRepository_FindByEmail_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.FindByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestRepository_FindByID_OmitsPasswordHash(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	created := newUser("Ann", "ann@x.com")
	require.NoError(t, repo.Create(ctx, created))

	user, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "ann@x.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	withHash, err := repo.FindCredentialsByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.PasswordHash, withHash.PasswordHash)
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = repo.FindCredentialsByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestRepository_CanceledContext(t *testing.T) {
	repo := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FindByEmail(ctx, "ann@x.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrUserNotFound)
}
