package audit

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/stockcast/internal/database/audit"
	"github.com/mrlokans/stockcast/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	repo := auditRepo.NewRepository(db)
	svc := NewService(repo, nil)

	return svc, db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		UserID:    "user-1",
		EventType: entities.AuditEventAuth,
		Action:    "register",
		Status:    entities.AuditStatusSuccess,
	}

	err := svc.Log(context.Background(), event)
	require.NoError(t, err)

	var saved entities.AuditEvent
	err = db.First(&saved, event.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "register", saved.Action)
	assert.Equal(t, "user-1", saved.UserID)
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful login", func(t *testing.T) {
		svc.LogAuth("user-1", "login", "192.0.2.1", "Mozilla/5.0", true)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("action = ? AND user_id = ?", "login", "user-1").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditEventAuth, event.EventType)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "192.0.2.1", event.IPAddress)
		assert.Equal(t, "Mozilla/5.0", event.UserAgent)
	})

	t.Run("failed anonymous login", func(t *testing.T) {
		svc.LogAuth("", "login", "192.0.2.2", "curl", false)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("ip_address = ?", "192.0.2.2").First(&event).Error
		require.NoError(t, err)
		assert.Empty(t, event.UserID)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
	})

	t.Run("long user agent is truncated", func(t *testing.T) {
		svc.LogAuth("user-3", "logout", "192.0.2.3", strings.Repeat("a", 800), true)
		svc.Wait()

		var event entities.AuditEvent
		err := db.Where("user_id = ?", "user-3").First(&event).Error
		require.NoError(t, err)
		assert.Len(t, event.UserAgent, 500)
		assert.True(t, strings.HasSuffix(event.UserAgent, "..."))
	})
}

type failingRepo struct {
	err error
}

func (r failingRepo) LogEvent(context.Context, *entities.AuditEvent) error {
	return r.err
}

func (r failingRepo) DeleteOldEvents(context.Context, time.Time) (int64, error) {
	return 0, r.err
}

func TestService_LogAsync_SwallowsErrors(t *testing.T) {
	svc := NewService(failingRepo{err: errors.New("disk full")}, nil)

	assert.NotPanics(t, func() {
		svc.LogAuth("user-1", "login", "", "", true)
		svc.Wait()
	})
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	oldEvent := &entities.AuditEvent{
		EventType: entities.AuditEventAuth,
		Action:    "login",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(oldEvent).Error)

	newEvent := &entities.AuditEvent{
		EventType: entities.AuditEventAuth,
		Action:    "login",
		Status:    entities.AuditStatusSuccess,
	}
	require.NoError(t, svc.Log(ctx, newEvent))

	deleted, err := svc.DeleteOldEvents(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var count int64
	db.Model(&entities.AuditEvent{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestService_DeleteOldEvents_Error(t *testing.T) {
	svc := NewService(failingRepo{err: errors.New("db down")}, nil)

	_, err := svc.DeleteOldEvents(context.Background(), time.Hour)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"", 10, ""},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		assert.Equal(t, tt.expected, result)
	}
}
