// Package audit records authentication outcomes and prunes old events.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/mrlokans/stockcast/internal/entities"
	"github.com/mrlokans/stockcast/internal/logging"
)

// writeTimeout bounds a single background audit write.
const writeTimeout = 5 * time.Second

// Repository persists audit events. Both the GORM repository and the
// PostgreSQL store satisfy it.
type Repository interface {
	LogEvent(ctx context.Context, event *entities.AuditEvent) error
	DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo   Repository
	logger logging.Logger
	wg     sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo Repository, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		repo:   repo,
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background. Failures are logged
// and never reach the caller.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := s.repo.LogEvent(ctx, event); err != nil {
			s.logger.Error(ctx, "failed to log audit event",
				"action", event.Action, "error", err)
		}
	}()
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID, action, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

// Wait blocks until all background writes have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
