package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/stockcast/internal/audit"
	"github.com/mrlokans/stockcast/internal/auth"
	"github.com/mrlokans/stockcast/internal/database"
	auditRepo "github.com/mrlokans/stockcast/internal/database/audit"
	"github.com/mrlokans/stockcast/internal/database/postgres"
	"github.com/mrlokans/stockcast/internal/database/users"
	"github.com/mrlokans/stockcast/internal/http"
	"github.com/mrlokans/stockcast/internal/scheduler"
	"github.com/mrlokans/stockcast/internal/tasks"
)

// =============================================================================
// Credential Store
// =============================================================================

var _ auth.Store = (*users.Repository)(nil)
var _ auth.Store = (*postgres.Store)(nil)

// =============================================================================
// Credential Hasher
// =============================================================================

var _ auth.Hasher = (*auth.BcryptHasher)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ audit.Repository = (*auditRepo.Repository)(nil)
var _ audit.Repository = (*postgres.Store)(nil)
var _ auth.AuditLogger = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ scheduler.CleanupEnqueuer = (*tasks.Client)(nil)
var _ scheduler.CleanupEnqueuer = scheduler.InlineCleanup{}

// =============================================================================
// Health Checks
// =============================================================================

var _ http.Pinger = (*database.Database)(nil)
var _ http.Pinger = (*postgres.Store)(nil)
