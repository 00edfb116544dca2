// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - auth.Store: credential lookups and inserts (internal/auth/store.go)
//   - audit.Repository: audit event persistence (internal/audit/service.go)
//   - http.Pinger: database liveness for /health (internal/http/health.go)
//
// Each has a GORM/SQLite implementation under internal/database/ and a
// PostgreSQL implementation in internal/database/postgres.
//
// ## Security Interfaces
//
//   - auth.Hasher: one-way password hashing (internal/auth/password.go)
//   - auth.AuditLogger: authentication outcome sink (internal/auth/store.go)
//
// ## Background Work Interfaces
//
//   - tasks.AuditEventCleaner: retention pruning (internal/tasks/cleanup_audit.go)
//   - scheduler.CleanupEnqueuer: hands a cleanup to the task queue or runs it
//     inline (internal/scheduler/audit_cleanup.go)
//
// # Adding a New Credential Store
//
// To back accounts with another database:
//
//  1. Create a sub-package under internal/database/ implementing auth.Store.
//     FindByEmail matches on entities.NormalizeEmail(email); FindByID must not
//     load the password hash; Create must map a unique-key violation to
//     auth.ErrDuplicateIdentity and a missing row to auth.ErrUserNotFound.
//
//  2. Add compile-time checks to checks.go:
//
//     var _ auth.Store = (*mystore.Store)(nil)
//
//  3. Add a driver case to entrypoint.OpenStorage.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
