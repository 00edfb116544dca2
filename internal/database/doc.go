// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # SQLite connection setup and migrations (gorm)
//	├── users/           # auth.Store on gorm
//	├── audit/           # Audit event persistence on gorm
//	└── postgres/        # auth.Store and audit persistence on PostgreSQL (pgx + goose)
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./stockcast.db")
//
//	usersRepo := users.NewRepository(db.DB)
//	auditRepo := audit.NewRepository(db.DB)
//
//	user, err := usersRepo.FindByEmail(ctx, "ann@x.com")
//
// The PostgreSQL backend is a single Store implementing both interfaces:
//
//	store, err := postgres.Open(ctx, dsn)
//	err = store.Migrate(ctx)
//
// # Interface Implementations
//
//   - users.Repository: implements auth.Store
//   - audit.Repository: implements audit.Repository (service package)
//   - postgres.Store: implements auth.Store and audit.Repository
package database
