package entrypoint

import (
	"context"
	"fmt"
	"log"

	"github.com/mrlokans/stockcast/internal/audit"
	"github.com/mrlokans/stockcast/internal/auth"
	"github.com/mrlokans/stockcast/internal/config"
	"github.com/mrlokans/stockcast/internal/database"
	auditRepo "github.com/mrlokans/stockcast/internal/database/audit"
	"github.com/mrlokans/stockcast/internal/database/postgres"
	"github.com/mrlokans/stockcast/internal/database/users"
	http_controllers "github.com/mrlokans/stockcast/internal/http"
)

// Storage bundles the persistence backends selected by configuration.
type Storage struct {
	Users  auth.Store
	Audit  audit.Repository
	Pinger http_controllers.Pinger
	Close  func() error
}

// OpenStorage connects to the configured database driver and brings its
// schema up to date.
func OpenStorage(ctx context.Context, cfg config.Database) (*Storage, error) {
	switch cfg.Driver {
	case config.DatabaseDriverSQLite, "":
		db, err := database.NewDatabase(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Users:  users.NewRepository(db.DB),
			Audit:  auditRepo.NewRepository(db.DB),
			Pinger: db,
			Close:  db.Close,
		}, nil

	case config.DatabaseDriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the %s driver", cfg.Driver)
		}
		store, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Printf("PostgreSQL database initialized successfully")
		return &Storage{
			Users:  store,
			Audit:  store,
			Pinger: store,
			Close:  store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate applies the schema for the configured driver and exits.
func Migrate(cfg *config.Config) error {
	storage, err := OpenStorage(context.Background(), cfg.Database)
	if err != nil {
		return err
	}
	return storage.Close()
}
