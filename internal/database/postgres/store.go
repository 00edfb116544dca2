// Package postgres implements the user store and audit persistence on
// PostgreSQL through database/sql and the pgx driver. The schema is managed
// by goose with migrations embedded in the binary.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mrlokans/stockcast/internal/auth"
	"github.com/mrlokans/stockcast/internal/database/postgres/migrations"
	"github.com/mrlokans/stockcast/internal/entities"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store is a PostgreSQL-backed auth.Store that also persists audit events.
type Store struct {
	db *sql.DB
}

var _ auth.Store = (*Store)(nil)

// New wraps an open connection pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn with the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return New(db), nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks that the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	query :=
		`SELECT id, name, email, email_key, password_hash, created_at, updated_at FROM users
		 WHERE email_key = $1
		 `

	user := &entities.User{}
	err := s.db.QueryRowContext(ctx, query, entities.NormalizeEmail(email)).Scan(
		&user.ID, &user.Name, &user.Email, &user.EmailKey, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*entities.User, error) {
	query :=
		`SELECT id, name, email, email_key, created_at, updated_at FROM users
		 WHERE id = $1
		 `

	user := &entities.User{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.EmailKey, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (s *Store) FindCredentialsByID(ctx context.Context, id string) (*entities.User, error) {
	query :=
		`SELECT id, name, email, email_key, password_hash, created_at, updated_at FROM users
		 WHERE id = $1
		 `

	user := &entities.User{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.EmailKey, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (s *Store) Create(ctx context.Context, user *entities.User) error {
	if user.EmailKey == "" {
		user.EmailKey = entities.NormalizeEmail(user.Email)
	}

	query :=
		`INSERT INTO users (id, name, email, email_key, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	err := s.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.EmailKey, user.PasswordHash).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// LogEvent saves an audit event.
func (s *Store) LogEvent(ctx context.Context, event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query :=
		`INSERT INTO audit_events (user_id, event_type, action, ip_address, user_agent, status, error_msg, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id
		 `

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		event.UserID, string(event.EventType), event.Action, event.IPAddress, event.UserAgent,
		string(event.Status), event.ErrorMsg, event.CreatedAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	event.ID = uint(id)
	return nil
}

// DeleteOldEvents removes audit events older than olderThan and returns the count.
func (s *Store) DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return auth.ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %w", auth.ErrDuplicateIdentity, err)
	}
	return fmt.Errorf("db error: %w", err)
}
