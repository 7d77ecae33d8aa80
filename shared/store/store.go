// Package store is the relational entity store. Organisation and user rows
// are reached through *Store; everything owned by an organisation is reached
// only through the tenant-scoped *Tenant returned by (*Store).Tenant.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/pavitra93/go-hr-management-system/shared/models"
)

var (
	// ErrNotFound is returned for rows that do not exist or belong to
	// another organisation; callers cannot tell the two apart.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a uniqueness constraint rejects a write
	ErrConflict = errors.New("record already exists")
	// ErrEmployeesNotInOrganisation rejects a whole membership batch when
	// any requested employee is missing from the caller's organisation.
	ErrEmployeesNotInOrganisation = errors.New("some employees not found in organisation")
)

// Store wraps the shared connection pool
type Store struct {
	db *gorm.DB
}

// New returns a Store over db
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the handle, which is the open transaction inside Transaction
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to one database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Migrate creates or updates the schema, including the cascade rules
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Organisation{},
		&models.User{},
		&models.Employee{},
		&models.Team{},
		&models.EmployeeTeam{},
		&models.Log{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Tenant returns the guard-scoped view of the store for one principal
func (s *Store) Tenant(p Principal) *Tenant {
	return &Tenant{db: s.db, principal: p}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// notFound maps gorm's miss to the package sentinel
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation recognises duplicate keys from the translated gorm
// error, a raw Postgres error or SQLite's constraint message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
