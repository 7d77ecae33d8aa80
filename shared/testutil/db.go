// Package testutil opens throwaway databases and seeds tenants for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pavitra93/go-hr-management-system/shared/models"
	"github.com/pavitra93/go-hr-management-system/shared/store"
)

// Password is the plain-text password of every seeded user
const Password = "secret123"

// NewDB opens a private in-memory SQLite database with foreign keys enforced
// and the full schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Tenant is a seeded organisation and its admin user
type Tenant struct {
	Organisation *models.Organisation
	User         *models.User
}

// Principal returns the store principal for the seeded admin
func (tn Tenant) Principal() store.Principal {
	return store.Principal{UserID: tn.User.ID, OrganisationID: tn.Organisation.ID}
}

// SeedTenant creates an organisation with one user whose password is Password
func SeedTenant(t *testing.T, db *gorm.DB, orgName, email string) Tenant {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	s := store.New(db)
	ctx := context.Background()
	org := &models.Organisation{Name: orgName}
	if err := s.CreateOrganisation(ctx, org); err != nil {
		t.Fatalf("seed organisation: %v", err)
	}
	user := &models.User{OrganisationID: org.ID, Name: orgName + " Admin", Email: email, PasswordHash: string(hash)}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return Tenant{Organisation: org, User: user}
}

// SeedEmployee creates an employee in the tenant
func SeedEmployee(t *testing.T, db *gorm.DB, tn Tenant, first, last string) *models.Employee {
	t.Helper()
	e := &models.Employee{FirstName: first, LastName: last}
	if err := store.New(db).Tenant(tn.Principal()).CreateEmployee(context.Background(), e); err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return e
}

// SeedTeam creates a team in the tenant
func SeedTeam(t *testing.T, db *gorm.DB, tn Tenant, name string) *models.Team {
	t.Helper()
	team := &models.Team{Name: name}
	if err := store.New(db).Tenant(tn.Principal()).CreateTeam(context.Background(), team); err != nil {
		t.Fatalf("seed team: %v", err)
	}
	return team
}

// CountRows counts rows of model matching the condition
func CountRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
