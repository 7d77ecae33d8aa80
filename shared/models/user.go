package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an organisation's login principal
type User struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrganisationID uuid.UUID `json:"organisation_id" gorm:"type:uuid;not null;index"`
	Name           string    `json:"name" gorm:"type:varchar(255);not null"`
	Email          string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash   string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Organisation *Organisation `json:"-" gorm:"foreignKey:OrganisationID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a primary key and normalises the login email
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

// UserSummary is the public part of a user
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserProfile is the user shape returned by register, login and /auth/me
type UserProfile struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Organisation OrganisationSummary `json:"organisation"`
}

// NormalizeEmail is applied to every login email before it is stored or
// compared: surrounding whitespace is dropped and the address lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
