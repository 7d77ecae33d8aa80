package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organisation is the root tenant. Every user, employee, team and log row
// hangs off one organisation and is removed with it.
type Organisation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the Organisation model
func (Organisation) TableName() string {
	return "organisations"
}

// BeforeCreate assigns a primary key when the caller did not
func (o *Organisation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrganisationSummary is the organisation shape embedded in auth responses
type OrganisationSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Summary returns the public id/name pair
func (o *Organisation) Summary() OrganisationSummary {
	return OrganisationSummary{ID: o.ID, Name: o.Name}
}

// OrganisationView is an organisation together with its users
type OrganisationView struct {
	Organisation
	Users []UserSummary `json:"users"`
}
