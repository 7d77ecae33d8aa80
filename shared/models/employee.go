package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is a managed person record, not a login principal
type Employee struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrganisationID uuid.UUID `json:"organisation_id" gorm:"type:uuid;not null;index"`
	FirstName      string    `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName       string    `json:"last_name" gorm:"type:varchar(100);not null"`
	Email          *string   `json:"email" gorm:"type:varchar(255)"`
	Phone          *string   `json:"phone" gorm:"type:varchar(50)"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time `json:"updated_at"`

	Organisation *Organisation `json:"-" gorm:"foreignKey:OrganisationID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the Employee model
func (Employee) TableName() string {
	return "employees"
}

// BeforeCreate assigns a primary key when the caller did not
func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// FullName is used in audit metadata
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// EmployeePatch is a partial update. Unset fields keep their stored value;
// Email and Phone set to null clear the column.
type EmployeePatch struct {
	FirstName OptionalString
	LastName  OptionalString
	Email     OptionalString
	Phone     OptionalString
}

// Apply copies the set fields of the patch onto e
func (p EmployeePatch) Apply(e *Employee) {
	if p.FirstName.Set && p.FirstName.Value != nil {
		e.FirstName = *p.FirstName.Value
	}
	if p.LastName.Set && p.LastName.Value != nil {
		e.LastName = *p.LastName.Value
	}
	if p.Email.Set {
		e.Email = p.Email.Value
	}
	if p.Phone.Set {
		e.Phone = p.Phone.Value
	}
}

// EmployeeSummary is an employee as listed inside a team
type EmployeeSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
}

// EmployeeView is an employee together with the teams it belongs to
type EmployeeView struct {
	Employee
	Teams []TeamSummary `json:"teams"`
}
