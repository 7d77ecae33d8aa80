package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Team is a named grouping of employees within one organisation
type Team struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrganisationID uuid.UUID `json:"organisation_id" gorm:"type:uuid;not null;index"`
	Name           string    `json:"name" gorm:"type:varchar(255);not null"`
	Description    *string   `json:"description" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time `json:"updated_at"`

	Organisation *Organisation `json:"-" gorm:"foreignKey:OrganisationID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the Team model
func (Team) TableName() string {
	return "teams"
}

// BeforeCreate assigns a primary key when the caller did not
func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TeamPatch is a partial team update
type TeamPatch struct {
	Name        OptionalString
	Description OptionalString
}

// Apply copies the set fields of the patch onto t
func (p TeamPatch) Apply(t *Team) {
	if p.Name.Set && p.Name.Value != nil {
		t.Name = *p.Name.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
}

// EmployeeTeam is one membership edge. The composite primary key makes a
// duplicate assignment a no-op at the database level.
type EmployeeTeam struct {
	EmployeeID uuid.UUID `json:"employee_id" gorm:"type:uuid;primaryKey"`
	TeamID     uuid.UUID `json:"team_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt  time.Time `json:"created_at"`

	Employee *Employee `json:"-" gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE"`
	Team     *Team     `json:"-" gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the membership relation
func (EmployeeTeam) TableName() string {
	return "employee_teams"
}

// TeamSummary is a team as listed on an employee
type TeamSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
}

// TeamView is a team together with its members
type TeamView struct {
	Team
	Employees []EmployeeSummary `json:"employees"`
}
