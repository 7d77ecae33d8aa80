package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit actions
const (
	ActionOrganisationCreated = "organisation_created"
	ActionOrganisationDeleted = "organisation_deleted"
	ActionUserLogin           = "user_login"
	ActionUserLogout          = "user_logout"
	ActionEmployeeCreated     = "employee_created"
	ActionEmployeeUpdated     = "employee_updated"
	ActionEmployeeDeleted     = "employee_deleted"
	ActionTeamCreated         = "team_created"
	ActionTeamUpdated         = "team_updated"
	ActionTeamDeleted         = "team_deleted"
	ActionEmployeesAssigned   = "employees_assigned_to_team"
	ActionEmployeeUnassigned  = "employee_unassigned_from_team"
)

// Log is an append-only audit event. OrganisationID is null for events that
// outlive their organisation; UserID is null for system actions and is set
// to null when the acting user is deleted.
type Log struct {
	ID             uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	OrganisationID *uuid.UUID        `json:"organisation_id" gorm:"type:uuid;index:idx_logs_org_timestamp,priority:1"`
	UserID         *uuid.UUID        `json:"user_id" gorm:"type:uuid;index"`
	Action         string            `json:"action" gorm:"type:varchar(255);not null;index"`
	Meta           datatypes.JSONMap `json:"meta" gorm:"type:jsonb;not null;default:'{}'"`
	Timestamp      time.Time         `json:"timestamp" gorm:"autoCreateTime;not null;index:idx_logs_org_timestamp,priority:2"`

	Organisation *Organisation `json:"-" gorm:"foreignKey:OrganisationID;constraint:OnDelete:CASCADE"`
	User         *User         `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for the Log model
func (Log) TableName() string {
	return "logs"
}

// BeforeCreate assigns a primary key and an empty payload when missing
func (l *Log) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Meta == nil {
		l.Meta = datatypes.JSONMap{}
	}
	return nil
}

// LogView is a log entry with the acting user, when that user still exists
type LogView struct {
	Log
	User *UserSummary `json:"user"`
}
