// Package audit records the append-only activity log. Entries are written on
// the caller's transaction so an entry exists only if the mutation it
// describes committed; committed entries can then be exported to a Sink.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pavitra93/go-hr-management-system/shared/models"
)

// Entry describes one event before it is stored
type Entry struct {
	OrganisationID *uuid.UUID
	UserID         *uuid.UUID
	Action         string
	Meta           map[string]any
}

// For builds an entry attributed to a user acting in an organisation
func For(organisationID, userID uuid.UUID, action string, meta map[string]any) Entry {
	return Entry{OrganisationID: &organisationID, UserID: &userID, Action: action, Meta: meta}
}

// System builds an entry with no organisation and no acting user
func System(action string, meta map[string]any) Entry {
	return Entry{Action: action, Meta: meta}
}

// Sink receives log rows after their transaction committed
type Sink interface {
	Publish(entry models.Log) error
}

// Logger writes audit entries and forwards committed ones to an optional sink
type Logger struct {
	sink Sink
}

// NewLogger returns a Logger; sink may be nil
func NewLogger(sink Sink) *Logger {
	return &Logger{sink: sink}
}

// Record appends entry using db, which should be the transaction of the
// mutation being audited. A failure is returned to the caller like any
// other store error.
func (l *Logger) Record(ctx context.Context, db *gorm.DB, entry Entry) (*models.Log, error) {
	if entry.Action == "" {
		return nil, errors.New("audit entry requires an action")
	}

	row := &models.Log{
		OrganisationID: entry.OrganisationID,
		UserID:         entry.UserID,
		Action:         entry.Action,
		Meta:           datatypes.JSONMap(entry.Meta),
	}
	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("record %s: %w", entry.Action, err)
	}
	return row, nil
}

// Publish hands committed rows to the sink. Export is best effort: a
// failure is logged and never affects the request that produced the row.
func (l *Logger) Publish(rows ...*models.Log) {
	if l.sink == nil {
		return
	}
	for _, row := range rows {
		if row == nil {
			continue
		}
		if err := l.sink.Publish(*row); err != nil {
			logrus.WithFields(logrus.Fields{
				"log_id": row.ID,
				"action": row.Action,
				"error":  err,
			}).Warn("Failed to export audit log")
		}
	}
}
