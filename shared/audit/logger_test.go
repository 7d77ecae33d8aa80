package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pavitra93/go-hr-management-system/shared/models"
	"github.com/pavitra93/go-hr-management-system/shared/testutil"
)

type recordingSink struct {
	mu   sync.Mutex
	rows []models.Log
	err  error
}

func (s *recordingSink) Publish(entry models.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, entry)
	return s.err
}

func TestLogger_Record(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "Acme", "admin@acme.test")
	logger := NewLogger(nil)

	entry := For(tenant.Organisation.ID, tenant.User.ID, models.ActionTeamCreated, map[string]any{"name": "Ops"})
	row, err := logger.Record(context.Background(), db, entry)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, row.ID)
	assert.False(t, row.Timestamp.IsZero())

	var stored models.Log
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	assert.Equal(t, models.ActionTeamCreated, stored.Action)
	assert.Equal(t, tenant.Organisation.ID, *stored.OrganisationID)
	assert.Equal(t, tenant.User.ID, *stored.UserID)
	assert.Equal(t, "Ops", stored.Meta["name"])
}

func TestLogger_RecordSystemEntry(t *testing.T) {
	db := testutil.NewDB(t)

	row, err := NewLogger(nil).Record(context.Background(), db, System(models.ActionOrganisationDeleted, nil))
	require.NoError(t, err)

	var stored models.Log
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	assert.Nil(t, stored.OrganisationID)
	assert.Nil(t, stored.UserID)
	assert.NotNil(t, stored.Meta)
}

func TestLogger_RecordRequiresAction(t *testing.T) {
	db := testutil.NewDB(t)

	_, err := NewLogger(nil).Record(context.Background(), db, Entry{})
	require.Error(t, err)
	assert.Zero(t, testutil.CountRows(t, db, &models.Log{}, ""))
}

func TestLogger_RecordRollsBackWithMutation(t *testing.T) {
	db := testutil.NewDB(t)
	tenant := testutil.SeedTenant(t, db, "Acme", "admin@acme.test")
	logger := NewLogger(nil)
	failed := errors.New("mutation failed")

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := logger.Record(context.Background(), tx, For(tenant.Organisation.ID, tenant.User.ID, models.ActionTeamDeleted, nil)); err != nil {
			return err
		}
		return failed
	})
	require.ErrorIs(t, err, failed)
	assert.Zero(t, testutil.CountRows(t, db, &models.Log{}, ""))
}

func TestLogger_PublishIsBestEffort(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	logger := NewLogger(sink)

	first := &models.Log{ID: uuid.New(), Action: models.ActionUserLogin}
	second := &models.Log{ID: uuid.New(), Action: models.ActionUserLogout}
	logger.Publish(first, nil, second)

	require.Len(t, sink.rows, 2)
	assert.Equal(t, first.ID, sink.rows[0].ID)
	assert.Equal(t, second.ID, sink.rows[1].ID)

	// no sink configured
	NewLogger(nil).Publish(first)
}
