package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pavitra93/go-hr-management-system/shared/models"
)

const (
	// DefaultLogLimit is used when a log query does not name a limit
	DefaultLogLimit = 100
	// MaxLogLimit caps a single log query
	MaxLogLimit = 500
)

// LogFilter narrows an audit log query
type LogFilter struct {
	Action string
	Limit  int
}

func (f LogFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLogLimit
	case f.Limit > MaxLogLimit:
		return MaxLogLimit
	default:
		return f.Limit
	}
}

// ListLogs returns the organisation's audit entries, newest first, with the
// acting user attached when that user still exists.
func (t *Tenant) ListLogs(ctx context.Context, filter LogFilter) ([]models.LogView, error) {
	query := t.owned(ctx, "")
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var logs []models.Log
	if err := query.Order("timestamp DESC").Limit(filter.limit()).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}

	userIDs := make([]uuid.UUID, 0, len(logs))
	for i := range logs {
		if logs[i].UserID != nil {
			userIDs = append(userIDs, *logs[i].UserID)
		}
	}

	users := make(map[uuid.UUID]models.UserSummary)
	if len(userIDs) > 0 {
		var rows []models.User
		err := t.owned(ctx, "").Where("id IN ?", uniqueIDs(userIDs)).Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("load log users: %w", err)
		}
		for i := range rows {
			users[rows[i].ID] = rows[i].Summary()
		}
	}

	views := make([]models.LogView, len(logs))
	for i := range logs {
		views[i] = models.LogView{Log: logs[i]}
		if logs[i].UserID != nil {
			if u, ok := users[*logs[i].UserID]; ok {
				views[i].User = &u
			}
		}
	}
	return views, nil
}
