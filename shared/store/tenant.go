package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Principal is the verified caller: one user acting inside one organisation
type Principal struct {
	UserID         uuid.UUID
	OrganisationID uuid.UUID
}

// Tenant is the store as seen by one principal. Every query it issues is
// filtered by the principal's organisation, so a row id from another
// organisation behaves exactly like an id that does not exist.
type Tenant struct {
	db        *gorm.DB
	principal Principal
}

// Principal returns the identity the tenant view is scoped to
func (t *Tenant) Principal() Principal {
	return t.principal
}

// OrganisationID is shorthand for Principal().OrganisationID
func (t *Tenant) OrganisationID() uuid.UUID {
	return t.principal.OrganisationID
}

// owned returns a session filtered to the principal's organisation. table
// qualifies the column when the query joins other tables.
func (t *Tenant) owned(ctx context.Context, table string) *gorm.DB {
	column := "organisation_id"
	if table != "" {
		column = table + ".organisation_id"
	}
	return t.db.WithContext(ctx).Where(column+" = ?", t.principal.OrganisationID)
}

// countOwned counts how many of ids exist in table for this organisation
func (t *Tenant) countOwned(ctx context.Context, model any, ids []uuid.UUID) (int64, error) {
	var count int64
	err := t.owned(ctx, "").Model(model).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// uniqueIDs drops repeated ids, keeping first-seen order
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
