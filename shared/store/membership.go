package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/pavitra93/go-hr-management-system/shared/models"
)

// AssignEmployees adds every employee in employeeIDs to the team. The team
// and all employees must belong to the organisation; otherwise nothing is
// written. Existing memberships are left as they are.
func (t *Tenant) AssignEmployees(ctx context.Context, teamID uuid.UUID, employeeIDs []uuid.UUID) (*models.Team, error) {
	team, err := t.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	ids := uniqueIDs(employeeIDs)
	found, err := t.countOwned(ctx, &models.Employee{}, ids)
	if err != nil {
		return nil, fmt.Errorf("verify employees: %w", err)
	}
	if found != int64(len(ids)) {
		return nil, ErrEmployeesNotInOrganisation
	}

	edges := make([]models.EmployeeTeam, len(ids))
	for i, id := range ids {
		edges[i] = models.EmployeeTeam{EmployeeID: id, TeamID: team.ID}
	}
	err = t.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("assign employees: %w", err)
	}
	return team, nil
}

// UnassignEmployee removes a single membership edge. Both sides must belong
// to the organisation; a missing edge is not an error. The returned bool
// reports whether an edge was removed.
func (t *Tenant) UnassignEmployee(ctx context.Context, teamID, employeeID uuid.UUID) (*models.Team, *models.Employee, bool, error) {
	team, err := t.findTeam(ctx, teamID)
	if err != nil {
		return nil, nil, false, err
	}
	employee, err := t.findEmployee(ctx, employeeID)
	if err != nil {
		return nil, nil, false, err
	}

	res := t.db.WithContext(ctx).
		Where("team_id = ? AND employee_id = ?", team.ID, employee.ID).
		Delete(&models.EmployeeTeam{})
	if res.Error != nil {
		return nil, nil, false, fmt.Errorf("unassign employee: %w", res.Error)
	}
	return team, employee, res.RowsAffected > 0, nil
}
