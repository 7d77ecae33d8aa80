package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pavitra93/go-hr-management-system/shared/models"
)

// ListEmployees returns the organisation's employees newest first, each with
// its teams.
func (t *Tenant) ListEmployees(ctx context.Context) ([]models.EmployeeView, error) {
	var employees []models.Employee
	if err := t.owned(ctx, "").Order("created_at DESC").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	ids := make([]uuid.UUID, len(employees))
	for i := range employees {
		ids[i] = employees[i].ID
	}
	teams, err := t.teamsByEmployee(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.EmployeeView, len(employees))
	for i := range employees {
		views[i] = models.EmployeeView{Employee: employees[i], Teams: nonNilTeams(teams[employees[i].ID])}
	}
	return views, nil
}

// GetEmployee returns one employee with its teams
func (t *Tenant) GetEmployee(ctx context.Context, id uuid.UUID) (*models.EmployeeView, error) {
	employee, err := t.findEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	teams, err := t.teamsByEmployee(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return &models.EmployeeView{Employee: *employee, Teams: nonNilTeams(teams[id])}, nil
}

// CreateEmployee inserts an employee owned by the principal's organisation.
// Any OrganisationID set by the caller is overwritten.
func (t *Tenant) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	employee.OrganisationID = t.principal.OrganisationID
	if err := t.db.WithContext(ctx).Create(employee).Error; err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// UpdateEmployee applies a partial update and returns the stored result
func (t *Tenant) UpdateEmployee(ctx context.Context, id uuid.UUID, patch models.EmployeePatch) (*models.Employee, error) {
	employee, err := t.findEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(employee)
	err = t.owned(ctx, "").Model(employee).
		Select("first_name", "last_name", "email", "phone", "updated_at").
		Updates(employee).Error
	if err != nil {
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return employee, nil
}

// DeleteEmployee removes an employee and, by cascade, its memberships.
// The deleted row is returned for audit metadata.
func (t *Tenant) DeleteEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	employee, err := t.findEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	res := t.owned(ctx, "").Where("id = ?", id).Delete(&models.Employee{})
	if res.Error != nil {
		return nil, fmt.Errorf("delete employee: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return employee, nil
}

func (t *Tenant) findEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var employee models.Employee
	if err := t.owned(ctx, "").Where("id = ?", id).First(&employee).Error; err != nil {
		return nil, notFound(err)
	}
	return &employee, nil
}

type employeeTeamRow struct {
	EmployeeID uuid.UUID
	models.TeamSummary
}

// teamsByEmployee loads the team summaries for a set of employees in one query
func (t *Tenant) teamsByEmployee(ctx context.Context, employeeIDs []uuid.UUID) (map[uuid.UUID][]models.TeamSummary, error) {
	out := make(map[uuid.UUID][]models.TeamSummary, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return out, nil
	}

	var rows []employeeTeamRow
	err := t.owned(ctx, "teams").
		Table("teams").
		Select("employee_teams.employee_id, teams.id, teams.name, teams.description").
		Joins("JOIN employee_teams ON employee_teams.team_id = teams.id").
		Where("employee_teams.employee_id IN ?", employeeIDs).
		Order("teams.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load employee teams: %w", err)
	}

	for _, row := range rows {
		out[row.EmployeeID] = append(out[row.EmployeeID], row.TeamSummary)
	}
	return out, nil
}

func nonNilTeams(teams []models.TeamSummary) []models.TeamSummary {
	if teams == nil {
		return []models.TeamSummary{}
	}
	return teams
}
