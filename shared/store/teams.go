package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pavitra93/go-hr-management-system/shared/models"
)

// ListTeams returns the organisation's teams newest first, each with its members
func (t *Tenant) ListTeams(ctx context.Context) ([]models.TeamView, error) {
	var teams []models.Team
	if err := t.owned(ctx, "").Order("created_at DESC").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	ids := make([]uuid.UUID, len(teams))
	for i := range teams {
		ids[i] = teams[i].ID
	}
	members, err := t.membersByTeam(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.TeamView, len(teams))
	for i := range teams {
		views[i] = models.TeamView{Team: teams[i], Employees: nonNilMembers(members[teams[i].ID])}
	}
	return views, nil
}

// GetTeam returns one team with its members
func (t *Tenant) GetTeam(ctx context.Context, id uuid.UUID) (*models.TeamView, error) {
	team, err := t.findTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	members, err := t.membersByTeam(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return &models.TeamView{Team: *team, Employees: nonNilMembers(members[id])}, nil
}

// CreateTeam inserts a team owned by the principal's organisation
func (t *Tenant) CreateTeam(ctx context.Context, team *models.Team) error {
	team.OrganisationID = t.principal.OrganisationID
	if err := t.db.WithContext(ctx).Create(team).Error; err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

// UpdateTeam applies a partial update and returns the stored result
func (t *Tenant) UpdateTeam(ctx context.Context, id uuid.UUID, patch models.TeamPatch) (*models.Team, error) {
	team, err := t.findTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(team)
	err = t.owned(ctx, "").Model(team).
		Select("name", "description", "updated_at").
		Updates(team).Error
	if err != nil {
		return nil, fmt.Errorf("update team: %w", err)
	}
	return team, nil
}

// DeleteTeam removes a team and, by cascade, its memberships; employees stay
func (t *Tenant) DeleteTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team, err := t.findTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	res := t.owned(ctx, "").Where("id = ?", id).Delete(&models.Team{})
	if res.Error != nil {
		return nil, fmt.Errorf("delete team: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return team, nil
}

func (t *Tenant) findTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var team models.Team
	if err := t.owned(ctx, "").Where("id = ?", id).First(&team).Error; err != nil {
		return nil, notFound(err)
	}
	return &team, nil
}

type teamMemberRow struct {
	TeamID uuid.UUID
	models.EmployeeSummary
}

// membersByTeam loads member summaries for a set of teams in one query
func (t *Tenant) membersByTeam(ctx context.Context, teamIDs []uuid.UUID) (map[uuid.UUID][]models.EmployeeSummary, error) {
	out := make(map[uuid.UUID][]models.EmployeeSummary, len(teamIDs))
	if len(teamIDs) == 0 {
		return out, nil
	}

	var rows []teamMemberRow
	err := t.owned(ctx, "employees").
		Table("employees").
		Select("employee_teams.team_id, employees.id, employees.first_name, employees.last_name, employees.email, employees.phone").
		Joins("JOIN employee_teams ON employee_teams.employee_id = employees.id").
		Where("employee_teams.team_id IN ?", teamIDs).
		Order("employees.last_name ASC, employees.first_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load team members: %w", err)
	}

	for _, row := range rows {
		out[row.TeamID] = append(out[row.TeamID], row.EmployeeSummary)
	}
	return out, nil
}

func nonNilMembers(members []models.EmployeeSummary) []models.EmployeeSummary {
	if members == nil {
		return []models.EmployeeSummary{}
	}
	return members
}
