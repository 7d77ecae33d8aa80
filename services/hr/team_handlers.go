package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pavitra93/go-hr-management-system/shared/audit"
	"github.com/pavitra93/go-hr-management-system/shared/models"
	"github.com/pavitra93/go-hr-management-system/shared/store"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

// CreateTeamRequest represents the create team request
type CreateTeamRequest struct {
	Name        string  `json:"name" binding:"required,notblank,max=255"`
	Description *string `json:"description"`
}

func (r *CreateTeamRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = trimOptional(r.Description)
}

// UpdateTeamRequest is a partial team update
type UpdateTeamRequest struct {
	Name        models.OptionalString `json:"name"`
	Description models.OptionalString `json:"description"`
}

func (r *UpdateTeamRequest) normalize() {
	r.Name = r.Name.Map(strings.TrimSpace)
	r.Description = r.Description.Map(strings.TrimSpace)
}

func (r *UpdateTeamRequest) changes() map[string]any {
	out := map[string]any{}
	if r.Name.Set {
		out["name"] = r.Name.Value
	}
	if r.Description.Set {
		out["description"] = r.Description.Value
	}
	return out
}

// AssignEmployeesRequest adds employees to a team
type AssignEmployeesRequest struct {
	EmployeeIDs []string `json:"employeeIds" binding:"required,min=1,dive,uuidany"`
}

// UnassignEmployeeRequest removes one employee from a team
type UnassignEmployeeRequest struct {
	EmployeeID string `json:"employeeId" binding:"required,uuidany"`
}

// handleGetTeams lists the organisation's teams with their members
func handleGetTeams(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}

		teams, err := tenant.ListTeams(c.Request.Context())
		if err != nil {
			respondError(c, err, "", "Failed to fetch teams")
			return
		}

		utils.OKResponse(c, "Teams retrieved successfully", teams)
	}
}

// handleGetTeam returns one team with its members
func handleGetTeam(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "Team not found")
		if !ok {
			return
		}

		team, err := tenant.GetTeam(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, "Team not found", "Failed to fetch team")
			return
		}

		utils.OKResponse(c, "Team retrieved successfully", team)
	}
}

// handleCreateTeam handles team creation
func handleCreateTeam(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}
		var req CreateTeamRequest
		if !bindRequest(c, &req) {
			return
		}

		team := &models.Team{Name: req.Name, Description: req.Description}
		ctx, p := c.Request.Context(), tenant.Principal()
		err := s.mutate(ctx, func(tx *store.Store) (audit.Entry, error) {
			if err := tx.Tenant(p).CreateTeam(ctx, team); err != nil {
				return audit.Entry{}, err
			}
			return audit.For(p.OrganisationID, p.UserID, models.ActionTeamCreated, map[string]any{
				"teamId": team.ID,
				"name":   team.Name,
			}), nil
		})
		if err != nil {
			respondError(c, err, "", "Failed to create team")
			return
		}

		utils.CreatedResponse(c, "Team created successfully", team)
	}
}

// handleUpdateTeam applies a partial update
func handleUpdateTeam(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "Team not found")
		if !ok {
			return
		}
		var req UpdateTeamRequest
		if !bindRequest(c, &req) {
			return
		}
		if msg := requiredField("name", req.Name, 255); msg != "" {
			utils.BadRequestResponse(c, msg)
			return
		}

		var team *models.Team
		ctx, p := c.Request.Context(), tenant.Principal()
		err := s.mutate(ctx, func(tx *store.Store) (audit.Entry, error) {
			var err error
			team, err = tx.Tenant(p).UpdateTeam(ctx, id, models.TeamPatch{Name: req.Name, Description: req.Description})
			if err != nil {
				return audit.Entry{}, err
			}
			return audit.For(p.OrganisationID, p.UserID, models.ActionTeamUpdated, map[string]any{
				"teamId":  team.ID,
				"updates": req.changes(),
			}), nil
		})
		if err != nil {
			respondError(c, err, "Team not found", "Failed to update team")
			return
		}

		utils.OKResponse(c, "Team updated successfully", team)
	}
}

// handleDeleteTeam deletes a team; its members are kept
func handleDeleteTeam(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "Team not found")
		if !ok {
			return
		}

		ctx, p := c.Request.Context(), tenant.Principal()
		err := s.mutate(ctx, func(tx *store.Store) (audit.Entry, error) {
			team, err := tx.Tenant(p).DeleteTeam(ctx, id)
			if err != nil {
				return audit.Entry{}, err
			}
			return audit.For(p.OrganisationID, p.UserID, models.ActionTeamDeleted, map[string]any{
				"teamId": team.ID,
				"name":   team.Name,
			}), nil
		})
		if err != nil {
			respondError(c, err, "Team not found", "Failed to delete team")
			return
		}

		utils.OKResponse(c, "Team deleted successfully", nil)
	}
}

// handleAssignEmployees adds every listed employee to the team or none
func handleAssignEmployees(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "Team not found")
		if !ok {
			return
		}
		var req AssignEmployeesRequest
		if !bindRequest(c, &req) {
			return
		}

		employeeIDs := make([]uuid.UUID, len(req.EmployeeIDs))
		for i, raw := range req.EmployeeIDs {
			// validated by the uuid tag
			employeeIDs[i] = uuid.MustParse(raw)
		}

		ctx, p := c.Request.Context(), tenant.Principal()
		err := s.mutate(ctx, func(tx *store.Store) (audit.Entry, error) {
			team, err := tx.Tenant(p).AssignEmployees(ctx, id, employeeIDs)
			if err != nil {
				return audit.Entry{}, err
			}
			return audit.For(p.OrganisationID, p.UserID, models.ActionEmployeesAssigned, map[string]any{
				"teamId":      team.ID,
				"teamName":    team.Name,
				"employeeIds": employeeIDs,
			}), nil
		})
		if err != nil {
			respondError(c, err, "Team not found", "Failed to assign employees")
			return
		}

		utils.OKResponse(c, "Employees assigned successfully", nil)
	}
}

// handleUnassignEmployee removes one membership; a missing one is not an error
func handleUnassignEmployee(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "Team not found")
		if !ok {
			return
		}
		var req UnassignEmployeeRequest
		if !bindRequest(c, &req) {
			return
		}
		employeeID := uuid.MustParse(req.EmployeeID)

		ctx, p := c.Request.Context(), tenant.Principal()
		err := s.mutate(ctx, func(tx *store.Store) (audit.Entry, error) {
			team, employee, removed, err := tx.Tenant(p).UnassignEmployee(ctx, id, employeeID)
			if err != nil {
				return audit.Entry{}, err
			}
			return audit.For(p.OrganisationID, p.UserID, models.ActionEmployeeUnassigned, map[string]any{
				"teamId":     team.ID,
				"teamName":   team.Name,
				"employeeId": employee.ID,
				"removed":    removed,
			}), nil
		})
		if err != nil {
			respondError(c, err, "Team or employee not found", "Failed to unassign employee")
			return
		}

		utils.OKResponse(c, "Employee unassigned successfully", nil)
	}
}
