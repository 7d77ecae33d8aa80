package main

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/go-hr-management-system/shared/audit"
	"github.com/pavitra93/go-hr-management-system/shared/models"
	"github.com/pavitra93/go-hr-management-system/shared/store"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

// CreateEmployeeRequest represents the create employee request
type CreateEmployeeRequest struct {
	FirstName string  `json:"first_name" binding:"required,notblank,max=100"`
	LastName  string  `json:"last_name" binding:"required,notblank,max=100"`
	Email     *string `json:"email" binding:"omitempty,email,max=255"`
	Phone     *string `json:"phone" binding:"omitempty,phone,max=50"`
}

func (r *CreateEmployeeRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = trimOptional(r.Email)
	r.Phone = trimOptional(r.Phone)
}

// UpdateEmployeeRequest is a partial update: absent fields are kept, null
// or "" clears email and phone.
type UpdateEmployeeRequest struct {
	FirstName models.OptionalString `json:"first_name"`
	LastName  models.OptionalString `json:"last_name"`
	Email     models.OptionalString `json:"email"`
	Phone     models.OptionalString `json:"phone"`
}

func (r *UpdateEmployeeRequest) normalize() {
	r.FirstName = r.FirstName.Map(strings.TrimSpace)
	r.LastName = r.LastName.Map(strings.TrimSpace)
	r.Email = r.Email.Map(strings.TrimSpace)
	r.Phone = r.Phone.Map(strings.TrimSpace)
}

// validate returns a client-facing message for the first bad field
func (r *UpdateEmployeeRequest) validate() string {
	if msg := requiredField("first_name", r.FirstName, 100); msg != "" {
		return msg
	}
	if msg := requiredField("last_name", r.LastName, 100); msg != "" {
		return msg
	}
	if r.Email.Value != nil && utils.ValidateVar(*r.Email.Value, "email,max=255") != nil {
		return "email must be a valid email address"
	}
	if r.Phone.Value != nil {
		if len([]rune(*r.Phone.Value)) > 50 {
			return "phone must be at most 50 characters"
		}
		if !utils.ValidatePhone(*r.Phone.Value) {
			return "phone must contain 10 to 15 digits"
		}
	}
	return ""
}

// changes lists the submitted fields for the audit entry
func (r *UpdateEmployeeRequest) changes() map[string]any {
	out := map[string]any{}
	for name, f := range map[string]models.OptionalString{
		"first_name": r.FirstName,
		"last_name":  r.LastName,
		"email":      r.Email,
		"phone":      r.Phone,
	} {
		if f.Set {
			out[name] = f.Value
		}
	}
	return out
}

func (r *UpdateEmployeeRequest) patch() models.EmployeePatch {
	return models.EmployeePatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
	}
}

// handleGetEmployees lists the organisation's employees, newest first
func handleGetEmployees(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}

		employees, err := tenant.ListEmployees(c.Request.Context())
		if err != nil {
			respondError(c, err, "", "Failed to fetch employees")
			return
		}

		utils.OKResponse(c, "Employees retrieved successfully", employees)
	}
}

// handleGetEmployee returns one employee with its teams
func handleGetEmployee(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "Employee not found")
		if !ok {
			return
		}

		employee, err := tenant.GetEmployee(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, "Employee not found", "Failed to fetch employee")
			return
		}

		utils.OKResponse(c, "Employee retrieved successfully", employee)
	}
}

// handleCreateEmployee handles employee creation
func handleCreateEmployee(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}
		var req CreateEmployeeRequest
		if !bindRequest(c, &req) {
			return
		}

		employee := &models.Employee{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
		}
		ctx, p := c.Request.Context(), tenant.Principal()
		err := s.mutate(ctx, func(tx *store.Store) (audit.Entry, error) {
			if err := tx.Tenant(p).CreateEmployee(ctx, employee); err != nil {
				return audit.Entry{}, err
			}
			return audit.For(p.OrganisationID, p.UserID, models.ActionEmployeeCreated, map[string]any{
				"employeeId": employee.ID,
				"first_name": employee.FirstName,
				"last_name":  employee.LastName,
			}), nil
		})
		if err != nil {
			respondError(c, err, "", "Failed to create employee")
			return
		}

		utils.CreatedResponse(c, "Employee created successfully", employee)
	}
}

// handleUpdateEmployee applies a partial update
func handleUpdateEmployee(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "Employee not found")
		if !ok {
			return
		}
		var req UpdateEmployeeRequest
		if !bindRequest(c, &req) {
			return
		}
		if msg := req.validate(); msg != "" {
			utils.BadRequestResponse(c, msg)
			return
		}

		var employee *models.Employee
		ctx, p := c.Request.Context(), tenant.Principal()
		err := s.mutate(ctx, func(tx *store.Store) (audit.Entry, error) {
			var err error
			employee, err = tx.Tenant(p).UpdateEmployee(ctx, id, req.patch())
			if err != nil {
				return audit.Entry{}, err
			}
			return audit.For(p.OrganisationID, p.UserID, models.ActionEmployeeUpdated, map[string]any{
				"employeeId": employee.ID,
				"updates":    req.changes(),
			}), nil
		})
		if err != nil {
			respondError(c, err, "Employee not found", "Failed to update employee")
			return
		}

		utils.OKResponse(c, "Employee updated successfully", employee)
	}
}

// handleDeleteEmployee deletes an employee; its memberships go with it
func handleDeleteEmployee(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "Employee not found")
		if !ok {
			return
		}

		ctx, p := c.Request.Context(), tenant.Principal()
		err := s.mutate(ctx, func(tx *store.Store) (audit.Entry, error) {
			employee, err := tx.Tenant(p).DeleteEmployee(ctx, id)
			if err != nil {
				return audit.Entry{}, err
			}
			return audit.For(p.OrganisationID, p.UserID, models.ActionEmployeeDeleted, map[string]any{
				"employeeId": employee.ID,
				"name":       employee.FullName(),
			}), nil
		})
		if err != nil {
			respondError(c, err, "Employee not found", "Failed to delete employee")
			return
		}

		utils.OKResponse(c, "Employee deleted successfully", nil)
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// requiredField rejects a required field that is present but null or blank
func requiredField(name string, f models.OptionalString, max int) string {
	if !f.Set {
		return ""
	}
	if f.Value == nil {
		return name + " cannot be empty"
	}
	if len([]rune(*f.Value)) > max {
		return name + " is too long"
	}
	return ""
}
