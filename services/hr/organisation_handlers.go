package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-hr-management-system/shared/audit"
	"github.com/pavitra93/go-hr-management-system/shared/middleware"
	"github.com/pavitra93/go-hr-management-system/shared/models"
	"github.com/pavitra93/go-hr-management-system/shared/store"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

// handleGetOrganisation returns the caller's organisation and its users
func handleGetOrganisation(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := middleware.GetPrincipal(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "Not authenticated")
			return
		}

		org, err := s.store.GetOrganisationView(c.Request.Context(), principal.OrganisationID)
		if err != nil {
			respondError(c, err, "Organisation not found", "Failed to fetch organisation")
			return
		}

		utils.OKResponse(c, "Organisation retrieved successfully", org)
	}
}

// handleDeleteOrganisation closes the caller's organisation. Everything it
// owns goes with it, including its logs, so the deletion itself is recorded
// as an organisation-independent entry.
func handleDeleteOrganisation(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := middleware.GetPrincipal(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "Not authenticated")
			return
		}
		ctx := c.Request.Context()

		var userIDs []uuid.UUID
		err = s.mutate(ctx, func(tx *store.Store) (audit.Entry, error) {
			org, err := tx.GetOrganisation(ctx, principal.OrganisationID)
			if err != nil {
				return audit.Entry{}, err
			}
			users, err := tx.ListUsers(ctx, org.ID)
			if err != nil {
				return audit.Entry{}, err
			}
			for i := range users {
				userIDs = append(userIDs, users[i].ID)
			}

			if err := tx.DeleteOrganisation(ctx, org.ID); err != nil {
				return audit.Entry{}, err
			}
			return audit.System(models.ActionOrganisationDeleted, map[string]any{
				"organisationId": org.ID,
				"name":           org.Name,
				"deletedBy":      principal.UserID,
				"users":          len(users),
			}), nil
		})
		if err != nil {
			respondError(c, err, "Organisation not found", "Failed to delete organisation")
			return
		}

		if err := s.cache.Evict(ctx, userIDs...); err != nil {
			logrus.WithError(err).Warn("Failed to evict cached principals")
		}
		logrus.WithField("organisation_id", principal.OrganisationID).Info("Organisation deleted")
		utils.OKResponse(c, "Organisation deleted successfully", nil)
	}
}
