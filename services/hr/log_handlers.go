package main

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/go-hr-management-system/shared/store"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

// handleGetLogs returns the organisation's audit trail, newest first.
// Optional query parameters: action, limit (default 100, max 500).
func handleGetLogs(s *hrService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := s.tenant(c)
		if !ok {
			return
		}

		filter := store.LogFilter{Action: c.Query("action")}
		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				utils.BadRequestResponse(c, "limit must be a positive integer")
				return
			}
			filter.Limit = limit
		}

		logs, err := tenant.ListLogs(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err, "", "Failed to fetch logs")
			return
		}

		utils.OKResponse(c, "Logs retrieved successfully", logs)
	}
}
