package main

import (
	"github.com/gin-gonic/gin"

	"github.com/pavitra93/go-hr-management-system/shared/middleware"
	"github.com/pavitra93/go-hr-management-system/shared/utils"
)

// newRouter wires every HR route onto a fresh engine
func newRouter(s *hrService, allowedOrigins []string) *gin.Engine {
	utils.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(allowedOrigins))

	authMiddleware := middleware.NewAuthMiddleware(s.tokens, s.store, s.cache)
	requireAuth := authMiddleware.RequireAuth()

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "HR service is healthy", nil)
	})

	auth := router.Group("/auth")
	{
		auth.POST("/register", handleRegister(s))
		auth.POST("/login", handleLogin(s))
		auth.POST("/logout", requireAuth, handleLogout(s))
		auth.GET("/me", requireAuth, handleMe(s))
	}

	employees := router.Group("/employees", requireAuth)
	{
		employees.GET("", handleGetEmployees(s))
		employees.GET("/:id", handleGetEmployee(s))
		employees.POST("", handleCreateEmployee(s))
		employees.PUT("/:id", handleUpdateEmployee(s))
		employees.DELETE("/:id", handleDeleteEmployee(s))
	}

	teams := router.Group("/teams", requireAuth)
	{
		teams.GET("", handleGetTeams(s))
		teams.GET("/:id", handleGetTeam(s))
		teams.POST("", handleCreateTeam(s))
		teams.PUT("/:id", handleUpdateTeam(s))
		teams.DELETE("/:id", handleDeleteTeam(s))
		teams.POST("/:id/assign", handleAssignEmployees(s))
		teams.POST("/:id/unassign", handleUnassignEmployee(s))
	}

	router.GET("/logs", requireAuth, handleGetLogs(s))

	organisation := router.Group("/organisation", requireAuth)
	{
		organisation.GET("", handleGetOrganisation(s))
		organisation.DELETE("", handleDeleteOrganisation(s))
	}

	return router
}
