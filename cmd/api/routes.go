package main

import (
	"database/sql"
	"net/http"
	"time"

	"support-platform/internal/auth"
	"support-platform/internal/httpapi"
	"support-platform/internal/rbac"
	"support-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, db *sql.DB, m *auth.Manager, h httpapi.Handlers) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")

	// AUTH routes (token issuance).
	v1.POST("/auth/login", h.Login)

	// protected API group
	protected := v1.Group("")
	protected.Use(auth.RequireAccessToken(m))
	{
		// CONVERSATION routes. Mutations require a support role; reads are
		// open to any authenticated workspace member.
		conversations := protected.Group("/conversations")
		conversations.Use(rbac.RequireWorkspace())
		{
			writers := rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleSupervisor)

			conversations.POST("", writers, h.CreateConversation)
			conversations.GET("/:id", h.GetConversation)
			conversations.PATCH("/:id", writers, h.UpdateConversation)
			conversations.POST("/:id/messages", writers, h.PostMessage)
			conversations.POST("/:id/escalate", writers, h.EscalateConversation)
			conversations.POST("/:id/resolve", writers, h.ResolveConversation)
			conversations.GET("/:id/assignment", h.GetAssignment)
		}

		// REPORT routes
		reports := protected.Group("/reports")
		reports.Use(rbac.RequireWorkspace())
		reports.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst, rbac.RoleSupervisor))
		{
			reports.GET("/sla-compliance", h.SLACompliance)
		}
	}
}
