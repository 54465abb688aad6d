package httpapi

import (
	"errors"
	"net/http"
	"time"

	"support-platform/internal/auth"
	"support-platform/internal/conversation"
	"support-platform/internal/rbac"
	"support-platform/internal/reporting"
	"support-platform/internal/routing"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth          *auth.Manager
	Conversations *conversation.Service
	Reports       *reporting.Service
	Router        *routing.Engine
}

// --- Auth ---

type loginRequest struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.WorkspaceID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, workspace_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.WorkspaceID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Conversations ---

func (h Handlers) CreateConversation(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var req conversation.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	conv, err := h.Conversations.Create(c.Request.Context(), workspaceID, req)
	if err != nil {
		abortServiceErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h Handlers) GetConversation(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	conv, err := h.Conversations.Get(c.Request.Context(), workspaceID, c.Param("id"))
	if err != nil {
		abortServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h Handlers) UpdateConversation(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var patch conversation.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	conv, err := h.Conversations.Update(c.Request.Context(), workspaceID, c.Param("id"), patch)
	if err != nil {
		abortServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h Handlers) PostMessage(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var req conversation.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	conv, err := h.Conversations.RecordMessage(c.Request.Context(), workspaceID, c.Param("id"), req)
	if err != nil {
		abortServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

type escalateRequest struct {
	Reason string `json:"reason"`
}

func (h Handlers) EscalateConversation(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var req escalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	conv, out, err := h.Conversations.Escalate(c.Request.Context(), workspaceID, c.Param("id"), req.Reason)
	if err != nil {
		abortServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv, "assigned": out.Assigned, "agent_id": out.AgentID})
}

type resolveRequest struct {
	Notes string `json:"notes"`
}

func (h Handlers) ResolveConversation(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	conv, err := h.Conversations.Resolve(c.Request.Context(), workspaceID, c.Param("id"), req.Notes)
	if err != nil {
		abortServiceErr(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// GetAssignment reports the conversation's current agent, or the candidate
// the routing engine would pick next. Read-only; nothing is assigned here.
func (h Handlers) GetAssignment(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	conv, err := h.Conversations.Get(c.Request.Context(), workspaceID, c.Param("id"))
	if err != nil {
		abortServiceErr(c, err)
		return
	}
	if conv.AssignedAgentID != "" {
		c.JSON(http.StatusOK, gin.H{"assigned": true, "agent_id": conv.AssignedAgentID})
		return
	}
	if h.Router == nil {
		c.JSON(http.StatusOK, gin.H{"assigned": false})
		return
	}
	candidate, found, err := h.Router.FindAvailableAgent(c.Request.Context(), workspaceID, conv.Pool, conv.Channel)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "routing failed"})
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"assigned": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assigned": false, "candidate_agent_id": candidate.ID, "candidate_name": candidate.Name})
}

// --- Reports ---

func (h Handlers) SLACompliance(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
		return
	}
	req := reporting.ComplianceRequest{
		From:     from,
		To:       to,
		Channel:  c.Query("channel"),
		Priority: c.Query("priority"),
		Branch:   c.Query("branch"),
		Role:     c.Query("role"),
	}
	rows, summary, err := h.Reports.Compliance(c.Request.Context(), workspaceID, req)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report computation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "summary": summary})
}

func (h Handlers) workspace(c *gin.Context) (string, bool) {
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return "", false
	}
	return workspaceID, true
}

func abortServiceErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, conversation.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Convenience middleware bundles.

func RequireWorkspaceAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireWorkspace(), rbac.RequireAnyRole(roles...)}
}
