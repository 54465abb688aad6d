package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"support-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func serve(t *testing.T, role, workspace string, allowed ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u", workspace, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, RequireWorkspace(), RequireAnyRole(allowed...), func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	if code := serve(t, RoleSuperAdmin, "w", RoleOwner); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_DeniesUnlistedRole(t *testing.T) {
	if code := serve(t, RoleAgent, "w", RoleOwner, RoleAnalyst); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_WorkspaceRequired(t *testing.T) {
	if code := serve(t, RoleOwner, "", RoleOwner); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestIsRoutable(t *testing.T) {
	if !IsRoutable(RoleAgent) || !IsRoutable(RoleSupervisor) {
		t.Fatalf("agent and supervisor must be routable")
	}
	if IsRoutable(RoleAnalyst) || IsRoutable(RoleOwner) {
		t.Fatalf("analyst and owner must not be routable")
	}
}
