package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner      = "owner"
	RoleAgent      = "agent"
	RoleSupervisor = "supervisor"
	RoleAnalyst    = "analyst"
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

// RoutingRoles are the roles eligible to receive routed conversations.
// The assignment engine only considers roster entries holding one of these.
func RoutingRoles() []string {
	return []string{RoleAgent, RoleSupervisor}
}

func IsRoutable(role string) bool {
	for _, r := range RoutingRoles() {
		if role == r {
			return true
		}
	}
	return false
}
