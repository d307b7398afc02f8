package rbac

import "strings"

type Role string
type Action string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

const (
	// ActionRead covers reading a guide the caller has access to.
	ActionRead Action = "read"
	// ActionWrite covers every mutation of guides, days, activities and invitations.
	ActionWrite Action = "write"
	// ActionManageUsers covers listing, creating and deleting accounts.
	ActionManageUsers Action = "manage_users"
	// ActionReadAll covers reading any guide without an invitation.
	ActionReadAll Action = "read_all"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleUser:
		return action == ActionRead
	default:
		return false
	}
}

// Parse matches a role name case-insensitively.
func Parse(role string) (Role, bool) {
	role = strings.TrimSpace(role)
	for _, candidate := range []Role{RoleAdmin, RoleUser} {
		if strings.EqualFold(role, string(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// Normalize maps unknown roles to the least privileged one.
func Normalize(role string) Role {
	if parsed, ok := Parse(role); ok {
		return parsed
	}
	return RoleUser
}
