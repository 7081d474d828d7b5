package auth

import (
	"strings"

	"roomstay/internal/domain/shared/apperr"
)

var (
	ErrPrincipalRequired = apperr.New(apperr.Unauthorized, "auth: authenticated principal required")
	ErrForbidden         = apperr.New(apperr.Unauthorized, "auth: action not permitted for principal")
)

type Role string

const (
	RoleUser          Role = "user"
	RolePropertyOwner Role = "propertyOwner"
	RoleAdmin         Role = "admin"
)

// ParseRole accepts the role spellings issued by the identity service.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "guest", "customer":
		return RoleUser, true
	case "propertyowner", "property_owner", "owner", "host":
		return RolePropertyOwner, true
	case "admin":
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Principal is the authenticated caller, passed explicitly into every command.
type Principal struct {
	ID   string
	Role Role
}

func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.ID) != "" && p.Role != ""
}
