package domain

// Requirement is the access predicate a route or operation demands.
type Requirement struct {
	authenticated bool
	roles         []Role
}

// Anyone admits anonymous callers.
func Anyone() Requirement { return Requirement{} }

// Authenticated admits any valid identity.
func Authenticated() Requirement { return Requirement{authenticated: true} }

// HasAnyRole admits identities holding at least one of roles.
func HasAnyRole(roles ...Role) Requirement {
	rs := make([]Role, len(roles))
	copy(rs, roles)
	return Requirement{authenticated: true, roles: rs}
}

// Authorize checks actor against req. A nil actor is anonymous.
func Authorize(actor *User, req Requirement) error {
	if !req.authenticated {
		return nil
	}
	if actor == nil {
		return ErrUnauthenticated
	}
	if len(req.roles) > 0 && !actor.HasAnyRole(req.roles...) {
		return ErrForbidden
	}
	return nil
}

// Access rules shared by the HTTP routes and the services.
var (
	CanReadEquipment  = Authenticated()
	CanWriteEquipment = HasAnyRole(RoleAdmin, RoleMaster)
	CanManageUsers    = HasAnyRole(RoleMaster)
)
