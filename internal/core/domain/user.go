package domain

import (
	"strings"
	"time"
)

// User is an identity that can authenticate and act on the system.
// The role set is private so every change goes through the mutators that
// keep MASTER exclusive.
type User struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	roles []Role
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser builds a user with the given roles, defaulting to STANDARD when
// none are supplied.
func NewUser(displayName, email, passwordHash string, roles []Role, now time.Time) (*User, error) {
	displayName = strings.TrimSpace(displayName)
	email = NormalizeEmail(email)
	if displayName == "" {
		return nil, invalid("name", "is required")
	}
	if !strings.Contains(email, "@") {
		return nil, invalid("email", "must be a valid email")
	}
	if passwordHash == "" {
		return nil, invalid("password", "is required")
	}

	u := &User{
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if len(roles) == 0 {
		roles = []Role{RoleStandard}
	}
	if err := u.SetRoles(roles); err != nil {
		return nil, err
	}
	return u, nil
}

// RestoreUser rebuilds a persisted user. Stored role sets that break the
// MASTER rule are repaired the same way SetRoles would.
func RestoreUser(id, displayName, email, passwordHash string, roles []Role, createdAt, updatedAt time.Time) *User {
	u := &User{
		ID:           id,
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if err := u.SetRoles(roles); err != nil {
		u.roles = []Role{RoleStandard}
	}
	return u
}

// Roles returns a copy of the role set, lowest privilege first.
func (u *User) Roles() []Role {
	out := make([]Role, len(u.roles))
	copy(out, u.roles)
	return out
}

func (u *User) HasRole(r Role) bool {
	for _, held := range u.roles {
		if held == r {
			return true
		}
	}
	return false
}

func (u *User) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// IsMaster reports whether the user holds the exclusive MASTER role.
func (u *User) IsMaster() bool { return u.HasRole(RoleMaster) }

// AddRole grants a single role. Granting MASTER drops every other role;
// granting anything else to a MASTER fails.
func (u *User) AddRole(r Role) error {
	if !r.Valid() {
		return invalid("role", "is not a known role")
	}
	if u.HasRole(r) {
		return nil
	}
	if r == RoleMaster {
		u.roles = []Role{RoleMaster}
		return nil
	}
	if u.IsMaster() {
		return ErrExclusiveRole
	}
	u.roles = append(u.roles, r)
	sortRoles(u.roles)
	return nil
}

// RemoveRole revokes a single role. The last remaining role cannot be removed.
func (u *User) RemoveRole(r Role) error {
	if !u.HasRole(r) {
		return nil
	}
	if len(u.roles) == 1 {
		return ErrEmptyRoleSet
	}
	kept := u.roles[:0]
	for _, held := range u.roles {
		if held != r {
			kept = append(kept, held)
		}
	}
	u.roles = kept
	return nil
}

// SetRoles replaces the whole role set. When MASTER is among the input the
// result is exactly {MASTER}, whatever else was requested.
func (u *User) SetRoles(roles []Role) error {
	if len(roles) == 0 {
		return ErrEmptyRoleSet
	}
	next := make([]Role, 0, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return invalid("role", "is not a known role")
		}
		if !containsRole(next, r) {
			next = append(next, r)
		}
	}
	if containsRole(next, RoleMaster) {
		next = []Role{RoleMaster}
	}
	sortRoles(next)
	u.roles = next
	return nil
}

// Touch records a modification time.
func (u *User) Touch(at time.Time) { u.UpdatedAt = at }

func containsRole(roles []Role, r Role) bool {
	for _, held := range roles {
		if held == r {
			return true
		}
	}
	return false
}
