package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Role is an access level held by a user.
type Role string

const (
	RoleStandard Role = "STANDARD"
	RoleAdmin    Role = "ADMIN"
	// RoleMaster is exclusive: a user holding it holds no other role.
	RoleMaster Role = "MASTER"
)

// AllRoles lists every valid role, lowest privilege first.
var AllRoles = []Role{RoleStandard, RoleAdmin, RoleMaster}

func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleAdmin, RoleMaster:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", invalid("role", fmt.Sprintf("%q is not one of STANDARD, ADMIN, MASTER", s))
	}
	return r, nil
}

// ParseRoles parses a list of role names, dropping duplicates.
func ParseRoles(names []string) ([]Role, error) {
	out := make([]Role, 0, len(names))
	seen := make(map[Role]struct{}, len(names))
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

func rank(r Role) int {
	for i, candidate := range AllRoles {
		if candidate == r {
			return i
		}
	}
	return len(AllRoles)
}

func sortRoles(roles []Role) {
	sort.Slice(roles, func(i, j int) bool { return rank(roles[i]) < rank(roles[j]) })
}
