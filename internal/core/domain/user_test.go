package domain

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func mustUser(t *testing.T, roles ...Role) *User {
	t.Helper()
	u, err := NewUser("Alice", "alice@example.com", "hash", roles, testNow)
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	return u
}

func rolesEqual(got []Role, want ...Role) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestNewUser_DefaultsToStandard(t *testing.T) {
	u := mustUser(t)
	if !rolesEqual(u.Roles(), RoleStandard) {
		t.Fatalf("expected [STANDARD], got %v", u.Roles())
	}
}

func TestNewUser_NormalizesEmail(t *testing.T) {
	u, err := NewUser("  Bob ", "  Bob@Example.COM ", "hash", nil, testNow)
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	if u.Email != "bob@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if u.DisplayName != "Bob" {
		t.Fatalf("expected trimmed name, got %q", u.DisplayName)
	}
}

func TestNewUser_Validation(t *testing.T) {
	cases := []struct {
		name, display, email, hash string
	}{
		{"blank name", " ", "a@b.c", "h"},
		{"bad email", "A", "not-an-email", "h"},
		{"missing hash", "A", "a@b.c", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewUser(tc.display, tc.email, tc.hash, nil, testNow)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestSetRoles_MasterWinsRegardlessOfOrder(t *testing.T) {
	inputs := [][]Role{
		{RoleMaster},
		{RoleStandard, RoleMaster},
		{RoleMaster, RoleAdmin, RoleStandard},
		{RoleAdmin, RoleMaster, RoleAdmin},
	}
	for _, in := range inputs {
		u := mustUser(t, RoleAdmin)
		if err := u.SetRoles(in); err != nil {
			t.Fatalf("SetRoles(%v): %v", in, err)
		}
		if !rolesEqual(u.Roles(), RoleMaster) {
			t.Fatalf("SetRoles(%v) = %v, want [MASTER]", in, u.Roles())
		}
	}
}

func TestSetRoles_ReplacesWholeSet(t *testing.T) {
	u := mustUser(t, RoleMaster)
	if err := u.SetRoles([]Role{RoleAdmin, RoleStandard, RoleAdmin}); err != nil {
		t.Fatalf("SetRoles: %v", err)
	}
	if !rolesEqual(u.Roles(), RoleStandard, RoleAdmin) {
		t.Fatalf("expected [STANDARD ADMIN], got %v", u.Roles())
	}
}

func TestSetRoles_RejectsEmptyAndUnknown(t *testing.T) {
	u := mustUser(t)
	if err := u.SetRoles(nil); !errors.Is(err, ErrEmptyRoleSet) {
		t.Fatalf("expected ErrEmptyRoleSet, got %v", err)
	}
	if err := u.SetRoles([]Role{"ROOT"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !rolesEqual(u.Roles(), RoleStandard) {
		t.Fatalf("failed SetRoles must not change roles, got %v", u.Roles())
	}
}

func TestAddRole_MasterIsExclusive(t *testing.T) {
	u := mustUser(t, RoleStandard, RoleAdmin)
	if err := u.AddRole(RoleMaster); err != nil {
		t.Fatalf("AddRole(MASTER): %v", err)
	}
	if !rolesEqual(u.Roles(), RoleMaster) {
		t.Fatalf("expected [MASTER], got %v", u.Roles())
	}

	err := u.AddRole(RoleAdmin)
	if !errors.Is(err, ErrExclusiveRole) || !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected ErrExclusiveRole, got %v", err)
	}
	if !rolesEqual(u.Roles(), RoleMaster) {
		t.Fatalf("roles changed after rejected add: %v", u.Roles())
	}

	if err := u.AddRole(RoleMaster); err != nil {
		t.Fatalf("re-adding MASTER should be a no-op, got %v", err)
	}
}

func TestAddRole_KeepsOrder(t *testing.T) {
	u := mustUser(t, RoleAdmin)
	if err := u.AddRole(RoleStandard); err != nil {
		t.Fatalf("AddRole: %v", err)
	}
	if !rolesEqual(u.Roles(), RoleStandard, RoleAdmin) {
		t.Fatalf("expected [STANDARD ADMIN], got %v", u.Roles())
	}
}

func TestRemoveRole(t *testing.T) {
	u := mustUser(t, RoleStandard, RoleAdmin)
	if err := u.RemoveRole(RoleAdmin); err != nil {
		t.Fatalf("RemoveRole: %v", err)
	}
	if !rolesEqual(u.Roles(), RoleStandard) {
		t.Fatalf("expected [STANDARD], got %v", u.Roles())
	}
	if err := u.RemoveRole(RoleStandard); !errors.Is(err, ErrEmptyRoleSet) {
		t.Fatalf("expected ErrEmptyRoleSet, got %v", err)
	}
	if err := u.RemoveRole(RoleMaster); err != nil {
		t.Fatalf("removing an absent role should be a no-op, got %v", err)
	}
}

func TestRoles_ReturnsCopy(t *testing.T) {
	u := mustUser(t, RoleAdmin)
	roles := u.Roles()
	roles[0] = RoleMaster
	if u.IsMaster() {
		t.Fatalf("mutating the returned slice must not change the user")
	}
}

func TestRestoreUser_RepairsStoredRoles(t *testing.T) {
	u := RestoreUser("id", "A", "a@b.c", "h", []Role{RoleAdmin, RoleMaster}, testNow, testNow)
	if !rolesEqual(u.Roles(), RoleMaster) {
		t.Fatalf("expected [MASTER], got %v", u.Roles())
	}
	empty := RestoreUser("id", "A", "a@b.c", "h", nil, testNow, testNow)
	if !rolesEqual(empty.Roles(), RoleStandard) {
		t.Fatalf("expected [STANDARD], got %v", empty.Roles())
	}
}

func TestParseRoles(t *testing.T) {
	roles, err := ParseRoles([]string{"admin", " Standard", "ADMIN"})
	if err != nil {
		t.Fatalf("ParseRoles: %v", err)
	}
	if !rolesEqual(roles, RoleAdmin, RoleStandard) {
		t.Fatalf("unexpected roles: %v", roles)
	}
	if _, err := ParseRoles([]string{"superuser"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
