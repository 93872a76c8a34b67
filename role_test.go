package authcore

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"user", RoleUser, false},
		{"admin", RoleAdmin, false},
		{"", RoleUser, true},
		{"Admin", RoleUser, true},
		{"superuser", RoleUser, true},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseRole(%q): err = %v, wantErr = %v", tc.in, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseRole(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRoleOrdering(t *testing.T) {
	if !RoleAdmin.Satisfies(RoleUser) {
		t.Error("admin must satisfy user requirement")
	}
	if RoleUser.Satisfies(RoleAdmin) {
		t.Error("user must not satisfy admin requirement")
	}
	if !RoleUser.Satisfies(RoleUser) || !RoleAdmin.Satisfies(RoleAdmin) {
		t.Error("a role must satisfy itself")
	}
}

func TestRoleStringRoundTrip(t *testing.T) {
	for _, role := range []Role{RoleUser, RoleAdmin} {
		parsed, err := ParseRole(role.String())
		if err != nil {
			t.Fatalf("ParseRole(%q) failed: %v", role.String(), err)
		}
		if parsed != role {
			t.Fatalf("round trip changed %v to %v", role, parsed)
		}
	}
}
