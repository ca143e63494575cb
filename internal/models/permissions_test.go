package models

import "testing"

func TestDeriveCapabilities(t *testing.T) {
	tests := []struct {
		role Role
		want Permissions
	}{
		{RoleOwner, Permissions{CanEdit: true, CanComment: true, CanInvite: true, CanDelete: true, CanChangeStatus: true}},
		{RoleEditor, Permissions{CanEdit: true, CanComment: true, CanInvite: true, CanDelete: false, CanChangeStatus: true}},
		{RoleReviewer, Permissions{CanComment: true}},
		{RoleViewer, Permissions{CanComment: true}},
		{Role("stranger"), Permissions{}},
		{Role(""), Permissions{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			got := DeriveCapabilities(tt.role)
			if got != tt.want {
				t.Fatalf("DeriveCapabilities(%q) = %+v, want %+v", tt.role, got, tt.want)
			}
			if again := DeriveCapabilities(tt.role); again != got {
				t.Fatalf("DeriveCapabilities(%q) not deterministic: %+v vs %+v", tt.role, got, again)
			}
		})
	}
}

func TestDeriveCapabilitiesReviewer(t *testing.T) {
	perms := DeriveCapabilities(RoleReviewer)
	if perms.CanEdit {
		t.Fatal("reviewer must not edit")
	}
	if !perms.CanComment {
		t.Fatal("reviewer must comment")
	}
}
