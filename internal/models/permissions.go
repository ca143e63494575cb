package models

// Permissions is the capability set granted by a role.
type Permissions struct {
	CanEdit         bool `json:"can_edit"`
	CanComment      bool `json:"can_comment"`
	CanInvite       bool `json:"can_invite"`
	CanDelete       bool `json:"can_delete"`
	CanChangeStatus bool `json:"can_change_status"`
}

// DeriveCapabilities maps a role to its full capability set.
// Unknown roles get no capabilities.
func DeriveCapabilities(role Role) Permissions {
	switch role {
	case RoleOwner:
		return Permissions{
			CanEdit:         true,
			CanComment:      true,
			CanInvite:       true,
			CanDelete:       true,
			CanChangeStatus: true,
		}
	case RoleEditor:
		return Permissions{
			CanEdit:         true,
			CanComment:      true,
			CanInvite:       true,
			CanChangeStatus: true,
		}
	case RoleReviewer, RoleViewer:
		return Permissions{CanComment: true}
	default:
		return Permissions{}
	}
}
