package authorization

// UserRole is the fixed role enumeration carried on every caller identity.
type UserRole string

const (
	// RoleSuperAdmin is the platform operator role. It bypasses tenant
	// confinement and every tenant-level gate.
	RoleSuperAdmin UserRole = "super_admin"
	RoleOwner      UserRole = "owner"
	RoleManager    UserRole = "manager"
	RoleStaff      UserRole = "staff"
)

func (r UserRole) String() string {
	return string(r)
}

// IsSuperAdmin reports whether the role bypasses tenant confinement.
func (r UserRole) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

func (r UserRole) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleOwner, RoleManager, RoleStaff:
		return true
	}
	return false
}

// ParseUserRole falls back to the least privileged role for unknown input.
func ParseUserRole(s string) UserRole {
	role := UserRole(s)
	if role.IsValid() {
		return role
	}
	return RoleStaff
}

// In reports whether r is one of roles.
func (r UserRole) In(roles ...UserRole) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}
