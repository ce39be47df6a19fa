package domain

import "strings"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type Privilege string

const (
	PrivilegeReadProfile    Privilege = "READ_PROFILE"
	PrivilegeUpdateProfile  Privilege = "UPDATE_PROFILE"
	PrivilegeChangePassword Privilege = "CHANGE_PASSWORD"
	PrivilegeReadUsers      Privilege = "READ_USERS"
	PrivilegeUpdateUserRole Privilege = "UPDATE_USER_ROLE"
	PrivilegeEnableUser     Privilege = "ENABLE_USER"
	PrivilegeDisableUser    Privilege = "DISABLE_USER"
)

// RoleAuthorityPrefix marks role entries in an authority set.
const RoleAuthorityPrefix = "ROLE_"

var userPrivileges = []Privilege{
	PrivilegeReadProfile,
	PrivilegeUpdateProfile,
	PrivilegeChangePassword,
}

var rolePrivileges = map[Role][]Privilege{
	RoleUser: userPrivileges,
	RoleAdmin: append(append([]Privilege{}, userPrivileges...),
		PrivilegeReadUsers,
		PrivilegeUpdateUserRole,
		PrivilegeEnableUser,
		PrivilegeDisableUser,
	),
}

func (r Role) IsValid() bool {
	_, ok := rolePrivileges[r]
	return ok
}

// ParseRole accepts role names case-insensitively, with or without the
// ROLE_ prefix.
func ParseRole(s string) (Role, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, RoleAuthorityPrefix)
	role := Role(name)
	return role, role.IsValid()
}

// AllRoles lists roles from least to most privileged.
func AllRoles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

// Privileges returns the ordered privilege list granted to role. Unknown
// roles get no privileges. The returned slice is a copy.
func Privileges(role Role) []Privilege {
	privileges := rolePrivileges[role]
	out := make([]Privilege, len(privileges))
	copy(out, privileges)
	return out
}

// Authorities is the authority set carried by tokens: every privilege name
// followed by the ROLE_<name> marker.
func Authorities(role Role) []string {
	privileges := rolePrivileges[role]
	out := make([]string, 0, len(privileges)+1)
	for _, p := range privileges {
		out = append(out, string(p))
	}
	if role.IsValid() {
		out = append(out, RoleAuthorityPrefix+string(role))
	}
	return out
}
