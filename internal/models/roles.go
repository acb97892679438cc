// internal/models/roles.go

package models

// UserRole is the role carried in an access token.
type UserRole string

const (
	RoleStandardUser  UserRole = "standard_user"
	RoleAnonymousUser UserRole = "anonymous_user"
	RoleAgent         UserRole = "agent"
	RoleStaff         UserRole = "staff"
	RoleAdmin         UserRole = "admin"
)

// IsValid reports whether the role is known.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleStandardUser, RoleAnonymousUser, RoleAgent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsAgencyMember is true for roles that work complaints on behalf of an agency.
func (r UserRole) IsAgencyMember() bool {
	return r == RoleAgent || r == RoleStaff
}

// IsCitizen is true for roles that submit complaints.
func (r UserRole) IsCitizen() bool {
	return r == RoleStandardUser || r == RoleAnonymousUser
}

// IsHigherOrEqual compares roles on the privilege ladder.
// Citizens share the bottom rung; agents and staff share the middle one.
func (r UserRole) IsHigherOrEqual(target UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleAnonymousUser: 0,
		RoleStandardUser:  0,
		RoleAgent:         1,
		RoleStaff:         1,
		RoleAdmin:         2,
	}

	currentLevel, exists1 := roleHierarchy[r]
	targetLevel, exists2 := roleHierarchy[target]
	if !exists1 || !exists2 {
		return false
	}

	return currentLevel >= targetLevel
}

// ResponderRole maps a token role to the role recorded on a Response.
func (r UserRole) ResponderRole() ResponderRole {
	switch r {
	case RoleAgent:
		return ResponderAgent
	case RoleStaff, RoleAdmin:
		return ResponderStaff
	default:
		return ResponderUser
	}
}

func (r UserRole) String() string {
	return string(r)
}

// StaffRoles are the roles an administrator may create accounts for.
func StaffRoles() []UserRole {
	return []UserRole{RoleAgent, RoleStaff, RoleAdmin}
}

// FromString converts a string into a known UserRole.
func FromString(role string) (UserRole, bool) {
	r := UserRole(role)
	if r.IsValid() {
		return r, true
	}
	return "", false
}
