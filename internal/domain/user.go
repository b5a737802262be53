package domain

import "time"

// Role is the privilege level of a user, least to most privileged.
type Role string

const (
	RoleUser       Role = "user"
	RoleTech       Role = "tech"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

var roleRank = map[Role]int{
	RoleUser:       0,
	RoleTech:       1,
	RoleAdmin:      2,
	RoleSuperadmin: 3,
}

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// IsStaff reports whether the role is tech, admin or superadmin.
func (r Role) IsStaff() bool {
	return roleRank[r] >= roleRank[RoleTech]
}

// AtLeast reports whether the role ranks at or above other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// User is the domain model for anyone who authenticates against the system.
type User struct {
	ID                  string
	Email               string
	FullName            *string
	PasswordHash        string
	Role                Role
	CompanyID           string
	IsActive            bool
	CanViewAllCompanies bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DisplayName returns the full name, falling back to the email address.
func (u *User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Email
}
