package access

import (
	"github.com/serviceflow/helpdesk-service/internal/domain"
)

// Scope is the set of companies a caller may see for one request, resolved
// from role, the can_view_all_companies flag and the optional override
// header. Every list/get intersects its results with this scope.
type Scope struct {
	UserID       string
	Role         domain.Role
	AllCompanies bool
	CompanyID    string
	// SelfOnly restricts tickets to ones the caller requested and user
	// listings to the caller's own record (role=user).
	SelfOnly bool
}

// Allows reports whether an entity owned by companyID falls inside the scope.
func (s Scope) Allows(companyID string) bool {
	return s.AllCompanies || s.CompanyID == companyID
}

// Guard is the single policy choke point consulted before every operation.
type Guard struct{}

// NewGuard constructs the policy evaluator.
func NewGuard() *Guard {
	return &Guard{}
}

// ResolveScope computes the effective scope for a caller. The company
// override is honored only for callers holding can_view_all_companies or
// when it names the caller's home company; otherwise it is ignored.
func (g *Guard) ResolveScope(caller *domain.User, overrideCompanyID string) Scope {
	scope := Scope{
		UserID:    caller.ID,
		Role:      caller.Role,
		CompanyID: caller.CompanyID,
	}

	switch caller.Role {
	case domain.RoleSuperadmin:
		if overrideCompanyID != "" {
			scope.CompanyID = overrideCompanyID
		} else {
			scope.AllCompanies = true
		}
	case domain.RoleAdmin, domain.RoleTech:
		if overrideCompanyID != "" && (caller.CanViewAllCompanies || overrideCompanyID == caller.CompanyID) {
			scope.CompanyID = overrideCompanyID
		}
	default:
		scope.SelfOnly = true
	}
	return scope
}

// CanViewTicket reports whether a ticket is visible inside the scope.
// Callers with role=user additionally must be the requester.
func (g *Guard) CanViewTicket(scope Scope, ticket *domain.Ticket) bool {
	if !scope.Allows(ticket.CompanyID) {
		return false
	}
	if scope.SelfOnly && ticket.RequesterID != scope.UserID {
		return false
	}
	return true
}

// CanAssign reports whether the caller may set or clear a ticket assignee.
func (g *Guard) CanAssign(caller *domain.User) bool {
	return caller.Role.IsStaff()
}

// CanResolve reports whether the caller may resolve tickets.
func (g *Guard) CanResolve(caller *domain.User) bool {
	return caller.Role.IsStaff()
}

// CanDeleteTicket reports whether the caller may hard-delete tickets.
func (g *Guard) CanDeleteTicket(caller *domain.User) bool {
	return caller.Role.IsStaff()
}

// CanPostPrivateComment reports whether an is_public=false comment is
// permitted for this author. Non-staff comments are forced public.
func (g *Guard) CanPostPrivateComment(caller *domain.User) bool {
	return caller.Role.IsStaff()
}

// CanAddAttachment reports whether the caller may attach files to a ticket.
func (g *Guard) CanAddAttachment(caller *domain.User, ticket *domain.Ticket) bool {
	return caller.Role.IsStaff() || ticket.RequesterID == caller.ID
}

// CanCreateUser reports whether the caller may create a user with the given
// role in the given company. Admins are limited to technicians and regular
// users inside their own company; superadmin may create anyone anywhere.
func (g *Guard) CanCreateUser(caller *domain.User, role domain.Role, companyID string) bool {
	switch caller.Role {
	case domain.RoleSuperadmin:
		return true
	case domain.RoleAdmin:
		return companyID == caller.CompanyID && !role.AtLeast(domain.RoleAdmin)
	}
	return false
}

// CanManageUser reports whether the caller may edit or delete the target
// user. Everyone may edit their own record; admins manage sub-admin roles
// inside their company; superadmin manages anyone.
func (g *Guard) CanManageUser(caller, target *domain.User) bool {
	if caller.ID == target.ID {
		return true
	}
	switch caller.Role {
	case domain.RoleSuperadmin:
		return true
	case domain.RoleAdmin:
		return target.CompanyID == caller.CompanyID && !target.Role.AtLeast(domain.RoleAdmin)
	}
	return false
}

// CanSetRole reports whether the caller may assign the given role to a
// managed user. Only superadmin may mint admins or superadmins.
func (g *Guard) CanSetRole(caller *domain.User, role domain.Role) bool {
	if caller.Role == domain.RoleSuperadmin {
		return true
	}
	return caller.Role == domain.RoleAdmin && !role.AtLeast(domain.RoleAdmin)
}

// CanMoveCompany reports whether the caller may move users between companies.
func (g *Guard) CanMoveCompany(caller *domain.User) bool {
	return caller.Role == domain.RoleSuperadmin
}

// CanGrantCrossCompany reports whether the caller may toggle the
// can_view_all_companies flag on a user.
func (g *Guard) CanGrantCrossCompany(caller *domain.User) bool {
	return caller.Role.AtLeast(domain.RoleAdmin)
}

// CanManageCompanies reports whether the caller may create, edit or delete
// companies.
func (g *Guard) CanManageCompanies(caller *domain.User) bool {
	return caller.Role == domain.RoleSuperadmin
}

// CanViewStats reports whether the caller may read aggregated dashboards.
func (g *Guard) CanViewStats(caller *domain.User) bool {
	return caller.Role.IsStaff()
}

// CanReadEmailConfig reports whether the caller may read the (masked)
// email configuration or trigger a test send.
func (g *Guard) CanReadEmailConfig(caller *domain.User) bool {
	return caller.Role.AtLeast(domain.RoleAdmin)
}

// CanWriteEmailConfig reports whether the caller may change system email
// settings.
func (g *Guard) CanWriteEmailConfig(caller *domain.User) bool {
	return caller.Role == domain.RoleSuperadmin
}
