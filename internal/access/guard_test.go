package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/serviceflow/helpdesk-service/internal/domain"
)

func user(role domain.Role, companyID string, crossCompany bool) *domain.User {
	return &domain.User{
		ID:                  "u-" + string(role) + "-" + companyID,
		Role:                role,
		CompanyID:           companyID,
		IsActive:            true,
		CanViewAllCompanies: crossCompany,
	}
}

func TestResolveScope(t *testing.T) {
	guard := NewGuard()

	cases := []struct {
		name         string
		caller       *domain.User
		override     string
		wantAll      bool
		wantCompany  string
		wantSelfOnly bool
	}{
		{
			name:    "superadmin without override sees everything",
			caller:  user(domain.RoleSuperadmin, "hq", false),
			wantAll: true,
		},
		{
			name:        "superadmin override narrows to one company",
			caller:      user(domain.RoleSuperadmin, "hq", false),
			override:    "acme",
			wantCompany: "acme",
		},
		{
			name:        "admin without cross-company flag ignores foreign override",
			caller:      user(domain.RoleAdmin, "acme", false),
			override:    "globex",
			wantCompany: "acme",
		},
		{
			name:        "admin override to own company is a no-op",
			caller:      user(domain.RoleAdmin, "acme", false),
			override:    "acme",
			wantCompany: "acme",
		},
		{
			name:        "tech with cross-company flag may switch",
			caller:      user(domain.RoleTech, "acme", true),
			override:    "globex",
			wantCompany: "globex",
		},
		{
			name:         "end user is always self-scoped",
			caller:       user(domain.RoleUser, "acme", false),
			override:     "globex",
			wantCompany:  "acme",
			wantSelfOnly: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scope := guard.ResolveScope(tc.caller, tc.override)
			assert.Equal(t, tc.wantAll, scope.AllCompanies)
			assert.Equal(t, tc.wantSelfOnly, scope.SelfOnly)
			if !tc.wantAll {
				assert.Equal(t, tc.wantCompany, scope.CompanyID)
			}
			assert.Equal(t, tc.caller.ID, scope.UserID)
		})
	}
}

func TestCanViewTicket(t *testing.T) {
	guard := NewGuard()
	requester := user(domain.RoleUser, "acme", false)
	ticket := &domain.Ticket{ID: "t1", CompanyID: "acme", RequesterID: requester.ID}

	assert.True(t, guard.CanViewTicket(guard.ResolveScope(requester, ""), ticket))

	otherUser := user(domain.RoleUser, "acme", false)
	otherUser.ID = "someone-else"
	assert.False(t, guard.CanViewTicket(guard.ResolveScope(otherUser, ""), ticket))

	sameCompanyTech := user(domain.RoleTech, "acme", false)
	assert.True(t, guard.CanViewTicket(guard.ResolveScope(sameCompanyTech, ""), ticket))

	foreignTech := user(domain.RoleTech, "globex", false)
	assert.False(t, guard.CanViewTicket(guard.ResolveScope(foreignTech, ""), ticket))

	superadmin := user(domain.RoleSuperadmin, "hq", false)
	assert.True(t, guard.CanViewTicket(guard.ResolveScope(superadmin, ""), ticket))
	assert.False(t, guard.CanViewTicket(guard.ResolveScope(superadmin, "globex"), ticket))
}

func TestTicketCapabilitiesByRole(t *testing.T) {
	guard := NewGuard()
	endUser := user(domain.RoleUser, "acme", false)
	tech := user(domain.RoleTech, "acme", false)
	admin := user(domain.RoleAdmin, "acme", false)
	superadmin := user(domain.RoleSuperadmin, "hq", false)

	for _, staff := range []*domain.User{tech, admin, superadmin} {
		assert.True(t, guard.CanAssign(staff), staff.Role)
		assert.True(t, guard.CanResolve(staff), staff.Role)
		assert.True(t, guard.CanDeleteTicket(staff), staff.Role)
		assert.True(t, guard.CanPostPrivateComment(staff), staff.Role)
		assert.True(t, guard.CanViewStats(staff), staff.Role)
	}
	assert.False(t, guard.CanAssign(endUser))
	assert.False(t, guard.CanResolve(endUser))
	assert.False(t, guard.CanDeleteTicket(endUser))
	assert.False(t, guard.CanPostPrivateComment(endUser))
	assert.False(t, guard.CanViewStats(endUser))
}

func TestAttachmentCapability(t *testing.T) {
	guard := NewGuard()
	requester := user(domain.RoleUser, "acme", false)
	ticket := &domain.Ticket{CompanyID: "acme", RequesterID: requester.ID}

	assert.True(t, guard.CanAddAttachment(requester, ticket))
	assert.True(t, guard.CanAddAttachment(user(domain.RoleTech, "acme", false), ticket))

	bystander := user(domain.RoleUser, "acme", false)
	bystander.ID = "bystander"
	assert.False(t, guard.CanAddAttachment(bystander, ticket))
}

func TestUserManagementCapabilities(t *testing.T) {
	guard := NewGuard()
	admin := user(domain.RoleAdmin, "acme", false)
	superadmin := user(domain.RoleSuperadmin, "hq", false)

	assert.True(t, guard.CanCreateUser(admin, domain.RoleTech, "acme"))
	assert.True(t, guard.CanCreateUser(admin, domain.RoleUser, "acme"))
	assert.False(t, guard.CanCreateUser(admin, domain.RoleAdmin, "acme"))
	assert.False(t, guard.CanCreateUser(admin, domain.RoleUser, "globex"))
	assert.True(t, guard.CanCreateUser(superadmin, domain.RoleAdmin, "globex"))
	assert.False(t, guard.CanCreateUser(user(domain.RoleTech, "acme", false), domain.RoleUser, "acme"))

	target := user(domain.RoleTech, "acme", false)
	assert.True(t, guard.CanManageUser(admin, target))
	otherAdmin := user(domain.RoleAdmin, "acme", false)
	otherAdmin.ID = "other-admin"
	assert.False(t, guard.CanManageUser(admin, otherAdmin))
	assert.False(t, guard.CanManageUser(admin, user(domain.RoleTech, "globex", false)))
	assert.True(t, guard.CanManageUser(target, target))
	assert.True(t, guard.CanManageUser(superadmin, user(domain.RoleAdmin, "globex", false)))

	assert.False(t, guard.CanSetRole(admin, domain.RoleAdmin))
	assert.True(t, guard.CanSetRole(admin, domain.RoleTech))
	assert.True(t, guard.CanSetRole(superadmin, domain.RoleSuperadmin))

	assert.False(t, guard.CanMoveCompany(admin))
	assert.True(t, guard.CanMoveCompany(superadmin))
	assert.True(t, guard.CanGrantCrossCompany(admin))
	assert.False(t, guard.CanGrantCrossCompany(user(domain.RoleTech, "acme", false)))
}

func TestSystemCapabilities(t *testing.T) {
	guard := NewGuard()
	tech := user(domain.RoleTech, "acme", false)
	admin := user(domain.RoleAdmin, "acme", false)
	superadmin := user(domain.RoleSuperadmin, "hq", false)

	assert.False(t, guard.CanManageCompanies(admin))
	assert.True(t, guard.CanManageCompanies(superadmin))

	assert.False(t, guard.CanReadEmailConfig(tech))
	assert.True(t, guard.CanReadEmailConfig(admin))
	assert.False(t, guard.CanWriteEmailConfig(admin))
	assert.True(t, guard.CanWriteEmailConfig(superadmin))
}
