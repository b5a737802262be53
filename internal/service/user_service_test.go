package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/auth"
	"github.com/serviceflow/helpdesk-service/internal/domain"
)

const testBcryptCost = 4

func newUserFixture() (*UserService, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewUserService(repo, access.NewGuard(), testBcryptCost), repo
}

func TestCreateUserForcesAdminCompany(t *testing.T) {
	svc, repo := newUserFixture()
	admin := testUser(domain.RoleAdmin, "acme")
	repo.add(admin)

	created, err := svc.Create(context.Background(), admin, UserCreateInput{
		Email:     "New.Tech@Example.com",
		Password:  "s3cret",
		Role:      domain.RoleTech,
		CompanyID: "globex",
		IsActive:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "new.tech@example.com", created.Email)
	assert.Equal(t, "acme", created.CompanyID)
	require.NoError(t, auth.ComparePassword(created.PasswordHash, "s3cret"))
}

func TestCreateUserRoleCeilingAndDuplicates(t *testing.T) {
	svc, repo := newUserFixture()
	admin := testUser(domain.RoleAdmin, "acme")
	superadmin := testUser(domain.RoleSuperadmin, "hq")
	repo.add(admin)
	repo.add(superadmin)

	_, err := svc.Create(context.Background(), admin, UserCreateInput{
		Email:     "peer@example.com",
		Password:  "pw",
		Role:      domain.RoleAdmin,
		CompanyID: "acme",
	})
	assertCode(t, err, "FORBIDDEN")

	_, err = svc.Create(context.Background(), superadmin, UserCreateInput{
		Email:     "other-admin@example.com",
		Password:  "pw",
		Role:      domain.RoleAdmin,
		CompanyID: "globex",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), superadmin, UserCreateInput{
		Email:     "other-admin@example.com",
		Password:  "pw",
		Role:      domain.RoleUser,
		CompanyID: "globex",
	})
	assertCode(t, err, "CONFLICT")

	_, err = svc.Create(context.Background(), superadmin, UserCreateInput{
		Email:     "not-an-email",
		Password:  "pw",
		Role:      domain.RoleUser,
		CompanyID: "globex",
	})
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestCrossCompanyFlagRequiresStaffRole(t *testing.T) {
	svc, repo := newUserFixture()
	superadmin := testUser(domain.RoleSuperadmin, "hq")
	repo.add(superadmin)

	created, err := svc.Create(context.Background(), superadmin, UserCreateInput{
		Email:               "plain@example.com",
		Password:            "pw",
		Role:                domain.RoleUser,
		CompanyID:           "acme",
		CanViewAllCompanies: true,
	})
	require.NoError(t, err)
	assert.False(t, created.CanViewAllCompanies)

	tech, err := svc.Create(context.Background(), superadmin, UserCreateInput{
		Email:               "roving@example.com",
		Password:            "pw",
		Role:                domain.RoleTech,
		CompanyID:           "acme",
		CanViewAllCompanies: true,
	})
	require.NoError(t, err)
	assert.True(t, tech.CanViewAllCompanies)
}

func TestUpdateUserSelfEditLimits(t *testing.T) {
	svc, repo := newUserFixture()
	tech := testUser(domain.RoleTech, "acme")
	repo.add(tech)

	updated, err := svc.Update(context.Background(), tech, tech.ID, UserUpdateInput{
		FullName: strPtr("Grace Hopper"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.FullName)
	assert.Equal(t, "Grace Hopper", *updated.FullName)

	role := domain.RoleAdmin
	_, err = svc.Update(context.Background(), tech, tech.ID, UserUpdateInput{Role: &role})
	assertCode(t, err, "FORBIDDEN")
}

func TestUpdateUserPrivilegeGates(t *testing.T) {
	svc, repo := newUserFixture()
	admin := testUser(domain.RoleAdmin, "acme")
	target := testUser(domain.RoleTech, "acme")
	repo.add(admin)
	repo.add(target)

	// Admins cannot promote to admin or move companies.
	role := domain.RoleAdmin
	_, err := svc.Update(context.Background(), admin, target.ID, UserUpdateInput{Role: &role})
	assertCode(t, err, "FORBIDDEN")
	_, err = svc.Update(context.Background(), admin, target.ID, UserUpdateInput{CompanyID: strPtr("globex")})
	assertCode(t, err, "FORBIDDEN")

	// Deactivation and cross-company grants are allowed.
	inactive := false
	grant := true
	updated, err := svc.Update(context.Background(), admin, target.ID, UserUpdateInput{
		IsActive:            &inactive,
		CanViewAllCompanies: &grant,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.CanViewAllCompanies)

	superadmin := testUser(domain.RoleSuperadmin, "hq")
	repo.add(superadmin)
	moved, err := svc.Update(context.Background(), superadmin, target.ID, UserUpdateInput{CompanyID: strPtr("globex")})
	require.NoError(t, err)
	assert.Equal(t, "globex", moved.CompanyID)
}

func TestDeleteUserRules(t *testing.T) {
	svc, repo := newUserFixture()
	admin := testUser(domain.RoleAdmin, "acme")
	target := testUser(domain.RoleUser, "acme")
	foreign := testUser(domain.RoleUser, "globex")
	repo.add(admin)
	repo.add(target)
	repo.add(foreign)

	err := svc.Delete(context.Background(), admin, admin.ID)
	assertCode(t, err, "CONFLICT")

	err = svc.Delete(context.Background(), admin, foreign.ID)
	assertCode(t, err, "FORBIDDEN")

	tech := testUser(domain.RoleTech, "acme")
	repo.add(tech)
	err = svc.Delete(context.Background(), tech, target.ID)
	assertCode(t, err, "FORBIDDEN")

	require.NoError(t, svc.Delete(context.Background(), admin, target.ID))
	_, err = repo.GetByID(context.Background(), target.ID)
	assert.Error(t, err)
}

func TestListUsersSelfScope(t *testing.T) {
	svc, repo := newUserFixture()
	alice := testUser(domain.RoleUser, "acme")
	bob := testUser(domain.RoleUser, "acme")
	tech := testUser(domain.RoleTech, "acme")
	repo.add(alice)
	repo.add(bob)
	repo.add(tech)

	own, err := svc.List(context.Background(), scopeFor(alice), UserListFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, alice.ID, own[0].ID)

	all, err := svc.List(context.Background(), scopeFor(tech), UserListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
