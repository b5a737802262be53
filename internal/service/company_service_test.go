package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/repository"
)

type fakeCompanyRepo struct {
	companies map[string]domain.Company
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{companies: make(map[string]domain.Company)}
}

func (r *fakeCompanyRepo) Create(_ context.Context, company *domain.Company) error {
	company.ID = uuid.NewString()
	company.CreatedAt = time.Now()
	r.companies[company.ID] = *company
	return nil
}

func (r *fakeCompanyRepo) Update(_ context.Context, company *domain.Company) error {
	if _, ok := r.companies[company.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.companies[company.ID] = *company
	return nil
}

func (r *fakeCompanyRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.companies[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.companies, id)
	return nil
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id string) (*domain.Company, error) {
	company, ok := r.companies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := company
	return &copied, nil
}

func (r *fakeCompanyRepo) List(_ context.Context, scope repository.CompanyScope) ([]domain.Company, error) {
	var out []domain.Company
	for _, company := range r.companies {
		if !scope.All && company.ID != scope.CompanyID {
			continue
		}
		out = append(out, company)
	}
	return out, nil
}

func TestCompanyManagementSuperadminOnly(t *testing.T) {
	repo := newFakeCompanyRepo()
	svc := NewCompanyService(repo, access.NewGuard())
	superadmin := testUser(domain.RoleSuperadmin, "hq")
	admin := testUser(domain.RoleAdmin, "acme")

	_, err := svc.Create(context.Background(), admin, "Initech")
	assertCode(t, err, "FORBIDDEN")

	company, err := svc.Create(context.Background(), superadmin, "  Initech  ")
	require.NoError(t, err)
	assert.Equal(t, "Initech", company.Name)

	_, err = svc.Create(context.Background(), superadmin, "   ")
	assertCode(t, err, "VALIDATION_FAILED")

	renamed, err := svc.Update(context.Background(), superadmin, company.ID, "Initech GmbH")
	require.NoError(t, err)
	assert.Equal(t, "Initech GmbH", renamed.Name)

	_, err = svc.Update(context.Background(), superadmin, "missing", "x")
	assertCode(t, err, "NOT_FOUND")

	err = svc.Delete(context.Background(), admin, company.ID)
	assertCode(t, err, "FORBIDDEN")
	require.NoError(t, svc.Delete(context.Background(), superadmin, company.ID))
	err = svc.Delete(context.Background(), superadmin, company.ID)
	assertCode(t, err, "NOT_FOUND")
}

func TestCompanyListVisibility(t *testing.T) {
	repo := newFakeCompanyRepo()
	svc := NewCompanyService(repo, access.NewGuard())
	superadmin := testUser(domain.RoleSuperadmin, "hq")

	first, err := svc.Create(context.Background(), superadmin, "Acme")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), superadmin, "Globex")
	require.NoError(t, err)

	tech := testUser(domain.RoleTech, first.ID)
	all, err := svc.List(context.Background(), tech)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	endUser := testUser(domain.RoleUser, first.ID)
	own, err := svc.List(context.Background(), endUser)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, first.ID, own[0].ID)
}
