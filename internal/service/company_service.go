package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/repository"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// CompanyService manages tenant records.
type CompanyService struct {
	companies repository.CompanyRepository
	guard     *access.Guard
}

// NewCompanyService constructs the service.
func NewCompanyService(companies repository.CompanyRepository, guard *access.Guard) *CompanyService {
	return &CompanyService{companies: companies, guard: guard}
}

// List returns companies: staff see every tenant, regular users only
// their own.
func (s *CompanyService) List(ctx context.Context, caller *domain.User) ([]domain.Company, error) {
	scope := repository.CompanyScope{All: caller.Role.IsStaff(), CompanyID: caller.CompanyID}
	companies, err := s.companies.List(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return companies, nil
}

// Create registers a tenant; superadmin only.
func (s *CompanyService) Create(ctx context.Context, caller *domain.User, name string) (*domain.Company, error) {
	if !s.guard.CanManageCompanies(caller) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	company := &domain.Company{Name: name}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, apperrors.MapError(err)
	}
	return company, nil
}

// Update renames a tenant; superadmin only.
func (s *CompanyService) Update(ctx context.Context, caller *domain.User, id, name string) (*domain.Company, error) {
	if !s.guard.CanManageCompanies(caller) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("company", nil)
		}
		return nil, apperrors.MapError(err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	company.Name = name
	if err := s.companies.Update(ctx, company); err != nil {
		return nil, apperrors.MapError(err)
	}
	return company, nil
}

// Delete removes a tenant; superadmin only.
func (s *CompanyService) Delete(ctx context.Context, caller *domain.User, id string) error {
	if !s.guard.CanManageCompanies(caller) {
		return apperrors.NewForbidden("insufficient permissions")
	}
	if err := s.companies.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("company", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}
