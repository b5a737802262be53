package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/auth"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/repository"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// UserService handles user management under the Access Guard.
type UserService struct {
	users      repository.UserRepository
	guard      *access.Guard
	bcryptCost int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, guard *access.Guard, bcryptCost int) *UserService {
	return &UserService{users: users, guard: guard, bcryptCost: bcryptCost}
}

// UserCreateInput describes a new account.
type UserCreateInput struct {
	Email               string
	FullName            *string
	Password            string
	Role                domain.Role
	CompanyID           string
	IsActive            bool
	CanViewAllCompanies bool
}

// UserUpdateInput describes a partial update of an account.
type UserUpdateInput struct {
	Email               *string
	FullName            *string
	Password            *string
	Role                *domain.Role
	CompanyID           *string
	IsActive            *bool
	CanViewAllCompanies *bool
}

// UserListFilter describes user listing parameters.
type UserListFilter struct {
	Active     *bool
	RoleFilter *domain.Role
	SearchTerm *string
	Limit      int
	Offset     int
}

// Create registers a user. Admins can only create technicians and regular
// users inside their own company; superadmin creates anyone anywhere.
func (s *UserService) Create(ctx context.Context, caller *domain.User, input UserCreateInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("valid email is required", nil)
	}
	if input.Password == "" {
		return nil, apperrors.NewValidationError("password is required", nil)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}

	companyID := input.CompanyID
	if caller.Role == domain.RoleAdmin {
		companyID = caller.CompanyID
	}
	if companyID == "" {
		return nil, apperrors.NewValidationError("company_id is required", nil)
	}
	if !s.guard.CanCreateUser(caller, input.Role, companyID) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Email:               email,
		FullName:            input.FullName,
		PasswordHash:        hash,
		Role:                input.Role,
		CompanyID:           companyID,
		IsActive:            input.IsActive,
		CanViewAllCompanies: input.CanViewAllCompanies && input.Role.IsStaff(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// List returns users inside the caller's scope; role=user sees only
// themselves.
func (s *UserService) List(ctx context.Context, scope access.Scope, filter UserListFilter) ([]domain.User, error) {
	repoFilter := repository.UserFilter{
		Scope:      toCompanyScope(scope),
		Active:     filter.Active,
		RoleFilter: filter.RoleFilter,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if scope.SelfOnly {
		self := scope.UserID
		repoFilter.SelfID = &self
	}
	users, err := s.users.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Update edits a user record. Self-edits by non-admins are limited to
// email, name and password; privilege fields require the guard's say-so.
func (s *UserService) Update(ctx context.Context, caller *domain.User, id string, input UserUpdateInput) (*domain.User, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !s.guard.CanManageUser(caller, target) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}

	selfEdit := caller.ID == target.ID && !caller.Role.AtLeast(domain.RoleAdmin)
	if selfEdit && (input.Role != nil || input.CompanyID != nil || input.IsActive != nil || input.CanViewAllCompanies != nil) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}

	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, apperrors.NewValidationError("valid email is required", nil)
		}
		target.Email = email
	}
	if input.FullName != nil {
		target.FullName = input.FullName
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		target.PasswordHash = hash
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
		}
		if !s.guard.CanSetRole(caller, *input.Role) {
			return nil, apperrors.NewForbidden("insufficient permissions")
		}
		target.Role = *input.Role
	}
	if input.CompanyID != nil {
		if !s.guard.CanMoveCompany(caller) {
			return nil, apperrors.NewForbidden("only superadmin can move users between companies")
		}
		target.CompanyID = *input.CompanyID
	}
	if input.IsActive != nil {
		target.IsActive = *input.IsActive
	}
	if input.CanViewAllCompanies != nil {
		if !s.guard.CanGrantCrossCompany(caller) {
			return nil, apperrors.NewForbidden("insufficient permissions")
		}
		target.CanViewAllCompanies = *input.CanViewAllCompanies
	}
	// Only staff roles may carry cross-company visibility.
	if !target.Role.IsStaff() {
		target.CanViewAllCompanies = false
	}

	if err := s.users.Update(ctx, target); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return target, nil
}

// Delete removes a user account. Admin scope rules match Update.
func (s *UserService) Delete(ctx context.Context, caller *domain.User, id string) error {
	if !caller.Role.AtLeast(domain.RoleAdmin) {
		return apperrors.NewForbidden("insufficient permissions")
	}
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}
	if caller.ID == target.ID {
		return apperrors.NewConflict("cannot delete your own account", nil)
	}
	if !s.guard.CanManageUser(caller, target) {
		return apperrors.NewForbidden("insufficient permissions")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
