package dto

import (
	"time"

	"github.com/serviceflow/helpdesk-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and the authenticated user.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Email               string      `json:"email"`
	Password            string      `json:"password"`
	FullName            *string     `json:"full_name"`
	Role                domain.Role `json:"role"`
	CompanyID           string      `json:"company_id"`
	IsActive            *bool       `json:"is_active"`
	CanViewAllCompanies bool        `json:"can_view_all_companies"`
}

// UpdateUserRequest payload; nil fields are left unchanged.
type UpdateUserRequest struct {
	Email               *string      `json:"email"`
	Password            *string      `json:"password"`
	FullName            *string      `json:"full_name"`
	Role                *domain.Role `json:"role"`
	CompanyID           *string      `json:"company_id"`
	IsActive            *bool        `json:"is_active"`
	CanViewAllCompanies *bool        `json:"can_view_all_companies"`
}

// UserResponse never includes the password hash.
type UserResponse struct {
	ID                  string      `json:"id"`
	Email               string      `json:"email"`
	FullName            *string     `json:"full_name"`
	Role                domain.Role `json:"role"`
	CompanyID           string      `json:"company_id"`
	IsActive            bool        `json:"is_active"`
	CanViewAllCompanies bool        `json:"can_view_all_companies"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}
