package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/serviceflow/helpdesk-service/internal/api/dto"
	"github.com/serviceflow/helpdesk-service/internal/auth"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// principal returns the authenticated user or an unauthorized error.
func principal(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.PrincipalFromContext(c)
	if !ok || user == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return user, nil
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                ticket.ID,
		Title:             ticket.Title,
		Description:       ticket.Description,
		Status:            ticket.Status,
		Priority:          ticket.Priority,
		CompanyID:         ticket.CompanyID,
		RequesterID:       ticket.RequesterID,
		AssigneeID:        ticket.AssigneeID,
		ResolvedAt:        ticket.ResolvedAt,
		ResolutionSummary: ticket.ResolutionSummary,
		TimeSpentMinutes:  ticket.TimeSpentMinutes,
		CreatedAt:         ticket.CreatedAt,
		UpdatedAt:         ticket.UpdatedAt,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		UserID:    comment.UserID,
		Body:      comment.Body,
		IsPublic:  comment.IsPublic,
		CreatedAt: comment.CreatedAt,
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:                  user.ID,
		Email:               user.Email,
		FullName:            user.FullName,
		Role:                user.Role,
		CompanyID:           user.CompanyID,
		IsActive:            user.IsActive,
		CanViewAllCompanies: user.CanViewAllCompanies,
		CreatedAt:           user.CreatedAt,
		UpdatedAt:           user.UpdatedAt,
	}
}

func companyResponse(company *domain.Company) dto.CompanyResponse {
	return dto.CompanyResponse{
		ID:        company.ID,
		Name:      company.Name,
		CreatedAt: company.CreatedAt,
	}
}
