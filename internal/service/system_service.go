package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/email"
	"github.com/serviceflow/helpdesk-service/internal/repository"
	apperrors "github.com/serviceflow/helpdesk-service/pkg/util"
)

// SystemService manages runtime email configuration. Credentials are
// stored in the app_config table and masked when read back.
type SystemService struct {
	configs repository.ConfigRepository
	sender  email.Sender
	guard   *access.Guard
}

// NewSystemService constructs the service.
func NewSystemService(configs repository.ConfigRepository, sender email.Sender, guard *access.Guard) *SystemService {
	return &SystemService{configs: configs, sender: sender, guard: guard}
}

// EmailConfigView is the masked read model: the SMTP password never
// leaves the system, only its presence does.
type EmailConfigView struct {
	FromEmail   string `json:"from_email"`
	SMTPHost    string `json:"smtp_host"`
	SMTPPort    int    `json:"smtp_port"`
	SMTPUser    string `json:"smtp_user"`
	HasSMTPPass bool   `json:"has_smtp_pass"`
	Configured  bool   `json:"configured"`
}

// EmailConfigUpdate carries the writable settings. Nil fields are left
// untouched.
type EmailConfigUpdate struct {
	FromEmail *string
	SMTPHost  *string
	SMTPPort  *int
	SMTPUser  *string
	SMTPPass  *string
}

// GetEmailConfig returns the effective settings, masked. Admin and above.
func (s *SystemService) GetEmailConfig(ctx context.Context, caller *domain.User) (*EmailConfigView, error) {
	if !s.guard.CanReadEmailConfig(caller) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}
	settings, err := s.sender.EffectiveSettings(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &EmailConfigView{
		FromEmail:   settings.FromEmail,
		SMTPHost:    settings.Host,
		SMTPPort:    settings.Port,
		SMTPUser:    settings.Username,
		HasSMTPPass: settings.Password != "",
		Configured:  settings.Configured(),
	}, nil
}

// UpdateEmailConfig persists the provided settings. Superadmin only.
func (s *SystemService) UpdateEmailConfig(ctx context.Context, caller *domain.User, update EmailConfigUpdate) (*EmailConfigView, error) {
	if !s.guard.CanWriteEmailConfig(caller) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}

	values := make(map[string]string)
	secrets := make(map[string]bool)
	if update.FromEmail != nil {
		from := strings.TrimSpace(*update.FromEmail)
		if from != "" && !strings.Contains(from, "@") {
			return nil, apperrors.NewValidationError("from_email must be a valid email address", nil)
		}
		values[email.KeyFromEmail] = from
	}
	if update.SMTPHost != nil {
		values[email.KeySMTPHost] = strings.TrimSpace(*update.SMTPHost)
	}
	if update.SMTPPort != nil {
		if *update.SMTPPort < 1 || *update.SMTPPort > 65535 {
			return nil, apperrors.NewValidationError("smtp_port must be between 1 and 65535", nil)
		}
		values[email.KeySMTPPort] = strconv.Itoa(*update.SMTPPort)
	}
	if update.SMTPUser != nil {
		values[email.KeySMTPUser] = strings.TrimSpace(*update.SMTPUser)
	}
	if update.SMTPPass != nil {
		values[email.KeySMTPPass] = *update.SMTPPass
		secrets[email.KeySMTPPass] = true
	}
	if len(values) == 0 {
		return nil, apperrors.NewValidationError("no settings provided", nil)
	}

	if err := s.configs.SetMany(ctx, values, secrets); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.GetEmailConfig(ctx, caller)
}

// SendTestEmail sends a probe message to the given address. Admin and
// above.
func (s *SystemService) SendTestEmail(ctx context.Context, caller *domain.User, to string) error {
	if !s.guard.CanReadEmailConfig(caller) {
		return apperrors.NewForbidden("insufficient permissions")
	}
	to = strings.TrimSpace(to)
	if to == "" || !strings.Contains(to, "@") {
		return apperrors.NewValidationError("recipient must be a valid email address", nil)
	}

	err := s.sender.Send(ctx, to, "Helpdesk test email", "This is a test message confirming your email settings work.")
	if err != nil {
		return apperrors.NewValidationError("test email failed: "+err.Error(), nil)
	}
	return nil
}
