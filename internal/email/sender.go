package email

import (
	"context"
	"errors"
	"strconv"

	"gopkg.in/gomail.v2"

	"github.com/serviceflow/helpdesk-service/internal/config"
	"github.com/serviceflow/helpdesk-service/internal/repository"
)

// Config keys stored in the app_config table. DB values override the
// environment fallbacks so admins can reconfigure without a restart.
const (
	KeyFromEmail = "email.from_email"
	KeySMTPHost  = "smtp.host"
	KeySMTPPort  = "smtp.port"
	KeySMTPUser  = "smtp.user"
	KeySMTPPass  = "smtp.pass"
)

// Settings is the effective SMTP configuration.
type Settings struct {
	FromEmail string
	Host      string
	Port      int
	Username  string
	Password  string
}

// Configured reports whether enough is present to attempt a send.
func (s Settings) Configured() bool {
	return s.Host != "" && s.FromEmail != ""
}

// Sender delivers outbound mail.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
	EffectiveSettings(ctx context.Context) (Settings, error)
}

// SMTPSender sends through gomail, re-reading the stored configuration on
// each send.
type SMTPSender struct {
	fallback config.EmailConfig
	configs  repository.ConfigRepository
}

// NewSMTPSender constructs the sender.
func NewSMTPSender(fallback config.EmailConfig, configs repository.ConfigRepository) *SMTPSender {
	return &SMTPSender{fallback: fallback, configs: configs}
}

// EffectiveSettings layers the app_config values over env fallbacks.
func (s *SMTPSender) EffectiveSettings(ctx context.Context) (Settings, error) {
	settings := Settings{
		FromEmail: s.fallback.FromEmail,
		Host:      s.fallback.SMTPHost,
		Port:      s.fallback.SMTPPort,
		Username:  s.fallback.SMTPUser,
		Password:  s.fallback.SMTPPass,
	}
	if s.configs == nil {
		return settings, nil
	}

	stored, err := s.configs.GetAll(ctx)
	if err != nil {
		return Settings{}, err
	}
	if v := stored[KeyFromEmail]; v != "" {
		settings.FromEmail = v
	}
	if v := stored[KeySMTPHost]; v != "" {
		settings.Host = v
	}
	if v := stored[KeySMTPPort]; v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			settings.Port = port
		}
	}
	if v := stored[KeySMTPUser]; v != "" {
		settings.Username = v
	}
	if v := stored[KeySMTPPass]; v != "" {
		settings.Password = v
	}
	return settings, nil
}

// Send delivers a plain-text message.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	settings, err := s.EffectiveSettings(ctx)
	if err != nil {
		return err
	}
	if !settings.Configured() {
		return errors.New("email sending not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", settings.FromEmail)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(settings.Host, settings.Port, settings.Username, settings.Password)
	return dialer.DialAndSend(msg)
}
