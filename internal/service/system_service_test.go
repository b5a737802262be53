package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviceflow/helpdesk-service/internal/access"
	"github.com/serviceflow/helpdesk-service/internal/config"
	"github.com/serviceflow/helpdesk-service/internal/domain"
	"github.com/serviceflow/helpdesk-service/internal/email"
)

type fakeConfigRepo struct {
	values  map[string]string
	secrets map[string]bool
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{values: make(map[string]string), secrets: make(map[string]bool)}
}

func (r *fakeConfigRepo) GetAll(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out, nil
}

func (r *fakeConfigRepo) SetMany(_ context.Context, values map[string]string, secrets map[string]bool) error {
	for k, v := range values {
		r.values[k] = v
		r.secrets[k] = secrets[k]
	}
	return nil
}

type recordingSender struct {
	settings email.Settings
	sent     []string
}

func (s *recordingSender) Send(_ context.Context, to, _, _ string) error {
	s.sent = append(s.sent, to)
	return nil
}

func (s *recordingSender) EffectiveSettings(context.Context) (email.Settings, error) {
	return s.settings, nil
}

func TestEmailConfigMasksSecrets(t *testing.T) {
	configs := newFakeConfigRepo()
	sender := email.NewSMTPSender(config.EmailConfig{FromEmail: "helpdesk@env.test"}, configs)
	svc := NewSystemService(configs, sender, access.NewGuard())

	admin := testUser(domain.RoleAdmin, "acme")
	view, err := svc.GetEmailConfig(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, "helpdesk@env.test", view.FromEmail)
	assert.False(t, view.HasSMTPPass)
	assert.False(t, view.Configured)

	superadmin := testUser(domain.RoleSuperadmin, "hq")
	view, err = svc.UpdateEmailConfig(context.Background(), superadmin, EmailConfigUpdate{
		SMTPHost: strPtr("mail.example.com"),
		SMTPPass: strPtr("hunter2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", view.SMTPHost)
	assert.True(t, view.HasSMTPPass)
	assert.True(t, view.Configured)

	// The password itself is stored as a secret and never echoed back.
	assert.True(t, configs.secrets[email.KeySMTPPass])
	assert.Equal(t, "hunter2", configs.values[email.KeySMTPPass])
}

func TestEmailConfigPermissions(t *testing.T) {
	configs := newFakeConfigRepo()
	sender := email.NewSMTPSender(config.EmailConfig{}, configs)
	svc := NewSystemService(configs, sender, access.NewGuard())

	tech := testUser(domain.RoleTech, "acme")
	_, err := svc.GetEmailConfig(context.Background(), tech)
	assertCode(t, err, "FORBIDDEN")

	admin := testUser(domain.RoleAdmin, "acme")
	_, err = svc.UpdateEmailConfig(context.Background(), admin, EmailConfigUpdate{
		SMTPHost: strPtr("mail.example.com"),
	})
	assertCode(t, err, "FORBIDDEN")
}

func TestEmailConfigValidation(t *testing.T) {
	configs := newFakeConfigRepo()
	sender := email.NewSMTPSender(config.EmailConfig{}, configs)
	svc := NewSystemService(configs, sender, access.NewGuard())
	superadmin := testUser(domain.RoleSuperadmin, "hq")

	badPort := 70000
	_, err := svc.UpdateEmailConfig(context.Background(), superadmin, EmailConfigUpdate{SMTPPort: &badPort})
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = svc.UpdateEmailConfig(context.Background(), superadmin, EmailConfigUpdate{FromEmail: strPtr("nope")})
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = svc.UpdateEmailConfig(context.Background(), superadmin, EmailConfigUpdate{})
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestSendTestEmail(t *testing.T) {
	sender := &recordingSender{}
	svc := NewSystemService(newFakeConfigRepo(), sender, access.NewGuard())
	admin := testUser(domain.RoleAdmin, "acme")

	err := svc.SendTestEmail(context.Background(), admin, "probe@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"probe@example.com"}, sender.sent)

	err = svc.SendTestEmail(context.Background(), admin, "not-an-address")
	assertCode(t, err, "VALIDATION_FAILED")

	tech := testUser(domain.RoleTech, "acme")
	err = svc.SendTestEmail(context.Background(), tech, "probe@example.com")
	assertCode(t, err, "FORBIDDEN")
}
