package dto

// UpdateEmailConfigRequest payload; nil fields are left unchanged.
type UpdateEmailConfigRequest struct {
	FromEmail *string `json:"from_email"`
	SMTPHost  *string `json:"smtp_host"`
	SMTPPort  *int    `json:"smtp_port"`
	SMTPUser  *string `json:"smtp_user"`
	SMTPPass  *string `json:"smtp_pass"`
}

// TestEmailRequest payload.
type TestEmailRequest struct {
	To string `json:"to"`
}
