package email

import (
	"fmt"
	"net/smtp"
)

// SMTPServerConfig holds all the necessary configuration for connecting to an SMTP server.
type SMTPServerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string // The "From" email address
}

// EmailService provides a method for sending emails.
type EmailService struct {
	config SMTPServerConfig
	auth   smtp.Auth
}

// NewEmailService creates a new service for sending emails.
func NewEmailService(config SMTPServerConfig) *EmailService {
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)
	return &EmailService{
		config: config,
		auth:   auth,
	}
}

// SendEventInvitationEmail constructs and sends an invitation email for a
// private event. Delivery is best-effort: callers log failures and move on.
func (s *EmailService) SendEventInvitationEmail(recipientEmail, inviterName, eventName, frontendURL string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	subject := fmt.Sprintf("%s invited you to '%s' on Melody Mingle!", inviterName, eventName)

	eventsLink := fmt.Sprintf("%s/events", frontendURL)

	body := fmt.Sprintf(
		"Hi there,\n\n%s has invited you to the event '%s' on Melody Mingle.\n\nOpen your events page to join:\n%s\n\nSee you there!\nThe Melody Mingle Team",
		inviterName,
		eventName,
		eventsLink,
	)

	message := []byte(
		"To: " + recipientEmail + "\r\n" +
			"From: " + s.config.Sender + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"\r\n" +
			body + "\r\n")

	err := smtp.SendMail(addr, s.auth, s.config.Sender, []string{recipientEmail}, message)
	if err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}

	return nil
}
