package mailer

import (
	"context"
	"fmt"
	"time"
)

// Message is an outgoing email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer defines the interface for sending email
type Mailer interface {
	// Send delivers msg, honouring ctx and the mailer's own timeout
	Send(ctx context.Context, msg Message) error

	// GetName returns the name of the mailer implementation
	GetName() string
}

// PasswordResetSubject is the subject of password reset emails
const PasswordResetSubject = "Hostelite Password Reset OTP"

// PasswordResetMessage builds the OTP email for a password reset
func PasswordResetMessage(to, otp string, validFor time.Duration) Message {
	minutes := int(validFor.Minutes())
	return Message{
		To:      to,
		Subject: PasswordResetSubject,
		HTML: fmt.Sprintf(
			`<h2>Password Reset</h2><p>Your OTP is: <b>%s</b></p><p>This OTP is valid for %d minutes.</p>`,
			otp, minutes,
		),
	}
}
