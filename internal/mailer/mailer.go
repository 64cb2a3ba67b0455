package mailer

import (
	"gopkg.in/gomail.v2" // SMTP client
)

// Mailer delivers a single plain-text message. Delivery is best-effort:
// callers log a failure and continue, they never fail the request over it.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail through an SMTP relay via gomail
type SMTPMailer struct {
	host     string // SMTP server host
	port     int    // SMTP server port
	username string // SMTP username, empty for unauthenticated relays
	password string // SMTP password
	from     string // Sender address
}

// NewSMTP creates an SMTPMailer
func NewSMTP(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers a plain-text message to a single recipient
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()            // Build the message
	msg.SetHeader("From", m.from)         // Sender
	msg.SetHeader("To", to)               // Recipient
	msg.SetHeader("Subject", subject)     // Subject line
	msg.SetBody("text/plain", body)       // Plain-text body
	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
	return dialer.DialAndSend(msg) // Connect, send, close
}
