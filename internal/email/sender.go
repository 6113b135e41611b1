// Package email delivers notification mail over SMTP.
package email

import (
	"context"
	"fmt"
	"html"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"leadbroker_backend/platform/config"
)

// Sender delivers the notification emails the platform sends.
type Sender interface {
	SendLeadAssignedEmail(ctx context.Context, toEmail, agentName, homeownerName, address string) error
	SendFollowUpReminderEmail(ctx context.Context, toEmail, agentName, homeownerName string) error
}

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a sender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendLeadAssignedEmail tells an agent a new lead has landed on their desk.
func (s *SMTPSender) SendLeadAssignedEmail(ctx context.Context, toEmail, agentName, homeownerName, address string) error {
	content := fmt.Sprintf(
		"<p>Hi %s,</p><p>A new appraisal lead has been assigned to you.</p><p><strong>%s</strong><br>%s</p><p>Please make contact within one business day.</p>",
		html.EscapeString(agentName), html.EscapeString(homeownerName), html.EscapeString(address))
	return s.send(ctx, toEmail, "New lead assigned to you", content)
}

// SendFollowUpReminderEmail reminds an agent of a scheduled follow-up.
func (s *SMTPSender) SendFollowUpReminderEmail(ctx context.Context, toEmail, agentName, homeownerName string) error {
	content := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your scheduled follow-up with <strong>%s</strong> is due now.</p>",
		html.EscapeString(agentName), html.EscapeString(homeownerName))
	return s.send(ctx, toEmail, "Follow-up reminder", content)
}

var _ Sender = (*SMTPSender)(nil)
