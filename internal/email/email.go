// Package email sends transactional mail via Resend. Every send here
// is a side effect of a request that has already succeeded, so
// failures are logged and never propagated to the requester.
package email

import (
	"fmt"
	"log/slog"

	"leadcrm/internal/config"
	"leadcrm/internal/model"

	"github.com/resend/resend-go/v3"
)

// Notifier is the boundary the handlers consume.
type Notifier interface {
	LeadCreated(lead model.Lead) error
	AgentInvited(agent model.Agent, orgName, tempPassword string) error
}

// Client sends mail through Resend. A nil Client is a valid no-op
// notifier for deployments without an API key.
type Client struct {
	client        *resend.Client
	fromAddress   string
	fromName      string
	notifyAddress string
}

// NewClient returns a configured client, or nil when not configured.
func NewClient(cfg config.EmailConfig) *Client {
	if cfg.ResendAPIKey == "" || cfg.FromAddress == "" {
		return nil
	}
	return &Client{
		client:        resend.NewClient(cfg.ResendAPIKey),
		fromAddress:   cfg.FromAddress,
		fromName:      cfg.FromName,
		notifyAddress: cfg.NotifyAddress,
	}
}

func (c *Client) send(to, subject, htmlBody string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromAddress),
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("email: resend send: %w", err)
	}

	slog.Info("Email sent", "to", to, "subject", subject, "id", sent.Id)
	return nil
}

// LeadCreated notifies the fixed notification address that a new lead
// exists.
func (c *Client) LeadCreated(lead model.Lead) error {
	if c == nil {
		// Unconfigured mailer is a no-op.
		return nil
	}

	subject := "A lead has been created"
	html := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>New lead: %s</h2>
  <p>A new lead has been added to the pipeline. Go to the site to see the details.</p>
</div>`, lead.FullName())

	return c.send(c.notifyAddress, subject, html)
}

// AgentInvited mails a new agent their temporary password.
func (c *Client) AgentInvited(agent model.Agent, orgName, tempPassword string) error {
	if c == nil {
		return nil
	}

	subject := fmt.Sprintf("You were added as an agent at %s", orgName)
	html := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <p>Hi <strong>%s</strong>,</p>
  <p>You have been added as a sales agent at <strong>%s</strong>.</p>
  <p>Log in with this temporary password and change it right away:</p>
  <pre style="background: #eee; padding: 10px; border-radius: 4px;">%s</pre>
</div>`, agent.User.FirstName, orgName, tempPassword)

	return c.send(agent.User.Email, subject, html)
}
