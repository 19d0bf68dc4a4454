package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/FGuerriero/get-volunteers-backend/internal/config"
	"github.com/FGuerriero/get-volunteers-backend/internal/db"
)

// sender is the slice of the SendGrid client the mailer needs.
type sender interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// Mailer sends two-sided match notifications through SendGrid. Send
// failures are logged and swallowed: matches are already committed by
// the time a notification goes out, and one recipient's failure must
// not prevent the other's message from being attempted.
type Mailer struct {
	client    sender
	fromEmail string
	fromName  string
	logger    *slog.Logger
}

// NewMailer creates a Mailer from config. The API key must be set;
// callers that have no key should skip constructing a Mailer at all.
func NewMailer(cfg *config.Config, logger *slog.Logger) (*Mailer, error) {
	apiKey := strings.TrimSpace(cfg.SendGrid.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	return &Mailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: cfg.SendGrid.FromEmail,
		fromName:  cfg.SendGrid.FromName,
		logger:    logger.With("component", "notify"),
	}, nil
}

// NotifyMatch emails the volunteer and the need's contact about a new
// match. Both sends are always attempted.
func (m *Mailer) NotifyMatch(ctx context.Context, volunteer *db.Volunteer, need *db.Need, details string) {
	volunteerSubject := fmt.Sprintf("New Match Found: %s needs your help!", need.Title)
	m.send(ctx, volunteer.Name, volunteer.Email, volunteerSubject, volunteerBody(volunteer, need, details, m.fromName))

	needSubject := fmt.Sprintf("New Volunteer Match for your Need: %s", need.Title)
	m.send(ctx, need.ContactName, need.ContactEmail, needSubject, needContactBody(volunteer, need, details, m.fromName))
}

func (m *Mailer) send(ctx context.Context, toName, toEmail, subject, html string) {
	from := sgmail.NewEmail(m.fromName, m.fromEmail)
	to := sgmail.NewEmail(toName, toEmail)
	message := sgmail.NewSingleEmail(from, subject, to, subject, html)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		m.logger.Error("failed to send match notification", "to", toEmail, "err", err)
		return
	}
	if resp.StatusCode >= 400 {
		m.logger.Error("sendgrid rejected match notification",
			"to", toEmail, "status", resp.StatusCode, "body", resp.Body)
		return
	}
	m.logger.Info("match notification sent", "to", toEmail, "status", resp.StatusCode)
}

func volunteerBody(volunteer *db.Volunteer, need *db.Need, details, senderName string) string {
	return fmt.Sprintf(`<html>
<body>
	<p>Hi %s,</p>
	<p>Great news! We've found a potential match for you:</p>
	<h3>Need: %s</h3>
	<p><strong>Description:</strong> %s</p>
	<p><strong>Your Match Details:</strong> %s</p>
	<p>If you're interested, please contact the organizer:</p>
	<ul>
		<li><strong>Contact Name:</strong> %s</li>
		<li><strong>Contact Email:</strong> %s</li>
		<li><strong>Contact Phone:</strong> %s</li>
	</ul>
	<p>Thank you for being a part of the getVolunteers community!</p>
	<p>Best regards,</p>
	<p>%s</p>
</body>
</html>`,
		volunteer.Name, need.Title, need.Description, details,
		need.ContactName, need.ContactEmail, orNA(need.ContactPhone), senderName)
}

func needContactBody(volunteer *db.Volunteer, need *db.Need, details, senderName string) string {
	return fmt.Sprintf(`<html>
<body>
	<p>Hi %s,</p>
	<p>We've found a potential volunteer for your need:</p>
	<h3>Need: %s</h3>
	<p><strong>Description:</strong> %s</p>
	<p><strong>Volunteer Details:</strong></p>
	<ul>
		<li><strong>Name:</strong> %s</li>
		<li><strong>Email:</strong> %s</li>
		<li><strong>Phone:</strong> %s</li>
		<li><strong>Skills:</strong> %s</li>
		<li><strong>Interests:</strong> %s</li>
	</ul>
	<p><strong>Match Details:</strong> %s</p>
	<p>Please reach out to the volunteer if you'd like to proceed.</p>
	<p>Thank you for using getVolunteers!</p>
	<p>Best regards,</p>
	<p>%s</p>
</body>
</html>`,
		need.ContactName, need.Title, need.Description,
		volunteer.Name, volunteer.Email, orNA(volunteer.Phone),
		orNA(volunteer.Skills), orNA(volunteer.Interests), details, senderName)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
