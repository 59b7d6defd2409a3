package email

import (
	"fmt"
	"html"
	"time"

	"medivault/internal/config"
	"medivault/internal/models"
)

// Notifier sends email notifications for share events. All notifications
// are best-effort: issuance never waits on or fails because of SMTP.
type Notifier struct {
	service *Service
	cfg     *config.Config
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		service: NewService(cfg),
		cfg:     cfg,
	}
}

// NotifyShareIssued tells the recipient that reports were shared with them.
func (n *Notifier) NotifyShareIssued(owner *models.User, recipientEmail, token string, reportCount int, expiresAt time.Time) {
	if !n.service.IsEnabled() {
		return
	}

	link := fmt.Sprintf("%s/share/%s", n.cfg.BaseURL, token)
	ownerName := html.EscapeString(owner.DisplayName())

	subject := fmt.Sprintf("%s shared medical reports with you", owner.DisplayName())

	htmlBody := fmt.Sprintf(`<p>%s has shared %d medical report(s) with you.</p>
<p><a href="%s">View shared reports</a></p>
<p>This link expires on %s and is only accessible when you sign in with this email address.</p>`,
		ownerName, reportCount, link, expiresAt.Format("January 2, 2006"))

	textBody := fmt.Sprintf("%s has shared %d medical report(s) with you.\n\nView them here: %s\n\nThis link expires on %s and is only accessible when you sign in with this email address.\n",
		owner.DisplayName(), reportCount, link, expiresAt.Format("January 2, 2006"))

	n.service.SendAsync([]string{recipientEmail}, subject, htmlBody, textBody)
}
