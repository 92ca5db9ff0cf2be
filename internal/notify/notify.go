/*
Package notify delivers risk alerts by email, or to the log when email is
not configured.
*/
package notify

import (
	"context"
	"errors"
	"time"

	gomail "gopkg.in/mail.v2"

	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// EmailConfig holds SMTP configuration for sending emails.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	ToEmails   []string
	Enabled    bool
}

// EmailNotifier sends one digest email per batch of alerts.
type EmailNotifier struct {
	cfg      EmailConfig
	renderer *Renderer
	now      func() time.Time
	send     func(*gomail.Message) error
}

func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	if cfg.Enabled && (cfg.SMTPServer == "" || cfg.FromEmail == "" || len(cfg.ToEmails) == 0) {
		return nil, errors.New("email notifications need smtp server, from and to addresses")
	}
	n := &EmailNotifier{cfg: cfg, renderer: NewRenderer(), now: time.Now}
	n.send = n.dialAndSend
	return n, nil
}

// Notify is a no-op when disabled or when there is nothing to report.
func (n *EmailNotifier) Notify(ctx context.Context, alerts []types.Announcement) error {
	if !n.cfg.Enabled || len(alerts) == 0 {
		return nil
	}

	msg, err := n.renderer.Render(alerts, n.now())
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", n.cfg.ToEmails...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	if err := n.send(m); err != nil {
		logger.ErrorWithErr(ctx, "Failed to send alert email", err, "subject", msg.Subject)
		return err
	}
	logger.Info(ctx, "Alert email sent", "subject", msg.Subject, "alerts", len(alerts))
	return nil
}

func (n *EmailNotifier) dialAndSend(m *gomail.Message) error {
	dialer := gomail.NewDialer(n.cfg.SMTPServer, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	dialer.Timeout = 10 * time.Second
	return dialer.DialAndSend(m)
}

// LogNotifier writes each alert to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, alerts []types.Announcement) error {
	for _, a := range alerts {
		logger.RiskAlert(ctx, a.Symbol, string(risk.Categorize(a.RiskScore)), a.RiskScore,
			"abnormal_return", a.AbnormalReturn, "volume_spike_ratio", a.VolumeSpikeRatio, "announcement_id", a.ID)
	}
	return nil
}

// Multi fans alerts out to every notifier in order and joins their errors.
type Multi []interfaces.Notifier

func (m Multi) Notify(ctx context.Context, alerts []types.Announcement) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ interfaces.Notifier = (*EmailNotifier)(nil)
	_ interfaces.Notifier = LogNotifier{}
	_ interfaces.Notifier = Multi{}
)
