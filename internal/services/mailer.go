package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Mailer sends a single HTML email. Implementations report failure through the error only.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPMailer sends through a plain SMTP relay behind a circuit breaker so a dead relay
// stops being dialled on every notification.
type SMTPMailer struct {
	cfg  SMTPConfig
	cb   *gobreaker.CircuitBreaker
	log  *zap.SugaredLogger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig, log *zap.SugaredLogger) *SMTPMailer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	st := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Infow("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &SMTPMailer{cfg: cfg, cb: gobreaker.NewCircuitBreaker(st), log: log, send: smtp.SendMail}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if m.cfg.User != "" && m.cfg.Pass != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := []byte(
		fmt.Sprintf("From: \"InfraMonitor\" <%s>\r\nTo: %s\r\nSubject: %s\r\n", m.cfg.From, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			html,
	)

	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.send(addr, auth, m.cfg.From, []string{to}, msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			m.log.Warnw("smtp circuit open, email dropped", "to", to, "subject", subject)
		} else {
			m.log.Errorw("SMTP send error", "to", to, "error", err)
		}
		return err
	}
	m.log.Infow("email sent", "to", to, "subject", subject)
	return nil
}

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "welcome"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #2c3e50;">Welcome to InfraMonitor!</h1>
  <p>Hello <strong>{{.Name}}</strong>,</p>
  <p>Thanks for joining the collaborative monitoring of our city's infrastructure.</p>
  <ul>
    <li>Report infrastructure problems</li>
    <li>Confirm occurrences reported by others</li>
    <li>Earn points and climb the leaderboard</li>
  </ul>
  <p style="color: #666; font-size: 14px;">The InfraMonitor team</p>
</div>{{end}}
{{define "occurrence"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c3e50;">{{.Subject}}</h2>
  <div style="background-color: #f8f9fa; padding: 15px; border-radius: 8px;">
    <h3 style="margin: 0 0 10px 0; color: #3498db;">{{.Title}}</h3>
    <p><strong>Address:</strong> {{.Address}}</p>
    <p><strong>Status:</strong> {{.Status}}</p>
    <p><strong>Confirmations:</strong> {{.Confirmations}}</p>
  </div>
  <p>Thanks for helping make the city better!</p>
  <p style="color: #666; font-size: 14px;">The InfraMonitor team</p>
</div>{{end}}
`))

type occurrenceEmail struct {
	Subject       string
	Title         string
	Address       string
	Status        string
	Confirmations int
}

func renderEmail(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
