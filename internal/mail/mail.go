// Package mail delivers outbound e-mail. Only password reset links are sent today.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"

	"github.com/diewo77/invoice-api/internal/config"
	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"
)

// Message is a single HTML e-mail.
type Message struct {
	To      string
	Subject string
	HTML    string
	// Link is the actionable URL, logged when delivery is disabled.
	Link string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const resetSubject = "Password Reset Request - iTEK Invoices"

var resetTmpl = template.Must(template.New("reset").Parse(`<div style="font-family: sans-serif; max-width: 600px; margin: auto; padding: 20px; border: 1px solid #eee; border-radius: 10px;">
  <h2 style="color: #f20000; text-align: center;">iTEK Invoices</h2>
  <p>Hello,</p>
  <p>You requested a password reset for your iTEK Invoices account. Click the button below to set a new password:</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{.URL}}" style="background-color: #f20000; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px; font-weight: bold;">Reset Password</a>
  </div>
  <p>If you did not request this, please ignore this email. The link will expire in {{.Expiry}}.</p>
  <hr style="border: 0; border-top: 1px solid #eee;">
  <p style="font-size: 12px; color: #777;">This is an automated email. Please do not reply.</p>
</div>`))

// PasswordReset builds the reset e-mail for to. expiry is shown as text, e.g. "1 hour".
func PasswordReset(to, resetURL, expiry string) (Message, error) {
	var buf bytes.Buffer
	if err := resetTmpl.Execute(&buf, map[string]string{"URL": resetURL, "Expiry": expiry}); err != nil {
		return Message{}, fmt.Errorf("render reset mail: %w", err)
	}
	return Message{To: to, Subject: resetSubject, HTML: buf.String(), Link: resetURL}, nil
}

// SMTPSender sends through an authenticated SMTP relay.
type SMTPSender struct {
	cfg config.MailConfig
	log zerolog.Logger
}

func NewSMTPSender(cfg config.MailConfig, log zerolog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	from := s.cfg.From
	if from == "" {
		from = s.cfg.User
	}
	if err := m.FromFormat(s.cfg.FromName, from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.User),
		gomail.WithPassword(s.cfg.Pass),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		s.log.Error().Err(err).Str("to", msg.To).Msg("send mail failed")
		return fmt.Errorf("send mail, check SMTP settings: %w", err)
	}
	s.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail sent")
	return nil
}

// LogSender writes messages to the log instead of sending them.
// It is used when no SMTP credentials are configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender { return &LogSender{log: log} }

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Warn().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("link", msg.Link).
		Msg("SMTP credentials missing, mail not sent")
	return nil
}

// New picks SMTP delivery when credentials are present, logging otherwise.
func New(cfg config.MailConfig, log zerolog.Logger) Sender {
	if cfg.Enabled() {
		return NewSMTPSender(cfg, log)
	}
	return NewLogSender(log)
}

// Recorder keeps sent messages in memory. Tests use it to read reset links.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
	Err  error
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}
