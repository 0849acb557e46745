package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/gomail.v2"
	"gopkg.in/yaml.v3"

	"github.com/hazz-dev/echoprobe/internal/config"
)

// Credentials are the SMTP account details read from the credentials file.
type Credentials struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LoadCredentials reads and validates the YAML credentials file at path.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	var c Credentials
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if c.Host == "" {
		return nil, errors.New("credentials: host is required")
	}
	if c.Port == 0 {
		c.Port = 587
	}
	return &c, nil
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email sends notifications over SMTP.
type Email struct {
	from   string
	sender Sender
	logger *slog.Logger
}

// NewEmail builds an SMTP notifier from the email settings. Pass nil logger
// to use the default logger.
func NewEmail(cfg config.EmailConfig, logger *slog.Logger) (*Email, error) {
	creds, err := LoadCredentials(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	d := gomail.NewDialer(creds.Host, creds.Port, creds.Username, creds.Password)
	return NewEmailWithSender(cfg.From, d, logger), nil
}

// NewEmailWithSender creates an email notifier with a custom sender (for testing).
func NewEmailWithSender(from string, sender Sender, logger *slog.Logger) *Email {
	if logger == nil {
		logger = slog.Default()
	}
	return &Email{from: from, sender: sender, logger: logger}
}

// Send composes a plain-text message and delivers it in one blocking call.
func (e *Email) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := e.sender.DialAndSend(m); err != nil {
		e.logger.Error("sending email", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("sending email via smtp: %w", err)
	}
	return nil
}
