package notify_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"

	"github.com/hazz-dev/echoprobe/internal/config"
	"github.com/hazz-dev/echoprobe/internal/notify"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func writeCredentials(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "smtp.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFailureMessage(t *testing.T) {
	subject, body := notify.FailureMessage("got error response 500 Internal Server Error from server")
	if subject != "Healthcheck failed" {
		t.Errorf("unexpected subject %q", subject)
	}
	want := "Server healthcheck has failed with error: got error response 500 Internal Server Error from server"
	if body != want {
		t.Errorf("expected body %q, got %q", want, body)
	}
}

func TestEmail_Send(t *testing.T) {
	s := &fakeSender{}
	e := notify.NewEmailWithSender("monitor@example.com", s, nil)

	if err := e.Send(context.Background(), "oncall@example.com", "Healthcheck failed", "it broke"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(s.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(s.sent))
	}

	m := s.sent[0]
	if got := m.GetHeader("From"); len(got) != 1 || got[0] != "monitor@example.com" {
		t.Errorf("unexpected From %v", got)
	}
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "oncall@example.com" {
		t.Errorf("unexpected To %v", got)
	}
	if got := m.GetHeader("Subject"); len(got) != 1 || got[0] != "Healthcheck failed" {
		t.Errorf("unexpected Subject %v", got)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "it broke") {
		t.Errorf("body missing from message:\n%s", buf.String())
	}
}

func TestEmail_SendError(t *testing.T) {
	s := &fakeSender{err: errors.New("535 authentication failed")}
	e := notify.NewEmailWithSender("monitor@example.com", s, nil)

	err := e.Send(context.Background(), "oncall@example.com", "s", "b")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "535 authentication failed") {
		t.Errorf("error should carry transport detail, got %v", err)
	}
}

func TestEmail_SendErrorLogsWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := &fakeSender{err: errors.New("535 authentication failed")}
	e := notify.NewEmailWithSender("monitor@example.com", s, logger)

	_ = e.Send(context.Background(), "oncall@example.com", "Healthcheck failed", "secret-body-text")

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected exactly one log line, got:\n%s", out)
	}
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "535 authentication failed") {
		t.Errorf("expected error log with transport detail, got:\n%s", out)
	}
	if strings.Contains(out, "secret-body-text") {
		t.Errorf("message body must not be logged, got:\n%s", out)
	}
}

func TestEmail_CancelledContext(t *testing.T) {
	s := &fakeSender{}
	e := notify.NewEmailWithSender("monitor@example.com", s, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.Send(ctx, "oncall@example.com", "s", "b"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if len(s.sent) != 0 {
		t.Errorf("expected nothing sent, got %d", len(s.sent))
	}
}

func TestLoadCredentials(t *testing.T) {
	path := writeCredentials(t, `
host: smtp.example.com
port: 465
username: monitor
password: hunter2
`)
	c, err := notify.LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if c.Host != "smtp.example.com" || c.Port != 465 || c.Username != "monitor" || c.Password != "hunter2" {
		t.Errorf("unexpected credentials %+v", c)
	}
}

func TestLoadCredentials_DefaultPort(t *testing.T) {
	path := writeCredentials(t, "host: smtp.example.com\n")
	c, err := notify.LoadCredentials(path)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if c.Port != 587 {
		t.Errorf("expected default port 587, got %d", c.Port)
	}
}

func TestLoadCredentials_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing host", "port: 25\n", "host is required"},
		{"invalid yaml", "host: [oops", "parsing credentials"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := notify.LoadCredentials(writeCredentials(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestNewEmail_MissingCredentialsFile(t *testing.T) {
	_, err := notify.NewEmail(config.EmailConfig{
		From:            "monitor@example.com",
		To:              "oncall@example.com",
		CredentialsFile: filepath.Join(t.TempDir(), "absent.yml"),
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "reading credentials") {
		t.Fatalf("expected reading credentials error, got %v", err)
	}
}
