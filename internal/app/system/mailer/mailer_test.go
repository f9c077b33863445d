package mailer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

func TestBuildInvitationEmail(t *testing.T) {
	msg := BuildInvitationEmail(InvitationEmailData{
		SiteName:       "Taskboard",
		WorkspaceName:  "Platform",
		InviterName:    "Ada",
		Message:        "<b>welcome</b>",
		InvitationLink: "https://example.com/invitations/abc/accept",
	})

	if msg.Subject != "Ada invited you to Platform on Taskboard" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.TextBody, "https://example.com/invitations/abc/accept") {
		t.Error("text body is missing the link")
	}
	if strings.Contains(msg.HTMLBody, "<b>welcome</b>") {
		t.Error("personal message must be escaped in the HTML body")
	}
	if !strings.Contains(msg.HTMLBody, "&lt;b&gt;welcome&lt;/b&gt;") {
		t.Error("escaped personal message missing from HTML body")
	}
}

func TestMailer_SendComposesMessage(t *testing.T) {
	m := New(Config{Host: "smtp.example.com", User: "u", Pass: "p", From: "noreply@example.com", FromName: "Taskboard"}, zap.NewNop())
	m.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	var delivered *mail.Msg
	m.deliver = func(_ context.Context, msg *mail.Msg) error {
		delivered = msg
		return nil
	}

	id, err := m.Send(context.Background(), Email{To: "bob@example.com", Subject: "Hi", TextBody: "plain", HTMLBody: "<p>html</p>"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.HasPrefix(id, "<") || !strings.HasSuffix(id, "@example.com>") {
		t.Errorf("message id = %q", id)
	}
	if delivered == nil {
		t.Fatal("message was not delivered")
	}
	if got := delivered.GetMessageID(); got != id {
		t.Errorf("delivered Message-ID = %q, want %q", got, id)
	}

	var buf bytes.Buffer
	if _, err := delivered.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	body := buf.String()
	for _, want := range []string{id, "Subject: Hi", "text/plain", "text/html", "<p>html</p>", "bob@example.com", "Taskboard", "noreply@example.com"} {
		if !strings.Contains(body, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestMailer_Errors(t *testing.T) {
	m := New(Config{Host: "smtp.example.com", From: "noreply@example.com"}, zap.NewNop())
	m.deliver = func(context.Context, *mail.Msg) error { return errors.New("boom") }
	ctx := context.Background()

	if _, err := m.Send(ctx, Email{To: "  ", TextBody: "x"}); err == nil {
		t.Error("expected error without recipient")
	}
	if _, err := m.Send(ctx, Email{To: "a@example.com"}); err == nil {
		t.Error("expected error without a body")
	}
	if _, err := m.Send(ctx, Email{To: "not an address", TextBody: "x"}); err == nil {
		t.Error("expected error for a malformed recipient")
	}
	if _, err := m.Send(ctx, Email{To: "a@example.com", TextBody: "x"}); err == nil {
		t.Error("expected transport error")
	}
}

func TestMailer_NoHostLogsOnly(t *testing.T) {
	m := New(Config{From: "noreply@example.com"}, zap.NewNop())
	m.deliver = func(context.Context, *mail.Msg) error {
		t.Fatal("deliver must not be called without a host")
		return nil
	}
	if id, err := m.Send(context.Background(), Email{To: "a@example.com", TextBody: "x"}); err != nil || id == "" {
		t.Errorf("Send() = %q, %v", id, err)
	}
}
