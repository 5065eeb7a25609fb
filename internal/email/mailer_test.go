package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type captureSender struct {
	to, subject, html, text string
	err                     error
}

func (c *captureSender) Send(to, subject, html, text string) error {
	c.to, c.subject, c.html, c.text = to, subject, html, text
	return c.err
}

func TestSendVerification_RendersBothBodies(t *testing.T) {
	cs := &captureSender{}
	m := NewMailer(cs)
	link := "https://auth.example.com/accounts/confirm-email/k?a=1&b=2/"

	if err := m.SendVerification(context.Background(), "ana@example.com", link, 72*time.Hour); err != nil {
		t.Fatalf("send: %v", err)
	}
	if cs.to != "ana@example.com" || cs.subject == "" {
		t.Fatalf("unexpected envelope: %+v", cs)
	}
	if !strings.Contains(cs.text, link) {
		t.Fatalf("text body missing raw link: %q", cs.text)
	}
	if !strings.Contains(cs.html, "a=1&amp;b=2") {
		t.Fatalf("html body must escape the link: %q", cs.html)
	}
}

func TestSendAccountExists_PropagatesSenderError(t *testing.T) {
	boom := errors.New("smtp down")
	m := NewMailer(&captureSender{err: boom})
	if err := m.SendAccountExists(context.Background(), "ana@example.com", "/accounts/login/"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
