package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

type capturedRequest struct {
	path   string
	header http.Header
	body   []byte
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, chan capturedRequest) {
	t.Helper()
	reqs := make(chan capturedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqs <- capturedRequest{path: r.URL.Path, header: r.Header.Clone(), body: body}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv, reqs
}

func TestSendGridMailer(t *testing.T) {
	srv, reqs := newCaptureServer(t, http.StatusAccepted)
	m := NewSendGridMailer("sg-key", srv.URL, "noreply@carepoint.test", "CarePoint", 5*time.Second)

	msg, err := PasswordResetEmail("ada@example.com", "ada lovelace", "https://app.test/reset-password/abc.def", 15*time.Minute)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := m.SendEmail(context.Background(), msg); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}

	req := <-reqs
	if req.path != "/v3/mail/send" {
		t.Fatalf("path = %q", req.path)
	}
	if got := req.header.Get("Authorization"); got != "Bearer sg-key" {
		t.Fatalf("authorization = %q", got)
	}

	var payload sendGridPayload
	if err := json.Unmarshal(req.body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Personalizations[0].To[0].Email != "ada@example.com" {
		t.Fatalf("recipient = %+v", payload.Personalizations)
	}
	if payload.Subject != "Password Reset Request" {
		t.Fatalf("subject = %q", payload.Subject)
	}
	if len(payload.Content) != 2 || !strings.Contains(payload.Content[1].Value, "https://app.test/reset-password/abc.def") {
		t.Fatalf("html content missing link: %+v", payload.Content)
	}
}

func TestSendGridMailerProviderError(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusUnauthorized)
	m := NewSendGridMailer("bad", srv.URL, "noreply@carepoint.test", "", 5*time.Second)

	err := m.SendEmail(context.Background(), EmailMessage{To: "a@example.com", Subject: "s", Text: "t"})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("err = %v, want provider status", err)
	}
}

func TestTwilioSMS(t *testing.T) {
	srv, reqs := newCaptureServer(t, http.StatusCreated)
	s := NewTwilioSMS("AC123", "secret", "+15550001111", srv.URL, "+1", 5*time.Second)

	if err := s.SendSMS(context.Background(), "0123456789", OTPText("482913")); err != nil {
		t.Fatalf("SendSMS: %v", err)
	}

	req := <-reqs
	if req.path != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Fatalf("path = %q", req.path)
	}
	user, pass, ok := (&http.Request{Header: req.header}).BasicAuth()
	if !ok || user != "AC123" || pass != "secret" {
		t.Fatalf("basic auth = %q %q %v", user, pass, ok)
	}
	form, err := url.ParseQuery(string(req.body))
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}
	if form.Get("To") != "+10123456789" {
		t.Fatalf("To = %q", form.Get("To"))
	}
	if form.Get("Body") != "Your Verification OTP is 482913" {
		t.Fatalf("Body = %q", form.Get("Body"))
	}
}

func TestSendRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewTwilioSMS("AC123", "secret", "+1555", "http://127.0.0.1:1", "+1", time.Second)
	if err := s.SendSMS(ctx, "0123456789", "x"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestSendStopsAtContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	m := NewSendGridMailer("sg-key", srv.URL, "noreply@carepoint.test", "CarePoint", 30*time.Second)
	s := NewTwilioSMS("AC123", "secret", "+1555", srv.URL, "+1", 30*time.Second)

	for name, send := range map[string]func(context.Context) error{
		"email": func(ctx context.Context) error {
			return m.SendEmail(ctx, EmailMessage{To: "ada@example.com", Subject: "s", Text: "t"})
		},
		"sms": func(ctx context.Context) error {
			return s.SendSMS(ctx, "0123456789", "x")
		},
	} {
		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		start := time.Now()
		err := send(ctx)
		elapsed := time.Since(start)
		cancel()

		if err == nil {
			t.Fatalf("%s: expected timeout error", name)
		}
		if elapsed > 2*time.Second {
			t.Fatalf("%s: send took %v, deadline not applied", name, elapsed)
		}
	}
}

func TestRequestTimeout(t *testing.T) {
	got, err := requestTimeout(context.Background(), 5*time.Second)
	if err != nil || got != 5*time.Second {
		t.Fatalf("no deadline: got %v, %v", got, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err = requestTimeout(ctx, 5*time.Second)
	if err != nil || got <= 0 || got > time.Second {
		t.Fatalf("sooner deadline: got %v, %v", got, err)
	}

	got, err = requestTimeout(ctx, 100*time.Millisecond)
	if err != nil || got != 100*time.Millisecond {
		t.Fatalf("later deadline: got %v, %v", got, err)
	}

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	if _, err := requestTimeout(expired, time.Second); err == nil {
		t.Fatal("expected error for expired deadline")
	}
}

func TestOTPEmail(t *testing.T) {
	msg, err := OTPEmail("ada@example.com", "ada", "012345", 10*time.Minute)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(msg.Text, "012345") || !strings.Contains(msg.HTML, "012345") {
		t.Fatal("code missing from message")
	}
	if msg.ToName != "Ada" {
		t.Fatalf("ToName = %q, want title-cased", msg.ToName)
	}
	if !strings.Contains(msg.Text, "10 minutes") {
		t.Fatalf("text = %q", msg.Text)
	}
}

func TestGatewayRoutes(t *testing.T) {
	mail := &recordingSender{}
	sms := &recordingSender{}
	g := NewGateway(mail, sms)

	_ = g.SendEmail(context.Background(), EmailMessage{To: "a@example.com"})
	_ = g.SendSMS(context.Background(), "0123456789", "hi")

	if mail.emails != 1 || sms.texts != 1 {
		t.Fatalf("routing wrong: mail=%+v sms=%+v", mail, sms)
	}
}

type recordingSender struct {
	emails int
	texts  int
}

func (r *recordingSender) SendEmail(context.Context, EmailMessage) error {
	r.emails++
	return nil
}

func (r *recordingSender) SendSMS(context.Context, string, string) error {
	r.texts++
	return nil
}
