package service

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
)

func TestEmailServiceSendRejectsBeforeDialing(t *testing.T) {
	configured := config.EmailConfig{Enabled: true, Host: "smtp.example.com", Port: 587, From: "noreply@discreetkit.com"}
	tests := []struct {
		name    string
		cfg     *config.EmailConfig
		to      string
		wantErr error
	}{
		{name: "nil_config", cfg: nil, to: "buyer@example.com", wantErr: ErrEmailServiceDisabled},
		{name: "disabled", cfg: &config.EmailConfig{Host: "smtp.example.com", Port: 587, From: "noreply@discreetkit.com"}, to: "buyer@example.com", wantErr: ErrEmailServiceDisabled},
		{name: "missing_host", cfg: &config.EmailConfig{Enabled: true, Port: 587, From: "noreply@discreetkit.com"}, to: "buyer@example.com", wantErr: ErrEmailServiceNotConfigured},
		{name: "missing_port", cfg: &config.EmailConfig{Enabled: true, Host: "smtp.example.com", From: "noreply@discreetkit.com"}, to: "buyer@example.com", wantErr: ErrEmailServiceNotConfigured},
		{name: "missing_from", cfg: &config.EmailConfig{Enabled: true, Host: "smtp.example.com", Port: 587}, to: "buyer@example.com", wantErr: ErrEmailServiceNotConfigured},
		{name: "invalid_recipient", cfg: &configured, to: "not-an-address", wantErr: ErrInvalidEmail},
		{name: "empty_recipient", cfg: &configured, to: "", wantErr: ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewEmailService(tt.cfg)
			id, err := svc.Send(context.Background(), tt.to, "Order update", "<p>hi</p>")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if id != "" {
				t.Fatalf("expected empty message id, got %q", id)
			}
		})
	}
}

func TestEmailServiceEnabled(t *testing.T) {
	tests := []struct {
		name string
		svc  *EmailService
		want bool
	}{
		{name: "nil_service", svc: nil, want: false},
		{name: "nil_config", svc: NewEmailService(nil), want: false},
		{name: "disabled", svc: NewEmailService(&config.EmailConfig{Host: "h", Port: 25, From: "a@b.c"}), want: false},
		{name: "incomplete", svc: NewEmailService(&config.EmailConfig{Enabled: true, Host: "h"}), want: false},
		{name: "ready", svc: NewEmailService(&config.EmailConfig{Enabled: true, Host: "h", Port: 25, From: "a@b.c"}), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.svc.Enabled(); got != tt.want {
				t.Fatalf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildEmailMessageHeaders(t *testing.T) {
	messageID := buildMessageID("noreply@discreetkit.com")
	if !strings.HasPrefix(messageID, "<") || !strings.HasSuffix(messageID, "@discreetkit.com>") {
		t.Fatalf("unexpected message id: %s", messageID)
	}
	if got := buildMessageID("no-domain"); !strings.HasSuffix(got, "@localhost>") {
		t.Fatalf("expected localhost fallback, got %s", got)
	}
	if got := buildMessageID("trailing@"); !strings.HasSuffix(got, "@localhost>") {
		t.Fatalf("expected localhost fallback for empty domain, got %s", got)
	}

	from := buildFromAddress("noreply@discreetkit.com", "DiscreetKit 配送")
	if !strings.Contains(from, "=?UTF-8?q?") || !strings.Contains(from, "<noreply@discreetkit.com>") {
		t.Fatalf("expected encoded display name, got %s", from)
	}
	if got := buildFromAddress("noreply@discreetkit.com", "  "); got != "noreply@discreetkit.com" {
		t.Fatalf("blank name should keep bare address, got %s", got)
	}

	msg := buildEmailMessage(from, "buyer@example.com", "订单已送达", "<p>done</p>", messageID)
	head, body, ok := strings.Cut(msg, "\r\n\r\n")
	if !ok {
		t.Fatalf("message must separate headers and body: %q", msg)
	}
	if body != "<p>done</p>" {
		t.Fatalf("unexpected body: %q", body)
	}
	wantHeaders := []string{
		"From: " + from,
		"To: buyer@example.com",
		"Subject: =?UTF-8?q?",
		"Message-ID: " + messageID,
		"Date: ",
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	for _, want := range wantHeaders {
		if !strings.Contains(head, want) {
			t.Fatalf("header %q missing in %q", want, head)
		}
	}
	if strings.Contains(head, "订单") {
		t.Fatalf("subject must be Q-encoded, got %q", head)
	}

	plain := buildEmailMessage("a@b.c", "buyer@example.com", "Order received", "x", "<id@b.c>")
	if !strings.Contains(plain, "Subject: Order received\r\n") {
		t.Fatalf("ascii subject should stay readable, got %q", plain)
	}
}

func TestIsEmailRecipientRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "blank", err: errors.New("  "), want: false},
		{name: "no_such_user", err: errors.New("550 5.1.1 No such user here"), want: true},
		{name: "address_rejected", err: errors.New("554 Recipient address rejected: domain not found"), want: true},
		{name: "user_unknown", err: errors.New("User unknown in virtual mailbox table"), want: true},
		{name: "550_mailbox_hint", err: errors.New("550 requested action not taken: mailbox full"), want: true},
		{name: "550_rcpt_hint", err: errors.New("550 RCPT TO refused"), want: true},
		{name: "550_without_hint", err: errors.New("550 message content rejected as spam"), want: false},
		{name: "auth_failure", err: errors.New("535 authentication failed"), want: false},
		{name: "timeout", err: errors.New("dial tcp: i/o timeout"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmailRecipientRejected(tt.err); got != tt.want {
				t.Fatalf("isEmailRecipientRejected(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	wrapped := normalizeEmailSendError(errors.New("550 5.1.1 no such recipient"))
	if !errors.Is(wrapped, ErrEmailRecipientRejected) {
		t.Fatalf("expected recipient rejected wrap, got %v", wrapped)
	}
	other := errors.New("421 service not available")
	if got := normalizeEmailSendError(other); got != other {
		t.Fatalf("unrelated error must pass through, got %v", got)
	}
	if normalizeEmailSendError(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

// startFakeSMTP 启动只接收一封邮件的本地 SMTP 服务
func startFakeSMTP(t *testing.T, rejectRcpt bool) (int, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 fake ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				_ = tp.PrintfLine("250 fake")
			case strings.HasPrefix(cmd, "RCPT"):
				if rejectRcpt {
					_ = tp.PrintfLine("550 5.1.1 No such user")
					continue
				}
				_ = tp.PrintfLine("250 OK")
			case strings.HasPrefix(cmd, "DATA"):
				_ = tp.PrintfLine("354 go ahead")
				lines, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				received <- strings.Join(lines, "\n")
				_ = tp.PrintfLine("250 queued")
			case strings.HasPrefix(cmd, "QUIT"):
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("250 OK")
			}
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, received
}

func TestEmailServiceSendDeliversOverSMTP(t *testing.T) {
	port, received := startFakeSMTP(t, false)
	svc := NewEmailService(&config.EmailConfig{Enabled: true, Host: "127.0.0.1", Port: port, From: "noreply@discreetkit.com", FromName: "DiscreetKit"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := svc.Send(ctx, "buyer@example.com", "Order received", "<p>on its way</p>")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !strings.HasSuffix(id, "@discreetkit.com>") {
		t.Fatalf("unexpected message id: %s", id)
	}
	select {
	case msg := <-received:
		if !strings.Contains(msg, "Message-ID: "+id) || !strings.Contains(msg, "<p>on its way</p>") {
			t.Fatalf("unexpected message: %q", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("fake smtp did not receive message")
	}
}

func TestEmailServiceSendMapsRejectedRecipient(t *testing.T) {
	port, _ := startFakeSMTP(t, true)
	svc := NewEmailService(&config.EmailConfig{Enabled: true, Host: "127.0.0.1", Port: port, From: "noreply@discreetkit.com"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := svc.Send(ctx, "ghost@example.com", "Order received", "<p>x</p>")
	if !errors.Is(err, ErrEmailRecipientRejected) {
		t.Fatalf("expected recipient rejected, got %v", err)
	}
}
