package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"jobportal/internal/config"
	"jobportal/internal/util"
)

var ErrSendFailed = errors.New("mail send failed")

// SMTPMailer delivers mail over implicit TLS (port 465). Each send dials a
// fresh connection; delivery volume here is low enough that pooling is not
// worth the bookkeeping.
type SMTPMailer struct {
	config *config.SMTPConfig
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{config: cfg}
}

// Send delivers a single message. The context bounds the whole exchange,
// including the TLS handshake.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	deadline := time.Now().Add(m.config.SendTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	dialer := &net.Dialer{Deadline: deadline}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
		ServerName: m.config.Host,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrSendFailed, addr, err)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	client, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("%w: auth: %v", ErrSendFailed, err)
	}
	if err := client.Mail(m.config.From); err != nil {
		return fmt.Errorf("%w: mail from: %v", ErrSendFailed, err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("%w: rcpt %s: %v", ErrSendFailed, to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if _, err := w.Write(m.buildMessage(to, subject, textBody, htmlBody)); err != nil {
		w.Close()
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if err := client.Quit(); err != nil {
		util.Warn("smtp quit failed", util.String("to", to), util.ErrorField(err))
	}
	return nil
}

func (m *SMTPMailer) buildMessage(to, subject, textBody, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")

	if htmlBody == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(textBody)
		b.WriteString("\r\n")
		return []byte(b.String())
	}

	const boundary = "jpmsgboundary"
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, textBody)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, htmlBody)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
