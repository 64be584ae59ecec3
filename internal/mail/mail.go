// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mail delivers transactional email. SMTP sends through an
// authenticated relay; Log only records the message and is used when no
// relay is configured.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"
)

// Message is a single email with plain text and HTML bodies.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTPConfig holds relay credentials.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	FromName string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends mail through an SMTP relay using PLAIN auth.
type SMTP struct {
	cfg  SMTPConfig
	send sendFunc
}

// NewSMTP creates an SMTP sender.
func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTP{cfg: cfg, send: smtp.SendMail}
}

// Send implements Sender.
func (s *SMTP) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.build(m, time.Now())
	if err != nil {
		return fmt.Errorf("build mail: %w", err)
	}
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, s.cfg.From, []string{m.To}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", m.To, err)
	}
	slog.Info("mail sent", "to", m.To, "subject", m.Subject)
	return nil
}

// build renders a multipart/alternative message.
func (s *SMTP) build(m Message, at time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, part := range []struct{ ctype, content string }{
		{"text/plain; charset=UTF-8", m.Text},
		{"text/html; charset=UTF-8", m.HTML},
	} {
		if part.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.ctype},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", s.cfg.FromName), s.cfg.From)
	}

	var msg bytes.Buffer
	headers := [][2]string{
		{"From", from},
		{"To", m.To},
		{"Subject", mime.QEncoding.Encode("UTF-8", m.Subject)},
		{"Date", at.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + mw.Boundary()},
	}
	for _, h := range headers {
		msg.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// Log records messages instead of sending them.
type Log struct{}

// Send implements Sender.
func (Log) Send(_ context.Context, m Message) error {
	slog.Warn("mail relay not configured, message not sent",
		"to", m.To,
		"subject", m.Subject,
		"body", strings.TrimSpace(m.Text),
	)
	return nil
}

// ResetCode is the password recovery message.
func ResetCode(to, code string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())
	return Message{
		To:      to,
		Subject: "Recuperación de Contraseña",
		Text:    fmt.Sprintf("Tu código de recuperación es: %s\nExpira en %d minutos.", code, minutes),
		HTML:    fmt.Sprintf("<b>Tu código de recuperación es: %s</b><br>Expira en %d minutos.", code, minutes),
	}
}
