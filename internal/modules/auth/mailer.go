package auth

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
)

const activationSubject = "Thanks for joining in!"

type Mailer interface {
	SendActivationMail(ctx context.Context, email, link string) error
}

// DevConsoleMailer logs the activation link instead of sending it.
type DevConsoleMailer struct {
	logger *slog.Logger
}

func NewDevConsoleMailer(logger *slog.Logger) *DevConsoleMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DevConsoleMailer{logger: logger}
}

func (m *DevConsoleMailer) SendActivationMail(ctx context.Context, email, link string) error {
	m.logger.InfoContext(ctx, "activation mail", "to", email, "link", link)
	return nil
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends the activation mail as HTML over SMTP with PLAIN auth.
type SMTPMailer struct {
	cfg  SMTPConfig
	send sendFunc
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: sendMail}
}

var activationTmpl = template.Must(template.New("activation").Parse(
	`<div><h1>Thanks for joining in!</h1><p>To activate your account follow the link below.</p><a href="{{.}}">{{.}}</a></div>`,
))

func (m *SMTPMailer) SendActivationMail(ctx context.Context, email, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildActivationMessage(m.cfg.From, email, link)
	if err != nil {
		return err
	}

	var a smtp.Auth
	if m.cfg.Username != "" {
		a = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(ctx, addr, a, m.cfg.From, []string{email}, msg); err != nil {
		return fmt.Errorf("send activation mail: %w", err)
	}
	return nil
}

func buildActivationMessage(from, to, link string) ([]byte, error) {
	var body bytes.Buffer
	if err := activationTmpl.Execute(&body, link); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", activationSubject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// sendMail is smtp.SendMail with the connection bound to ctx's deadline.
func sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server doesn't support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
