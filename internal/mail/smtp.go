// Package mail relays contact form submissions through an SMTP account.
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	ErrNotConfigured = errors.New("mail: transport credentials are missing")
	ErrNotAccepted   = errors.New("mail: message not accepted by the server")
)

// SendResult lists the envelope recipients the server took or refused.
type SendResult struct {
	Accepted []string
	Rejected []string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	// TokenSource switches authentication to XOAUTH2 when set.
	TokenSource oauth2.TokenSource
	// TLSConfig overrides the config used for STARTTLS and port 465.
	TLSConfig *tls.Config
}

// SMTPTransport delivers one message per Send over a fresh connection.
type SMTPTransport struct {
	cfg    SMTPConfig
	dialer net.Dialer
	logger *zap.Logger
}

func NewSMTPTransport(cfg SMTPConfig, logger *zap.Logger) *SMTPTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPTransport{cfg: cfg, logger: logger}
}

// Configured reports whether a host, the account identity and a secret are
// present. Startup warnings and Send both rely on it.
func (t *SMTPTransport) Configured() bool {
	return t.cfg.Host != "" && t.cfg.Username != "" && (t.cfg.Password != "" || t.cfg.TokenSource != nil)
}

// Send delivers msg to every recipient the server accepts. It fails with
// ErrNotAccepted when none is accepted and nothing is transmitted.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if !t.Configured() {
		return nil, ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("%w: no recipients", ErrNotAccepted)
	}
	from := t.cfg.Username
	if msg.From == "" {
		msg.From = from
	}
	data, err := msg.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	port := t.cfg.Port
	if port == "" {
		port = "587"
	}
	addr := net.JoinHostPort(t.cfg.Host, port)
	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if port == "465" {
		conn = tls.Client(conn, t.tlsConfig())
	}

	c, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok && port != "465" {
		if err := c.StartTLS(t.tlsConfig()); err != nil {
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	auth, err := t.auth()
	if err != nil {
		return nil, err
	}
	if err := c.Auth(auth); err != nil {
		return nil, fmt.Errorf("smtp auth: %w", err)
	}

	if err := c.Mail(from); err != nil {
		return nil, fmt.Errorf("smtp MAIL FROM: %w", err)
	}

	res := &SendResult{}
	for _, rcpt := range msg.To {
		if err := c.Rcpt(rcpt); err != nil {
			t.logger.Warn("recipient refused", zap.String("rcpt", rcpt), zap.Error(err))
			res.Rejected = append(res.Rejected, rcpt)
			continue
		}
		res.Accepted = append(res.Accepted, rcpt)
	}
	if len(res.Accepted) == 0 {
		_ = c.Reset()
		_ = c.Quit()
		return res, ErrNotAccepted
	}

	w, err := c.Data()
	if err != nil {
		return res, fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return res, fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return res, fmt.Errorf("%w: %v", ErrNotAccepted, err)
	}
	_ = c.Quit()
	return res, nil
}

func (t *SMTPTransport) tlsConfig() *tls.Config {
	if t.cfg.TLSConfig != nil {
		return t.cfg.TLSConfig
	}
	return &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}
}

func (t *SMTPTransport) auth() (smtp.Auth, error) {
	if t.cfg.TokenSource != nil {
		tok, err := t.cfg.TokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("oauth2 token: %w", err)
		}
		return &xoauth2Auth{username: t.cfg.Username, token: tok.AccessToken}, nil
	}
	return smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host), nil
}
