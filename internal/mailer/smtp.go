package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// SMTPSender talks implicit TLS (port 465) with PLAIN auth, one
// connection per message.
type SMTPSender struct {
	Host      string
	Port      int
	Username  string
	Password  string
	TLSConfig *tls.Config
}

func (s *SMTPSender) addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func (s *SMTPSender) Send(ctx context.Context, from string, to []string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tlsCfg := s.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: s.Host}
	}

	c, err := smtp.DialTLS(s.addr(), tlsCfg)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", s.addr(), err)
	}
	defer c.Close()

	if err := c.Auth(sasl.NewPlainClient("", s.Username, s.Password)); err != nil {
		return &AuthError{Err: err}
	}
	if err := c.SendMail(from, to, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return c.Quit()
}

// AuthError means the server rejected the credentials.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return "smtp auth: " + e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }

func isAuthError(err error) bool {
	var ae *AuthError
	if errors.As(err, &ae) {
		return true
	}
	var se *smtp.SMTPError
	return errors.As(err, &se) && se.Code == 535
}
