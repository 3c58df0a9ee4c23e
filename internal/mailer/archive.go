package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Archiver keeps a copy of every sent application.
type Archiver interface {
	Archive(ctx context.Context, msg []byte, at time.Time) error
	Close() error
}

// IMAPArchiver appends sent messages to a mailbox such as "Sent". Servers
// that copy SMTP submissions on their own (Gmail does) do not need it.
// The connection is opened on first use and reused until Close.
type IMAPArchiver struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Mailbox   string
	TLSConfig *tls.Config

	c *imapclient.Client
}

func (a *IMAPArchiver) Archive(ctx context.Context, msg []byte, at time.Time) error {
	if a.c == nil {
		c, err := dialAndLoginIMAP(ctx, net.JoinHostPort(a.Host, strconv.Itoa(a.Port)), a.Username, a.Password, a.tlsConfig())
		if err != nil {
			return err
		}
		a.c = c
	}

	cmd := a.c.Append(a.Mailbox, int64(len(msg)), &imap.AppendOptions{
		Flags: []imap.Flag{imap.FlagSeen},
		Time:  at,
	})
	if _, err := cmd.Write(msg); err != nil {
		_ = cmd.Close()
		return fmt.Errorf("imap append %q: %w", a.Mailbox, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap append %q: %w", a.Mailbox, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("imap append %q: %w", a.Mailbox, err)
	}
	return nil
}

func (a *IMAPArchiver) Close() error {
	if a.c == nil {
		return nil
	}
	logoutAndClose(a.c)
	a.c = nil
	return nil
}

func (a *IMAPArchiver) tlsConfig() *tls.Config {
	if a.TLSConfig != nil {
		return a.TLSConfig
	}
	return &tls.Config{MinVersion: tls.VersionTLS12, ServerName: a.Host}
}

// dialAndLoginIMAP connects over TLS and logs in.
func dialAndLoginIMAP(ctx context.Context, addr, username, password string, tlsCfg *tls.Config) (*imapclient.Client, error) {
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}

	// DialTLS expects *imapclient.Options, not *tls.Config.
	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: tlsCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	// Best-effort close if ctx ends while logging in.
	err = closeOnCancel(ctx, func() { _ = c.Close() }, func() error {
		return c.Login(username, password).Wait()
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

// closeOnCancel runs fn and calls closeFn if ctx is done before fn returns.
// The hook is released afterwards, so a later cancel leaves the connection
// alone.
func closeOnCancel(ctx context.Context, closeFn func(), fn func() error) error {
	stop := context.AfterFunc(ctx, closeFn)
	defer stop()
	return fn()
}

func logoutAndClose(c *imapclient.Client) {
	_ = c.Logout().Wait()
	_ = c.Close()
}
