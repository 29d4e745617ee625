package sessionmanager

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aaronromeo/mailtrim/internal/imap/base"
	"github.com/cenkalti/backoff/v4"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
)

// ErrLoginFailed wraps a LOGIN rejected by the server. It is never retried.
var ErrLoginFailed = errors.New("IMAP login failed")

const defaultRetryInterval = 500 * time.Millisecond

type Option func(*IMAPConnector)

type ServerConnector interface {
	Connect(ctx context.Context) error
	Close() error

	IMAPClient() *giimapclient.Client
}

type IMAPConnector struct {
	Addr          string
	Username      string
	Password      string
	TLSConfig     *tls.Config
	Retries       int
	RetryInterval time.Duration

	base.State
}

func WithAddr(a string) Option {
	return func(c *IMAPConnector) {
		c.Addr = a
	}
}

func WithCreds(username string, password string) Option {
	return func(c *IMAPConnector) {
		c.Username = username
		c.Password = password
	}
}

func WithTLSConfig(config *tls.Config) Option {
	return func(c *IMAPConnector) {
		c.TLSConfig = config
	}
}

// WithRetries bounds how many times a failed dial is retried. Login failures are not retried.
func WithRetries(retries int, interval time.Duration) Option {
	return func(c *IMAPConnector) {
		c.Retries = retries
		c.RetryInterval = interval
	}
}

func NewServerConnector(opts ...Option) *IMAPConnector {
	c := &IMAPConnector{RetryInterval: defaultRetryInterval}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *IMAPConnector) IMAPClient() *giimapclient.Client {
	return c.Client
}

// Connect dials the server over TLS and logs in.
func (c *IMAPConnector) Connect(ctx context.Context) error {
	if err := validateDeps(c); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var options *giimapclient.Options
	if c.TLSConfig != nil {
		options = &giimapclient.Options{TLSConfig: c.TLSConfig}
	}

	var client *giimapclient.Client
	dial := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		dialed, err := giimapclient.DialTLS(c.Addr, options)
		if err != nil {
			return err
		}
		client = dialed
		return nil
	}
	if err := backoff.Retry(dial, c.retryPolicy(ctx)); err != nil {
		return fmt.Errorf("dial %s: %w", c.Addr, err)
	}

	if err := client.Login(c.Username, c.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return fmt.Errorf("%w for %s: %w", ErrLoginFailed, c.Username, err)
	}

	c.Client = client
	return nil
}

// Close logs out and clears the connection.
func (c *IMAPConnector) Close() error {
	if c.Client == nil {
		return nil
	}
	err := c.Client.Logout().Wait()
	c.Client = nil
	return err
}

func (c *IMAPConnector) retryPolicy(ctx context.Context) backoff.BackOffContext {
	retries := c.Retries
	if retries < 0 {
		retries = 0
	}
	expo := backoff.NewExponentialBackOff()
	if c.RetryInterval > 0 {
		expo.InitialInterval = c.RetryInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(retries)), ctx)
}

func validateDeps(state *IMAPConnector) error {
	if strings.TrimSpace(state.Addr) == "" {
		return errors.New("IMAP address is required")
	}
	if strings.TrimSpace(state.Username) == "" || strings.TrimSpace(state.Password) == "" {
		return errors.New("IMAP credentials are required")
	}

	return nil
}
