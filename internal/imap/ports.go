package imap

import (
	"context"

	"github.com/aaronromeo/mailtrim/internal/cleanup"
	"github.com/aaronromeo/mailtrim/internal/imap/actions"
	"github.com/aaronromeo/mailtrim/internal/imap/searches"
	"github.com/aaronromeo/mailtrim/internal/imap/selectors"
	"github.com/aaronromeo/mailtrim/internal/imap/sessionmanager"
)

type ServerRunner interface {
	sessionmanager.ServerConnector
	selectors.Selectors
	searches.Searcher
	actions.Actions
}

var (
	_ ServerRunner    = (*Client)(nil)
	_ cleanup.Session = (*Client)(nil)
)

// NewDialer returns a cleanup.Dialer that opens a Client with the given
// connection options and the caller's credentials.
func NewDialer(opts ...sessionmanager.Option) cleanup.Dialer {
	return func(ctx context.Context, creds cleanup.Credentials) (cleanup.Session, error) {
		connOpts := append([]sessionmanager.Option{}, opts...)
		connOpts = append(connOpts, sessionmanager.WithCreds(creds.User, creds.Password))
		client, err := Dial(ctx, connOpts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
