package imap

import (
	"context"

	"github.com/aaronromeo/mailtrim/internal/imap/actions"
	"github.com/aaronromeo/mailtrim/internal/imap/searches"
	"github.com/aaronromeo/mailtrim/internal/imap/selectors"
	"github.com/aaronromeo/mailtrim/internal/imap/sessionmanager"
)

// Client encapsulates one authenticated IMAP session.
type Client struct {
	*sessionmanager.IMAPConnector
	*searches.IMAPSearchManager
	*actions.IMAPActionManager
	*selectors.IMAPSelectorManager
}

func New(opts ...sessionmanager.Option) *Client {
	session := sessionmanager.NewServerConnector(opts...)
	client := &Client{
		session,
		searches.New(session),
		actions.New(session),
		selectors.New(session),
	}
	return client
}

// Dial builds a client and connects it. The caller owns the returned session and must Close it.
func Dial(ctx context.Context, opts ...sessionmanager.Option) (*Client, error) {
	client := New(opts...)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}
