package base

import (
	"errors"

	giimapclient "github.com/emersion/go-imap/v2/imapclient"
)

// ErrNotConnected is returned by every manager when the session has no live client.
var ErrNotConnected = errors.New("IMAP client is not connected")

type State struct {
	Client *giimapclient.Client
}
