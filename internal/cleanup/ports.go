package cleanup

//go:generate mockgen -source=ports.go -destination=mocks/session.go -package=mocks

import (
	"context"

	"github.com/aaronromeo/mailtrim/internal/matchers"
)

// Session is one authenticated mailbox connection. Every call is a single
// remote round trip against the currently selected folder.
type Session interface {
	SelectFolder(ctx context.Context, name string) error
	SearchAllUIDs(ctx context.Context) ([]uint32, error)
	// FetchHeaders returns nil, nil when the message vanished after the search.
	FetchHeaders(ctx context.Context, uid uint32) (*matchers.Header, error)
	FetchFull(ctx context.Context, uid uint32) ([]byte, error)
	Copy(ctx context.Context, uid uint32, destination string) error
	FlagDeleted(ctx context.Context, uid uint32) error
	Expunge(ctx context.Context) error
	EnsureFolderExists(ctx context.Context, name string) error
	Close() error
}

// Credentials identify the mailbox owner.
type Credentials struct {
	User     string
	Password string
}

// Dialer opens and authenticates a new Session.
type Dialer func(ctx context.Context, creds Credentials) (Session, error)
