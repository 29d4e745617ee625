package searches

import (
	"context"
	"slices"

	"github.com/aaronromeo/mailtrim/internal/imap/base"
	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
)

type Searcher interface {
	SearchAllUIDs(ctx context.Context) ([]uint32, error)
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type IMAPSearchManager struct {
	provider func() *giimapclient.Client
}

func New(provider ClientProvider) *IMAPSearchManager {
	return &IMAPSearchManager{provider: provider.IMAPClient}
}

// SearchAllUIDs returns every UID in the selected folder in ascending order.
// An empty folder yields an empty slice.
func (m *IMAPSearchManager) SearchAllUIDs(ctx context.Context) ([]uint32, error) {
	if m.provider == nil || m.provider() == nil {
		return nil, base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := m.provider().UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uids := data.AllUIDs()
	out := make([]uint32, 0, len(uids))
	for _, uid := range uids {
		out = append(out, uint32(uid))
	}
	slices.Sort(out)
	return out, nil
}
