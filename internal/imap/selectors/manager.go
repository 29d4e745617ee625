package selectors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aaronromeo/mailtrim/internal/imap/base"
	"github.com/aaronromeo/mailtrim/internal/matchers"
	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
)

// ErrMessageNotFound is returned by FetchFull when the UID no longer exists.
var ErrMessageNotFound = errors.New("message not found")

var headerFields = []string{"From", "Subject", "Date"}

type Selectors interface {
	SelectFolder(ctx context.Context, name string) error
	FetchHeaders(ctx context.Context, uid uint32) (*matchers.Header, error)
	FetchFull(ctx context.Context, uid uint32) ([]byte, error)
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type IMAPSelectorManager struct {
	provider func() *giimapclient.Client
}

func New(provider ClientProvider) *IMAPSelectorManager {
	return &IMAPSelectorManager{provider: provider.IMAPClient}
}

// SelectFolder selects an existing mailbox. It never creates one.
func (c *IMAPSelectorManager) SelectFolder(ctx context.Context, name string) error {
	if c.provider == nil || c.provider() == nil {
		return base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("mailbox is required")
	}
	if _, err := c.provider().Select(name, nil).Wait(); err != nil {
		return fmt.Errorf("select %q: %w", name, err)
	}
	return nil
}

// FetchHeaders returns the From, Subject and Date headers of one message without
// setting \Seen. A nil header with a nil error means the UID has vanished.
func (c *IMAPSelectorManager) FetchHeaders(ctx context.Context, uid uint32) (*matchers.Header, error) {
	section := &imap.FetchItemBodySection{
		Specifier:    imap.PartSpecifierHeader,
		HeaderFields: headerFields,
		Peek:         true,
	}
	raw, found, err := c.fetchSection(ctx, uid, section)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	header, err := matchers.ParseHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("parse headers of uid %d: %w", uid, err)
	}
	return &header, nil
}

// FetchFull returns the raw RFC 822 bytes of one message without setting \Seen.
func (c *IMAPSelectorManager) FetchFull(ctx context.Context, uid uint32) ([]byte, error) {
	raw, found, err := c.fetchSection(ctx, uid, &imap.FetchItemBodySection{Peek: true})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("uid %d: %w", uid, ErrMessageNotFound)
	}
	return raw, nil
}

func (c *IMAPSelectorManager) fetchSection(ctx context.Context, uid uint32, section *imap.FetchItemBodySection) ([]byte, bool, error) {
	if c.provider == nil || c.provider() == nil {
		return nil, false, base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	fetchOptions := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}
	fetchCmd := c.provider().Fetch(imap.UIDSetNum(imap.UID(uid)), fetchOptions)

	var raw []byte
	found := false
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		for {
			item := msg.Next()
			if item == nil {
				break
			}
			data, ok := item.(giimapclient.FetchItemDataBodySection)
			if !ok || data.Literal == nil {
				continue
			}
			body, err := io.ReadAll(data.Literal)
			if err != nil {
				_ = fetchCmd.Close()
				return nil, false, fmt.Errorf("read uid %d: %w", uid, err)
			}
			raw = body
			found = true
		}
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, false, fmt.Errorf("fetch uid %d: %w", uid, err)
	}
	return raw, found, nil
}
