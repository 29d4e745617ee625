package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aaronromeo/mailtrim/internal/imap/base"
	"github.com/emersion/go-imap/v2"
	giimapclient "github.com/emersion/go-imap/v2/imapclient"
)

// Actions are the mailbox mutations. Each call is one round trip and none is
// retried; copy, flag and expunge stay separate so an original is only flagged
// once its copy has been confirmed.
type Actions interface {
	Copy(ctx context.Context, uid uint32, destination string) error
	FlagDeleted(ctx context.Context, uid uint32) error
	Expunge(ctx context.Context) error
	EnsureFolderExists(ctx context.Context, name string) error
}

// Interface to initialize the manager
type ClientProvider interface {
	IMAPClient() *giimapclient.Client
}

type IMAPActionManager struct {
	provider func() *giimapclient.Client
}

func New(provider ClientProvider) *IMAPActionManager {
	return &IMAPActionManager{provider: provider.IMAPClient}
}

// Copy copies one message from the selected folder into destination.
func (c *IMAPActionManager) Copy(ctx context.Context, uid uint32, destination string) error {
	if c.provider == nil || c.provider() == nil {
		return base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return errors.New("destination mailbox is required")
	}

	if _, err := c.provider().Copy(imap.UIDSetNum(imap.UID(uid)), destination).Wait(); err != nil {
		return fmt.Errorf("copy uid %d to %q: %w", uid, destination, err)
	}
	return nil
}

// FlagDeleted adds \Deleted to one message. The message stays until Expunge.
func (c *IMAPActionManager) FlagDeleted(ctx context.Context, uid uint32) error {
	if c.provider == nil || c.provider() == nil {
		return base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	store := imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}
	if err := c.provider().Store(imap.UIDSetNum(imap.UID(uid)), &store, nil).Close(); err != nil {
		return fmt.Errorf("flag uid %d deleted: %w", uid, err)
	}
	return nil
}

// Expunge permanently removes every message flagged \Deleted in the selected folder.
func (c *IMAPActionManager) Expunge(ctx context.Context) error {
	if c.provider == nil || c.provider() == nil {
		return base.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.provider().Expunge().Close(); err != nil {
		return fmt.Errorf("expunge: %w", err)
	}
	return nil
}

// EnsureFolderExists creates the folder unless it is already there.
func (c *IMAPActionManager) EnsureFolderExists(ctx context.Context, name string) error {
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

	err := c.provider().Create(name, nil).Wait()
	if err == nil {
		return nil
	}
	var imapErr *imap.Error
	if errors.As(err, &imapErr) && imapErr.Code == imap.ResponseCodeAlreadyExists {
		return nil
	}
	// Not every server sends ALREADYEXISTS, so confirm with LIST before failing.
	if exists, listErr := c.folderExists(name); listErr == nil && exists {
		return nil
	}
	return fmt.Errorf("create mailbox %q: %w", name, err)
}

func (c *IMAPActionManager) folderExists(name string) (bool, error) {
	mailboxes, err := c.provider().List("", name, nil).Collect()
	if err != nil {
		return false, err
	}
	for _, mailbox := range mailboxes {
		if mailbox.Mailbox == name || (strings.EqualFold(name, "INBOX") && strings.EqualFold(mailbox.Mailbox, "INBOX")) {
			return true, nil
		}
	}
	return false, nil
}
