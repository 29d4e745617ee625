package imap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aaronromeo/mailtrim/ftest"
	"github.com/aaronromeo/mailtrim/internal/imap/selectors"
	"github.com/aaronromeo/mailtrim/internal/imap/sessionmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultMessages() []ftest.MailboxMessage {
	return []ftest.MailboxMessage{
		{
			From:    "Promo <promo@deals.example.com>",
			Subject: "Weekly Sale",
			Date:    "Tue, 4 Feb 2025 10:00:00 +0000",
			Body:    "Buy now.",
		},
		{
			From:    "Friend <friend@example.org>",
			Subject: "Lunch?",
			Date:    "garbage date",
			Body:    "See you.",
		},
	}
}

func setupTestServer(t *testing.T, extraMailboxes []string, messages []ftest.MailboxMessage) (*Client, *ftest.Server) {
	t.Helper()

	server := ftest.SetupIMAPServer(t, extraMailboxes, messages)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	client, err := Dial(ctx,
		sessionmanager.WithAddr(server.Addr),
		sessionmanager.WithCreds(ftest.DefaultUser, ftest.DefaultPass),
		sessionmanager.WithTLSConfig(ftest.ClientTLSConfig()),
	)
	require.NoError(t, err, "connect")
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, server
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSearchAllUIDsLocalServer(t *testing.T) {
	client, server := setupTestServer(t, []string{"Empty"}, defaultMessages())
	ctx := testContext(t)

	require.NoError(t, client.SelectFolder(ctx, "INBOX"))
	uids, err := client.SearchAllUIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, server.UIDs, uids)

	require.NoError(t, client.SelectFolder(ctx, "Empty"))
	uids, err = client.SearchAllUIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, uids)
	assert.NotNil(t, uids)
}

func TestSelectFolderDoesNotCreate(t *testing.T) {
	client, _ := setupTestServer(t, nil, nil)
	ctx := testContext(t)

	assert.Error(t, client.SelectFolder(ctx, "Missing"))
	assert.Error(t, client.SelectFolder(ctx, "Missing"), "select must not have created the folder")
}

func TestFetchHeadersLocalServer(t *testing.T) {
	client, server := setupTestServer(t, nil, defaultMessages())
	ctx := testContext(t)
	require.NoError(t, client.SelectFolder(ctx, "INBOX"))

	header, err := client.FetchHeaders(ctx, server.UIDs[0])
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.Equal(t, "Promo <promo@deals.example.com>", header.From)
	assert.Equal(t, "Weekly Sale", header.Subject)
	assert.Equal(t, "Tue, 4 Feb 2025 10:00:00 +0000", header.Date)

	header, err = client.FetchHeaders(ctx, server.UIDs[1])
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.Equal(t, "garbage date", header.Date)
}

func TestFetchHeadersVanishedUID(t *testing.T) {
	client, server := setupTestServer(t, nil, defaultMessages())
	ctx := testContext(t)
	require.NoError(t, client.SelectFolder(ctx, "INBOX"))

	require.NoError(t, client.FlagDeleted(ctx, server.UIDs[0]))
	require.NoError(t, client.Expunge(ctx))

	header, err := client.FetchHeaders(ctx, server.UIDs[0])
	assert.NoError(t, err)
	assert.Nil(t, header)
}

func TestFetchFullLocalServer(t *testing.T) {
	client, server := setupTestServer(t, nil, defaultMessages())
	ctx := testContext(t)
	require.NoError(t, client.SelectFolder(ctx, "INBOX"))

	raw, err := client.FetchFull(ctx, server.UIDs[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Subject: Weekly Sale")
	assert.Contains(t, string(raw), "Buy now.")

	_, err = client.FetchFull(ctx, server.UIDs[1]+100)
	assert.True(t, errors.Is(err, selectors.ErrMessageNotFound), "got %v", err)
}

func TestEnsureFolderExistsIsIdempotent(t *testing.T) {
	client, server := setupTestServer(t, nil, nil)
	ctx := testContext(t)

	require.NoError(t, client.EnsureFolderExists(ctx, "MailTrim-Quarantine"))
	require.NoError(t, client.EnsureFolderExists(ctx, "MailTrim-Quarantine"))
	require.NoError(t, client.EnsureFolderExists(ctx, "INBOX"))

	mailboxes, err := client.IMAPClient().List("", "*", nil).Collect()
	require.NoError(t, err)
	count := 0
	for _, mailbox := range mailboxes {
		if mailbox.Mailbox == "MailTrim-Quarantine" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Empty(t, ftest.ListMailbox(t, server.Addr, "MailTrim-Quarantine"))
}

func TestCopyThenFlagThenExpunge(t *testing.T) {
	client, server := setupTestServer(t, []string{"Archive"}, defaultMessages())
	ctx := testContext(t)
	require.NoError(t, client.SelectFolder(ctx, "INBOX"))

	require.NoError(t, client.Copy(ctx, server.UIDs[0], "Archive"))
	require.NoError(t, client.FlagDeleted(ctx, server.UIDs[0]))

	inbox := ftest.ListMailbox(t, server.Addr, "INBOX")
	require.Len(t, inbox, 2, "flagged message stays until expunge")
	assert.True(t, inbox[0].Deleted)
	assert.False(t, inbox[1].Deleted)
	assert.Equal(t, []string{"Weekly Sale"}, ftest.Subjects(ftest.ListMailbox(t, server.Addr, "Archive")))

	require.NoError(t, client.Expunge(ctx))
	assert.Equal(t, []string{"Lunch?"}, ftest.Subjects(ftest.ListMailbox(t, server.Addr, "INBOX")))
}

func TestCopyToMissingFolderFails(t *testing.T) {
	client, server := setupTestServer(t, nil, defaultMessages())
	ctx := testContext(t)
	require.NoError(t, client.SelectFolder(ctx, "INBOX"))

	assert.Error(t, client.Copy(ctx, server.UIDs[0], "DoesNotExist"))
	assert.Error(t, client.Copy(ctx, server.UIDs[0], "  "))

	inbox := ftest.ListMailbox(t, server.Addr, "INBOX")
	require.Len(t, inbox, 2)
	assert.False(t, inbox[0].Deleted)
}

func TestConnectRejectsBadCredentials(t *testing.T) {
	server := ftest.SetupIMAPServer(t, nil, nil)
	t.Cleanup(server.Close)

	_, err := Dial(testContext(t),
		sessionmanager.WithAddr(server.Addr),
		sessionmanager.WithCreds(ftest.DefaultUser, "wrong"),
		sessionmanager.WithTLSConfig(ftest.ClientTLSConfig()),
		sessionmanager.WithRetries(3, time.Millisecond),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sessionmanager.ErrLoginFailed), "got %v", err)
}

func TestConnectDialFailureIsRetriedThenReported(t *testing.T) {
	_, err := Dial(testContext(t),
		sessionmanager.WithAddr("127.0.0.1:1"),
		sessionmanager.WithCreds(ftest.DefaultUser, ftest.DefaultPass),
		sessionmanager.WithRetries(2, time.Millisecond),
	)
	require.Error(t, err)
	assert.False(t, errors.Is(err, sessionmanager.ErrLoginFailed))
	assert.Contains(t, err.Error(), "dial 127.0.0.1:1")
}

func TestConnectValidatesInput(t *testing.T) {
	_, err := Dial(testContext(t), sessionmanager.WithCreds("user", "pass"))
	assert.EqualError(t, err, "IMAP address is required")

	_, err = Dial(testContext(t), sessionmanager.WithAddr("127.0.0.1:993"))
	assert.EqualError(t, err, "IMAP credentials are required")
}

func TestManagersRequireConnection(t *testing.T) {
	client := New()
	ctx := testContext(t)

	assert.Error(t, client.SelectFolder(ctx, "INBOX"))
	_, err := client.SearchAllUIDs(ctx)
	assert.Error(t, err)
	assert.Error(t, client.Copy(ctx, 1, "Archive"))
	assert.NoError(t, client.Close())
}
