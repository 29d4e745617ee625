package cleanup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aaronromeo/mailtrim/internal/cleanup"
	"github.com/aaronromeo/mailtrim/internal/cleanup/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRestoreExpungesOnceAfterLoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	session := mocks.NewMockSession(ctrl)

	session.EXPECT().SelectFolder(gomock.Any(), cleanup.DefaultQuarantine).Return(nil)
	session.EXPECT().SearchAllUIDs(gomock.Any()).Return([]uint32{5, 6, 7}, nil)
	gomock.InOrder(
		session.EXPECT().Copy(gomock.Any(), uint32(5), "INBOX").Return(nil),
		session.EXPECT().FlagDeleted(gomock.Any(), uint32(5)).Return(nil),
		session.EXPECT().Copy(gomock.Any(), uint32(6), "INBOX").Return(errors.New("copy failed")),
		session.EXPECT().Copy(gomock.Any(), uint32(7), "INBOX").Return(nil),
		session.EXPECT().FlagDeleted(gomock.Any(), uint32(7)).Return(nil),
		session.EXPECT().Expunge(gomock.Any()).Return(nil).Times(1),
		session.EXPECT().Close().Return(nil),
	)

	result, err := newService(t, session).Restore(context.Background(), cleanup.RestoreRequest{Credentials: testCreds})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Restored)
	assert.Equal(t, []uint32{5, 7}, result.UIDs)
	assert.Equal(t, cleanup.DefaultQuarantine, result.Folder)
	assert.Equal(t, "INBOX", result.Destination)
}

func TestRestoreEmptyFolder(t *testing.T) {
	ctrl := gomock.NewController(t)
	session := mocks.NewMockSession(ctrl)

	session.EXPECT().SelectFolder(gomock.Any(), "Held").Return(nil)
	session.EXPECT().SearchAllUIDs(gomock.Any()).Return([]uint32{}, nil)
	session.EXPECT().Expunge(gomock.Any()).Times(0)
	session.EXPECT().Close().Return(nil)

	result, err := newService(t, session).Restore(context.Background(), cleanup.RestoreRequest{
		Credentials: testCreds,
		Folder:      "Held",
	})
	require.NoError(t, err)
	assert.Zero(t, result.Restored)
	assert.Empty(t, result.UIDs)
}

func TestRestoreNothingRestoredSkipsExpunge(t *testing.T) {
	ctrl := gomock.NewController(t)
	session := mocks.NewMockSession(ctrl)

	session.EXPECT().SelectFolder(gomock.Any(), cleanup.DefaultQuarantine).Return(nil)
	session.EXPECT().SearchAllUIDs(gomock.Any()).Return([]uint32{1}, nil)
	session.EXPECT().Copy(gomock.Any(), uint32(1), "Kept").Return(errors.New("no such mailbox"))
	session.EXPECT().Expunge(gomock.Any()).Times(0)
	session.EXPECT().Close().Return(nil)

	result, err := newService(t, session).Restore(context.Background(), cleanup.RestoreRequest{
		Credentials: testCreds,
		Destination: "Kept",
	})
	require.NoError(t, err)
	assert.Zero(t, result.Restored)
}

func TestRestoreSelectFailureIsFolderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	session := mocks.NewMockSession(ctrl)

	session.EXPECT().SelectFolder(gomock.Any(), cleanup.DefaultQuarantine).Return(errors.New("no such mailbox"))
	session.EXPECT().Close().Return(nil)

	_, err := newService(t, session).Restore(context.Background(), cleanup.RestoreRequest{Credentials: testCreds})
	require.Error(t, err)
	assert.Equal(t, cleanup.KindFolder, cleanup.KindOf(err))
}

func TestInspect(t *testing.T) {
	t.Run("returns raw message", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		session := mocks.NewMockSession(ctrl)
		session.EXPECT().SelectFolder(gomock.Any(), cleanup.DefaultQuarantine).Return(nil)
		session.EXPECT().FetchFull(gomock.Any(), uint32(3)).Return([]byte("Subject: hi\r\n\r\nbody"), nil)
		session.EXPECT().Close().Return(nil)

		raw, err := newService(t, session).Inspect(context.Background(), testCreds, "", 3)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "Subject: hi")
	})

	t.Run("missing message", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		session := mocks.NewMockSession(ctrl)
		session.EXPECT().SelectFolder(gomock.Any(), "INBOX").Return(nil)
		session.EXPECT().FetchFull(gomock.Any(), uint32(99)).Return(nil, errors.New("message not found"))
		session.EXPECT().Close().Return(nil)

		_, err := newService(t, session).Inspect(context.Background(), testCreds, "INBOX", 99)
		assert.Equal(t, cleanup.KindFetch, cleanup.KindOf(err))
	})
}

func TestNewRequiresDialer(t *testing.T) {
	_, err := cleanup.New(nil)
	require.Error(t, err)
	assert.Equal(t, cleanup.KindInternal, cleanup.KindOf(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, cleanup.Kind(""), cleanup.KindOf(nil))
	assert.Equal(t, cleanup.KindInternal, cleanup.KindOf(errors.New("plain")))

	wrapped := &cleanup.Error{Kind: cleanup.KindCopy, Op: "copy uid 4", Err: errors.New("quota")}
	assert.True(t, cleanup.IsKind(wrapped, cleanup.KindCopy))
	assert.False(t, cleanup.IsKind(nil, cleanup.KindCopy))
	assert.Equal(t, "copy uid 4: quota", wrapped.Error())
}
