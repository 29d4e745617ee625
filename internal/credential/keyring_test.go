package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(keyring.NewArrayKeyring(nil))

	_, err := store.Get("user@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set("user@example.com", "s3cret"))
	got, err := store.Get("user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	require.NoError(t, store.Delete("user@example.com"))
	_, err = store.Get("user@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
