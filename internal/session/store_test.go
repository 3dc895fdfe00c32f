package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewFileStore(path)

	_, err := store.Token()
	assert.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, store.SetToken(&oauth2.Token{AccessToken: "abc123", TokenType: "bearer"}))

	tok, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok.AccessToken)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewFileStore(path)

	// Clearing a store that never held a token is fine.
	require.NoError(t, store.Clear())

	require.NoError(t, store.SetToken(&oauth2.Token{AccessToken: "abc"}))
	require.NoError(t, store.Clear())

	_, err := store.Token()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestFileStore_EmptyAccessTokenIsNoCredential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"access_token":""}`), 0o600))

	_, err := NewFileStore(path).Token()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Token()
	assert.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, store.SetToken(&oauth2.Token{AccessToken: "tok"}))
	tok, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)

	require.NoError(t, store.Clear())
	_, err = store.Token()
	assert.ErrorIs(t, err, ErrNoCredential)
}
