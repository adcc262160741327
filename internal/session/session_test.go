package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionToken(t *testing.T) {
	s := New(" ghp_secret \n")
	require.True(t, s.HasCredential())

	tok, err := s.Token()
	require.NoError(t, err)
	require.Equal(t, "ghp_secret", tok.AccessToken)
	require.Equal(t, "Bearer", tok.Type())

	// The token can be produced more than once.
	tok, err = s.Token()
	require.NoError(t, err)
	require.Equal(t, "ghp_secret", tok.AccessToken)
}

func TestSessionClear(t *testing.T) {
	s := New("ghp_secret")
	s.SetIdentity("octocat")
	require.Equal(t, "octocat", s.Identity())

	s.Clear()
	require.False(t, s.HasCredential())
	require.Empty(t, s.Identity())
	_, err := s.Token()
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestSessionEmpty(t *testing.T) {
	s := New("   ")
	require.False(t, s.HasCredential())
	_, err := s.Token()
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestSetCredentialResetsIdentity(t *testing.T) {
	s := New("one")
	s.SetIdentity("octocat")
	s.SetCredential("two")
	require.Empty(t, s.Identity())
	tok, err := s.Token()
	require.NoError(t, err)
	require.Equal(t, "two", tok.AccessToken)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "credentials.toml")
	store := NewFileStore(path)

	_, ok, err := store.Load()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Save("ghp_saved"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ghp_saved", token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, ok, err = store.Load()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	require.NoError(t, os.WriteFile(path, []byte("token = [unterminated"), 0o600))
	_, _, err := NewFileStore(path).Load()
	require.Error(t, err)
}
