package session

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Store persists the credential between runs. The core never calls it during
// reconciliation or mutation, only around authentication.
type Store interface {
	Load() (token string, ok bool, err error)
	Save(token string) error
	Clear() error
}

type credentialsFile struct {
	Token string `toml:"token"`
}

// FileStore keeps the credential in a TOML file readable only by the owner.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load() (string, bool, error) {
	var creds credentialsFile
	_, err := toml.DecodeFile(f.path, &creds)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "error reading credentials file %s", f.path)
	}
	token := strings.TrimSpace(creds.Token)
	return token, token != "", nil
}

func (f *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return errors.Wrapf(err, "error creating directory for %s", f.path)
	}
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrapf(err, "error opening credentials file %s", f.path)
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(credentialsFile{Token: strings.TrimSpace(token)}); err != nil {
		return errors.Wrapf(err, "error writing credentials file %s", f.path)
	}
	return nil
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "error removing credentials file %s", f.path)
	}
	return nil
}
