// Package session holds the single authenticated session of a running client.
package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/awnumar/memguard"
	"golang.org/x/oauth2"
)

// ErrNoCredential is returned by Token once the session has no credential.
var ErrNoCredential = errors.New("no credential in session")

// Session pairs the bearer credential with the identity it authenticated as.
// The credential lives in a memguard enclave and is only decrypted for the
// duration of a single request.
type Session struct {
	mu       sync.RWMutex
	cred     *memguard.Enclave
	identity string
}

// New returns a session holding token. An empty token yields a session with
// no credential.
func New(token string) *Session {
	s := &Session{}
	s.SetCredential(token)
	return s
}

// SetCredential replaces the credential and forgets the identity.
func (s *Session) SetCredential(token string) {
	token = strings.TrimSpace(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = ""
	if token == "" {
		s.cred = nil
		return
	}
	// NewEnclave wipes the source slice.
	s.cred = memguard.NewEnclave([]byte(token))
}

// HasCredential reports whether a credential is held.
func (s *Session) HasCredential() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred != nil
}

// Identity returns the login recorded by SetIdentity, or "".
func (s *Session) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// SetIdentity records the login the credential authenticated as.
func (s *Session) SetIdentity(login string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = login
}

// Clear drops the credential and identity. Called on authentication failure
// and on teardown.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	s.identity = ""
}

// Token implements oauth2.TokenSource. A fresh token is produced for every
// call so a cleared session stops authenticating immediately.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	cred := s.cred
	s.mu.RUnlock()
	if cred == nil {
		return nil, ErrNoCredential
	}
	buf, err := cred.Open()
	if err != nil {
		return nil, err
	}
	defer buf.Destroy()
	return &oauth2.Token{AccessToken: string(buf.Bytes()), TokenType: "Bearer"}, nil
}

var _ oauth2.TokenSource = (*Session)(nil)

// Teardown wipes all protected memory. Call once on process exit.
func Teardown() {
	memguard.Purge()
}
