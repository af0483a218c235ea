package moversapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore persists the admin bearer token between runs. Implementations
// must self-invalidate expired tokens: Token never returns one past its
// expiry.
type TokenStore interface {
	// Token returns the current valid bearer token, if any.
	Token() (string, bool)

	// Save stores a token with its expiry. A zero expiry means the caller
	// does not know it; implementations may derive one from the token
	// itself.
	Save(token string, expiresAt time.Time) error

	// Clear removes any stored token.
	Clear() error
}

// storedToken is the on-disk persistence format.
type storedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t *storedToken) expired() bool {
	return !t.ExpiresAt.IsZero() && time.Now().After(t.ExpiresAt)
}

// FileTokenStore keeps the bearer token in a JSON file, the server-side
// analog of the browser's local storage slot.
type FileTokenStore struct {
	mu      sync.Mutex
	path    string
	current *storedToken
}

// NewFileTokenStore opens (or prepares) the token file at path. An existing
// expired token is discarded on load.
func NewFileTokenStore(path string) (*FileTokenStore, error) {
	s := &FileTokenStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok storedToken
	if err := json.Unmarshal(data, &tok); err != nil {
		// Corrupted file: start clean rather than failing startup.
		_ = os.Remove(path)
		return s, nil
	}
	if tok.Token != "" && !tok.expired() {
		s.current = &tok
	}
	return s, nil
}

// Token implements TokenStore.
func (s *FileTokenStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return "", false
	}
	if s.current.expired() {
		s.current = nil
		_ = os.Remove(s.path)
		return "", false
	}
	return s.current.Token, true
}

// Save implements TokenStore. When the server omits an explicit expiry the
// token's own JWT exp claim is used, read without signature verification --
// the client is not the party that validates the token, it only needs to
// know when to stop sending it.
func (s *FileTokenStore) Save(token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiresAt.IsZero() {
		expiresAt = jwtExpiry(token)
	}

	tok := &storedToken{Token: token, ExpiresAt: expiresAt}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	s.current = tok
	return nil
}

// Clear implements TokenStore.
func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// jwtExpiry extracts the exp claim from a JWT, returning zero if the token
// is not a JWT or carries no expiry.
func jwtExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
