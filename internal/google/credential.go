package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Credential is an OAuth credential authorizing Drive and Docs calls.
// It carries the client information needed to refresh itself.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	ClientID     string    `json:"client_id,omitempty"`
	ClientSecret string    `json:"client_secret,omitempty"`
	TokenURI     string    `json:"token_uri,omitempty"`
}

// NewCredential builds a Credential from a token and the OAuth client that issued it.
func NewCredential(tok *oauth2.Token, conf *oauth2.Config) *Credential {
	cred := &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if conf != nil {
		cred.ClientID = conf.ClientID
		cred.ClientSecret = conf.ClientSecret
		cred.TokenURI = conf.Endpoint.TokenURL
		cred.Scopes = append([]string(nil), conf.Scopes...)
	}
	return cred
}

// Token returns the credential as an oauth2 token.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// Valid reports whether the access token is present and not about to expire.
func (c *Credential) Valid() bool {
	return c != nil && c.Token().Valid()
}

// Covers reports whether the credential was granted every scope in required.
func (c *Credential) Covers(required []string) bool {
	return len(missingScopes(c.Scopes, required)) == 0
}

// HasClient reports whether the credential carries enough client
// information to refresh without the client-secret file.
func (c *Credential) HasClient() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// OAuthConfig rebuilds the OAuth client configuration stored in the credential.
func (c *Credential) OAuthConfig() *oauth2.Config {
	tokenURL := c.TokenURI
	if tokenURL == "" {
		tokenURL = google.Endpoint.TokenURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  google.Endpoint.AuthURL,
			TokenURL: tokenURL,
		},
		Scopes: c.Scopes,
	}
}

// TokenSource returns a token source for the credential. Credentials with
// client information refresh transparently; others are used as-is.
func (c *Credential) TokenSource(ctx context.Context) oauth2.TokenSource {
	if c.HasClient() && c.RefreshToken != "" {
		return c.OAuthConfig().TokenSource(ctx, c.Token())
	}
	return oauth2.StaticTokenSource(c.Token())
}

// CredentialStore persists a single credential.
type CredentialStore interface {
	// Load returns the stored credential, or nil and no error when none exists.
	Load(ctx context.Context) (*Credential, error)
	// Save replaces the stored credential.
	Save(ctx context.Context, cred *Credential) error
}

// ErrCorruptCredential is returned by FileStore.Load when the token file
// exists but cannot be decoded.
var ErrCorruptCredential = errors.New("stored credential is corrupt")

// FileStore keeps the credential as JSON in a single file readable only by
// the current user.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the token file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the credential from disk.
func (s *FileStore) Load(_ context.Context) (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCredential, err)
	}
	if cred.AccessToken == "" && cred.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no tokens present", ErrCorruptCredential)
	}
	return &cred, nil
}

// Save writes the credential atomically with 0600 permissions.
func (s *FileStore) Save(_ context.Context, cred *Credential) error {
	if cred == nil {
		return errors.New("credential is nil")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Chmod(s.path, 0600); err != nil {
		return fmt.Errorf("failed to restrict token file permissions: %w", err)
	}
	return nil
}
