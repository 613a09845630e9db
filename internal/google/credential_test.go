package google

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.token"))

	cred, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "google.token")
	store := NewFileStore(path)
	want := &Credential{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		Scopes:       DefaultScopes,
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURI:     "https://oauth2.googleapis.com/token",
	}

	require.NoError(t, store.Save(context.Background(), want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.Equal(t, want.Scopes, got.Scopes)
	assert.True(t, want.Expiry.Equal(got.Expiry))
	assert.Equal(t, want.ClientID, got.ClientID)
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "access refresh"},
		{"no tokens", `{"token_type":"Bearer"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "google.token")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			cred, err := NewFileStore(path).Load(context.Background())
			assert.Nil(t, cred)
			assert.True(t, errors.Is(err, ErrCorruptCredential), "got %v", err)
		})
	}
}

func TestCredential_Valid(t *testing.T) {
	tests := []struct {
		name string
		cred *Credential
		want bool
	}{
		{"nil", nil, false},
		{"no access token", &Credential{RefreshToken: "r"}, false},
		{"no expiry", &Credential{AccessToken: "a"}, true},
		{"future expiry", &Credential{AccessToken: "a", Expiry: time.Now().Add(time.Hour)}, true},
		{"expired", &Credential{AccessToken: "a", Expiry: time.Now().Add(-time.Minute)}, false},
		{"about to expire", &Credential{AccessToken: "a", Expiry: time.Now().Add(2 * time.Second)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cred.Valid())
		})
	}
}

func TestCredential_Covers(t *testing.T) {
	cred := &Credential{Scopes: []string{DefaultScopes[0]}}
	assert.False(t, cred.Covers(DefaultScopes))

	cred.Scopes = append([]string{"openid"}, DefaultScopes...)
	assert.True(t, cred.Covers(DefaultScopes))
}

func TestCredential_OAuthConfigDefaultsTokenURL(t *testing.T) {
	cred := &Credential{ClientID: "id", ClientSecret: "secret"}
	conf := cred.OAuthConfig()
	assert.Equal(t, "https://oauth2.googleapis.com/token", conf.Endpoint.TokenURL)
	assert.Equal(t, "id", conf.ClientID)
}
