package google_tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/coverletter/internal/docs"
	"github.com/teemow/coverletter/internal/drive"
	"github.com/teemow/coverletter/internal/google"
	"github.com/teemow/coverletter/internal/server"
)

type nopServices struct{}

func (nopServices) CopyTemplate(ctx context.Context, templateID, title string) (*drive.FileInfo, error) {
	return nil, errors.New("not used")
}

func (nopServices) ExportPDF(ctx context.Context, documentID, outputPath string) (*drive.ExportResult, error) {
	return nil, errors.New("not used")
}

func (nopServices) FillPlaceholders(ctx context.Context, documentID string, replacements []docs.Replacement) (*docs.FillResult, error) {
	return nil, errors.New("not used")
}

type failingSource struct{ err error }

func (f failingSource) Credentials(ctx context.Context) (*google.Credential, error) {
	return nil, f.err
}

func newServerContext(t *testing.T, source google.CredentialSource) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Drive:       nopServices{},
		Docs:        nopServices{},
		Credentials: source,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleAuthStatus(t *testing.T) {
	expiry := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	valid := &google.Credential{
		AccessToken:  "token",
		RefreshToken: "refresh",
		Expiry:       expiry,
		ClientID:     "client",
		ClientSecret: "secret",
		Scopes:       google.DefaultScopes,
	}

	tests := []struct {
		name      string
		source    google.CredentialSource
		wantError bool
		want      AuthStatus
	}{
		{
			name:   "valid credential",
			source: google.StaticSource{Credential: valid},
			want:   AuthStatus{Authenticated: true, Refreshable: true, Expiry: expiry, Scopes: google.DefaultScopes},
		},
		{
			name:   "no credential",
			source: google.StaticSource{},
			want:   AuthStatus{Reason: "google authorization failed: no credential", Hint: loginHint},
		},
		{
			name:      "unexpected failure",
			source:    failingSource{err: errors.New("disk full")},
			wantError: true,
		},
		{
			name:      "no source",
			source:    nil,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newServerContext(t, tt.source)

			result, err := handleAuthStatus(context.Background(), mcp.CallToolRequest{}, sc)
			require.NoError(t, err)

			if tt.wantError {
				assert.True(t, result.IsError)
				return
			}
			require.False(t, result.IsError)

			var got AuthStatus
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))
			assert.Equal(t, tt.want.Authenticated, got.Authenticated)
			assert.Equal(t, tt.want.Refreshable, got.Refreshable)
			assert.True(t, tt.want.Expiry.Equal(got.Expiry))
			assert.Equal(t, tt.want.Scopes, got.Scopes)
			assert.Equal(t, tt.want.Reason, got.Reason)
			assert.Equal(t, tt.want.Hint, got.Hint)
		})
	}
}

func TestRegisterGoogleTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	sc := newServerContext(t, google.StaticSource{})

	require.NoError(t, RegisterGoogleTools(s, sc))
	assert.Contains(t, s.ListTools(), "google_auth_status")
}
