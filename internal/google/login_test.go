package google

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		query      url.Values
		wantStatus int
		wantCode   string
		wantErr    string
	}{
		{"success", "/", url.Values{"state": {"s1"}, "code": {"abc"}}, http.StatusOK, "abc", ""},
		{"denied", "/", url.Values{"state": {"s1"}, "error": {"access_denied"}}, http.StatusBadRequest, "", "access_denied"},
		{"state mismatch", "/", url.Values{"state": {"other"}, "code": {"abc"}}, http.StatusBadRequest, "", "state mismatch"},
		{"no code", "/", url.Values{"state": {"s1"}}, http.StatusBadRequest, "", "no code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make(chan callbackResult, 1)
			h := callbackHandler("s1", results)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path+"?"+tt.query.Encode(), nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			res := <-results
			assert.Equal(t, tt.wantCode, res.code)
			if tt.wantErr == "" {
				assert.NoError(t, res.err)
			} else {
				require.Error(t, res.err)
				assert.Contains(t, res.err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCallbackHandler_IgnoresOtherPaths(t *testing.T) {
	results := make(chan callbackResult, 1)
	rec := httptest.NewRecorder()
	callbackHandler("s1", results).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, results)
}

func TestLoopbackLogin(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "auth-code" || r.PostForm.Get("code_verifier") == "" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	conf := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/auth",
			TokenURL: tokenSrv.URL,
		},
		Scopes: DefaultScopes,
	}

	// The fake browser follows the consent page straight to the redirect URI.
	openBrowser := func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
			return fmt.Errorf("missing PKCE challenge in %s", authURL)
		}
		redirect := fmt.Sprintf("%s?state=%s&code=auth-code", q.Get("redirect_uri"), url.QueryEscape(q.Get("state")))
		go func() {
			resp, err := http.Get(redirect)
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}

	login := &LoopbackLogin{OpenBrowser: openBrowser}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tok, err := login.Login(ctx, conf)
	require.NoError(t, err)
	assert.Equal(t, "new-access", tok.AccessToken)
	assert.Equal(t, "new-refresh", tok.RefreshToken)
}

func TestLoopbackLogin_ContextCancelled(t *testing.T) {
	login := &LoopbackLogin{OpenBrowser: func(string) error { return nil }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := login.Login(ctx, &oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadClientConfig(t *testing.T) {
	conf, err := LoadClientConfig(writeClientSecret(t, "https://oauth2.googleapis.com/token"), DefaultScopes...)
	require.NoError(t, err)
	assert.Equal(t, "file-client", conf.ClientID)
	assert.Equal(t, DefaultScopes, conf.Scopes)

	_, err = LoadClientConfig("/nonexistent/credentials.json")
	assert.ErrorIs(t, err, ErrClientSecretMissing)
}

func TestNewHTTPClient_SetsBearer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := NewHTTPClient(context.Background(), &Credential{AccessToken: "abc", TokenType: "Bearer"})
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer abc", got)
}
