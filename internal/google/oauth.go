package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// LoadClientConfig reads an OAuth client-secret JSON file as downloaded from
// the Google Cloud Console ("installed" or "web" application).
func LoadClientConfig(path string, scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrClientSecretMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file: %w", err)
	}

	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}
	return conf, nil
}

// NewHTTPClient returns an HTTP client that authorizes requests with cred.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors
// and is traced with otelhttp.
func NewHTTPClient(ctx context.Context, cred *Credential) *http.Client {
	client := oauth2.NewClient(ctx, cred.TokenSource(ctx))

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = otelhttp.NewTransport(&http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
	})

	return client
}
