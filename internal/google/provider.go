package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/teemow/coverletter/internal/logging"
)

// CredentialSource yields a credential valid for the Drive and Docs scopes.
type CredentialSource interface {
	Credentials(ctx context.Context) (*Credential, error)
}

// AuthRecorder receives authorization outcomes. *instrumentation.Metrics
// satisfies it.
type AuthRecorder interface {
	RecordOAuthAuth(ctx context.Context, result string)
	RecordOAuthTokenRefresh(ctx context.Context, result string)
}

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	// Store persists the credential between runs. Required.
	Store CredentialStore

	// ClientSecretFile is the OAuth client-secret JSON used for the
	// interactive login and for refreshing credentials without client info.
	ClientSecretFile string

	// Scopes requested at login. Defaults to DefaultScopes.
	Scopes []string

	// Interactive enables the browser login fallback.
	Interactive bool

	// Login overrides the interactive flow. Defaults to a LoopbackLogin.
	Login LoginFunc

	// HTTPClient is used for token endpoint calls.
	HTTPClient *http.Client

	Logger   logging.Logger
	Recorder AuthRecorder
}

// Provider implements CredentialSource on top of a CredentialStore.
type Provider struct {
	store            CredentialStore
	clientSecretFile string
	scopes           []string
	interactive      bool
	login            LoginFunc
	httpClient       *http.Client
	logger           logging.Logger
	recorder         AuthRecorder
}

// NewProvider creates a credential provider.
func NewProvider(cfg ProviderConfig) *Provider {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.DiscardLogger()
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	login := cfg.Login
	if login == nil {
		login = NewLoopbackLogin(logger).Login
	}
	return &Provider{
		store:            cfg.Store,
		clientSecretFile: cfg.ClientSecretFile,
		scopes:           scopes,
		interactive:      cfg.Interactive,
		login:            login,
		httpClient:       cfg.HTTPClient,
		logger:           logger,
		recorder:         cfg.Recorder,
	}
}

// Credentials returns a valid credential. A stored credential is used as-is
// while valid, refreshed when expired, and replaced through the interactive
// login when it is missing, corrupt, lacks scopes or cannot be refreshed.
func (p *Provider) Credentials(ctx context.Context) (*Credential, error) {
	if p.store == nil {
		return nil, &AuthError{Reason: "no credential store configured"}
	}

	cred, err := p.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCorruptCredential) {
			p.recordAuth(ctx, "failure")
			return nil, &AuthError{Reason: "could not read stored credential", Err: err}
		}
		p.logger.Warn("ignoring corrupt stored credential", logging.Err(err))
		cred = nil
	}

	if cred != nil && !cred.Covers(p.scopes) {
		p.logger.Info("stored credential lacks required scopes, re-authorizing",
			"missing", missingScopes(cred.Scopes, p.scopes))
		cred = nil
	}

	if cred != nil {
		if cred.Valid() {
			p.logger.Debug("using stored credential", "token", logging.SanitizeToken(cred.AccessToken))
			p.recordAuth(ctx, "success")
			return cred, nil
		}
		if cred.RefreshToken != "" {
			refreshed, err := p.refresh(ctx, cred)
			if err == nil {
				p.persist(ctx, refreshed)
				p.recordAuth(ctx, "success")
				return refreshed, nil
			}
			p.logger.Warn("credential refresh failed", logging.Err(err))
		}
	}

	return p.interactiveLogin(ctx)
}

func (p *Provider) refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	conf := cred.OAuthConfig()
	if !cred.HasClient() {
		fileConf, err := LoadClientConfig(p.clientSecretFile, p.scopes...)
		if err != nil {
			p.recordRefresh(ctx, "failure")
			return nil, err
		}
		conf = fileConf
	}

	expired := cred.Token()
	tok, err := conf.TokenSource(p.tokenContext(ctx), expired).Token()
	if err != nil {
		p.recordRefresh(ctx, "failure")
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	p.recordRefresh(ctx, "success")

	refreshed := NewCredential(tok, conf)
	refreshed.Scopes = cred.Scopes
	p.logger.Info("refreshed stored credential")
	return refreshed, nil
}

func (p *Provider) interactiveLogin(ctx context.Context) (*Credential, error) {
	if !p.interactive {
		p.recordAuth(ctx, "failure")
		return nil, &AuthError{Reason: "no valid stored credential and interactive login is disabled; run `coverletter login`"}
	}

	conf, err := LoadClientConfig(p.clientSecretFile, p.scopes...)
	if err != nil {
		p.recordAuth(ctx, "failure")
		return nil, &AuthError{Reason: "cannot start login", Err: err}
	}

	p.logger.Info("starting interactive authorization")
	tok, err := p.login(p.tokenContext(ctx), conf)
	if err != nil {
		p.recordAuth(ctx, "failure")
		return nil, &AuthError{Reason: "interactive login failed", Err: err}
	}
	if tok == nil || tok.AccessToken == "" {
		p.recordAuth(ctx, "failure")
		return nil, &AuthError{Reason: "interactive login returned no access token"}
	}

	cred := NewCredential(tok, conf)
	p.persist(ctx, cred)
	p.recordAuth(ctx, "success")
	return cred, nil
}

// persist saves cred; a write failure does not invalidate the credential.
func (p *Provider) persist(ctx context.Context, cred *Credential) {
	if err := p.store.Save(ctx, cred); err != nil {
		p.logger.Error("failed to persist credential", logging.Err(err))
	}
}

func (p *Provider) tokenContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func (p *Provider) recordAuth(ctx context.Context, result string) {
	if p.recorder != nil {
		p.recorder.RecordOAuthAuth(ctx, result)
	}
}

func (p *Provider) recordRefresh(ctx context.Context, result string) {
	if p.recorder != nil {
		p.recorder.RecordOAuthTokenRefresh(ctx, result)
	}
}

// StaticSource is a CredentialSource that always returns the same credential.
type StaticSource struct {
	Credential *Credential
}

// Credentials implements CredentialSource.
func (s StaticSource) Credentials(_ context.Context) (*Credential, error) {
	if s.Credential == nil {
		return nil, &AuthError{Reason: "no credential"}
	}
	return s.Credential, nil
}
