package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/cli/browser"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/teemow/coverletter/internal/logging"
)

// LoginFunc obtains a fresh token for conf through user interaction.
type LoginFunc func(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error)

const callbackPage = `<html><body><h3>coverletter is authorized.</h3><p>You can close this window.</p></body></html>`

// LoopbackLogin runs the installed-app authorization flow: it listens on a
// random loopback port, opens the consent page in the browser and exchanges
// the returned code using PKCE.
type LoopbackLogin struct {
	// Out receives the authorization URL in case the browser cannot be opened.
	Out io.Writer
	// OpenBrowser opens a URL; defaults to browser.OpenURL.
	OpenBrowser func(url string) error
	Logger      logging.Logger
}

// NewLoopbackLogin returns a LoopbackLogin writing prompts to stderr.
func NewLoopbackLogin(logger logging.Logger) *LoopbackLogin {
	return &LoopbackLogin{
		Out:         os.Stderr,
		OpenBrowser: browser.OpenURL,
		Logger:      logger,
	}
}

type callbackResult struct {
	code string
	err  error
}

// Login implements LoginFunc.
func (l *LoopbackLogin) Login(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start loopback listener: %w", err)
	}

	c := *conf
	c.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := c.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger().Debug("loopback server stopped", logging.Err(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if l.Out != nil {
		fmt.Fprintf(l.Out, "Authorize coverletter by visiting:\n\n%s\n\n", authURL)
	}
	if l.OpenBrowser != nil {
		if err := l.OpenBrowser(authURL); err != nil {
			l.logger().Warn("could not open browser, open the URL manually", logging.Err(err))
		}
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("login aborted: %w", ctx.Err())
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := c.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("failed to exchange auth code: %w", err)
		}
		return tok, nil
	}
}

func (l *LoopbackLogin) logger() logging.Logger {
	if l.Logger == nil {
		return logging.DiscardLogger()
	}
	return l.Logger
}

// callbackHandler receives the authorization redirect. Only the first
// outcome is delivered; later requests get an error page.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("state") != state:
			res.err = errors.New("authorization state mismatch")
		case q.Get("code") == "":
			res.err = errors.New("authorization response has no code")
		default:
			res.code = q.Get("code")
		}

		select {
		case results <- res:
		default:
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, callbackPage)
	})
}
