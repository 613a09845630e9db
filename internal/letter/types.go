package letter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teemow/coverletter/internal/config"
	"github.com/teemow/coverletter/internal/drive"
)

// ErrInvalidRequest is returned for a request missing its role or company.
var ErrInvalidRequest = errors.New("invalid letter request")

// Request asks for one cover letter.
type Request struct {
	Role    string `json:"role"`
	Company string `json:"company"`
}

// Normalize returns the request with surrounding whitespace removed.
func (r Request) Normalize() Request {
	return Request{
		Role:    strings.TrimSpace(r.Role),
		Company: strings.TrimSpace(r.Company),
	}
}

// Validate checks that role and company are both present.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Role) == "" {
		return fmt.Errorf("%w: role is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Company) == "" {
		return fmt.Errorf("%w: company is required", ErrInvalidRequest)
	}
	return nil
}

// Template is the source document and the tokens it contains.
type Template struct {
	ID           string
	CompanyToken string
	RoleToken    string
	BodyToken    string
}

// NewTemplate resolves ref, a bare document id or a Docs/Drive URL, and pairs
// it with the placeholder tokens from cfg.
func NewTemplate(ref string, cfg config.Config) (Template, error) {
	id, err := drive.ResolveDocumentID(ref)
	if err != nil {
		return Template{}, fmt.Errorf("invalid template reference: %w", err)
	}
	if err := cfg.ValidateTokens(); err != nil {
		return Template{}, err
	}
	return Template{
		ID:           id,
		CompanyToken: cfg.CompanyToken,
		RoleToken:    cfg.RoleToken,
		BodyToken:    cfg.BodyToken,
	}, nil
}

// Tokens returns the placeholder tokens in replacement order.
func (t Template) Tokens() []string {
	return []string{t.CompanyToken, t.RoleToken, t.BodyToken}
}

// ValidateTokens checks that the tokens are set and distinct.
func (t Template) ValidateTokens() error {
	cfg := config.Config{CompanyToken: t.CompanyToken, RoleToken: t.RoleToken, BodyToken: t.BodyToken}
	return cfg.ValidateTokens()
}

// Document is the copy created for one request.
type Document struct {
	ID          string
	Title       string
	WebViewLink string

	Company string
	Role    string
	Body    string
}

// Confirmation reports a finished run.
type Confirmation struct {
	RunID       string `json:"runId"`
	DocumentID  string `json:"documentId"`
	Title       string `json:"title"`
	WebViewLink string `json:"webViewLink,omitempty"`
	PDFPath     string `json:"pdfPath"`
	Bytes       int64  `json:"bytes"`
}

// Message is the confirmation shown to the user.
func (c *Confirmation) Message() string {
	return fmt.Sprintf("Cover letter %q saved as %s (%d bytes)", c.Title, c.PDFPath, c.Bytes)
}
