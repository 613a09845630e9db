package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teemow/coverletter/internal/config"
	"github.com/teemow/coverletter/internal/logging"
)

// ErrEmptyBody is returned when the model produced no usable text.
var ErrEmptyBody = errors.New("language model returned an empty body")

// Request identifies the letter being written.
type Request struct {
	Role    string
	Company string
}

// Composer produces the body text of a cover letter.
type Composer interface {
	Compose(ctx context.Context, req Request) (string, error)
}

// Error reports a failed composition.
type Error struct {
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s composer: %v", e.Backend, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind classifies the error for audit records.
func (e *Error) Kind() string {
	return "compose"
}

// New builds the composer selected by cfg.Backend. The candidate profile is
// read once from profileFile.
func New(cfg config.LLMConfig, profileFile string, logger logging.Logger) (Composer, error) {
	profile, err := LoadProfile(profileFile)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	switch cfg.Backend {
	case config.BackendGollm, "":
		return NewGollmComposer(cfg, profile, logger)
	case config.BackendOpenAI:
		return NewOpenAIComposer(cfg, profile, logger), nil
	default:
		return nil, fmt.Errorf("unknown composer backend %q", cfg.Backend)
	}
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.Role) == "" {
		return errors.New("role is required")
	}
	if strings.TrimSpace(req.Company) == "" {
		return errors.New("company is required")
	}
	return nil
}
