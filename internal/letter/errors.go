package letter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teemow/coverletter/internal/instrumentation"
)

// Pipeline steps, in execution order.
const (
	StepCompose = "compose"
	StepCopy    = "copy"
	StepFill    = "fill"
	StepVerify  = "verify"
	StepExport  = "export"
)

// ErrUnsafeFilename rejects a request whose PDF name would leave the output
// directory.
var ErrUnsafeFilename = fmt.Errorf("%w: PDF name leaves the output directory", ErrInvalidRequest)

// ErrPlaceholdersRemain is returned by the verify step.
var ErrPlaceholdersRemain = errors.New("template placeholders remain in document")

// StepError reports the pipeline step that halted a run.
type StepError struct {
	Step string

	// DocumentID is the copy created by the copy step; empty when the run
	// failed before a document existed.
	DocumentID string

	// CleanedUp is true when the orphaned document was deleted.
	CleanedUp bool

	Err error
}

func (e *StepError) Error() string {
	if e.DocumentID != "" {
		return fmt.Sprintf("step %q failed for document %s: %v", e.Step, e.DocumentID, e.Err)
	}
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Orphaned reports whether the failure left a partially filled document
// behind in Drive.
func (e *StepError) Orphaned() bool {
	return e.DocumentID != "" && !e.CleanedUp
}

// Kind classifies the error by its cause.
func (e *StepError) Kind() string {
	return instrumentation.ErrorKind(e.Err)
}

func remainingError(tokens []string) error {
	return fmt.Errorf("%w: %s", ErrPlaceholdersRemain, strings.Join(tokens, ", "))
}
