package docs

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"

	"github.com/teemow/coverletter/internal/google"
)

// Docs operations reported in OperationError.Op.
const (
	OpFill = "fill"
	OpRead = "read"
)

// OperationError reports a failed Docs operation.
type OperationError struct {
	Op         string
	ResourceID string
	StatusCode int
	Err        error
}

func (e *OperationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("docs %s of %s failed (HTTP %d): %v", e.Op, e.ResourceID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("docs %s of %s failed: %v", e.Op, e.ResourceID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Kind classifies the error for audit records.
func (e *OperationError) Kind() string {
	if google.IsAuthError(e.Err) {
		return "auth"
	}
	return "google_api"
}

func newOperationError(op, resourceID string, err error) *OperationError {
	opErr := &OperationError{Op: op, ResourceID: resourceID, Err: err}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		opErr.StatusCode = apiErr.Code
	}
	return opErr
}
