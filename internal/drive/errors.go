package drive

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/teemow/coverletter/internal/google"
)

// Drive operations reported in OperationError.Op.
const (
	OpCopy   = "copy"
	OpExport = "export"
	OpDelete = "delete"
)

// OperationError reports a failed Drive operation.
type OperationError struct {
	Op         string
	ResourceID string
	// StatusCode is the HTTP status returned by Drive, or 0 when the request
	// never got a response.
	StatusCode int
	Err        error
}

func (e *OperationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("drive %s of %s failed (HTTP %d): %v", e.Op, e.ResourceID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("drive %s of %s failed: %v", e.Op, e.ResourceID, e.Err)
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

// NotFound reports whether Drive answered 404 for the resource.
func (e *OperationError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func newOperationError(op, resourceID string, err error) *OperationError {
	return &OperationError{
		Op:         op,
		ResourceID: resourceID,
		StatusCode: statusCode(err),
		Err:        err,
	}
}

// statusCode extracts the HTTP status from a Google API error.
func statusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
