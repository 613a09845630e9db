package instrumentation

import "errors"

// Cardinality helpers keep metric label values inside small, known sets.

// Google API operations recorded by the drive and docs clients.
const (
	OperationCopy        = "files.copy"
	OperationExport      = "files.export"
	OperationDelete      = "files.delete"
	OperationBatchUpdate = "documents.batchUpdate"
	OperationGet         = "documents.get"
)

// StatusFromError maps an error to StatusSuccess or StatusError.
func StatusFromError(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// PathLabel returns path when it is one of known, and "other" otherwise.
// Use it for HTTP path labels so arbitrary request paths cannot create series.
func PathLabel(path string, known ...string) string {
	for _, k := range known {
		if path == k {
			return path
		}
	}
	return "other"
}

// ErrorKind classifies err for the audit log without including its message.
// Classification relies on errors.As against types implementing Kind().
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "internal"
}
