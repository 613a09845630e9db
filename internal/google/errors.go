package google

import (
	"errors"
	"fmt"
)

// ErrClientSecretMissing is returned when the OAuth client-secret file is
// needed but does not exist.
var ErrClientSecretMissing = errors.New("OAuth client secret file not found")

// AuthError reports that no valid credential could be obtained.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("google authorization failed: %s: %v", e.Reason, e.Err)
	}
	return "google authorization failed: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is or wraps an *AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
