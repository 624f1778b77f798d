package forum

import (
	"errors"
	"fmt"
)

// Sentinel errors handlers translate into redirects or rendered error pages.
var (
	// ErrNotFound covers missing threads, posts, users and unknown categories.
	ErrNotFound = errors.New("not found")
	// ErrPermission is returned when the requester is neither the owner of the
	// resource nor an admin.
	ErrPermission = errors.New("permission denied")
	// ErrBadCredentials is returned on login with an unknown username or a
	// password mismatch. The two cases are deliberately indistinguishable.
	ErrBadCredentials = errors.New("invalid username or password")

	// Verification handshake outcomes.
	ErrCodeMismatch   = errors.New("verification code does not match")
	ErrCodeExpired    = errors.New("verification code has expired")
	ErrNoPendingUser  = errors.New("no signup in progress")
	ErrReasonRequired = errors.New("a reason is required for moderator deletions")
)

// ValidationError reports a field-level input problem. Handlers render it back
// into the submitted form with a 400 status.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AsValidation unwraps err into a ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
