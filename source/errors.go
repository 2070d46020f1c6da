package source

import (
	"errors"
	"fmt"
)

// ErrMalformed marks a 2xx upstream response that lacked the expected
// shape, such as a missing sources array or an empty episode list.
// It is treated as a failure for fallback purposes.
var ErrMalformed = errors.New("malformed upstream response")

// Malformed wraps ErrMalformed with detail.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// BadRequestError reports a request the caller must fix: a missing
// parameter, missing session ids or too many ids in a bulk call.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

// BadRequest builds a BadRequestError.
func BadRequest(format string, args ...any) error {
	return &BadRequestError{Message: fmt.Sprintf(format, args...)}
}

// IsBadRequest reports whether err carries a BadRequestError.
func IsBadRequest(err error) bool {
	var br *BadRequestError
	return errors.As(err, &br)
}
