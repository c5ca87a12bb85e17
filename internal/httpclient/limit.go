package httpclient

import (
	"errors"
	"fmt"
	"io"
)

// ResponseTooLargeError reports a body that grew past the caller's cap.
// Control-plane responses and error-body excerpts are read through
// ReadAllWithLimit so a misbehaving endpoint cannot balloon memory.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded limit of %d bytes", e.Limit)
}

// IsResponseTooLarge reports whether err is a ResponseTooLargeError.
func IsResponseTooLarge(err error) bool {
	var limitErr ResponseTooLargeError
	return errors.As(err, &limitErr)
}

// ReadAllWithLimit drains r up to limit bytes and errors once the body
// proves larger. A limit <= 0 means unbounded.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	// Read one byte past the cap to tell "exactly limit" from "over".
	lr := &io.LimitedReader{R: r, N: limit + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ResponseTooLargeError{Limit: limit}
	}
	return data, nil
}
