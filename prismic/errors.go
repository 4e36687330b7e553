package prismic

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a lookup by uid matches no document.
	ErrNotFound = errors.New("prismic: document not found")

	// ErrNoCursor is returned when a page fetch is attempted with a null cursor.
	ErrNoCursor = errors.New("prismic: no next page")

	// ErrForeignCursor is returned when a cursor points outside the repository API.
	ErrForeignCursor = errors.New("prismic: cursor does not belong to this repository")
)

// RequestError reports a failed round trip: the request could not be sent,
// or the API answered with a non-2xx status.
type RequestError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("prismic: GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("prismic: GET %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// DecodeError reports a response body that is not the expected JSON shape.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("prismic: decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
