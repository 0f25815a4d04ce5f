package http

import (
	stdErrors "errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrBodyUsed is returned when a response body is decoded twice.
	ErrBodyUsed = stdErrors.New("response body already used")
	// ErrUnencodableBody is returned for a structured body when
	// ParseObjectAsJSON is disabled.
	ErrUnencodableBody = stdErrors.New("structured body requires ParseObjectAsJSON")
	// ErrInvalidBaseURL is returned when the base URL cannot be parsed.
	ErrInvalidBaseURL = stdErrors.New("invalid base URL")
)

// TransportError means the network primitive could not complete the call.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError means a response arrived with a status outside 200–299.
// Response carries the unread body, buffered up to 1 MiB, so it can be
// read by the error hook or by the caller after Dispatch returns.
type StatusError struct {
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Response.Status())
}

// DecodeError means a successful response body could not be decoded.
type DecodeError struct {
	ResponseType ResponseType
	StatusCode   int
	Err          error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s body (status %d): %v", e.ResponseType, e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return stdErrors.As(err, &te)
}

// IsStatus reports whether err is or wraps a *StatusError.
func IsStatus(err error) bool {
	var se *StatusError
	return stdErrors.As(err, &se)
}

// IsDecode reports whether err is or wraps a *DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return stdErrors.As(err, &de)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if stdErrors.As(err, &se) {
		return se.Response.StatusCode()
	}
	var de *DecodeError
	if stdErrors.As(err, &de) {
		return de.StatusCode
	}
	return 0
}

// MessageFromError turns a dispatch failure into a human message. For a
// StatusError it reads the body and returns its JSON "message" field,
// falling back to the status text; other errors return err.Error().
func MessageFromError(err error) string {
	var se *StatusError
	if !stdErrors.As(err, &se) {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	fallback := http.StatusText(se.Response.StatusCode())
	data, readErr := se.Response.Bytes()
	if readErr != nil || !gjson.ValidBytes(data) {
		return fallback
	}
	if msg := gjson.GetBytes(data, "message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return fallback
}
