package rest

import (
	"errors"
	"fmt"
	"net/http"
)

type StatusCodeRange int

const (
	StatusUnknown StatusCodeRange = iota
	Status1xx
	Status2xx
	Status3xx
	Status4xx
	Status5xx
)

func (sc StatusCodeRange) String() string {
	switch sc {
	case Status1xx:
		return "informational response"
	case Status2xx:
		return "success"
	case Status3xx:
		return "redirect"
	case Status4xx:
		return "client error"
	case Status5xx:
		return "server error"
	default:
		return fmt.Sprintf("unknown (%d)", sc)
	}
}

func StatusCodeRangeOf(code int) StatusCodeRange {
	switch {
	case code < 100:
		return StatusUnknown
	case code < 200:
		return Status1xx
	case code < 300:
		return Status2xx
	case code < 400:
		return Status3xx
	case code < 500:
		return Status4xx
	case code < 600:
		return Status5xx
	default:
		return StatusUnknown
	}
}

// StatusError is a non-2xx response of the server.
type StatusError struct {
	Code int

	// Detail is the message of the server, if any.
	Detail string
}

func (s *StatusError) Error() string {
	if s.Detail == "" {
		return fmt.Sprintf("%d %s", s.Code, http.StatusText(s.Code))
	}
	return fmt.Sprintf("%d %s: %s", s.Code, http.StatusText(s.Code), s.Detail)
}

// StatusCodeOf returns the HTTP status code carried by err.
//
// ok is false unless err is caused by a non-2xx response.
func StatusCodeOf(err error) (code int, ok bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// IsNotFound tells whether err is caused by 404 response.
func IsNotFound(err error) bool {
	code, ok := StatusCodeOf(err)
	return ok && code == http.StatusNotFound
}
