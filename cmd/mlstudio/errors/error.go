package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Verbose is an error which can explain itself in detail.
type Verbose interface {
	Verbose() string
}

// CUIError is an error to be shown to users of the command line.
//
// Error() is a short message for users, and Verbose() adds hints and causes.
type CUIError interface {
	error
	Verbose
}

type cuiError struct {
	summary string
	details []string
	hint    string
	cause   error
}

func (ce *cuiError) Unwrap() error {
	return ce.cause
}

func (ce *cuiError) Error() string {
	if len(ce.details) == 0 {
		return ce.summary
	}
	return strings.Join(append([]string{ce.summary}, ce.details...), "\n")
}

func (ce *cuiError) Verbose() string {
	message := []string{ce.Error()}
	if ce.hint != "" {
		message = append(message, "hint: "+ce.hint)
	}

	var v Verbose
	switch {
	case ce.cause == nil:
	case errors.As(ce.cause, &v):
		message = append(message, "caused by: "+v.Verbose())
	default:
		message = append(message, "caused by: "+ce.cause.Error())
	}
	return strings.Join(message, "\n")
}

type Option func(*cuiError)

// New creates a CUIError with summary message.
func New(summary string, options ...Option) CUIError {
	err := &cuiError{summary: summary}
	for _, o := range options {
		o(err)
	}
	return err
}

// Newf is New with formatted summary.
func Newf(format string, args ...any) CUIError {
	return New(fmt.Sprintf(format, args...))
}

// WithDetail appends lines following the summary.
//
// Blank details are ignored.
func WithDetail(detail string) Option {
	return func(ce *cuiError) {
		if strings.TrimSpace(detail) == "" {
			return
		}
		ce.details = append(ce.details, detail)
	}
}

// WithHint sets a hint to fix the error. It is shown only in Verbose().
func WithHint(hint string) Option {
	return func(ce *cuiError) {
		ce.hint = hint
	}
}

func WithCause(err error) Option {
	return func(ce *cuiError) {
		ce.cause = err
	}
}

// Describe returns a verbose message for CUIError, or Error() for others.
func Describe(err error) string {
	var v Verbose
	if errors.As(err, &v) {
		return v.Verbose()
	}
	return err.Error()
}
