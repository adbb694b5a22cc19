// Package errors classifies the failures a generation run can end with.
//
// Every failure is fatal: the first classified error aborts the run and its
// Kind decides the process exit code.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the class of a failure.
type Kind string

const (
	KindParse         Kind = "ParseError"
	KindConfiguration Kind = "ConfigurationError"
	KindValidation    Kind = "ValidationError"
	KindIO            Kind = "IOError"
)

// Error is a classified failure with optional context for diagnostics.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error of the same Kind, so a bare &Error{Kind: k}
// works as a sentinel with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// With returns the error with an additional context key.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func Parse(cause error, format string, args ...any) *Error {
	return newError(KindParse, cause, format, args...)
}

func Configuration(format string, args ...any) *Error {
	return newError(KindConfiguration, nil, format, args...)
}

func Validation(cause error, format string, args ...any) *Error {
	return newError(KindValidation, cause, format, args...)
}

func IO(cause error, format string, args ...any) *Error {
	return newError(KindIO, cause, format, args...)
}

// KindOf returns the Kind of the first classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// ExitCode maps an error to the process exit code. Missing or invalid
// configuration and failed image checks exit with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	kind, ok := KindOf(err)
	if !ok {
		return 1
	}
	switch kind {
	case KindConfiguration, KindValidation:
		return 1
	case KindParse:
		return 2
	case KindIO:
		return 3
	default:
		return 1
	}
}
