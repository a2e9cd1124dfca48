package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/vinterp/pkg/interp"
	"github.com/vango-dev/vinterp/pkg/protocol"
)

// Category represents the type of error.
type Category string

const (
	CategoryProtocol  Category = "protocol"
	CategoryHydration Category = "hydration"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// Location is the position of a record inside an edit batch.
type Location struct {
	Seq   uint64 `json:"seq"`
	Index int    `json:"index"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	return fmt.Sprintf("batch %d, edit %d", l.Seq, l.Index)
}

// Error is a coded error with an optional batch location.
type Error struct {
	// Code is a unique error identifier (e.g., "E103").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the offending record, for protocol violations.
	Location *Location

	// Context holds the records around Location, first one at
	// ContextStart.
	Context      []string
	ContextStart int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithLocation records the offending batch position.
func (e *Error) WithLocation(seq uint64, index int) *Error {
	e.Location = &Location{Seq: seq, Index: index}
	return e
}

// WithEdits fills Context with up to radius records on each side of the
// located record.
func (e *Error) WithEdits(edits []protocol.Edit, radius int) *Error {
	if e.Location == nil || e.Location.Index < 0 || e.Location.Index >= len(edits) {
		return e
	}
	start := max(0, e.Location.Index-radius)
	end := min(len(edits), e.Location.Index+radius+1)
	e.Context = e.Context[:0]
	for _, ed := range edits[start:end] {
		e.Context = append(e.Context, ed.String())
	}
	e.ContextStart = start
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an Error. Interpreter violations and hydration
// mismatch kinds get their own codes; anything else gets code.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	var v *interp.ViolationError
	if stderrors.As(err, &v) {
		return FromViolation(v)
	}
	switch {
	case stderrors.Is(err, protocol.ErrInvalidOp):
		code = CodeUnknownOp
	case stderrors.Is(err, protocol.ErrFrameTooLarge), stderrors.Is(err, protocol.ErrInvalidFrameType):
		code = CodeInvalidFrame
	}
	return New(code).Wrap(err)
}

// FromViolation converts an interpreter violation, keeping its batch
// position.
func FromViolation(v *interp.ViolationError) *Error {
	code, ok := violationCodes[interp.Reason(v.Err)]
	if !ok {
		code = CodeViolation
	}
	return New(code).WithLocation(v.Seq, v.Index).Wrap(v)
}

// FromMismatch converts one hydration mismatch.
func FromMismatch(m interp.Mismatch) *Error {
	code, ok := mismatchCodes[m.Kind]
	if !ok {
		code = CodeHydration
	}
	e := New(code)
	e.Detail = fmt.Sprintf("%s (%s)", e.Detail, m)
	return e
}

// Code returns the code of err if it is, or wraps, an *Error.
func Code(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}
