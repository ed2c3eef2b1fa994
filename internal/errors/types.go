package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the categories of failure the extraction pipeline knows about
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeUnreadablePDF
	ErrorTypeAnnotatorUnavailable
	ErrorTypeOCRUnavailable
	ErrorTypeTimeout
	ErrorTypeInvalidInput
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeUnreadablePDF:
		return "UNREADABLE_PDF"
	case ErrorTypeAnnotatorUnavailable:
		return "ANNOTATOR_UNAVAILABLE"
	case ErrorTypeOCRUnavailable:
		return "OCR_UNAVAILABLE"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeUnreadablePDF, ErrorTypeInvalidInput:
		return SeverityFatal
	case ErrorTypeAnnotatorUnavailable, ErrorTypeOCRUnavailable, ErrorTypeTimeout:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// IsRecoverable reports whether the pipeline continues after this kind of error.
// Only boundary outages are recovered; they narrow the input instead of aborting.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeAnnotatorUnavailable, ErrorTypeOCRUnavailable, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// Error is a pipeline error with its category and location
type Error struct {
	Type    ErrorType
	Op      string
	Page    int // -1 when not page specific
	Section int // -1 when not section specific
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	loc := ""
	switch {
	case e.Page >= 0:
		loc = fmt.Sprintf(" (page %d)", e.Page)
	case e.Section >= 0:
		loc = fmt.Sprintf(" (section %d)", e.Section)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s%s: %v", e.Type, e.Op, loc, e.Err)
	}
	return fmt.Sprintf("[%s] %s%s", e.Type, e.Op, loc)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the same type, so errors.Is(err, ErrUnreadablePDF)
// holds for every UnreadablePDF error regardless of cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Type == e.Type
}

// Recoverable reports whether processing may continue
func (e *Error) Recoverable() bool {
	return e.Type.IsRecoverable()
}

// Sentinels for errors.Is checks
var (
	ErrUnreadablePDF        = &Error{Type: ErrorTypeUnreadablePDF, Page: -1, Section: -1}
	ErrAnnotatorUnavailable = &Error{Type: ErrorTypeAnnotatorUnavailable, Page: -1, Section: -1}
	ErrOCRUnavailable       = &Error{Type: ErrorTypeOCRUnavailable, Page: -1, Section: -1}
	ErrInvalidInput         = &Error{Type: ErrorTypeInvalidInput, Page: -1, Section: -1}
)

// New creates a new Error without location
func New(errorType ErrorType, op string, err error) *Error {
	return &Error{Type: errorType, Op: op, Page: -1, Section: -1, Err: err}
}

// Unreadable wraps a parse failure as UnreadablePDF
func Unreadable(op string, err error) *Error {
	return New(ErrorTypeUnreadablePDF, op, err)
}

// AnnotatorUnavailable wraps a failed annotator call for a section
func AnnotatorUnavailable(section int, err error) *Error {
	e := New(ErrorTypeAnnotatorUnavailable, "annotate", err)
	e.Section = section
	return e
}

// OCRUnavailable wraps a failed OCR call for a page
func OCRUnavailable(page int, err error) *Error {
	e := New(ErrorTypeOCRUnavailable, "ocr", err)
	e.Page = page
	return e
}

// InvalidInput reports a caller error such as a missing file
func InvalidInput(op string, err error) *Error {
	return New(ErrorTypeInvalidInput, op, err)
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsFatal reports whether err must abort the document
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !TypeOf(err).IsRecoverable()
}
