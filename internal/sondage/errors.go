package sondage

import (
	"fmt"
	"strings"
)

// ErrorType represents the categories of extraction problems
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeMissingKeyword
	ErrorTypeInconsistentMerge
	ErrorTypeOddLengthStream
	ErrorTypeLengthMismatch
	ErrorTypeInvalidDepthParameters
	ErrorTypeMalformedDocument
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
	case ErrorTypeMissingKeyword:
		return "MISSING_KEYWORD"
	case ErrorTypeInconsistentMerge:
		return "INCONSISTENT_MERGE"
	case ErrorTypeOddLengthStream:
		return "ODD_LENGTH_STREAM"
	case ErrorTypeLengthMismatch:
		return "LENGTH_MISMATCH"
	case ErrorTypeInvalidDepthParameters:
		return "INVALID_DEPTH_PARAMETERS"
	case ErrorTypeMalformedDocument:
		return "MALFORMED_DOCUMENT"
	default:
		return "UNKNOWN"
	}
}

// String returns a lower case label for the severity
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeMissingKeyword, ErrorTypeOddLengthStream:
		return SeverityWarning
	case ErrorTypeInconsistentMerge:
		return SeverityWarning
	case ErrorTypeLengthMismatch, ErrorTypeInvalidDepthParameters:
		return SeverityError
	case ErrorTypeMalformedDocument:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// IsBlocking reports whether the user has to act before processing can finish.
// Everything else is logged and the run moves on to the next keyword or page.
func (et ErrorType) IsBlocking() bool {
	switch et {
	case ErrorTypeLengthMismatch, ErrorTypeInvalidDepthParameters, ErrorTypeMalformedDocument:
		return true
	default:
		return false
	}
}

// Error is an extraction problem with its page and borehole context
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Page    int       `json:"page,omitempty"`
	Sondage string    `json:"sondage,omitempty"`
	Keyword string    `json:"keyword,omitempty"`
	Err     error     `json:"-"`
}

// NewError creates a new Error of the given type
func NewError(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Error implements the error interface
func (e *Error) Error() string {
	var ctx []string
	if e.Sondage != "" {
		ctx = append(ctx, "sondage "+e.Sondage)
	}
	if e.Page > 0 {
		ctx = append(ctx, fmt.Sprintf("page %d", e.Page))
	}
	if e.Keyword != "" {
		ctx = append(ctx, "keyword "+e.Keyword)
	}

	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if len(ctx) > 0 {
		msg += " (" + strings.Join(ctx, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same type, so callers can write
// errors.Is(err, sondage.ErrLengthMismatch).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithPage sets the page number
func (e *Error) WithPage(page int) *Error {
	e.Page = page
	return e
}

// WithSondage sets the borehole name
func (e *Error) WithSondage(name string) *Error {
	e.Sondage = name
	return e
}

// WithKeyword sets the keyword label
func (e *Error) WithKeyword(keyword string) *Error {
	e.Keyword = keyword
	return e
}

// Sentinel values for errors.Is
var (
	ErrMissingKeyword         = &Error{Type: ErrorTypeMissingKeyword, Message: "keyword not found"}
	ErrInconsistentMerge      = &Error{Type: ErrorTypeInconsistentMerge, Message: "merged column streams differ"}
	ErrOddLengthStream        = &Error{Type: ErrorTypeOddLengthStream, Message: "merged stream has odd length"}
	ErrLengthMismatch         = &Error{Type: ErrorTypeLengthMismatch, Message: "sequence lengths differ"}
	ErrInvalidDepthParameters = &Error{Type: ErrorTypeInvalidDepthParameters, Message: "invalid depth parameters"}
	ErrMalformedDocument      = &Error{Type: ErrorTypeMalformedDocument, Message: "malformed document"}
)
