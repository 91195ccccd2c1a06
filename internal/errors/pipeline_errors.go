package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure
type Kind string

const (
	KindTransport       Kind = "transport"
	KindContentMismatch Kind = "content_mismatch"
	KindSheetNotFound   Kind = "sheet_not_found"
	KindEmptyTable      Kind = "empty_table"
	KindNoValidRows     Kind = "no_valid_rows"
	KindValidation      Kind = "validation"
	KindSink            Kind = "sink"
)

// Sentinels for errors.Is matching against a PipelineError's Kind
var (
	ErrTransport       = &PipelineError{Kind: KindTransport}
	ErrContentMismatch = &PipelineError{Kind: KindContentMismatch}
	ErrSheetNotFound   = &PipelineError{Kind: KindSheetNotFound}
	ErrEmptyTable      = &PipelineError{Kind: KindEmptyTable}
	ErrNoValidRows     = &PipelineError{Kind: KindNoValidRows}
	ErrValidation      = &PipelineError{Kind: KindValidation}
	ErrSink            = &PipelineError{Kind: KindSink}
)

// PipelineError is returned by every pipeline stage
type PipelineError struct {
	Kind      Kind                   `json:"kind"`
	Step      string                 `json:"step,omitempty"`
	Category  string                 `json:"category,omitempty"`
	Message   string                 `json:"message"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Retryable bool                   `json:"retryable"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Step != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Kind, e.Step, e.Message)
	}
	if e.Category != "" {
		msg += fmt.Sprintf(" (category %q)", e.Category)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches on Kind so callers can compare against the sentinels
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// WithContext adds a context value to the error
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCategory tags the error with the category being processed
func (e *PipelineError) WithCategory(category string) *PipelineError {
	e.Category = category
	return e
}

// NewTransportError creates a retryable network or status failure
func NewTransportError(message string, cause error) *PipelineError {
	return &PipelineError{
		Kind:      KindTransport,
		Step:      "fetch",
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// NewContentMismatchError reports a payload that is not a spreadsheet container
func NewContentMismatchError(message string) *PipelineError {
	return &PipelineError{
		Kind:    KindContentMismatch,
		Step:    "fetch",
		Message: message,
	}
}

// NewSheetNotFoundError reports a category without a matching sheet
func NewSheetNotFoundError(keyword string, sheets []string) *PipelineError {
	return (&PipelineError{
		Kind:    KindSheetNotFound,
		Step:    "resolve",
		Message: fmt.Sprintf("no sheet matches keyword %q", keyword),
	}).WithContext("sheets", sheets)
}

// NewEmptyTableError reports a sheet without data rows below the header
func NewEmptyTableError(sheet string, headerRow int) *PipelineError {
	return (&PipelineError{
		Kind:    KindEmptyTable,
		Step:    "extract",
		Message: fmt.Sprintf("sheet %q has no data rows below header row %d", sheet, headerRow),
	}).WithContext("sheet", sheet)
}

// NewNoValidRowsError reports a table where no row carried a parseable date
func NewNoValidRowsError(sheet string, scanned int) *PipelineError {
	return (&PipelineError{
		Kind:    KindNoValidRows,
		Step:    "normalize",
		Message: fmt.Sprintf("none of %d rows in sheet %q has a valid date", scanned, sheet),
	}).WithContext("sheet", sheet)
}

// NewInputError reports invalid caller input such as an unknown region
func NewInputError(step, message string) *PipelineError {
	return &PipelineError{
		Kind:    KindValidation,
		Step:    step,
		Message: message,
	}
}

// NewSinkError reports a failed write to the destination store
func NewSinkError(message string, cause error) *PipelineError {
	return &PipelineError{
		Kind:      KindSink,
		Step:      "sink",
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Retryable
	}
	return false
}

// KindOf returns the Kind of a pipeline error, or "" for other errors
func KindOf(err error) Kind {
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	return ""
}
