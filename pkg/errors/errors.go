// Package errors defines the error taxonomy used across the conciliador.
//
// The reconciliation core itself recovers from bad cells, missing columns and
// collaborator failures locally (null values, absent roles, identity order),
// so the errors defined here belong to the surrounding plumbing: reading
// uploaded documents, configuration, rendering and the HTTP surface. Every
// error carries a category, a stable code and an optional suggestion that the
// CLI and HTTP layers can show to the user.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Category groups errors by the subsystem that produced them.
type Category string

const (
	CategoryIngest    Category = "ingest"
	CategoryParse     Category = "parse"
	CategoryConfig    Category = "config"
	CategoryRender    Category = "render"
	CategoryCollabora Category = "collaborator"
	CategoryInternal  Category = "internal"
)

// Code identifies a specific failure inside a category.
type Code string

const (
	// Ingest errors
	CodeUnsupportedFormat Code = "unsupported_format"
	CodeEmptyDocument     Code = "empty_document"
	CodeCorruptDocument   Code = "corrupt_document"
	CodeMissingUpload     Code = "missing_upload"

	// Parse errors
	CodeInvalidCSV   Code = "invalid_csv"
	CodeInvalidSheet Code = "invalid_sheet"

	// Config errors
	CodeInvalidConfig Code = "invalid_config"

	// Render errors
	CodeRenderFailed Code = "render_failed"

	// Collaborator errors
	CodeRankerUnavailable Code = "ranker_unavailable"
	CodeRankerTimeout     Code = "ranker_timeout"

	// Internal errors
	CodeUnexpected Code = "unexpected_error"
)

// Error is the base error type for the conciliador.
type Error struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context carries additional key/value information about an error.
type Context map[string]interface{}

func (e *Error) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode maps the error category to a process exit code for the CLI.
func (e *Error) ExitCode() int {
	switch e.Category {
	case CategoryIngest, CategoryParse:
		return 2
	case CategoryConfig:
		return 3
	case CategoryRender:
		return 4
	case CategoryCollabora:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext attaches a key/value pair to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a user-facing hint for fixing the error.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

func newError(category Category, code Code, message string, cause error) *Error {
	e := &Error{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}

	// Capture a stack trace at construction time.
	if tracer, ok := errors.WithStack(e).(interface{ StackTrace() errors.StackTrace }); ok {
		e.StackTrace = tracer.StackTrace()
	}

	return e
}

// IngestError creates an error for a document that could not be read.
func IngestError(code Code, document string, cause error) *Error {
	msg := fmt.Sprintf("failed to ingest document '%s'", document)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return newError(CategoryIngest, code, msg, cause).WithContext("document", document)
}

// ParseError creates an error for a table that could not be decoded.
func ParseError(code Code, document string, line int, cause error) *Error {
	msg := fmt.Sprintf("failed to parse '%s'", document)
	if line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, line)
	}
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return newError(CategoryParse, code, msg, cause).
		WithContext("document", document).
		WithContext("line", line)
}

// ConfigError creates an error for invalid configuration.
func ConfigError(field string, value interface{}, cause error) *Error {
	msg := fmt.Sprintf("invalid configuration for '%s': %v", field, value)
	return newError(CategoryConfig, CodeInvalidConfig, msg, cause).
		WithContext("field", field).
		WithContext("value", value)
}

// RenderError creates an error for report serialization failures.
func RenderError(format string, cause error) *Error {
	msg := fmt.Sprintf("failed to render %s report", format)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return newError(CategoryRender, CodeRenderFailed, msg, cause).WithContext("format", format)
}

// CollaboratorError creates an error for the external ranking collaborator.
// These never cross the core boundary; they are logged and the pipeline
// degrades to identity order.
func CollaboratorError(code Code, cause error) *Error {
	msg := "ranking collaborator failed"
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return newError(CategoryCollabora, code, msg, cause)
}

// InternalError creates an error for unexpected conditions.
func InternalError(operation string, cause error) *Error {
	msg := fmt.Sprintf("unexpected error during %s", operation)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return newError(CategoryInternal, CodeUnexpected, msg, cause).WithContext("operation", operation)
}

// GetCategory extracts the category from an error, or CategoryInternal for
// foreign error types.
func GetCategory(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}

// GetExitCode extracts an exit code from an error chain.
func GetExitCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.ExitCode()
	}
	return 1
}

// FormatUserMessage renders a short, user-facing message for the error.
func FormatUserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s/%s] %s", e.Category, e.Code, e.Message))
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  suggestion: %s", e.Suggestion))
	}
	return b.String()
}
