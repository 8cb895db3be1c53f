package errors

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalid = errors.New("invalid")

// Import and export failure kinds. Callers wrap these with context and test
// with errors.Is.
var (
	ErrUnsupported  = errors.New("unsupported input")
	ErrMalformed    = errors.New("malformed source")
	ErrMissingField = errors.New("missing required field")
	ErrCancelled    = errors.New("import cancelled")
	ErrAssetIO      = errors.New("asset unreadable")
	ErrRender       = errors.New("render failed")
	ErrSlugTaken    = errors.New("slug already taken")
)

// Kind returns a short label for the failure class of err, used in batch
// summaries.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrAssetIO):
		return "asset_io"
	case errors.Is(err, ErrRender):
		return "render"
	case errors.Is(err, ErrSlugTaken):
		return "slug_taken"
	default:
		return "error"
	}
}

// FileError ties a failure to the input file that produced it.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationError struct {
	Items []FieldError

	// Cause lets a validation failure also match a taxonomy sentinel.
	Cause error
}

func (e ValidationError) Error() string {
	if len(e.Items) == 0 {
		return "validation failed"
	}

	var b strings.Builder
	b.WriteString("validation failed:\n")
	for _, item := range e.Items {
		b.WriteString(" - ")
		b.WriteString(item.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func (e *ValidationError) Add(field, msg string) {
	e.Items = append(e.Items, FieldError{
		Field:   field,
		Message: msg,
	})
}

func (e ValidationError) Is(target error) bool {
	if target == ErrInvalid {
		return true
	}
	return e.Cause != nil && target == e.Cause
}

func (e ValidationError) HasAny() bool {
	return len(e.Items) > 0
}

// Fields lists the failing field names in report order.
func (e ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		out = append(out, item.Field)
	}
	return out
}
