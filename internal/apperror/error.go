// Package apperror provides coded, wrappable application errors.
package apperror

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Kind groups codes by who is at fault, which decides retry and display.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindExternal:
		return "external"
	default:
		return "internal"
	}
}

// AppError carries a code, a message and an optional cause.
type AppError struct {
	Code      Code
	Kind      Kind
	Message   string
	Context   string
	TraceID   string
	Timestamp time.Time
	cause     error
	stack     []uintptr
}

func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Context)
		sb.WriteString(")")
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches another *AppError by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether the failure came from a dependency.
func (e *AppError) Retryable() bool {
	return e.Kind == KindExternal
}

// Fields flattens the error for structured logging.
func (e *AppError) Fields() []any {
	fields := []any{"code", string(e.Code), "kind", e.Kind.String()}
	if e.Context != "" {
		fields = append(fields, "context", e.Context)
	}
	if e.TraceID != "" {
		fields = append(fields, "trace_id", e.TraceID)
	}
	if e.cause != nil {
		fields = append(fields, "cause", e.cause.Error())
	}
	return fields
}

// Stack renders the captured stack, skipping runtime frames.
func (e *AppError) Stack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func captureStack() []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// Option configures an AppError.
type Option func(*AppError)

// New creates an AppError. The message defaults to the catalogue entry.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:      code,
		Kind:      defaultKind(code),
		Message:   messages[code],
		Timestamp: time.Now(),
		stack:     captureStack(),
	}
	for _, opt := range opts {
		opt(err)
	}
	if err.Message == "" {
		err.Message = string(code)
	}
	return err
}

func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

func WithKind(kind Kind) Option {
	return func(e *AppError) { e.Kind = kind }
}

func WithTraceID(traceID string) Option {
	return func(e *AppError) { e.TraceID = traceID }
}

// NotFound creates a not found error.
func NotFound(code Code, context string) *AppError {
	return New(code, WithContext(context), WithKind(KindNotFound))
}

// Validation creates a validation error.
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context), WithKind(KindValidation))
}

// Internal wraps cause as an internal error.
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithKind(KindInternal))
}

// External wraps cause as a dependency failure.
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithKind(KindExternal))
}

// Wrap converts err into an AppError, keeping an existing one as is.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return Internal(code, context, err)
}

// IsAppError checks if err wraps an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode extracts the code, or CodeUnknownError.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}

func defaultKind(code Code) Kind {
	s := string(code)
	switch {
	case strings.Contains(s, "NOT_FOUND"):
		return KindNotFound
	case strings.HasPrefix(s, "INVALID"):
		return KindValidation
	case strings.Contains(s, "FAILED"),
		strings.Contains(s, "TIMEOUT"),
		strings.Contains(s, "RPC"),
		code == CodeExternalServiceError,
		code == CodeRateLimitExceeded,
		code == CodeCircuitOpen:
		return KindExternal
	default:
		return KindInternal
	}
}
