package platformerrors

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type invocationIDKey struct{}

// WithInvocationID stores the id of the command invocation being processed.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey{}, id)
}

// InvocationIDFromContext extracts the invocation id from context
func InvocationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(invocationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeCheckFailed is an authorization or state precondition the user did not meet.
	ErrorTypeCheckFailed ErrorType = "CHECK_FAILED"
	// ErrorTypeInvalidInput is a malformed or missing command argument.
	ErrorTypeInvalidInput ErrorType = "INVALID_INPUT"
	// ErrorTypeNotFound is an unknown command; never reported.
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeEmptyResult is a lookup that legitimately found nothing.
	ErrorTypeEmptyResult ErrorType = "EMPTY_RESULT"
	// ErrorTypeExternal is a network or decoding failure against a remote source.
	ErrorTypeExternal      ErrorType = "EXTERNAL"
	ErrorTypeDatabaseError ErrorType = "DATABASE_ERROR"
	ErrorTypeInternal      ErrorType = "INTERNAL"
)

// Layer represents the application layer where the error occurred
type Layer string

const (
	LayerRepository     Layer = "repository"
	LayerDomain         Layer = "domain"
	LayerHandler        Layer = "handler"
	LayerDispatch       Layer = "dispatch"
	LayerInfrastructure Layer = "infrastructure"
	LayerGateway        Layer = "gateway"
)

// PlatformError represents an error with context and metadata
type PlatformError struct {
	UUID         string
	Type         ErrorType
	Message      string
	Err          error
	Context      map[string]any
	InvocationID string
	Layer        Layer
	Timestamp    time.Time
	// Stack is the goroutine stack at construction time.
	Stack []byte
}

// Error implements the error interface
func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s][%s] %s: %v", e.Layer, e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s][%s] %s", e.Layer, e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the error type
func (e *PlatformError) GetErrorType() ErrorType {
	return e.Type
}

// NewError creates a new PlatformError with the specified parameters
func NewError(ctx context.Context, layer Layer, errorType ErrorType, message string, err error) *PlatformError {
	return NewErrorWithContext(ctx, layer, errorType, message, err, nil)
}

// NewErrorWithContext creates a new PlatformError with additional context fields
func NewErrorWithContext(ctx context.Context, layer Layer, errorType ErrorType, message string, err error, contextFields map[string]any) *PlatformError {
	errorContext := make(map[string]any, len(contextFields))
	for k, v := range contextFields {
		errorContext[k] = v
	}

	return &PlatformError{
		UUID:         uuid.NewString(),
		Type:         errorType,
		Message:      message,
		Err:          err,
		InvocationID: InvocationIDFromContext(ctx),
		Layer:        layer,
		Timestamp:    time.Now().UTC(),
		Context:      errorContext,
		Stack:        debug.Stack(),
	}
}

// FromPanic converts a recovered panic value into an internal error carrying the
// stack captured at the recovery point.
func FromPanic(ctx context.Context, layer Layer, recovered any, stack []byte) *PlatformError {
	var cause error
	switch v := recovered.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}
	perr := NewError(ctx, layer, ErrorTypeInternal, "panic recovered", cause)
	if len(stack) > 0 {
		perr.Stack = stack
	}
	return perr
}

// AsError wraps an error with layer context, keeping the type of an inner PlatformError.
func AsError(ctx context.Context, layer Layer, err error, message string) *PlatformError {
	if err == nil {
		return nil
	}

	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return NewError(ctx, layer, platformErr.Type, fmt.Sprintf("%s: %s", message, platformErr.Message), platformErr)
	}

	return NewError(ctx, layer, ErrorTypeInternal, message, err)
}

// TypeOf returns the type of the outermost PlatformError in the chain, or
// ErrorTypeInternal when the chain carries none.
func TypeOf(err error) ErrorType {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.GetErrorType()
	}
	return ErrorTypeInternal
}

// IsErrorType checks if an error is a PlatformError with the specified type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}

	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Type == errorType
	}

	return false
}

// IsUserFacing reports whether the type is resolved by telling the user, without
// involving an operator.
func IsUserFacing(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeCheckFailed, ErrorTypeInvalidInput, ErrorTypeNotFound, ErrorTypeEmptyResult:
		return true
	default:
		return false
	}
}

// LogError logs a platform error with proper structure
func LogError(logger zerolog.Logger, err *PlatformError) {
	if err == nil {
		return
	}

	event := WithFields(logger.Error(), err)
	if err.Err != nil {
		event = event.Err(err.Err)
	}

	event.Msg(err.Message)
}

// WithFields adds the identifying fields of err to event.
func WithFields(event *zerolog.Event, err *PlatformError) *zerolog.Event {
	if err == nil {
		return event
	}

	event = event.
		Str("error_uuid", err.UUID).
		Str("error_type", string(err.Type)).
		Str("layer", string(err.Layer)).
		Time("timestamp_utc", err.Timestamp)

	if err.InvocationID != "" {
		event = event.Str("invocation_id", err.InvocationID)
	}

	for k, v := range err.Context {
		event = event.Interface(k, v)
	}
	return event
}
