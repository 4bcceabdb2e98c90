// Package errors provides unified error handling for the extraction pipeline.
// Codes mirror the pipeline taxonomy: timeouts and engine errors are
// recoverable, capture misses skip a cycle, config errors are fatal at startup.
package errors

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code classifies pipeline errors.
type Code int

const (
	Unknown Code = iota
	Timeout             // deadline exceeded; recovered and counted
	EngineError         // backend failed; recovered, degrades selection
	CaptureUnavailable  // no frame this cycle
	BackendUnavailable  // backend unreachable or not constructed
	InvalidImage
	DeliveryFailed
	ConfigInvalid // startup only; fatal
)

func (c Code) String() string {
	switch c {
	case Timeout:
		return "TIMEOUT"
	case EngineError:
		return "ENGINE_ERROR"
	case CaptureUnavailable:
		return "CAPTURE_UNAVAILABLE"
	case BackendUnavailable:
		return "BACKEND_UNAVAILABLE"
	case InvalidImage:
		return "INVALID_IMAGE"
	case DeliveryFailed:
		return "DELIVERY_FAILED"
	case ConfigInvalid:
		return "CONFIG_INVALID"
	default:
		return "UNKNOWN"
	}
}

// grpcCodeMap maps pipeline codes to gRPC status codes for the remote backend.
var grpcCodeMap = map[Code]codes.Code{
	Unknown:            codes.Unknown,
	Timeout:            codes.DeadlineExceeded,
	EngineError:        codes.Internal,
	CaptureUnavailable: codes.NotFound,
	BackendUnavailable: codes.Unavailable,
	InvalidImage:       codes.InvalidArgument,
	DeliveryFailed:     codes.Internal,
	ConfigInvalid:      codes.InvalidArgument,
}

// AppError is the base error type with a structured code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// GRPCCode returns the corresponding gRPC status code.
func (e *AppError) GRPCCode() codes.Code {
	if c, ok := grpcCodeMap[e.Code]; ok {
		return c
	}
	return codes.Unknown
}

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// FromGRPCError classifies a gRPC error from the remote backend.
func FromGRPCError(err error) *AppError {
	st, ok := status.FromError(err)
	if !ok {
		return &AppError{Code: EngineError, Message: err.Error(), Cause: err}
	}
	return &AppError{Code: grpcToCode(st.Code()), Message: st.Message(), Cause: err}
}

func grpcToCode(c codes.Code) Code {
	switch c {
	case codes.DeadlineExceeded, codes.Canceled:
		return Timeout
	case codes.Unavailable:
		return BackendUnavailable
	case codes.InvalidArgument:
		return InvalidImage
	case codes.NotFound:
		return CaptureUnavailable
	default:
		return EngineError
	}
}

// IsCode checks if an error carries a specific code.
func IsCode(err error, code Code) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// IsTimeout reports whether an error is a deadline expiry.
func IsTimeout(err error) bool { return IsCode(err, Timeout) }

// IsRecoverable reports whether the pipeline can continue after this error.
// Only configuration errors are fatal.
func IsRecoverable(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code != ConfigInvalid
	}
	return true
}
