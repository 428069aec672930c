package engine

import (
	"errors"
	"net/http"

	"llmcore/internal/backend"
)

// Kind classifies engine failures.
type Kind int

const (
	KindUnknown Kind = iota
	NotInitialized
	InvalidArgument
	InvalidHandle
	LoadError
	TokenizeError
	PromptProcessingError
	DecodeError
	UnsupportedCapability
	AllocationError
)

var kindNames = [...]string{
	KindUnknown:           "unknown",
	NotInitialized:        "not initialized",
	InvalidArgument:       "invalid argument",
	InvalidHandle:         "invalid handle",
	LoadError:             "load error",
	TokenizeError:         "tokenize error",
	PromptProcessingError: "prompt processing error",
	DecodeError:           "decode error",
	UnsupportedCapability: "unsupported capability",
	AllocationError:       "allocation error",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Error is the single error type returned by the engine.
type Error struct {
	Kind Kind
	Op   string // operation, e.g. "load" or "generate"
	Msg  string
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	s := e.Op + ": " + e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode maps the kind to an HTTP status for the API layer.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case InvalidArgument, TokenizeError:
		return http.StatusBadRequest
	case InvalidHandle:
		return http.StatusNotFound
	case NotInitialized:
		return http.StatusServiceUnavailable
	case LoadError:
		if backend.IsDependencyUnavailable(e.Err) {
			return http.StatusServiceUnavailable
		}
		return http.StatusUnprocessableEntity
	case UnsupportedCapability:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func newError(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsNotInitialized reports whether err was caused by a call before Init.
func IsNotInitialized(err error) bool { return KindOf(err) == NotInitialized }

// IsInvalidArgument reports whether err indicates a rejected argument.
func IsInvalidArgument(err error) bool { return KindOf(err) == InvalidArgument }

// IsInvalidHandle reports whether err indicates a null, unknown or freed handle.
func IsInvalidHandle(err error) bool { return KindOf(err) == InvalidHandle }

func IsLoadError(err error) bool { return KindOf(err) == LoadError }

func IsTokenizeError(err error) bool { return KindOf(err) == TokenizeError }

func IsPromptProcessingError(err error) bool { return KindOf(err) == PromptProcessingError }

func IsDecodeError(err error) bool { return KindOf(err) == DecodeError }

func IsUnsupportedCapability(err error) bool { return KindOf(err) == UnsupportedCapability }
