package manager

import (
	"errors"
	"net/http"

	"llmcore/internal/engine"
)

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ handle string }

func (e tooBusyError) Error() string { return "too busy: " + e.handle }

func (e tooBusyError) StatusCode() int { return http.StatusTooManyRequests }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var e tooBusyError
	return errors.As(err, &e)
}

// modelNotFoundError is returned when a requested model id is not present in
// the registry.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

func (e modelNotFoundError) StatusCode() int { return http.StatusNotFound }

func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

func errUnknownHandle(op string, h engine.Handle) error {
	return &engine.Error{Kind: engine.InvalidHandle, Op: op, Msg: "invalid model handle " + h.String()}
}
