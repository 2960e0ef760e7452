package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrExtractionFailed is the single category for upstream extraction failures.
// It is distinct from common.ErrInvalidInput.
var ErrExtractionFailed = errors.New("extraction failed")

// ErrorKind classifies an upstream failure.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindUnavailable ErrorKind = "unavailable"
	KindSchema      ErrorKind = "schema"
)

// ExtractionError is returned by the invoker for every upstream failure.
type ExtractionError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ExtractionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("extraction failed (%s, status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("extraction failed (%s): %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExtractionFailed) hold for every ExtractionError.
func (e *ExtractionError) Is(target error) bool { return target == ErrExtractionFailed }

// Retryable reports whether another attempt may succeed.
// Client errors other than 408 and 429 are permanent.
func (e *ExtractionError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindSchema:
		return true
	case KindUnavailable:
		if e.StatusCode >= 400 && e.StatusCode < 500 {
			return e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests
		}
		return !errors.Is(e.Err, context.Canceled)
	}
	return false
}

// IsRetryable reports whether err is a retryable extraction failure.
func IsRetryable(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Retryable()
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider status %d: %s", e.StatusCode, e.Body)
}

// classifyCallError maps a completer error onto an ExtractionError.
func classifyCallError(callCtx context.Context, err error) *ExtractionError {
	var se *StatusError
	if errors.As(err, &se) {
		kind := KindUnavailable
		if se.StatusCode == http.StatusRequestTimeout || se.StatusCode == http.StatusGatewayTimeout {
			kind = KindTimeout
		}
		return &ExtractionError{Kind: kind, StatusCode: se.StatusCode, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &ExtractionError{Kind: KindTimeout, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &ExtractionError{Kind: KindTimeout, Err: err}
	}
	return &ExtractionError{Kind: KindUnavailable, Err: err}
}

func schemaError(err error) *ExtractionError {
	return &ExtractionError{Kind: KindSchema, Err: err}
}
