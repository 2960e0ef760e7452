package common

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInternal         = errors.New("internal error")
	ErrDatabase         = errors.New("database error")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrEvidenceNotReady = errors.New("evidence not processed")
)

// Error codes carried by AppError.Code.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeConflict     = "CONFLICT"
	CodeNotFound     = "NOT_FOUND"
	CodeDatabase     = "DATABASE_ERROR"
	CodeConfig       = "CONFIG_ERROR"
	CodeNotReady     = "EVIDENCE_NOT_READY"
)

// NewAppError builds an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// InvalidInput builds an AppError that matches ErrInvalidInput.
func InvalidInput(message string) error {
	return NewAppError(CodeInvalidInput, message, ErrInvalidInput)
}

// Conflict builds an AppError that matches ErrConflict.
func Conflict(message string) error {
	return NewAppError(CodeConflict, message, ErrConflict)
}

// NotFound builds an AppError that matches ErrNotFound.
func NotFound(message string) error {
	return NewAppError(CodeNotFound, message, ErrNotFound)
}

// EvidenceNotReady builds an AppError that matches ErrEvidenceNotReady.
func EvidenceNotReady(message string) error {
	return NewAppError(CodeNotReady, message, ErrEvidenceNotReady)
}

// Message returns the human-readable part of an error, without the code prefix.
func Message(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// ToStatus maps application errors onto gRPC status codes.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	msg := Message(err)
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, ErrEvidenceNotReady):
		return status.Error(codes.FailedPrecondition, msg)
	case errors.Is(err, ErrConflict):
		return status.Error(codes.AlreadyExists, msg)
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, msg)
	case errors.Is(err, ErrUnauthorized):
		return status.Error(codes.Unauthenticated, msg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, msg)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, msg)
	}
	return status.Error(codes.Internal, "internal error")
}
