package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Domain sentinels for the vote engine and storage layer.
var (
	// ErrForbiddenVote is returned when a user attempts to vote on their
	// own post or comment. No state is changed.
	ErrForbiddenVote = &AppError{
		Code:    "FORBIDDEN_VOTE",
		Message: "You cannot vote on your own submissions",
	}

	// ErrDuplicateVote marks a re-cast with the polarity already on
	// record. It aborts the vote transaction without writes and never
	// reaches API callers: the engine reports the cast as a no-op
	// success with the unchanged score.
	ErrDuplicateVote = &AppError{
		Code:    "DUPLICATE_VOTE",
		Message: "Vote already recorded",
	}

	// ErrStorageUnavailable signals a timed-out or unreachable database.
	// It is retryable by the caller.
	ErrStorageUnavailable = &AppError{
		Code:    "STORAGE_UNAVAILABLE",
		Message: "Storage temporarily unavailable",
	}
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// NewVoteFailedError wraps the cause of an aborted vote transaction.
// The whole cast has been rolled back; no partial score or reputation
// update was persisted.
func NewVoteFailedError(err error) *AppError {
	return &AppError{
		Code:    "VOTE_FAILED",
		Message: "Vote could not be recorded",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
