package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeDebateClosed      = "DEBATE_CLOSED"
	CodeDebateOpen        = "DEBATE_OPEN"
	CodeNotParticipant    = "NOT_PARTICIPANT"
	CodeForbidden         = "FORBIDDEN"
	CodeEditWindowExpired = "EDIT_WINDOW_EXPIRED"
	CodeSelfVote          = "SELF_VOTE"
	CodeDuplicateVote     = "DUPLICATE_VOTE"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
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

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrDuplicateVote) matches any duplicate vote failure.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation        = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrNotFound          = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrDebateClosed      = &AppError{Code: CodeDebateClosed, Message: "debate is closed"}
	ErrDebateOpen        = &AppError{Code: CodeDebateOpen, Message: "debate is still open"}
	ErrNotParticipant    = &AppError{Code: CodeNotParticipant, Message: "not a participant on this side"}
	ErrForbidden         = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrEditWindowExpired = &AppError{Code: CodeEditWindowExpired, Message: "edit window expired"}
	ErrSelfVote          = &AppError{Code: CodeSelfVote, Message: "cannot vote on own argument"}
	ErrDuplicateVote     = &AppError{Code: CodeDuplicateVote, Message: "already voted on this argument"}
	ErrConflict          = &AppError{Code: CodeConflict, Message: "conflict"}
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewDebateClosedError(debateID string) *AppError {
	return &AppError{
		Code:    CodeDebateClosed,
		Message: fmt.Sprintf("debate %s is closed", debateID),
	}
}

func NewDebateOpenError(debateID string) *AppError {
	return &AppError{
		Code:    CodeDebateOpen,
		Message: fmt.Sprintf("debate %s is still open", debateID),
	}
}

func NewNotParticipantError(message string) *AppError {
	return &AppError{
		Code:    CodeNotParticipant,
		Message: message,
	}
}

func NewEditWindowExpiredError() *AppError {
	return &AppError{
		Code:    CodeEditWindowExpired,
		Message: "arguments can only be changed within 5 minutes of posting",
	}
}

func NewSelfVoteError() *AppError {
	return &AppError{
		Code:    CodeSelfVote,
		Message: "you cannot vote on your own argument",
	}
}

func NewDuplicateVoteError() *AppError {
	return &AppError{
		Code:    CodeDuplicateVote,
		Message: "you have already voted on this argument",
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
