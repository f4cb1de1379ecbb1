package server

import (
	"errors"

	"arena/internal/models"

	"github.com/gofiber/fiber/v2"
)

// statusForError maps an AppError code onto its HTTP status.
func statusForError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeNotParticipant, models.CodeForbidden, models.CodeEditWindowExpired, models.CodeSelfVote:
		return fiber.StatusForbidden
	case models.CodeDebateClosed, models.CodeDebateOpen, models.CodeDuplicateVote, models.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status its code implies.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, statusForError(err), err)
}

// parseBody decodes the JSON body into dest. On failure it writes a 400
// and returns false.
func parseBody(c *fiber.Ctx, dest interface{}) bool {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return false
	}
	return true
}

// errorHandler renders errors that escape handlers, such as unknown routes,
// in the standard error shape.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
	}
	return respondError(c, err)
}
