package server

import (
	"arena/internal/middleware"
	"arena/internal/models"
	"arena/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListArguments handles GET /api/debates/:id/arguments
// An optional side query narrows the list to one side.
func (s *Server) ListArguments(c *fiber.Ctx) error {
	args, err := s.engine.ListArguments(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	if raw := c.Query("side"); raw != "" {
		side, err := models.ParseSide(raw)
		if err != nil {
			return respondError(c, models.NewValidationError(err.Error()))
		}
		filtered := make([]*models.Argument, 0, len(args))
		for _, a := range args {
			if a.Side == side {
				filtered = append(filtered, a)
			}
		}
		args = filtered
	}
	return c.JSON(args)
}

// PostArgument handles POST /api/debates/:id/arguments
func (s *Server) PostArgument(c *fiber.Ctx) error {
	var req struct {
		Side    string `json:"side"`
		Content string `json:"content"`
	}
	if !parseBody(c, &req) {
		return nil
	}
	side, err := models.ParseSide(req.Side)
	if err != nil {
		return respondError(c, models.NewValidationError(err.Error()))
	}

	arg, err := s.engine.PostArgument(c.UserContext(), service.PostArgumentInput{
		DebateID: c.Params("id"),
		UserID:   middleware.UserID(c),
		Side:     side,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(arg)
}

// VoteArgument handles POST /api/arguments/:id/vote
func (s *Server) VoteArgument(c *fiber.Ctx) error {
	var req struct {
		Direction string `json:"direction"`
	}
	if !parseBody(c, &req) {
		return nil
	}
	dir, err := models.ParseDirection(req.Direction)
	if err != nil {
		return respondError(c, models.NewValidationError(err.Error()))
	}

	arg, err := s.engine.VoteArgument(c.UserContext(), service.VoteArgumentInput{
		ArgumentID: c.Params("id"),
		UserID:     middleware.UserID(c),
		Direction:  dir,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(arg)
}

// EditArgument handles PUT /api/arguments/:id
func (s *Server) EditArgument(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if !parseBody(c, &req) {
		return nil
	}

	arg, err := s.engine.EditArgument(c.UserContext(), service.EditArgumentInput{
		ArgumentID: c.Params("id"),
		UserID:     middleware.UserID(c),
		Content:    req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(arg)
}

// DeleteArgument handles DELETE /api/arguments/:id
func (s *Server) DeleteArgument(c *fiber.Ctx) error {
	err := s.engine.DeleteArgument(c.UserContext(), service.DeleteArgumentInput{
		ArgumentID: c.Params("id"),
		UserID:     middleware.UserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
