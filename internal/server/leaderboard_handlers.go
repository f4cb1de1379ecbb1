package server

import (
	"arena/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetLeaderboard handles GET /api/leaderboard?window=all|week|month
func (s *Server) GetLeaderboard(c *fiber.Ctx) error {
	window, err := models.ParseLeaderboardWindow(c.Query("window"))
	if err != nil {
		return respondError(c, models.NewValidationError(err.Error()))
	}

	entries, err := s.leaderboard.Leaderboard(c.UserContext(), window)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"window":  window,
		"entries": entries,
	})
}
