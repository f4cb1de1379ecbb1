package server

import (
	"arena/internal/middleware"
	"arena/internal/models"
	"arena/internal/service"
	"arena/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ListDebates handles GET /api/debates
// Query: search, tag, category, duration, open (true|false)
func (s *Server) ListDebates(c *fiber.Ctx) error {
	filter := models.DebateFilter{
		Search:        c.Query("search"),
		Tag:           c.Query("tag"),
		Category:      c.Query("category"),
		DurationHours: c.QueryInt("duration", 0),
	}
	if raw := c.Query("open"); raw != "" {
		open := c.QueryBool("open")
		filter.Open = &open
	}

	debates, err := s.engine.ListDebates(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newDebateViews(debates, s.clock.Now()))
}

// GetFacets handles GET /api/debates/facets
func (s *Server) GetFacets(c *fiber.Ctx) error {
	facets, err := s.engine.Facets(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(facets)
}

// CreateDebate handles POST /api/debates
// Tags may be sent as a list or as one comma separated string.
func (s *Server) CreateDebate(c *fiber.Ctx) error {
	var req struct {
		Title         string      `json:"title"`
		Description   string      `json:"description"`
		Tags          interface{} `json:"tags"`
		Category      string      `json:"category"`
		ImageURL      string      `json:"image"`
		DurationHours int         `json:"duration_hours"`
	}
	if !parseBody(c, &req) {
		return nil
	}

	var tags []string
	switch v := req.Tags.(type) {
	case string:
		tags = validation.SplitTags(v)
	case []interface{}:
		for _, t := range v {
			if tag, ok := t.(string); ok {
				tags = append(tags, tag)
			}
		}
	}

	debate, err := s.engine.CreateDebate(c.UserContext(), service.CreateDebateInput{
		CreatorID:     middleware.UserID(c),
		Title:         req.Title,
		Description:   req.Description,
		Tags:          tags,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newDebateView(debate, s.clock.Now()))
}

// GetDebate handles GET /api/debates/:id
func (s *Server) GetDebate(c *fiber.Ctx) error {
	debate, err := s.engine.GetDebate(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newDebateView(debate, s.clock.Now()))
}

// JoinSide handles POST /api/debates/:id/join
func (s *Server) JoinSide(c *fiber.Ctx) error {
	var req struct {
		Side string `json:"side"`
	}
	if !parseBody(c, &req) {
		return nil
	}
	side, err := models.ParseSide(req.Side)
	if err != nil {
		return respondError(c, models.NewValidationError(err.Error()))
	}

	joined, err := s.engine.JoinSide(c.UserContext(), c.Params("id"), middleware.UserID(c), side)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"debate_id": c.Params("id"),
		"side":      joined,
	})
}

// GetMySide handles GET /api/debates/:id/side
func (s *Server) GetMySide(c *fiber.Ctx) error {
	side, joined, err := s.engine.SideOf(c.UserContext(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"debate_id": c.Params("id"),
		"joined":    joined,
		"side":      side,
	})
}

// GetTally handles GET /api/debates/:id/tally
func (s *Server) GetTally(c *fiber.Ctx) error {
	tally, err := s.engine.Tally(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tally)
}

// GetResult handles GET /api/debates/:id/result
func (s *Server) GetResult(c *fiber.Ctx) error {
	result, err := s.engine.Result(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
