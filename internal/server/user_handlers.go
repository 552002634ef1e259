package server

import (
	"phora/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:name
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetProfile(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondServiceError(c, err)
	}
	if profile.Status == models.UserStatusPurged {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", c.Params("name")))
	}
	return c.JSON(profile)
}

// GetMyProfile handles GET /api/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetProfileByUID(c.UserContext(), s.currentUID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// SetPreference handles PUT /api/me/preferences
func (s *Server) SetPreference(c *fiber.Ctx) error {
	var req struct {
		Key   string `json:"key"`
		Value bool   `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.userService.SetPreference(c.UserContext(), s.currentUID(c), req.Key, req.Value); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
