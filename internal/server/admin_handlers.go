package server

import (
	"phora/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SetAnnouncement handles PUT /api/admin/announcement
func (s *Server) SetAnnouncement(c *fiber.Ctx) error {
	var req struct {
		PID uint `json:"pid"`
	}
	if err := c.BodyParser(&req); err != nil || req.PID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A post pid is required"))
	}

	if err := s.siteService.SetAnnouncement(c.UserContext(), req.PID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearAnnouncement handles DELETE /api/admin/announcement
func (s *Server) ClearAnnouncement(c *fiber.Ctx) error {
	if err := s.siteService.ClearAnnouncement(c.UserContext()); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetSiteLog handles GET /api/admin/sitelog
func (s *Server) GetSiteLog(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	entries, err := s.siteService.ListSiteLog(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(entries)
}

// SetUserStatus handles PUT /api/admin/users/:uid/status
func (s *Server) SetUserStatus(c *fiber.Ctx) error {
	uid := c.Params("uid")

	var req struct {
		Status int `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.userService.SetStatus(c.UserContext(), uid, req.Status); err != nil {
		return respondServiceError(c, err)
	}
	if err := s.siteRepo.Log(c.UserContext(), models.SiteLogUsers, "user status changed", "/u/"+uid); err != nil {
		s.log.Warn("site log write failed")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
