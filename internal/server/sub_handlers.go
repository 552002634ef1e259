package server

import (
	"phora/internal/models"
	"phora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateSub handles POST /api/subs
func (s *Server) CreateSub(c *fiber.Ctx) error {
	uid := s.currentUID(c)

	var req struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	sub, err := s.subService.CreateSub(c.UserContext(), service.CreateSubInput{
		UID:   uid,
		Name:  req.Name,
		Title: req.Title,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// GetSub handles GET /api/subs/:name
func (s *Server) GetSub(c *fiber.Ctx) error {
	view, err := s.subService.GetSub(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(view)
}

// SubscribeSub handles POST /api/subs/:name/subscribe
func (s *Server) SubscribeSub(c *fiber.Ctx) error {
	sid, err := s.subSID(c, "name")
	if err != nil {
		return nil
	}
	if err := s.subService.Subscribe(c.UserContext(), sid, s.currentUID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// BlockSub handles POST /api/subs/:name/block
func (s *Server) BlockSub(c *fiber.Ctx) error {
	sid, err := s.subSID(c, "name")
	if err != nil {
		return nil
	}
	if err := s.subService.Block(c.UserContext(), sid, s.currentUID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetSubFlairs handles GET /api/subs/:name/flairs
func (s *Server) GetSubFlairs(c *fiber.Ctx) error {
	sid, err := s.subSID(c, "name")
	if err != nil {
		return nil
	}
	flairs, err := s.subService.ListFlairs(c.UserContext(), sid)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(flairs)
}

// AddSubFlair handles POST /api/subs/:name/flairs
func (s *Server) AddSubFlair(c *fiber.Ctx) error {
	sid, err := s.subSID(c, "name")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.subService.AddFlair(c.UserContext(), sid, s.currentUID(c), req.Text); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

// GetSubStylesheet handles GET /api/subs/:name/stylesheet
func (s *Server) GetSubStylesheet(c *fiber.Ctx) error {
	sid, err := s.subSID(c, "name")
	if err != nil {
		return nil
	}
	ss, err := s.subRepo.GetStylesheet(c.UserContext(), sid)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(ss)
}

// SetSubStylesheet handles PUT /api/subs/:name/stylesheet
func (s *Server) SetSubStylesheet(c *fiber.Ctx) error {
	sid, err := s.subSID(c, "name")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.subService.SetStylesheet(c.UserContext(), sid, s.currentUID(c), req.Content); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetSubNSFW handles PUT /api/subs/:name/nsfw
func (s *Server) SetSubNSFW(c *fiber.Ctx) error {
	sid, err := s.subSID(c, "name")
	if err != nil {
		return nil
	}

	var req struct {
		NSFW bool `json:"nsfw"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.subService.SetNSFW(c.UserContext(), sid, s.currentUID(c), req.NSFW); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetSubSticky handles PUT /api/subs/:name/sticky
func (s *Server) SetSubSticky(c *fiber.Ctx) error {
	sid, err := s.subSID(c, "name")
	if err != nil {
		return nil
	}

	var req struct {
		PID uint `json:"pid"` // zero clears the sticky
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.subService.SetSticky(c.UserContext(), sid, s.currentUID(c), req.PID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMySubscriptions handles GET /api/me/subscriptions
func (s *Server) GetMySubscriptions(c *fiber.Ctx) error {
	subs, err := s.subService.ListSubscriptions(c.UserContext(), s.currentUID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(subs)
}
