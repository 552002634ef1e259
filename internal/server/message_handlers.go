package server

import (
	"phora/internal/models"
	"phora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendMessage handles POST /api/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	uid := s.currentUID(c)

	var req struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Content string `json:"content"`
		ReplyTo *uint  `json:"reply_to,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	receiver, err := s.userRepo.GetByName(c.UserContext(), req.To)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", req.To))
	}

	msg, err := s.messageService.SendMessage(c.UserContext(), service.SendMessageInput{
		SenderUID:   uid,
		ReceiverUID: receiver.UID,
		Subject:     req.Subject,
		Content:     req.Content,
		ReplyTo:     req.ReplyTo,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetInbox handles GET /api/messages/inbox
func (s *Server) GetInbox(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	msgs, err := s.messageService.Inbox(c.UserContext(), s.currentUID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msgs)
}

// GetSent handles GET /api/messages/sent
func (s *Server) GetSent(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	msgs, err := s.messageService.Sent(c.UserContext(), s.currentUID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msgs)
}

// GetSaved handles GET /api/messages/saved
func (s *Server) GetSaved(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	msgs, err := s.messageService.Saved(c.UserContext(), s.currentUID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msgs)
}

// ReadMessage handles GET /api/messages/:mid and clears the unread
// marker for the reader.
func (s *Server) ReadMessage(c *fiber.Ctx) error {
	mid, err := s.parsePID(c, "mid")
	if err != nil {
		return nil
	}

	msg, err := s.messageService.Read(c.UserContext(), s.currentUID(c), mid)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msg)
}

// SetMessageStatus handles PUT /api/messages/:mid/status
func (s *Server) SetMessageStatus(c *fiber.Ctx) error {
	mid, err := s.parsePID(c, "mid")
	if err != nil {
		return nil
	}

	var req struct {
		Status int `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.messageService.SetStatus(c.UserContext(), s.currentUID(c), mid, req.Status); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllMessagesRead handles POST /api/messages/read-all
func (s *Server) MarkAllMessagesRead(c *fiber.Ctx) error {
	if err := s.messageService.MarkAllRead(c.UserContext(), s.currentUID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUnreadCount handles GET /api/messages/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.messageService.UnreadCount(c.UserContext(), s.currentUID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}
