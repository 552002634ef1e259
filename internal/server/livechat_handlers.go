package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// LiveChatHandler handles WebSocket connections for the site-wide chat.
func (s *Server) LiveChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userUID").(string)
		if !ok || uid == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","message":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		ctx := context.Background()

		user, err := s.userRepo.GetByUID(ctx, uid)
		if err != nil {
			s.log.Warn("live chat user lookup failed",
				slog.String("uid", uid), slog.String("error", err.Error()))
			_ = conn.Close()
			return
		}

		client, err := s.chatHub.Register(ctx, conn, uid, user.Name)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","message":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// GetChatHistory handles GET /api/live/history
func (s *Server) GetChatHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	msgs, err := s.siteService.ChatHistory(c.UserContext(), limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msgs)
}
