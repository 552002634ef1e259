package server

import (
	"phora/internal/models"
	"phora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	uid := s.currentUID(c)

	var req struct {
		Sub     string `json:"sub"`
		Ptype   int    `json:"ptype"`
		Title   string `json:"title"`
		Link    string `json:"link,omitempty"`
		Content string `json:"content,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	sub, err := s.subRepo.GetByName(c.UserContext(), req.Sub)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Sub", req.Sub))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UID:     uid,
		SID:     sub.SID,
		Ptype:   req.Ptype,
		Title:   req.Title,
		Link:    req.Link,
		Content: req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:pid
func (s *Server) GetPost(c *fiber.Ctx) error {
	pid, err := s.parsePID(c, "pid")
	if err != nil {
		return nil
	}

	view, err := s.postService.GetPost(c.UserContext(), pid)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(view)
}

// GetRecentPosts handles GET /api/posts
func (s *Server) GetRecentPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 25)

	views, err := s.postService.ListRecentPosts(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(views)
}

// GetSubPosts handles GET /api/subs/:name/posts
func (s *Server) GetSubPosts(c *fiber.Ctx) error {
	sid, err := s.subSID(c, "name")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 25)

	views, err := s.postService.ListSubPosts(c.UserContext(), sid, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(views)
}

// DeletePost handles DELETE /api/posts/:pid
func (s *Server) DeletePost(c *fiber.Ctx) error {
	uid := s.currentUID(c)
	pid, err := s.parsePID(c, "pid")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	_ = c.BodyParser(&req)

	post, err := s.postRepo.GetByPID(c.UserContext(), pid)
	if err != nil {
		return respondServiceError(c, err)
	}
	if post.UID != uid {
		admin, aerr := s.isAdminByUID(c.UserContext(), uid)
		if aerr != nil {
			return respondServiceError(c, aerr)
		}
		mod, merr := s.subService.IsMod(c.UserContext(), post.SID, uid)
		if merr != nil {
			return respondServiceError(c, merr)
		}
		if !admin && !mod {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("You can only delete your own posts"))
		}
	}

	if err := s.postService.DeletePost(c.UserContext(), uid, pid, req.Reason); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// VotePost handles POST /api/posts/:pid/vote
func (s *Server) VotePost(c *fiber.Ctx) error {
	uid := s.currentUID(c)
	pid, err := s.parsePID(c, "pid")
	if err != nil {
		return nil
	}

	var req struct {
		Positive bool `json:"positive"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.voteService.CastVote(c.UserContext(), service.CastVoteInput{
		UID:      uid,
		PID:      pid,
		Positive: req.Positive,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// GetAnnouncement handles GET /api/posts/announcement
func (s *Server) GetAnnouncement(c *fiber.Ctx) error {
	post, err := s.siteService.GetAnnouncement(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	if post == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(post)
}
