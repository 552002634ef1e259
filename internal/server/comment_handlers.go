package server

import (
	"phora/internal/models"
	"phora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/posts/:pid/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	uid := s.currentUID(c)
	pid, err := s.parsePID(c, "pid")
	if err != nil {
		return nil
	}

	var req struct {
		Content   string  `json:"content"`
		ParentCID *string `json:"parent_cid,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UID:       uid,
		PID:       pid,
		ParentCID: req.ParentCID,
		Content:   req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetCommentTree handles GET /api/posts/:pid/comments
func (s *Server) GetCommentTree(c *fiber.Ctx) error {
	pid, err := s.parsePID(c, "pid")
	if err != nil {
		return nil
	}

	tree, err := s.commentService.GetTree(c.UserContext(), pid)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(tree)
}

// GetCommentChildren handles GET /api/posts/:pid/comments/children?parent=<cid>.
// Without a parent it returns the post's top-level comments.
func (s *Server) GetCommentChildren(c *fiber.Ctx) error {
	pid, err := s.parsePID(c, "pid")
	if err != nil {
		return nil
	}

	var parent *string
	if p := c.Query("parent"); p != "" {
		parent = &p
	}

	children, err := s.commentService.GetChildren(c.UserContext(), pid, parent)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(children)
}

// UpdateComment handles PUT /api/comments/:cid
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	uid := s.currentUID(c)
	cid := c.Params("cid")

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UID:     uid,
		CID:     cid,
		Content: req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:cid
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	uid := s.currentUID(c)
	cid := c.Params("cid")

	if err := s.commentService.DeleteComment(c.UserContext(), uid, cid); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// VoteComment handles POST /api/comments/:cid/vote
func (s *Server) VoteComment(c *fiber.Ctx) error {
	uid := s.currentUID(c)
	cid := c.Params("cid")

	var req struct {
		Positive bool `json:"positive"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.voteService.CastVote(c.UserContext(), service.CastVoteInput{
		UID:      uid,
		CID:      cid,
		Positive: req.Positive,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}
