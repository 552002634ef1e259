package service

import (
	"context"
	"time"

	"phora/internal/models"
	"phora/internal/repository"
	"phora/internal/resolver"
)

// CommentService handles comment creation, editing, soft deletion and
// tree assembly.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	res         *resolver.Resolver
}

type CreateCommentInput struct {
	UID       string
	PID       uint
	ParentCID *string
	Content   string
}

type UpdateCommentInput struct {
	UID     string
	CID     string
	Content string
}

// CommentNode is one comment plus its direct children, assembled from
// the adjacency list. Children are ordered oldest first.
type CommentNode struct {
	*models.Comment
	Children []*CommentNode `json:"children"`
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, res *resolver.Resolver) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo, res: res}
}

const maxCommentLen = 10000

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	post, err := s.postRepo.GetByPID(ctx, in.PID)
	if err != nil {
		return nil, models.NewNotFoundError("Post", in.PID)
	}
	// Legacy rows keep the deletion marker in post metadata, so the
	// column alone cannot be trusted.
	deleted, err := s.res.PostDeleted(ctx, post)
	if err != nil {
		return nil, err
	}
	if deleted != models.DeletedNone {
		return nil, models.NewValidationError("Cannot comment on a deleted post")
	}

	if in.ParentCID != nil {
		parent, err := s.commentRepo.GetByCID(ctx, *in.ParentCID)
		if err != nil {
			return nil, models.NewNotFoundError("Parent comment", *in.ParentCID)
		}
		if parent.PID != in.PID {
			return nil, models.NewValidationError("Parent comment belongs to another post")
		}
	}

	comment := models.NewComment(in.PID, in.UID, in.Content, in.ParentCID)
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByCID(ctx, in.CID)
	if err != nil {
		return nil, err
	}
	if comment.UID != in.UID {
		return nil, models.NewUnauthorizedError("You can only edit your own comments")
	}
	if comment.IsDeleted() {
		return nil, models.NewValidationError("Cannot edit a deleted comment")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	now := time.Now().UTC()
	comment.Content = in.Content
	comment.LastEdit = &now
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment soft-deletes: the row stays so the subtree below it
// keeps its place in the tree.
func (s *CommentService) DeleteComment(ctx context.Context, uid, cid string) error {
	comment, err := s.commentRepo.GetByCID(ctx, cid)
	if err != nil {
		return err
	}
	if comment.UID != uid {
		return models.NewUnauthorizedError("You can only delete your own comments")
	}
	return s.commentRepo.SetStatus(ctx, cid, models.CommentDeleted)
}

// GetChildren returns one level of the tree: the direct children of
// parentCID on the post, oldest first. A nil parent selects the
// top-level comments. This is the lazy expansion path the UI calls per
// fold.
func (s *CommentService) GetChildren(ctx context.Context, pid uint, parentCID *string) ([]*models.Comment, error) {
	return s.commentRepo.ListChildren(ctx, pid, parentCID)
}

// GetTree loads every comment of the post in one query and assembles
// the full tree from the adjacency list. Orphans whose parent row is
// missing surface as top-level so no comment is silently dropped.
func (s *CommentService) GetTree(ctx context.Context, pid uint) ([]*CommentNode, error) {
	comments, err := s.commentRepo.ListByPost(ctx, pid)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*CommentNode, len(comments))
	for _, c := range comments {
		nodes[c.CID] = &CommentNode{Comment: c, Children: []*CommentNode{}}
	}

	var roots []*CommentNode
	for _, c := range comments {
		node := nodes[c.CID]
		if c.ParentCID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*c.ParentCID]; ok {
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node)
		}
	}
	return roots, nil
}
