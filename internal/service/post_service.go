package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"phora/internal/models"
	"phora/internal/repository"
	"phora/internal/resolver"
)

// PostService handles post creation, deletion and the hydration of
// derived attributes for display.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	subRepo  repository.SubRepository
	res      *resolver.Resolver
	log      *slog.Logger
}

type CreatePostInput struct {
	UID     string
	SID     string
	Ptype   int
	Title   string
	Link    string
	Content string
}

// PostView is a post hydrated with its derived attributes. Score,
// deletion state and flags come through the resolver so stale rows are
// backfilled on the way out.
type PostView struct {
	*models.Post
	ScoreValue   int                `json:"score_value"`
	DeletedState int                `json:"deleted_state"`
	IsNSFW       bool               `json:"is_nsfw"`
	ThumbnailURL string             `json:"thumbnail_url"`
	Domain       string             `json:"domain,omitempty"`
	Media        resolver.MediaKind `json:"media"`
	Sticky       bool               `json:"sticky"`
	Announcement bool               `json:"announcement"`
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, subRepo repository.SubRepository, res *resolver.Resolver, log *slog.Logger) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo, subRepo: subRepo, res: res, log: log}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	switch in.Ptype {
	case models.PostTypeText:
		if in.Content == "" {
			return nil, models.NewValidationError("Content is required for text posts")
		}
	case models.PostTypeLink:
		if in.Link == "" {
			return nil, models.NewValidationError("Link is required for link posts")
		}
		if u, err := url.Parse(in.Link); err != nil || u.Host == "" {
			return nil, models.NewValidationError("Link is not a valid URL")
		}
	default:
		return nil, models.NewValidationError("Unknown post type")
	}

	if _, err := s.subRepo.GetBySID(ctx, in.SID); err != nil {
		return nil, models.NewNotFoundError("Sub", in.SID)
	}

	zero := models.DeletedNone
	one := 1
	post := &models.Post{
		SID:     in.SID,
		UID:     in.UID,
		Ptype:   in.Ptype,
		Title:   in.Title,
		Link:    in.Link,
		Content: in.Content,
		Posted:  time.Now().UTC(),
		Score:   &one,
		Deleted: &zero,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	// Posting earns the author a point.
	if err := s.userRepo.IncrementScore(ctx, in.UID, 1); err != nil {
		s.log.WarnContext(ctx, "post reward not applied",
			slog.String("uid", in.UID), slog.String("error", err.Error()))
	}
	return post, nil
}

// DeletePost marks the post removed. Authors get DeletedByUser; any
// other caller is treated as a moderator action and logged to the sub.
func (s *PostService) DeletePost(ctx context.Context, uid string, pid uint, reason string) error {
	post, err := s.postRepo.GetByPID(ctx, pid)
	if err != nil {
		return err
	}

	state := models.DeletedByUser
	if post.UID != uid {
		state = models.DeletedByMod
	}
	if err := s.postRepo.SetDeleted(ctx, pid, state); err != nil {
		return err
	}

	if state == models.DeletedByMod {
		if err := s.subRepo.Log(ctx, post.SID, models.SubLogDeletion, reason, ""); err != nil {
			s.log.WarnContext(ctx, "sub log write failed",
				slog.String("sid", post.SID), slog.String("error", err.Error()))
		}
	}
	return nil
}

// GetPost returns the hydrated view of one post.
func (s *PostService) GetPost(ctx context.Context, pid uint) (*PostView, error) {
	post, err := s.postRepo.GetByPID(ctx, pid)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, post)
}

// ListSubPosts returns hydrated posts of a sub, newest first.
func (s *PostService) ListSubPosts(ctx context.Context, sid string, limit, offset int) ([]*PostView, error) {
	posts, err := s.postRepo.ListBySub(ctx, sid, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, posts)
}

// ListRecentPosts returns the site-wide front page, newest first.
func (s *PostService) ListRecentPosts(ctx context.Context, limit, offset int) ([]*PostView, error) {
	posts, err := s.postRepo.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, posts)
}

func (s *PostService) hydrateAll(ctx context.Context, posts []*models.Post) ([]*PostView, error) {
	views := make([]*PostView, 0, len(posts))
	for _, p := range posts {
		v, err := s.hydrate(ctx, p)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *PostService) hydrate(ctx context.Context, post *models.Post) (*PostView, error) {
	view := &PostView{Post: post}

	var err error
	if view.ScoreValue, err = s.res.PostScore(ctx, post); err != nil {
		return nil, err
	}
	if view.DeletedState, err = s.res.PostDeleted(ctx, post); err != nil {
		return nil, err
	}
	if view.IsNSFW, err = s.res.PostNSFW(ctx, post); err != nil {
		return nil, err
	}
	if view.ThumbnailURL, err = s.res.PostThumbnail(ctx, post); err != nil {
		return nil, err
	}
	if view.Sticky, err = s.res.PostSticky(ctx, post); err != nil {
		return nil, err
	}
	if view.Announcement, err = s.res.PostAnnouncement(ctx, post); err != nil {
		return nil, err
	}
	if post.Ptype == models.PostTypeLink {
		if view.Domain, err = s.res.PostDomain(ctx, post); err != nil {
			return nil, err
		}
		if view.Media, err = s.res.PostMedia(ctx, post); err != nil {
			return nil, err
		}
	}
	return view, nil
}
