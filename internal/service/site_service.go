package service

import (
	"context"
	"strconv"

	"phora/internal/cache"
	"phora/internal/models"
	"phora/internal/repository"
	"phora/internal/resolver"
)

// SiteService handles site-wide state: the announcement slot, the
// admin log and live chat history.
type SiteService struct {
	siteRepo repository.SiteRepository
	postRepo repository.PostRepository
	res      *resolver.Resolver
}

func NewSiteService(siteRepo repository.SiteRepository, postRepo repository.PostRepository, res *resolver.Resolver) *SiteService {
	return &SiteService{siteRepo: siteRepo, postRepo: postRepo, res: res}
}

// SetAnnouncement points the site announcement slot at a post.
func (s *SiteService) SetAnnouncement(ctx context.Context, pid uint) error {
	if _, err := s.postRepo.GetByPID(ctx, pid); err != nil {
		return models.NewNotFoundError("Post", pid)
	}
	s.evictAnnouncement(ctx)
	if err := s.siteRepo.SetMeta(ctx, models.SiteMetaAnnouncement, strconv.FormatUint(uint64(pid), 10)); err != nil {
		return err
	}
	s.res.InvalidateAttr(ctx, cache.EntityPost, pid, resolver.AttrAnnouncement)
	return s.siteRepo.Log(ctx, models.SiteLogAnnounce, "announcement set", "")
}

// ClearAnnouncement empties the slot.
func (s *SiteService) ClearAnnouncement(ctx context.Context) error {
	s.evictAnnouncement(ctx)
	if err := s.siteRepo.DeleteMeta(ctx, models.SiteMetaAnnouncement); err != nil {
		return err
	}
	return s.siteRepo.Log(ctx, models.SiteLogAnnounce, "announcement cleared", "")
}

// GetAnnouncement returns the current announcement post, or nil when
// the slot is empty.
func (s *SiteService) GetAnnouncement(ctx context.Context) (*models.Post, error) {
	raw, err := s.siteRepo.GetMeta(ctx, models.SiteMetaAnnouncement)
	if err != nil || raw == nil {
		return nil, err
	}
	pid, convErr := strconv.ParseUint(*raw, 10, 64)
	if convErr != nil {
		return nil, nil
	}
	return s.postRepo.GetByPID(ctx, uint(pid))
}

// evictAnnouncement drops the outgoing post's memoized announcement
// flag before the slot changes.
func (s *SiteService) evictAnnouncement(ctx context.Context) {
	raw, err := s.siteRepo.GetMeta(ctx, models.SiteMetaAnnouncement)
	if err != nil || raw == nil {
		return
	}
	if pid, convErr := strconv.ParseUint(*raw, 10, 64); convErr == nil {
		s.res.InvalidateAttr(ctx, cache.EntityPost, uint(pid), resolver.AttrAnnouncement)
	}
}

const maxChatMessageLen = 255

// PostChatMessage validates and stores a live chat line.
func (s *SiteService) PostChatMessage(ctx context.Context, username, message string) (*models.LiveChatMessage, error) {
	if message == "" {
		return nil, models.NewValidationError("Message is required")
	}
	if len(message) > maxChatMessageLen {
		return nil, models.NewValidationError("Message too long (max 255 characters)")
	}
	return s.siteRepo.AddChatMessage(ctx, username, message)
}

// ChatHistory returns the most recent chat lines, oldest first.
func (s *SiteService) ChatHistory(ctx context.Context, limit int) ([]*models.LiveChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.siteRepo.RecentChatMessages(ctx, limit)
}

func (s *SiteService) ListSiteLog(ctx context.Context, limit, offset int) ([]*models.SiteLog, error) {
	return s.siteRepo.ListLog(ctx, limit, offset)
}
