package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"phora/internal/cache"
	"phora/internal/models"
	"phora/internal/repository"
	"phora/internal/resolver"

	"gorm.io/gorm"
)

// SubService handles community creation, metadata, flairs, stylesheets
// and subscriptions.
type SubService struct {
	subRepo  repository.SubRepository
	postRepo repository.PostRepository
	res      *resolver.Resolver
}

type CreateSubInput struct {
	UID   string
	Name  string
	Title string
}

// SubView is a sub hydrated with its derived NSFW flag.
type SubView struct {
	*models.Sub
	IsNSFW bool `json:"is_nsfw"`
}

func NewSubService(subRepo repository.SubRepository, postRepo repository.PostRepository, res *resolver.Resolver) *SubService {
	return &SubService{subRepo: subRepo, postRepo: postRepo, res: res}
}

var subNameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{2,32}$`)

func (s *SubService) CreateSub(ctx context.Context, in CreateSubInput) (*models.Sub, error) {
	if !subNameRe.MatchString(in.Name) {
		return nil, models.NewValidationError("Sub name must be 2-32 word characters")
	}
	if _, err := s.subRepo.GetByName(ctx, in.Name); err == nil {
		return nil, models.NewValidationError("Sub name is taken")
	}

	sub := models.NewSub(in.Name, in.Title)
	if err := s.subRepo.Create(ctx, sub, in.UID); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubService) GetSub(ctx context.Context, name string) (*SubView, error) {
	sub, err := s.subRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	nsfw, err := s.res.SubNSFW(ctx, sub)
	if err != nil {
		return nil, err
	}
	return &SubView{Sub: sub, IsNSFW: nsfw}, nil
}

// IsMod reports whether the user founded or moderates the sub.
func (s *SubService) IsMod(ctx context.Context, sid, uid string) (bool, error) {
	for _, key := range []string{models.SubMetaFounder, models.SubMetaMod} {
		md, err := s.subRepo.GetMetadata(ctx, sid, key)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return false, err
		}
		if md.Value == uid {
			return true, nil
		}
	}
	return false, nil
}

// SetNSFW flags or unflags the sub. Mods only; writes both the column
// and the legacy metadata row so older readers stay consistent.
func (s *SubService) SetNSFW(ctx context.Context, sid, uid string, nsfw bool) error {
	mod, err := s.IsMod(ctx, sid, uid)
	if err != nil {
		return err
	}
	if !mod {
		return models.NewUnauthorizedError("Only mods can change sub settings")
	}

	sub, err := s.subRepo.GetBySID(ctx, sid)
	if err != nil {
		return err
	}
	val := 0
	if nsfw {
		val = 1
	}
	sub.NSFW = &val
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return err
	}
	if err := s.subRepo.SetMetadata(ctx, sid, models.SubMetaNSFW, strconv.Itoa(val)); err != nil {
		return err
	}
	return s.subRepo.Log(ctx, sid, models.SubLogModEdit, "nsfw flag changed", "")
}

// SetSticky points the sub's sticky slot at a post, or clears it when
// pid is zero.
func (s *SubService) SetSticky(ctx context.Context, sid, uid string, pid uint) error {
	mod, err := s.IsMod(ctx, sid, uid)
	if err != nil {
		return err
	}
	if !mod {
		return models.NewUnauthorizedError("Only mods can sticky posts")
	}

	value := ""
	if pid != 0 {
		post, err := s.postRepo.GetByPID(ctx, pid)
		if err != nil {
			return models.NewNotFoundError("Post", pid)
		}
		if post.SID != sid {
			return models.NewValidationError("Post belongs to another sub")
		}
		value = strconv.FormatUint(uint64(pid), 10)
		// Evict the old memoized answer so the change shows promptly.
		s.res.InvalidateAttr(ctx, cache.EntityPost, pid, resolver.AttrSticky)
	}
	if err := s.subRepo.SetMetadata(ctx, sid, models.SubMetaSticky, value); err != nil {
		return err
	}
	return s.subRepo.Log(ctx, sid, models.SubLogModEdit, "sticky changed", "")
}

func (s *SubService) AddFlair(ctx context.Context, sid, uid, text string) error {
	mod, err := s.IsMod(ctx, sid, uid)
	if err != nil {
		return err
	}
	if !mod {
		return models.NewUnauthorizedError("Only mods can manage flairs")
	}
	if text == "" || len(text) > 64 {
		return models.NewValidationError("Flair must be 1-64 characters")
	}
	if err := s.subRepo.AddFlair(ctx, sid, text); err != nil {
		return err
	}
	return s.subRepo.Log(ctx, sid, models.SubLogFlair, "flair added", "")
}

func (s *SubService) ListFlairs(ctx context.Context, sid string) ([]*models.SubFlair, error) {
	return s.subRepo.ListFlairs(ctx, sid)
}

func (s *SubService) SetStylesheet(ctx context.Context, sid, uid, content string) error {
	mod, err := s.IsMod(ctx, sid, uid)
	if err != nil {
		return err
	}
	if !mod {
		return models.NewUnauthorizedError("Only mods can edit the stylesheet")
	}
	return s.subRepo.SetStylesheet(ctx, sid, content)
}

func (s *SubService) Subscribe(ctx context.Context, sid, uid string) error {
	return s.subRepo.SetSubscription(ctx, sid, uid, models.SubscriptionSubscribed)
}

func (s *SubService) Block(ctx context.Context, sid, uid string) error {
	return s.subRepo.SetSubscription(ctx, sid, uid, models.SubscriptionBlocked)
}

func (s *SubService) ListSubscriptions(ctx context.Context, uid string) ([]*models.SubSubscriber, error) {
	return s.subRepo.ListSubscriptions(ctx, uid)
}
