package service

import (
	"context"
	"regexp"
	"strconv"

	"phora/internal/cache"
	"phora/internal/database"
	"phora/internal/models"
	"phora/internal/repository"
	"phora/internal/resolver"
)

// UserService handles registration, credential checks and profile
// hydration.
type UserService struct {
	userRepo repository.UserRepository
	res      *resolver.Resolver
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// UserProfile is a user hydrated with reputation and display
// preferences.
type UserProfile struct {
	*models.User
	Reputation      int  `json:"reputation"`
	ShowNSFW        bool `json:"show_nsfw"`
	ShowStyles      bool `json:"show_styles"`
	ShowLinksNewTab bool `json:"show_links_new_tab"`
}

func NewUserService(userRepo repository.UserRepository, res *resolver.Resolver) *UserService {
	return &UserService{userRepo: userRepo, res: res}
}

var userNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,32}$`)

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if !userNameRe.MatchString(in.Name) {
		return nil, models.NewValidationError("Username must be 2-32 word characters")
	}
	if len(in.Password) < 7 {
		return nil, models.NewValidationError("Password must be at least 7 characters")
	}

	user, err := models.NewUser(in.Name, in.Email, in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, models.NewValidationError("Username is taken")
		}
		return nil, err
	}
	return user, nil
}

// Authenticate verifies a name/password pair. Banned and purged
// accounts fail even with correct credentials.
func (s *UserService) Authenticate(ctx context.Context, name, password string) (*models.User, error) {
	user, err := s.userRepo.GetByName(ctx, name)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.CheckPassword(password) {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if user.Status == models.UserStatusBanned || user.Status == models.UserStatusPurged {
		return nil, models.NewUnauthorizedError("Account is disabled")
	}
	return user, nil
}

// GetProfile returns the hydrated public profile.
func (s *UserService) GetProfile(ctx context.Context, name string) (*UserProfile, error) {
	user, err := s.userRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, user)
}

func (s *UserService) GetProfileByUID(ctx context.Context, uid string) (*UserProfile, error) {
	user, err := s.userRepo.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, user)
}

func (s *UserService) hydrate(ctx context.Context, user *models.User) (*UserProfile, error) {
	profile := &UserProfile{User: user}

	var err error
	if profile.Reputation, err = s.res.UserScore(ctx, user); err != nil {
		return nil, err
	}
	if profile.ShowNSFW, err = s.res.ShowNSFW(ctx, user.UID); err != nil {
		return nil, err
	}
	if profile.ShowStyles, err = s.res.ShowStyles(ctx, user.UID); err != nil {
		return nil, err
	}
	if profile.ShowLinksNewTab, err = s.res.ShowLinksNewTab(ctx, user.UID); err != nil {
		return nil, err
	}
	return profile, nil
}

// SetPreference stores a boolean display preference in the metadata
// table and evicts its memoized value.
func (s *UserService) SetPreference(ctx context.Context, uid, key string, on bool) error {
	switch key {
	case "exlinks", "styles", "nsfw":
	default:
		return models.NewValidationError("Unknown preference")
	}
	val := 0
	if on {
		val = 1
	}
	if err := s.userRepo.SetMetadata(ctx, uid, key, strconv.Itoa(val)); err != nil {
		return err
	}
	s.res.InvalidateAttr(ctx, cache.EntityUser, uid, resolver.AttrUserPref, key)
	return nil
}

// SetStatus bans, shadow-blocks or restores an account.
func (s *UserService) SetStatus(ctx context.Context, uid string, status int) error {
	switch status {
	case models.UserStatusOK, models.UserStatusBanned,
		models.UserStatusShadowBlock, models.UserStatusPurged:
	default:
		return models.NewValidationError("Unknown user status")
	}
	return s.userRepo.SetStatus(ctx, uid, status)
}
