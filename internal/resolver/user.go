package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"phora/internal/cache"
	"phora/internal/models"
	"phora/internal/observability"

	"gorm.io/gorm"
)

// userMeta returns the legacy metadata value for a user key, or nil
// when no row exists.
func (r *Resolver) userMeta(ctx context.Context, uid, key string) (*string, error) {
	var md models.UserMetadata
	err := r.db.WithContext(ctx).Where("uid = ? AND key = ?", uid, key).First(&md).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v := md.Value
	return &v, nil
}

// UserScore returns the user's reputation, materializing a zero into
// the column for rows that predate it.
func (r *Resolver) UserScore(ctx context.Context, u *models.User) (int, error) {
	var score int
	err := r.memo(ctx, cache.EntityUser, u.UID, AttrScore, &score, func(cctx context.Context) error {
		val, persist, err := ResolveInt(u.Score, func() (*string, error) { return nil, nil }, 0)
		if err != nil {
			return err
		}
		if persist {
			if err := r.db.WithContext(cctx).Model(&models.User{}).Where("uid = ?", u.UID).Update("score", val).Error; err != nil {
				r.log.WarnContext(cctx, "user score backfill write lost",
					slog.String("uid", u.UID), slog.String("error", err.Error()))
			} else {
				observability.BackfillsTotal.WithLabelValues(cache.EntityUser, "score").Inc()
			}
		}
		u.Score = &val
		score = val
		return nil
	})
	return score, err
}

// userPref resolves a boolean display preference from user metadata.
// The preference key participates in the cache key, so distinct
// preferences of one user never collide.
func (r *Resolver) userPref(ctx context.Context, uid, key string, def bool) (bool, error) {
	var pref bool
	err := r.memo(ctx, cache.EntityUser, uid, AttrUserPref, &pref, func(cctx context.Context) error {
		raw, err := r.userMeta(cctx, uid, key)
		if err != nil {
			return err
		}
		if raw == nil {
			pref = def
			return nil
		}
		n, convErr := strconv.Atoi(*raw)
		if convErr != nil {
			pref = def
			return nil
		}
		pref = n != 0
		return nil
	}, key)
	return pref, err
}

// ShowLinksNewTab reports whether the user opens external links in a
// new tab.
func (r *Resolver) ShowLinksNewTab(ctx context.Context, uid string) (bool, error) {
	return r.userPref(ctx, uid, "exlinks", false)
}

// ShowStyles reports whether the user sees custom sub stylesheets.
func (r *Resolver) ShowStyles(ctx context.Context, uid string) (bool, error) {
	return r.userPref(ctx, uid, "styles", false)
}

// ShowNSFW reports whether the user sees NSFW content. Defaults on.
func (r *Resolver) ShowNSFW(ctx context.Context, uid string) (bool, error) {
	return r.userPref(ctx, uid, "nsfw", true)
}
