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

// postMeta returns the legacy metadata value for a post key, or nil
// when no row exists.
func (r *Resolver) postMeta(ctx context.Context, pid uint, key string) (*string, error) {
	var md models.PostMetadata
	err := r.db.WithContext(ctx).Where("pid = ? AND key = ?", pid, key).First(&md).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v := md.Value
	return &v, nil
}

// backfillPostColumn materializes a backfilled value into the post's
// primary column. The update is last-write-wins: concurrent backfills
// of the same row write the same value redundantly, which is safe. A
// lost race is logged, never raised.
func (r *Resolver) backfillPostColumn(ctx context.Context, pid uint, column string, value interface{}) {
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("pid = ?", pid).Update(column, value).Error; err != nil {
		r.log.WarnContext(ctx, "post backfill write lost, keeping computed value",
			slog.Uint64("pid", uint64(pid)), slog.String("column", column), slog.String("error", err.Error()))
		return
	}
	observability.BackfillsTotal.WithLabelValues(cache.EntityPost, column).Inc()
	r.log.InfoContext(ctx, "backfilled legacy post attribute",
		slog.Uint64("pid", uint64(pid)), slog.String("column", column))
}

// PostScore returns the post's aggregate vote score, backfilling the
// score column from legacy metadata on first read. Defaults to 1 (the
// author's implicit upvote) when neither exists.
func (r *Resolver) PostScore(ctx context.Context, p *models.Post) (int, error) {
	var score int
	err := r.memo(ctx, cache.EntityPost, p.PID, AttrScore, &score, func(cctx context.Context) error {
		val, persist, err := ResolveInt(p.Score, func() (*string, error) {
			return r.postMeta(cctx, p.PID, models.PostMetaScore)
		}, 1)
		if err != nil {
			return err
		}
		if persist {
			r.backfillPostColumn(cctx, p.PID, "score", val)
		}
		p.Score = &val
		score = val
		return nil
	})
	return score, err
}

// PostDeleted returns the post's deletion state, backfilling from the
// legacy "deleted"/"moddeleted" metadata markers on first read.
func (r *Resolver) PostDeleted(ctx context.Context, p *models.Post) (int, error) {
	var state int
	err := r.memo(ctx, cache.EntityPost, p.PID, AttrDeleted, &state, func(cctx context.Context) error {
		if p.Deleted != nil {
			state = *p.Deleted
			return nil
		}
		val := models.DeletedNone
		if raw, err := r.postMeta(cctx, p.PID, models.PostMetaDeleted); err != nil {
			return err
		} else if raw != nil {
			val = models.DeletedByUser
		} else if raw, err := r.postMeta(cctx, p.PID, models.PostMetaModDeleted); err != nil {
			return err
		} else if raw != nil {
			val = models.DeletedByMod
		}
		r.backfillPostColumn(cctx, p.PID, "deleted", val)
		p.Deleted = &val
		state = val
		return nil
	})
	return state, err
}

// PostNSFW reports whether the post is tagged NSFW, backfilling from
// legacy metadata on first read. Defaults to false.
func (r *Resolver) PostNSFW(ctx context.Context, p *models.Post) (bool, error) {
	var nsfw int
	err := r.memo(ctx, cache.EntityPost, p.PID, AttrNSFW, &nsfw, func(cctx context.Context) error {
		val, persist, err := ResolveInt(p.NSFW, func() (*string, error) {
			return r.postMeta(cctx, p.PID, models.PostMetaNSFW)
		}, 0)
		if err != nil {
			return err
		}
		if persist {
			r.backfillPostColumn(cctx, p.PID, "nsfw", val)
		}
		p.NSFW = &val
		nsfw = val
		return nil
	})
	return nsfw != 0, err
}

// PostThumbnail returns the post's thumbnail path, backfilling from
// legacy metadata on first read. Defaults to "".
func (r *Resolver) PostThumbnail(ctx context.Context, p *models.Post) (string, error) {
	var thumb string
	err := r.memo(ctx, cache.EntityPost, p.PID, AttrThumbnail, &thumb, func(cctx context.Context) error {
		val, persist, err := ResolveString(p.Thumbnail, func() (*string, error) {
			return r.postMeta(cctx, p.PID, models.PostMetaThumbnail)
		}, "")
		if err != nil {
			return err
		}
		if persist {
			r.backfillPostColumn(cctx, p.PID, "thumbnail", val)
		}
		p.Thumbnail = &val
		thumb = val
		return nil
	})
	return thumb, err
}

// PostDomain returns the host of a link post's target. Pure, cached for
// cost only.
func (r *Resolver) PostDomain(ctx context.Context, p *models.Post) (string, error) {
	var domain string
	err := r.memo(ctx, cache.EntityPost, p.PID, AttrDomain, &domain, func(context.Context) error {
		domain = LinkDomain(p.Link)
		return nil
	})
	return domain, err
}

// PostMedia returns the media-type classification of a link post.
func (r *Resolver) PostMedia(ctx context.Context, p *models.Post) (MediaKind, error) {
	var kind MediaKind
	err := r.memo(ctx, cache.EntityPost, p.PID, AttrMedia, &kind, func(context.Context) error {
		kind = Classify(p.Link)
		return nil
	})
	return kind, err
}

// PostSticky reports whether the post is the sub's sticky, held as a
// pid pointer in SubMetadata.
func (r *Resolver) PostSticky(ctx context.Context, p *models.Post) (bool, error) {
	var sticky bool
	err := r.memo(ctx, cache.EntityPost, p.PID, AttrSticky, &sticky, func(cctx context.Context) error {
		var count int64
		err := r.db.WithContext(cctx).Model(&models.SubMetadata{}).
			Where("sid = ? AND key = ? AND value = ?", p.SID, models.SubMetaSticky, strconv.FormatUint(uint64(p.PID), 10)).
			Count(&count).Error
		sticky = count > 0
		return err
	})
	return sticky, err
}

// PostAnnouncement reports whether the post is the site-wide
// announcement.
func (r *Resolver) PostAnnouncement(ctx context.Context, p *models.Post) (bool, error) {
	var ann bool
	err := r.memo(ctx, cache.EntityPost, p.PID, AttrAnnouncement, &ann, func(cctx context.Context) error {
		var md models.SiteMetadata
		err := r.db.WithContext(cctx).Where("key = ?", models.SiteMetaAnnouncement).First(&md).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ann = false
			return nil
		}
		if err != nil {
			return err
		}
		ann = md.Value == strconv.FormatUint(uint64(p.PID), 10)
		return nil
	})
	return ann, err
}
