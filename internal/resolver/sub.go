package resolver

import (
	"context"
	"errors"
	"log/slog"

	"phora/internal/cache"
	"phora/internal/models"
	"phora/internal/observability"

	"gorm.io/gorm"
)

// subMeta returns the legacy metadata value for a sub key, or nil when
// no row exists.
func (r *Resolver) subMeta(ctx context.Context, sid, key string) (*string, error) {
	var md models.SubMetadata
	err := r.db.WithContext(ctx).Where("sid = ? AND key = ?", sid, key).First(&md).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v := md.Value
	return &v, nil
}

// SubNSFW reports whether the sub is NSFW, backfilling the column from
// legacy metadata on first read. Defaults to false.
func (r *Resolver) SubNSFW(ctx context.Context, s *models.Sub) (bool, error) {
	var nsfw int
	err := r.memo(ctx, cache.EntitySub, s.SID, AttrNSFW, &nsfw, func(cctx context.Context) error {
		val, persist, err := ResolveInt(s.NSFW, func() (*string, error) {
			return r.subMeta(cctx, s.SID, models.SubMetaNSFW)
		}, 0)
		if err != nil {
			return err
		}
		if persist {
			if err := r.db.WithContext(cctx).Model(&models.Sub{}).Where("sid = ?", s.SID).Update("nsfw", val).Error; err != nil {
				r.log.WarnContext(cctx, "sub backfill write lost, keeping computed value",
					slog.String("sid", s.SID), slog.String("error", err.Error()))
			} else {
				observability.BackfillsTotal.WithLabelValues(cache.EntitySub, "nsfw").Inc()
			}
		}
		s.NSFW = &val
		nsfw = val
		return nil
	})
	return nsfw != 0, err
}
