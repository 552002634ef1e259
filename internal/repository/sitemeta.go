package repository

import (
	"context"
	"errors"
	"time"

	"phora/internal/cache"
	"phora/internal/models"

	"gorm.io/gorm"
)

// SiteRepository defines the interface for site-wide metadata, the
// moderation log and live chat history.
type SiteRepository interface {
	GetMeta(ctx context.Context, key string) (*string, error)
	SetMeta(ctx context.Context, key, value string) error
	DeleteMeta(ctx context.Context, key string) error
	Log(ctx context.Context, action int, desc, link string) error
	ListLog(ctx context.Context, limit, offset int) ([]*models.SiteLog, error)
	AddChatMessage(ctx context.Context, username, message string) (*models.LiveChatMessage, error)
	RecentChatMessages(ctx context.Context, limit int) ([]*models.LiveChatMessage, error)
}

type siteRepository struct {
	base
}

// NewSiteRepository creates a new site repository
func NewSiteRepository(db *gorm.DB, cacheManager *cache.Manager, timeout time.Duration) SiteRepository {
	return &siteRepository{base{db: db, cache: cacheManager, timeout: timeout}}
}

// GetMeta returns the value for a site key, or nil when unset.
func (r *siteRepository) GetMeta(ctx context.Context, key string) (*string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var md models.SiteMetadata
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&md).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.wrap(err)
	}
	v := md.Value
	return &v, nil
}

func (r *siteRepository) SetMeta(ctx context.Context, key, value string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var md models.SiteMetadata
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&md).Error
	switch {
	case err == nil:
		md.Value = value
		err = r.db.WithContext(ctx).Save(&md).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = r.db.WithContext(ctx).Create(&models.SiteMetadata{Key: key, Value: value}).Error
	}
	if err != nil {
		return r.wrap(err)
	}
	// Site keys back announcement lookups on every post page.
	r.cache.InvalidateEntity(ctx, cache.EntitySite, key)
	return nil
}

func (r *siteRepository) DeleteMeta(ctx context.Context, key string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.SiteMetadata{}).Error
	if err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntitySite, key)
	return nil
}

func (r *siteRepository) Log(ctx context.Context, action int, desc, link string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	entry := &models.SiteLog{Time: time.Now().UTC(), Action: action, Desc: desc, Link: link}
	return r.wrap(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *siteRepository) ListLog(ctx context.Context, limit, offset int) ([]*models.SiteLog, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var entries []*models.SiteLog
	err := r.db.WithContext(ctx).
		Order("time DESC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, r.wrap(err)
}

func (r *siteRepository) AddChatMessage(ctx context.Context, username, message string) (*models.LiveChatMessage, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	msg := &models.LiveChatMessage{Username: username, Message: message, Time: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, r.wrap(err)
	}
	return msg, nil
}

// RecentChatMessages returns the newest messages in chronological order.
func (r *siteRepository) RecentChatMessages(ctx context.Context, limit int) ([]*models.LiveChatMessage, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var msgs []*models.LiveChatMessage
	err := r.db.WithContext(ctx).
		Order("xid DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, r.wrap(err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
