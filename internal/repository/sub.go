package repository

import (
	"context"
	"errors"
	"time"

	"phora/internal/cache"
	"phora/internal/models"

	"gorm.io/gorm"
)

// SubRepository defines the interface for sub data operations
type SubRepository interface {
	Create(ctx context.Context, sub *models.Sub, founderUID string) error
	GetBySID(ctx context.Context, sid string) (*models.Sub, error)
	GetByName(ctx context.Context, name string) (*models.Sub, error)
	Update(ctx context.Context, sub *models.Sub) error
	SetMetadata(ctx context.Context, sid, key, value string) error
	GetMetadata(ctx context.Context, sid, key string) (*models.SubMetadata, error)
	AddFlair(ctx context.Context, sid, text string) error
	ListFlairs(ctx context.Context, sid string) ([]*models.SubFlair, error)
	GetStylesheet(ctx context.Context, sid string) (*models.SubStylesheet, error)
	SetStylesheet(ctx context.Context, sid, content string) error
	SetSubscription(ctx context.Context, sid, uid string, status int) error
	ListSubscriptions(ctx context.Context, uid string) ([]*models.SubSubscriber, error)
	Log(ctx context.Context, sid string, action int, desc, link string) error
}

type subRepository struct {
	base
}

// NewSubRepository creates a new sub repository
func NewSubRepository(db *gorm.DB, cacheManager *cache.Manager, timeout time.Duration) SubRepository {
	return &subRepository{base{db: db, cache: cacheManager, timeout: timeout}}
}

// Create persists the sub and its founder metadata in one transaction,
// so a sub never exists without an owner on record.
func (r *subRepository) Create(ctx context.Context, sub *models.Sub, founderUID string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		founder := &models.SubMetadata{SID: sub.SID, Key: models.SubMetaFounder, Value: founderUID}
		if err := tx.Create(founder).Error; err != nil {
			return err
		}
		mod := &models.SubMetadata{SID: sub.SID, Key: models.SubMetaMod, Value: founderUID}
		return tx.Create(mod).Error
	})
	return r.wrap(err)
}

func (r *subRepository) GetBySID(ctx context.Context, sid string) (*models.Sub, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var sub models.Sub
	if err := r.db.WithContext(ctx).First(&sub, "sid = ?", sid).Error; err != nil {
		return nil, r.wrap(err)
	}
	return &sub, nil
}

func (r *subRepository) GetByName(ctx context.Context, name string) (*models.Sub, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var sub models.Sub
	if err := r.db.WithContext(ctx).First(&sub, "name = ?", name).Error; err != nil {
		return nil, r.wrap(err)
	}
	return &sub, nil
}

func (r *subRepository) Update(ctx context.Context, sub *models.Sub) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	if err := r.db.WithContext(ctx).Save(sub).Error; err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntitySub, sub.SID)
	return nil
}

func (r *subRepository) SetMetadata(ctx context.Context, sid, key, value string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var md models.SubMetadata
	err := r.db.WithContext(ctx).Where("sid = ? AND key = ?", sid, key).First(&md).Error
	switch {
	case err == nil:
		md.Value = value
		err = r.db.WithContext(ctx).Save(&md).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = r.db.WithContext(ctx).Create(&models.SubMetadata{SID: sid, Key: key, Value: value}).Error
	}
	if err != nil {
		return r.wrap(err)
	}
	// Sticky and nsfw metadata feed post/sub attributes; evict both.
	r.cache.InvalidateEntity(ctx, cache.EntitySub, sid)
	return nil
}

func (r *subRepository) GetMetadata(ctx context.Context, sid, key string) (*models.SubMetadata, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var md models.SubMetadata
	if err := r.db.WithContext(ctx).Where("sid = ? AND key = ?", sid, key).First(&md).Error; err != nil {
		return nil, r.wrap(err)
	}
	return &md, nil
}

func (r *subRepository) AddFlair(ctx context.Context, sid, text string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.wrap(r.db.WithContext(ctx).Create(&models.SubFlair{SID: sid, Text: text}).Error)
}

func (r *subRepository) ListFlairs(ctx context.Context, sid string) ([]*models.SubFlair, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var flairs []*models.SubFlair
	err := r.db.WithContext(ctx).Where("sid = ?", sid).Order("xid").Find(&flairs).Error
	return flairs, r.wrap(err)
}

func (r *subRepository) GetStylesheet(ctx context.Context, sid string) (*models.SubStylesheet, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var ss models.SubStylesheet
	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&ss).Error; err != nil {
		return nil, r.wrap(err)
	}
	return &ss, nil
}

func (r *subRepository) SetStylesheet(ctx context.Context, sid, content string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var ss models.SubStylesheet
	err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&ss).Error
	switch {
	case err == nil:
		ss.Content = content
		err = r.db.WithContext(ctx).Save(&ss).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = r.db.WithContext(ctx).Create(&models.SubStylesheet{SID: sid, Content: content}).Error
	}
	if err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntitySub, sid)
	return nil
}

func (r *subRepository) SetSubscription(ctx context.Context, sid, uid string, status int) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var sub models.SubSubscriber
	err := r.db.WithContext(ctx).Where("sid = ? AND uid = ?", sid, uid).First(&sub).Error
	switch {
	case err == nil:
		sub.Status = status
		err = r.db.WithContext(ctx).Save(&sub).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = r.db.WithContext(ctx).Create(&models.SubSubscriber{
			SID:    sid,
			UID:    uid,
			Status: status,
			Time:   time.Now().UTC(),
		}).Error
	}
	return r.wrap(err)
}

func (r *subRepository) ListSubscriptions(ctx context.Context, uid string) ([]*models.SubSubscriber, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var subs []*models.SubSubscriber
	err := r.db.WithContext(ctx).
		Where("uid = ? AND status = ?", uid, models.SubscriptionSubscribed).
		Order("sort_order, xid").
		Find(&subs).Error
	return subs, r.wrap(err)
}

func (r *subRepository) Log(ctx context.Context, sid string, action int, desc, link string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	entry := &models.SubLog{SID: sid, Time: time.Now().UTC(), Action: action, Desc: desc, Link: link}
	return r.wrap(r.db.WithContext(ctx).Create(entry).Error)
}
