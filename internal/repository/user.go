package repository

import (
	"context"
	"errors"
	"time"

	"phora/internal/cache"
	"phora/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetStatus(ctx context.Context, uid string, status int) error
	IncrementScore(ctx context.Context, uid string, delta int) error
	SetMetadata(ctx context.Context, uid, key, value string) error
	GetMetadata(ctx context.Context, uid, key string) (*models.UserMetadata, error)
}

type userRepository struct {
	base
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, cacheManager *cache.Manager, timeout time.Duration) UserRepository {
	return &userRepository{base{db: db, cache: cacheManager, timeout: timeout}}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.wrap(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "uid = ?", uid).Error; err != nil {
		return nil, r.wrap(err)
	}
	return &user, nil
}

func (r *userRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "name = ?", name).Error; err != nil {
		return nil, r.wrap(err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntityUser, user.UID)
	return nil
}

func (r *userRepository) SetStatus(ctx context.Context, uid string, status int) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("uid = ?", uid).Update("status", status).Error; err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntityUser, uid)
	return nil
}

func (r *userRepository) IncrementScore(ctx context.Context, uid string, delta int) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("uid = ?", uid).
		Update("score", gorm.Expr("COALESCE(score, 0) + ?", delta)).Error
	if err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntityUser, uid)
	return nil
}

func (r *userRepository) SetMetadata(ctx context.Context, uid, key, value string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var md models.UserMetadata
	err := r.db.WithContext(ctx).Where("uid = ? AND key = ?", uid, key).First(&md).Error
	switch {
	case err == nil:
		md.Value = value
		err = r.db.WithContext(ctx).Save(&md).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = r.db.WithContext(ctx).Create(&models.UserMetadata{UID: uid, Key: key, Value: value}).Error
	}
	if err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntityUser, uid)
	return nil
}

func (r *userRepository) GetMetadata(ctx context.Context, uid, key string) (*models.UserMetadata, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var md models.UserMetadata
	if err := r.db.WithContext(ctx).Where("uid = ? AND key = ?", uid, key).First(&md).Error; err != nil {
		return nil, r.wrap(err)
	}
	return &md, nil
}
