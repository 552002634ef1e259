package repository

import (
	"context"
	"errors"
	"time"

	"phora/internal/cache"
	"phora/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByPID(ctx context.Context, pid uint) (*models.Post, error)
	ListBySub(ctx context.Context, sid string, limit, offset int) ([]*models.Post, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	SetDeleted(ctx context.Context, pid uint, state int) error
	SetMetadata(ctx context.Context, pid uint, key, value string) error
	GetMetadata(ctx context.Context, pid uint, key string) (*models.PostMetadata, error)
}

type postRepository struct {
	base
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB, cacheManager *cache.Manager, timeout time.Duration) PostRepository {
	return &postRepository{base{db: db, cache: cacheManager, timeout: timeout}}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	if post.Posted.IsZero() {
		post.Posted = time.Now().UTC()
	}
	return r.wrap(r.db.WithContext(ctx).Create(post).Error)
}

func (r *postRepository) GetByPID(ctx context.Context, pid uint) (*models.Post, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var post models.Post
	err := r.db.WithContext(ctx).
		Select("posts.*, (?) AS comment_count", commentCountSubquery(r.db)).
		First(&post, "pid = ?", pid).Error
	if err != nil {
		return nil, r.wrap(err)
	}
	return &post, nil
}

func (r *postRepository) ListBySub(ctx context.Context, sid string, limit, offset int) ([]*models.Post, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Select("posts.*, (?) AS comment_count", commentCountSubquery(r.db)).
		Where("sid = ?", sid).
		Order("posted DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, r.wrap(err)
}

func (r *postRepository) ListRecent(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Select("posts.*, (?) AS comment_count", commentCountSubquery(r.db)).
		Order("posted DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, r.wrap(err)
}

// commentCountSubquery counts live comments per post. Deleted comments
// stay in the tree as placeholders but do not count.
func commentCountSubquery(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Comment{}).
		Select("COUNT(*)").
		Where("comments.pid = posts.pid AND comments.status = ?", models.CommentActive)
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	if err := r.db.WithContext(ctx).Omit("comment_count").Save(post).Error; err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntityPost, post.PID)
	return nil
}

func (r *postRepository) SetDeleted(ctx context.Context, pid uint, state int) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("pid = ?", pid).
		Update("deleted", state).Error
	if err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntityPost, pid)
	return nil
}

func (r *postRepository) SetMetadata(ctx context.Context, pid uint, key, value string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var md models.PostMetadata
	err := r.db.WithContext(ctx).Where("pid = ? AND key = ?", pid, key).First(&md).Error
	switch {
	case err == nil:
		md.Value = value
		err = r.db.WithContext(ctx).Save(&md).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = r.db.WithContext(ctx).Create(&models.PostMetadata{PID: pid, Key: key, Value: value}).Error
	}
	if err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntityPost, pid)
	return nil
}

func (r *postRepository) GetMetadata(ctx context.Context, pid uint, key string) (*models.PostMetadata, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var md models.PostMetadata
	if err := r.db.WithContext(ctx).Where("pid = ? AND key = ?", pid, key).First(&md).Error; err != nil {
		return nil, r.wrap(err)
	}
	return &md, nil
}
