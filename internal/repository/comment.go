package repository

import (
	"context"
	"time"

	"phora/internal/cache"
	"phora/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByCID(ctx context.Context, cid string) (*models.Comment, error)
	ListByPost(ctx context.Context, pid uint) ([]*models.Comment, error)
	ListChildren(ctx context.Context, pid uint, parentCID *string) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	SetStatus(ctx context.Context, cid string, status int) error
	CountByPost(ctx context.Context, pid uint) (int64, error)
}

type commentRepository struct {
	base
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB, cacheManager *cache.Manager, timeout time.Duration) CommentRepository {
	return &commentRepository{base{db: db, cache: cacheManager, timeout: timeout}}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.wrap(r.db.WithContext(ctx).Create(comment).Error)
}

func (r *commentRepository) GetByCID(ctx context.Context, cid string) (*models.Comment, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, "cid = ?", cid).Error; err != nil {
		return nil, r.wrap(err)
	}
	return &comment, nil
}

// ListByPost returns every comment of a post in chronological order, for
// full-tree assembly in one query.
func (r *commentRepository) ListByPost(ctx context.Context, pid uint) ([]*models.Comment, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("pid = ?", pid).
		Order("time ASC").
		Find(&comments).Error
	return comments, r.wrap(err)
}

// ListChildren returns the direct children of a parent, oldest first.
// A nil parent selects the top-level comments of the post.
func (r *commentRepository) ListChildren(ctx context.Context, pid uint, parentCID *string) ([]*models.Comment, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	q := r.db.WithContext(ctx).Where("pid = ?", pid)
	if parentCID == nil {
		q = q.Where("parent_cid IS NULL")
	} else {
		q = q.Where("parent_cid = ?", *parentCID)
	}
	var comments []*models.Comment
	err := q.Order("time ASC").Find(&comments).Error
	return comments, r.wrap(err)
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	if err := r.db.WithContext(ctx).Save(comment).Error; err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntityComment, comment.CID)
	return nil
}

func (r *commentRepository) SetStatus(ctx context.Context, cid string, status int) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("cid = ?", cid).
		Update("status", status).Error
	if err != nil {
		return r.wrap(err)
	}
	r.cache.InvalidateEntity(ctx, cache.EntityComment, cid)
	return nil
}

func (r *commentRepository) CountByPost(ctx context.Context, pid uint) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("pid = ? AND status = ?", pid, models.CommentActive).
		Count(&count).Error
	return count, r.wrap(err)
}
