package repository

import (
	"context"
	"time"

	"phora/internal/cache"
	"phora/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines the interface for private message data operations
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByMID(ctx context.Context, mid uint) (*models.Message, error)
	ListInbox(ctx context.Context, uid string, limit, offset int) ([]*models.Message, error)
	ListSent(ctx context.Context, uid string, limit, offset int) ([]*models.Message, error)
	ListSaved(ctx context.Context, uid string, limit, offset int) ([]*models.Message, error)
	SetSenderStatus(ctx context.Context, mid uint, status int) error
	SetReceiverStatus(ctx context.Context, mid uint, status int) error
	MarkRead(ctx context.Context, uid string, mid uint) error
	MarkAllRead(ctx context.Context, uid string) error
	UnreadCount(ctx context.Context, uid string) (int64, error)
}

type messageRepository struct {
	base
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB, cacheManager *cache.Manager, timeout time.Duration) MessageRepository {
	return &messageRepository{base{db: db, cache: cacheManager, timeout: timeout}}
}

// Create stores the message, flags it unread for the receiver and bumps
// the parent's reply counter, all in one transaction.
func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	if msg.Posted.IsZero() {
		msg.Posted = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		unread := &models.UserUnreadMessage{UID: msg.ReceivedBy, MID: msg.MID}
		if err := tx.Create(unread).Error; err != nil {
			return err
		}
		if msg.ReplyTo != nil {
			return tx.Model(&models.Message{}).Where("mid = ?", *msg.ReplyTo).
				Update("replies", gorm.Expr("replies + 1")).Error
		}
		return nil
	})
	return r.wrap(err)
}

func (r *messageRepository) GetByMID(ctx context.Context, mid uint) (*models.Message, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, "mid = ?", mid).Error; err != nil {
		return nil, r.wrap(err)
	}
	return &msg, nil
}

func (r *messageRepository) ListInbox(ctx context.Context, uid string, limit, offset int) ([]*models.Message, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Where("received_by = ? AND receiver_status = ?", uid, models.MessageStatusDefault).
		Order("posted DESC").
		Limit(limit).Offset(offset).
		Find(&msgs).Error
	return msgs, r.wrap(err)
}

func (r *messageRepository) ListSent(ctx context.Context, uid string, limit, offset int) ([]*models.Message, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Where("sent_by = ? AND sender_status = ?", uid, models.MessageStatusDefault).
		Order("posted DESC").
		Limit(limit).Offset(offset).
		Find(&msgs).Error
	return msgs, r.wrap(err)
}

func (r *messageRepository) ListSaved(ctx context.Context, uid string, limit, offset int) ([]*models.Message, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Where("received_by = ? AND receiver_status = ?", uid, models.MessageStatusSaved).
		Order("posted DESC").
		Limit(limit).Offset(offset).
		Find(&msgs).Error
	return msgs, r.wrap(err)
}

func (r *messageRepository) SetSenderStatus(ctx context.Context, mid uint, status int) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Model(&models.Message{}).Where("mid = ?", mid).
		Update("sender_status", status).Error
	return r.wrap(err)
}

func (r *messageRepository) SetReceiverStatus(ctx context.Context, mid uint, status int) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Model(&models.Message{}).Where("mid = ?", mid).
		Update("receiver_status", status).Error
	return r.wrap(err)
}

func (r *messageRepository) MarkRead(ctx context.Context, uid string, mid uint) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).
		Where("uid = ? AND mid = ?", uid, mid).
		Delete(&models.UserUnreadMessage{}).Error
	return r.wrap(err)
}

func (r *messageRepository) MarkAllRead(ctx context.Context, uid string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		Delete(&models.UserUnreadMessage{}).Error
	return r.wrap(err)
}

func (r *messageRepository) UnreadCount(ctx context.Context, uid string) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserUnreadMessage{}).
		Where("uid = ?", uid).
		Count(&count).Error
	return count, r.wrap(err)
}
