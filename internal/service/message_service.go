package service

import (
	"context"

	"phora/internal/models"
	"phora/internal/repository"
)

// MessageService handles private mail: sending, threads, status moves
// and the unread counter.
type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
}

type SendMessageInput struct {
	SenderUID   string
	ReceiverUID string
	Subject     string
	Content     string
	ReplyTo     *uint
}

func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) *MessageService {
	return &MessageService{messageRepo: messageRepo, userRepo: userRepo}
}

func (s *MessageService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if in.SenderUID == in.ReceiverUID {
		return nil, models.NewValidationError("Cannot message yourself")
	}
	receiver, err := s.userRepo.GetByUID(ctx, in.ReceiverUID)
	if err != nil {
		return nil, models.NewNotFoundError("User", in.ReceiverUID)
	}
	if receiver.Status != models.UserStatusOK {
		return nil, models.NewValidationError("Recipient cannot receive messages")
	}

	subject := in.Subject
	if in.ReplyTo != nil {
		parent, err := s.messageRepo.GetByMID(ctx, *in.ReplyTo)
		if err != nil {
			return nil, models.NewNotFoundError("Message", *in.ReplyTo)
		}
		if parent.SentBy != in.ReceiverUID && parent.ReceivedBy != in.ReceiverUID {
			return nil, models.NewValidationError("Reply recipient is not on the thread")
		}
		if subject == "" {
			subject = "Re: " + parent.Subject
		}
	}

	msg := &models.Message{
		SentBy:         in.SenderUID,
		ReceivedBy:     in.ReceiverUID,
		Subject:        subject,
		Content:        in.Content,
		Mtype:          models.MessageTypeUserToUser,
		SenderStatus:   models.MessageStatusDefault,
		ReceiverStatus: models.MessageStatusDefault,
		ReplyTo:        in.ReplyTo,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) Inbox(ctx context.Context, uid string, limit, offset int) ([]*models.Message, error) {
	return s.messageRepo.ListInbox(ctx, uid, limit, offset)
}

func (s *MessageService) Sent(ctx context.Context, uid string, limit, offset int) ([]*models.Message, error) {
	return s.messageRepo.ListSent(ctx, uid, limit, offset)
}

func (s *MessageService) Saved(ctx context.Context, uid string, limit, offset int) ([]*models.Message, error) {
	return s.messageRepo.ListSaved(ctx, uid, limit, offset)
}

// SetStatus moves the caller's copy of the message. The sender and the
// receiver each control only their own status field.
func (s *MessageService) SetStatus(ctx context.Context, uid string, mid uint, status int) error {
	switch status {
	case models.MessageStatusDefault, models.MessageStatusSaved,
		models.MessageStatusTrashed, models.MessageStatusDeleted:
	default:
		return models.NewValidationError("Unknown message status")
	}

	msg, err := s.messageRepo.GetByMID(ctx, mid)
	if err != nil {
		return err
	}
	switch uid {
	case msg.ReceivedBy:
		return s.messageRepo.SetReceiverStatus(ctx, mid, status)
	case msg.SentBy:
		return s.messageRepo.SetSenderStatus(ctx, mid, status)
	}
	return models.NewUnauthorizedError("Not your message")
}

// Read returns the message and clears its unread marker for the caller.
func (s *MessageService) Read(ctx context.Context, uid string, mid uint) (*models.Message, error) {
	msg, err := s.messageRepo.GetByMID(ctx, mid)
	if err != nil {
		return nil, err
	}
	if msg.SentBy != uid && msg.ReceivedBy != uid {
		return nil, models.NewUnauthorizedError("Not your message")
	}
	if msg.ReceivedBy == uid {
		if err := s.messageRepo.MarkRead(ctx, uid, mid); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func (s *MessageService) MarkAllRead(ctx context.Context, uid string) error {
	return s.messageRepo.MarkAllRead(ctx, uid)
}

func (s *MessageService) UnreadCount(ctx context.Context, uid string) (int64, error) {
	return s.messageRepo.UnreadCount(ctx, uid)
}
