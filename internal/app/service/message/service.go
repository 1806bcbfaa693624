package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/pkg/tool"
)

// Service is the direct-message channel between marketplace actors.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) Send(ctx context.Context, senderID, recipientID, body string) (*models.Message, error) {
	if body == "" {
		return nil, errors.New("message body is required")
	}
	if recipientID == "" || recipientID == senderID {
		return nil, errors.New("invalid recipient")
	}
	msg := &models.Message{
		ID:          tool.GenerateUUIDV7(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

// Conversation returns both directions of traffic between two actors, oldest
// first.
func (s *Service) Conversation(ctx context.Context, actorID, otherID string) ([]*models.Message, error) {
	var msgs []*models.Message
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			actorID, otherID, otherID, actorID).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return msgs, nil
}

// MarkRead stamps every unread message the actor received from the other
// party. It returns how many were marked.
func (s *Service) MarkRead(ctx context.Context, actorID, otherID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND read_at IS NULL", actorID, otherID).
		Update("read_at", time.Now())
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UnreadCount drives the actor's notification badge.
func (s *Service) UnreadCount(ctx context.Context, actorID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", actorID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
