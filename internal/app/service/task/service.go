package task

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

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrNotTaskOwner = errors.New("actor does not own this task")
)

// Service manages the per-request planning checklist.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) Create(ctx context.Context, ownerID, requestID, title string) (*models.Task, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}
	if requestID == "" {
		return nil, errors.New("request_id is required")
	}
	task := &models.Task{
		ID:        tool.GenerateUUIDV7(),
		RequestID: requestID,
		OwnerID:   ownerID,
		Title:     title,
		Status:    models.TaskStatusOpen,
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// Toggle flips a task between open and done.
func (s *Service) Toggle(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to load task: %w", err)
		}
		if task.OwnerID != ownerID {
			return ErrNotTaskOwner
		}
		if task.Status == models.TaskStatusOpen {
			now := time.Now()
			task.Status = models.TaskStatusDone
			task.DoneAt = &now
		} else {
			task.Status = models.TaskStatusOpen
			task.DoneAt = nil
		}
		return tx.Save(&task).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, taskID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to load task: %w", err)
		}
		if task.OwnerID != ownerID {
			return ErrNotTaskOwner
		}
		return tx.Delete(&task).Error
	})
}

// ListForRequest returns the checklist in creation order, open items first.
func (s *Service) ListForRequest(ctx context.Context, requestID string) ([]*models.Task, error) {
	var tasks []*models.Task
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("status desc, created_at asc").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
