package budget

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/pkg/tool"
)

var ErrEntryNotFound = errors.New("budget entry not found")

// Service tracks planned versus actual spend per request.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

type UpsertEntryRequest struct {
	Category     string `json:"category"`
	PlannedCents int64  `json:"planned_cents"`
	ActualCents  int64  `json:"actual_cents"`
	Currency     string `json:"currency"`
}

func (s *Service) Create(ctx context.Context, requestID string, req *UpsertEntryRequest) (*models.BudgetEntry, error) {
	if req.Category == "" {
		return nil, errors.New("category is required")
	}
	if req.PlannedCents < 0 || req.ActualCents < 0 {
		return nil, errors.New("amounts must not be negative")
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	entry := &models.BudgetEntry{
		ID:           tool.GenerateUUIDV7(),
		RequestID:    requestID,
		Category:     req.Category,
		PlannedCents: req.PlannedCents,
		ActualCents:  req.ActualCents,
		Currency:     currency,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create budget entry: %w", err)
	}
	return entry, nil
}

func (s *Service) Update(ctx context.Context, entryID string, req *UpsertEntryRequest) (*models.BudgetEntry, error) {
	if req.PlannedCents < 0 || req.ActualCents < 0 {
		return nil, errors.New("amounts must not be negative")
	}
	var entry models.BudgetEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, "id = ?", entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return fmt.Errorf("failed to load budget entry: %w", err)
		}
		if req.Category != "" {
			entry.Category = req.Category
		}
		entry.PlannedCents = req.PlannedCents
		entry.ActualCents = req.ActualCents
		return tx.Save(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) Delete(ctx context.Context, entryID string) error {
	res := s.db.WithContext(ctx).Delete(&models.BudgetEntry{}, "id = ?", entryID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete budget entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Summary aggregates a request's budget across categories.
type Summary struct {
	Entries           []*models.BudgetEntry `json:"entries"`
	TotalPlannedCents int64                 `json:"total_planned_cents"`
	TotalActualCents  int64                 `json:"total_actual_cents"`
}

func (s *Service) SummaryForRequest(ctx context.Context, requestID string) (*Summary, error) {
	var entries []*models.BudgetEntry
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("category asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list budget entries: %w", err)
	}
	sum := &Summary{Entries: entries}
	for _, e := range entries {
		sum.TotalPlannedCents += e.PlannedCents
		sum.TotalActualCents += e.ActualCents
	}
	return sum, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
