package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plannerhub/marketplace/internal/models"
	"github.com/plannerhub/marketplace/pkg/types"
)

type StatisticType string

const (
	// Subscription health
	StatisticTypeDailyNewSubscriptionCount StatisticType = "daily_new_subscription_count"
	StatisticTypeActiveSubscriptionCount   StatisticType = "active_subscription_count"

	// Invoice volume
	StatisticTypeDailyInvoiceGmv StatisticType = "daily_invoice_gmv"
	StatisticTypeTotalInvoiceGmv StatisticType = "total_invoice_gmv"

	// Request funnel
	StatisticTypeDailyRequestCount StatisticType = "daily_request_count"
	StatisticTypeApprovalRate      StatisticType = "request_approval_rate"
)

// Filter fields only some statistic types understand.
type MarketplaceStatisticFilterType string

const (
	MarketplaceStatisticFilterTypeInvoiceKind MarketplaceStatisticFilterType = "invoice_kind"
	MarketplaceStatisticFilterTypeRequestKind MarketplaceStatisticFilterType = "request_kind"
)

var filterTypes = []MarketplaceStatisticFilterType{
	MarketplaceStatisticFilterTypeInvoiceKind,
	MarketplaceStatisticFilterTypeRequestKind,
}

var validFilters = map[MarketplaceStatisticFilterType][]StatisticType{
	MarketplaceStatisticFilterTypeInvoiceKind: {StatisticTypeDailyInvoiceGmv, StatisticTypeTotalInvoiceGmv},
	MarketplaceStatisticFilterTypeRequestKind: {StatisticTypeDailyRequestCount, StatisticTypeApprovalRate},
}

type MarketplaceStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type MarketplaceStatisticRequest struct {
	Filters   []*types.CommonFilter           `json:"filters"`
	DataItems []*MarketplaceStatisticDataItem `json:"data_items"`
}

// GetFilters keeps only the filters that apply to the given statistic type.
func (f *MarketplaceStatisticRequest) GetFilters(statisticType StatisticType) *MarketplaceStatisticRequest {
	if f == nil || len(f.Filters) == 0 {
		return f
	}
	var result MarketplaceStatisticRequest
	for _, filter := range f.Filters {
		if statisticTypes, ok := validFilters[MarketplaceStatisticFilterType(filter.Field)]; ok {
			if lo.Contains(statisticTypes, statisticType) {
				result.Filters = append(result.Filters, filter)
			}
		} else {
			result.Filters = append(result.Filters, filter)
		}
	}
	return &result
}

// Build composes a WHERE clause from the filters. The kind pseudo-fields map
// onto the real columns of the table each query targets.
func (f *MarketplaceStatisticRequest) Build(builder clause.Builder) {
	if len(f.Filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, filter := range f.Filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		switch filter.Field {
		case string(MarketplaceStatisticFilterTypeInvoiceKind),
			string(MarketplaceStatisticFilterTypeRequestKind):
			kindFilter := *filter
			kindFilter.Field = "kind"
			kindFilter.Build(builder)
		default:
			filter.Build(builder)
		}
	}
}

type MarketplaceStatisticResponseDataItem struct {
	Date   string `json:"date"`
	Label  string `json:"label,omitempty"`
	Value  int64  `json:"value"`
	Value2 int64  `json:"value2,omitempty"`
}

type MarketplaceStatisticResponse struct {
	DataItems map[StatisticType][]MarketplaceStatisticResponseDataItem `json:"data_items"`
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) getDailyNewSubscriptionCount(ctx context.Context, request *MarketplaceStatisticRequest) ([]MarketplaceStatisticResponseDataItem, error) {
	var results []MarketplaceStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Subscription{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyNewSubscriptionCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getActiveSubscriptionCount(ctx context.Context, request *MarketplaceStatisticRequest) ([]MarketplaceStatisticResponseDataItem, error) {
	var results []MarketplaceStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Planner{}).TableName()).
		Select("count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeActiveSubscriptionCount)}}).
		Where("subscription_status = ?", types.SubscriptionStatusActive).
		Where("subscription_expires_at >= ?", time.Now())
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyInvoiceGmv(ctx context.Context, request *MarketplaceStatisticRequest) ([]MarketplaceStatisticResponseDataItem, error) {
	var results []MarketplaceStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Invoice{}).TableName()).
		Select("TO_CHAR(paid_at, 'YYYY-MM-DD') as date, currency AS label, sum(amount_cents) as value").
		Where("paid_at IS NOT NULL").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyInvoiceGmv)}}).
		Group("TO_CHAR(paid_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalInvoiceGmv(ctx context.Context, request *MarketplaceStatisticRequest) ([]MarketplaceStatisticResponseDataItem, error) {
	var results []MarketplaceStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Invoice{}).TableName()).
		Select("currency AS label, sum(amount_cents) as value, count(*) as value2").
		Where("paid_at IS NOT NULL").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeTotalInvoiceGmv)}}).
		Group("currency")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyRequestCount(ctx context.Context, request *MarketplaceStatisticRequest) ([]MarketplaceStatisticResponseDataItem, error) {
	var results []MarketplaceStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Request{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyRequestCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getApprovalRate(ctx context.Context, _ *MarketplaceStatisticRequest) ([]MarketplaceStatisticResponseDataItem, error) {
	var results []MarketplaceStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH decided AS (
    SELECT TO_CHAR(decided_at, 'YYYY-MM-DD') as date,
           COUNT(*) FILTER (WHERE status = 'approved') as approved,
           COUNT(*) as total
    FROM request
    WHERE decided_at IS NOT NULL
    GROUP BY TO_CHAR(decided_at, 'YYYY-MM-DD')
)
SELECT date,
       CASE WHEN total = 0 THEN 0
            ELSE CAST(ROUND(approved * 100.0 / total, 2) * 100 AS INTEGER)
       END as value,
       total as value2
FROM decided
ORDER BY date DESC
`).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getMarketplaceStatistic(ctx context.Context, request *MarketplaceStatisticRequest, dataItem *MarketplaceStatisticDataItem) ([]MarketplaceStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyNewSubscriptionCount:
		return s.getDailyNewSubscriptionCount(ctx, request)
	case StatisticTypeActiveSubscriptionCount:
		return s.getActiveSubscriptionCount(ctx, request)
	case StatisticTypeDailyInvoiceGmv:
		return s.getDailyInvoiceGmv(ctx, request)
	case StatisticTypeTotalInvoiceGmv:
		return s.getTotalInvoiceGmv(ctx, request)
	case StatisticTypeDailyRequestCount:
		return s.getDailyRequestCount(ctx, request)
	case StatisticTypeApprovalRate:
		return s.getApprovalRate(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetMarketplaceStatistic fans the requested data items out concurrently and
// collects them into one response.
func (s *Service) GetMarketplaceStatistic(ctx context.Context, request *MarketplaceStatisticRequest) (*MarketplaceStatisticResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []MarketplaceStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *MarketplaceStatisticDataItem) {
			defer wg.Done()
			for _, filter := range request.Filters {
				ft := MarketplaceStatisticFilterType(filter.Field)
				if lo.Contains(filterTypes, ft) && !lo.Contains(validFilters[ft], di.ID) {
					resChan <- &lo.Entry[StatisticType, []MarketplaceStatisticResponseDataItem]{Key: di.ID, Value: nil}
					return
				}
			}
			res, err := s.getMarketplaceStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []MarketplaceStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]MarketplaceStatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &MarketplaceStatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
