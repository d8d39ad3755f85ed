package usecase

import (
	"context"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/pkg/clock"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const maxTopLimit = 100

// StatsUseCase считает агрегаты по завершённым продажам. Только чтение.
type StatsUseCase struct {
	statsRepo StatsRepository
	clock     clock.Clock
	topLimit  int
	logger    logger.Logger
}

func NewStatsUC(statsRepo StatsRepository, clock clock.Clock, topLimit int, logger logger.Logger) *StatsUseCase {
	if topLimit <= 0 || topLimit > maxTopLimit {
		topLimit = 10
	}

	return &StatsUseCase{
		statsRepo: statsRepo,
		clock:     clock,
		topLimit:  topLimit,
		logger:    logger,
	}
}

// GetStats возвращает выручку, средний чек и топы товаров и покупателей за период.
func (s *StatsUseCase) GetStats(ctx context.Context, req *StatsReq) (*StatsReport, error) {
	const op = "StatsUseCase.GetStats"

	if !req.Actor.IsStaff() {
		return nil, e.Wrap(op, e.ErrStaffOnly)
	}

	if req.DateFrom != nil && req.DateTo != nil && req.DateFrom.After(*req.DateTo) {
		return nil, e.Wrap(op, e.ErrInvalidDateRange)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.topLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}

	period := NewInclusivePeriod(req.DateFrom, req.DateTo)

	sales, err := s.statsRepo.SalesStats(ctx, period)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	sales.AverageTicket = averageTicket(sales.Revenue, sales.Count)

	topProducts, err := s.statsRepo.TopProducts(ctx, period, limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	topCustomers, err := s.statsRepo.TopCustomers(ctx, period, limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &StatsReport{
		Sales:        *sales,
		TopProducts:  topProducts,
		TopCustomers: topCustomers,
	}, nil
}

// GetSummary возвращает сводку за текущие сутки.
func (s *StatsUseCase) GetSummary(ctx context.Context, actor domain.Actor) (*Summary, error) {
	const op = "StatsUseCase.GetSummary"

	if !actor.IsStaff() {
		return nil, e.Wrap(op, e.ErrStaffOnly)
	}

	summary, err := s.statsRepo.Summary(ctx, DayPeriod(s.clock.Now()))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return summary, nil
}

func averageTicket(revenue decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return revenue.DivRound(decimal.NewFromInt(count), 2)
}
