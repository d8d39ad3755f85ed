package pgdb

import (
	"context"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// periodFilter ограничивает завершённые продажи полуинтервалом [$1, $2).
const periodFilter = `
	s.status = '` + string(domain.SaleStatusCompleted) + `'
	AND ($1::timestamptz IS NULL OR s.created_at >= $1)
	AND ($2::timestamptz IS NULL OR s.created_at < $2)`

// StatsRepo считает агрегаты по завершённым продажам.
type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (s *StatsRepo) SalesStats(ctx context.Context, period usecase.Period) (*usecase.SalesStats, error) {
	var stats usecase.SalesStats
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(s.total), 0)
		FROM sales s
		WHERE `+periodFilter,
		period.From, period.To,
	).Scan(&stats.Count, &stats.Revenue)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &stats, nil
}

// TopProducts возвращает товары с наибольшим проданным количеством.
func (s *StatsRepo) TopProducts(ctx context.Context, period usecase.Period, limit int) ([]usecase.TopProduct, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT l.product_id, pr.name, SUM(l.quantity), SUM(l.subtotal)
		FROM sale_lines l
		JOIN sales s ON s.id = l.sale_id
		JOIN products pr ON pr.id = l.product_id
		WHERE `+periodFilter+`
		GROUP BY l.product_id, pr.name
		ORDER BY SUM(l.quantity) DESC, l.product_id
		LIMIT $3
	`, period.From, period.To, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (usecase.TopProduct, error) {
		var tp usecase.TopProduct
		err := row.Scan(&tp.ProductID, &tp.Name, &tp.QuantitySold, &tp.Revenue)
		return tp, err
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// TopCustomers возвращает покупателей с наибольшим числом покупок.
func (s *StatsRepo) TopCustomers(ctx context.Context, period usecase.Period, limit int) ([]usecase.TopCustomer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, c.email, COUNT(s.id), SUM(s.total)
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE `+periodFilter+`
		GROUP BY c.id, c.name, c.email
		ORDER BY COUNT(s.id) DESC, SUM(s.total) DESC, c.id
		LIMIT $3
	`, period.From, period.To, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (usecase.TopCustomer, error) {
		var tc usecase.TopCustomer
		err := row.Scan(&tc.CustomerID, &tc.Name, &tc.Email, &tc.Purchases, &tc.TotalSpent)
		return tc, err
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// Summary возвращает продажи за сутки и общие счётчики покупателей и активных товаров.
func (s *StatsRepo) Summary(ctx context.Context, today usecase.Period) (*usecase.Summary, error) {
	var summary usecase.Summary
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sales s WHERE `+periodFilter+`),
			(SELECT COALESCE(SUM(s.total), 0) FROM sales s WHERE `+periodFilter+`),
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM products WHERE is_active)
	`, today.From, today.To).Scan(
		&summary.TodaySales, &summary.TodayRevenue, &summary.Customers, &summary.ActiveProducts,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &summary, nil
}
