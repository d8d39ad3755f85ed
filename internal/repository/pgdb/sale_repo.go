package pgdb

import (
	"context"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// SaleRepo хранит продажи вместе со строками.
type SaleRepo struct {
	pool *pgxpool.Pool
	conv converter.SaleConverter
}

func NewSaleRepo(pool *pgxpool.Pool, conv converter.SaleConverter) *SaleRepo {
	return &SaleRepo{pool: pool, conv: conv}
}

// Create вставляет заголовок и строки продажи в текущей транзакции.
func (s *SaleRepo) Create(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := s.conv.ToModel(sale)
	header := `
		INSERT INTO sales (customer_id, seller_id, seller_name, payment_method, status, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
	`
	if err := tx.QueryRow(ctx, header,
		model.CustomerID, model.SellerID, model.SellerName, model.PaymentMethod, model.Status, model.Total,
	).Scan(&model.ID, &model.CreatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	lineQuery := `
		INSERT INTO sale_lines (sale_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`
	batch := &pgx.Batch{}
	for i := range model.Lines {
		l := &model.Lines[i]
		l.SaleID = model.ID
		batch.Queue(lineQuery, l.SaleID, l.ProductID, l.Quantity, l.UnitPrice, l.Subtotal).
			QueryRow(func(row pgx.Row) error {
				return row.Scan(&l.ID)
			})
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return s.conv.ToEntity(model), nil
}

// LockByID блокирует продажу (FOR UPDATE) и возвращает её со строками.
func (s *SaleRepo) LockByID(ctx context.Context, id int64) (*domain.Sale, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.SaleModel
	err = tx.QueryRow(ctx, `
		SELECT id, customer_id, seller_id, seller_name, payment_method, status, total, created_at, cancelled_at
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&model.ID, &model.CustomerID, &model.SellerID, &model.SellerName, &model.PaymentMethod,
		&model.Status, &model.Total, &model.CreatedAt, &model.CancelledAt,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), noRows(err, e.ErrSaleNotFound))
	}

	rows, err := tx.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, subtotal
		FROM sale_lines
		WHERE sale_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (converter.SaleLineModel, error) {
		var l converter.SaleLineModel
		err := row.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal)
		return l, err
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return s.conv.ToEntity(&model), nil
}

// MarkCancelled переводит завершённую продажу в cancelled.
func (s *SaleRepo) MarkCancelled(ctx context.Context, id int64, at time.Time) error {
	tag, err := executor(ctx, s.pool).Exec(ctx, `
		UPDATE sales SET status = $3, cancelled_at = $2
		WHERE id = $1 AND status = $4
	`, id, at, string(domain.SaleStatusCancelled), string(domain.SaleStatusCompleted))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrIllegalTransition)
	}

	return nil
}

// GetDetails возвращает продажу с данными покупателя и строками с названиями товаров.
func (s *SaleRepo) GetDetails(ctx context.Context, id int64) (*usecase.SaleDetails, error) {
	q := executor(ctx, s.pool)

	var (
		d             usecase.SaleDetails
		paymentMethod string
		status        string
	)
	err := q.QueryRow(ctx, `
		SELECT s.id, s.customer_id, c.name, c.email, c.address, c.phone,
		       s.seller_id, s.seller_name, s.payment_method, s.status, s.total, s.created_at, s.cancelled_at
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1
	`, id).Scan(
		&d.ID, &d.CustomerID, &d.CustomerName, &d.CustomerEmail, &d.CustomerAddress, &d.CustomerPhone,
		&d.SellerID, &d.SellerName, &paymentMethod, &status, &d.Total, &d.CreatedAt, &d.CancelledAt,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), noRows(err, e.ErrSaleNotFound))
	}
	d.PaymentMethod = converter.ConvertPaymentMethod(paymentMethod)
	d.Status = converter.ConvertSaleStatus(status)

	rows, err := q.Query(ctx, `
		SELECT l.product_id, pr.name, cat.name, l.quantity, l.unit_price, l.subtotal
		FROM sale_lines l
		JOIN products pr ON pr.id = l.product_id
		JOIN categories cat ON cat.id = pr.category_id
		WHERE l.sale_id = $1
		ORDER BY l.id
	`, id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	d.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (usecase.SaleLineDetails, error) {
		var l usecase.SaleLineDetails
		err := row.Scan(&l.ProductID, &l.ProductName, &l.CategoryName, &l.Quantity, &l.UnitPrice, &l.Subtotal)
		return l, err
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &d, nil
}

// List возвращает продажи по фильтру, новые первыми.
func (s *SaleRepo) List(ctx context.Context, filter usecase.SaleFilter) ([]usecase.SaleSummary, error) {
	var status *string
	if filter.Status != nil {
		st := string(*filter.Status)
		status = &st
	}

	query := `
		SELECT s.id, s.customer_id, c.name, s.seller_name, s.payment_method, s.status, s.total,
		       (SELECT COUNT(*) FROM sale_lines l WHERE l.sale_id = s.id),
		       s.created_at, s.cancelled_at
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE ($1::timestamptz IS NULL OR s.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR s.created_at < $2)
		  AND ($3::text IS NULL OR s.status = $3)
		  AND ($4::bigint IS NULL OR s.customer_id = $4)
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $5 OFFSET $6
	`

	rows, err := executor(ctx, s.pool).Query(ctx, query,
		filter.Period.From, filter.Period.To, status, filter.CustomerID, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (usecase.SaleSummary, error) {
		var (
			sum           usecase.SaleSummary
			paymentMethod string
			st            string
		)
		err := row.Scan(
			&sum.ID, &sum.CustomerID, &sum.CustomerName, &sum.SellerName, &paymentMethod, &st, &sum.Total,
			&sum.ItemsCount, &sum.CreatedAt, &sum.CancelledAt,
		)
		sum.PaymentMethod = converter.ConvertPaymentMethod(paymentMethod)
		sum.Status = converter.ConvertSaleStatus(st)
		return sum, err
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
