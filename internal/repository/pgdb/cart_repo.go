package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CartRepo хранит позиции корзин покупателей.
type CartRepo struct {
	pool *pgxpool.Pool
}

func NewCartRepo(pool *pgxpool.Pool) *CartRepo {
	return &CartRepo{pool: pool}
}

// Get возвращает корзину с текущими ценами и остатками товаров.
func (c *CartRepo) Get(ctx context.Context, customerID int64) (*domain.Cart, error) {
	rows, err := executor(ctx, c.pool).Query(ctx, `
		SELECT ci.product_id, pr.name, pr.price, pr.stock, pr.is_active, ci.quantity, ci.added_at
		FROM cart_items ci
		JOIN products pr ON pr.id = ci.product_id
		WHERE ci.customer_id = $1
		ORDER BY ci.added_at, ci.product_id
	`, customerID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CartLine, error) {
		var l domain.CartLine
		err := row.Scan(&l.ProductID, &l.ProductName, &l.Price, &l.Stock, &l.IsActive, &l.Quantity, &l.AddedAt)
		return l, err
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &domain.Cart{CustomerID: customerID, Lines: lines}, nil
}

// GetQuantity возвращает количество товара в корзине или 0.
func (c *CartRepo) GetQuantity(ctx context.Context, customerID, productID int64) (int, error) {
	var qty int
	err := executor(ctx, c.pool).QueryRow(ctx,
		`SELECT quantity FROM cart_items WHERE customer_id = $1 AND product_id = $2`,
		customerID, productID,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return qty, nil
}

func (c *CartRepo) Upsert(ctx context.Context, item *domain.CartItem) error {
	_, err := executor(ctx, c.pool).Exec(ctx, `
		INSERT INTO cart_items (customer_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
	`, item.CustomerID, item.ProductID, item.Quantity)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CartRepo) SetQuantity(ctx context.Context, customerID, productID int64, qty int) error {
	tag, err := executor(ctx, c.pool).Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE customer_id = $1 AND product_id = $2`,
		customerID, productID, qty,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrCartItemNotFound)
	}

	return nil
}

func (c *CartRepo) Remove(ctx context.Context, customerID, productID int64) error {
	tag, err := executor(ctx, c.pool).Exec(ctx,
		`DELETE FROM cart_items WHERE customer_id = $1 AND product_id = $2`,
		customerID, productID,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrCartItemNotFound)
	}

	return nil
}

func (c *CartRepo) Clear(ctx context.Context, customerID int64) error {
	if _, err := executor(ctx, c.pool).Exec(ctx, `DELETE FROM cart_items WHERE customer_id = $1`, customerID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
