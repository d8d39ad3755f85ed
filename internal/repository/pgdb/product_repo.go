package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = `
	pr.id, pr.name, pr.description, pr.category_id, cat.name,
	pr.price, pr.stock, pr.image_key, pr.is_active, pr.created_at, pr.updated_at`

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

func scanProduct(row pgx.Row, model *converter.ProductModel) error {
	return row.Scan(
		&model.ID, &model.Name, &model.Description, &model.CategoryID, &model.CategoryName,
		&model.Price, &model.Stock, &model.ImageKey, &model.IsActive, &model.CreatedAt, &model.UpdatedAt,
	)
}

func (p *ProductRepo) collect(rows pgx.Rows) ([]*domain.Product, error) {
	defer rows.Close()

	result := make([]*domain.Product, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := scanProduct(rows, &model); err != nil {
			return nil, err
		}
		result = append(result, p.conv.ToEntity(&model))
	}

	return result, rows.Err()
}

// Create добавляет продукт. Категория должна существовать.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := p.conv.ToModel(product)
	query := `
		INSERT INTO products (name, description, category_id, price, stock, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at;
	`

	if err := tx.QueryRow(ctx, query,
		model.Name, model.Description, model.CategoryID, model.Price, model.Stock, model.IsActive,
	).Scan(&model.ID, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// Update применяет частичный патч; пустые поля патча не меняют значения.
func (p *ProductRepo) Update(ctx context.Context, id int64, patch *usecase.ProductPatch) (*domain.Product, error) {
	query := `
		WITH pr AS (
			UPDATE products SET
				name = COALESCE($2::text, name),
				description = COALESCE($3::text, description),
				category_id = COALESCE($4::bigint, category_id),
				price = COALESCE($5::numeric, price),
				stock = COALESCE($6::integer, stock),
				is_active = COALESCE($7::boolean, is_active),
				updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + productColumns + `
		FROM pr
		JOIN categories cat ON pr.category_id = cat.id;
	`

	var model converter.ProductModel
	err := scanProduct(executor(ctx, p.pool).QueryRow(ctx, query,
		id, patch.Name, patch.Description, patch.CategoryID, patch.Price, patch.Stock, patch.IsActive,
	), &model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), noRows(err, e.ErrProductNotFound))
	}

	return p.conv.ToEntity(&model), nil
}

// Deactivate выполняет мягкое удаление: товар остаётся в истории продаж, но не продаётся.
func (p *ProductRepo) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`

	tag, err := executor(ctx, p.pool).Exec(ctx, query, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

// SetImageKey сохраняет ключ нового изображения и возвращает предыдущий.
func (p *ProductRepo) SetImageKey(ctx context.Context, id int64, key string) (*string, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var previous *string
	if err := tx.QueryRow(ctx, `SELECT image_key FROM products WHERE id = $1 FOR UPDATE`, id).
		Scan(&previous); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), noRows(err, e.ErrProductNotFound))
	}

	if _, err := tx.Exec(ctx, `UPDATE products SET image_key = $2, updated_at = NOW() WHERE id = $1`, id, key); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return previous, nil
}

// GetProductsInfo возвращает информацию о продуктах по их идентификаторам, включая название категории.
func (p *ProductRepo) GetProductsInfo(ctx context.Context, ids []int64) ([]usecase.ProductInfo, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE pr.id = ANY($1)
	`

	rows, err := executor(ctx, p.pool).Query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	products, err := p.collect(rows)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return toProductInfos(products), nil
}

// List возвращает страницу каталога с фильтрами по названию, категории и активности.
func (p *ProductRepo) List(ctx context.Context, filter usecase.ProductFilter) ([]usecase.ProductInfo, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE ($1 = '' OR pr.name ILIKE '%' || $1 || '%' OR pr.description ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR cat.name = $2)
		  AND ($3 OR pr.is_active)
		ORDER BY pr.id
		LIMIT $4 OFFSET $5
	`

	rows, err := executor(ctx, p.pool).Query(ctx, query,
		filter.Search, filter.CategoryName, filter.IncludeInactive, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	products, err := p.collect(rows)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return toProductInfos(products), nil
}

// LockForSale блокирует строки товаров до конца транзакции.
// Порядок блокировки по возрастанию id исключает взаимные блокировки между продажами.
func (p *ProductRepo) LockForSale(ctx context.Context, ids []int64) ([]domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		SELECT ` + productColumns + `
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE pr.id = ANY($1)
		ORDER BY pr.id
		FOR UPDATE OF pr
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	products, err := p.collect(rows)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make([]domain.Product, 0, len(products))
	for _, pr := range products {
		result = append(result, *pr)
	}

	return result, nil
}

// DecrementStock списывает остаток. Условие stock >= qty страхует от ухода в минус.
func (p *ProductRepo) DecrementStock(ctx context.Context, id int64, qty int) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, id, qty)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		var available int
		if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&available); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return e.Wrap(whereami.WhereAmI(), &e.ProductError{ProductID: id})
			}
			return e.Wrap(whereami.WhereAmI(), err)
		}
		return e.Wrap(whereami.WhereAmI(), &e.StockError{ProductID: id, Available: available, Requested: qty})
	}

	return nil
}

// RestoreStockForSale возвращает на склад количество всех строк продажи.
func (p *ProductRepo) RestoreStockForSale(ctx context.Context, saleID int64) ([]int64, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// Блокируем товары в том же порядке, что и при продаже
	lockQuery := `
		SELECT id FROM products
		WHERE id IN (SELECT product_id FROM sale_lines WHERE sale_id = $1)
		ORDER BY id
		FOR UPDATE
	`
	if _, err := tx.Exec(ctx, lockQuery, saleID); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products pr
		SET stock = pr.stock + l.qty, updated_at = NOW()
		FROM (
			SELECT product_id, SUM(quantity) AS qty
			FROM sale_lines
			WHERE sale_id = $1
			GROUP BY product_id
		) l
		WHERE pr.id = l.product_id
		RETURNING pr.id
	`

	rows, err := tx.Query(ctx, query, saleID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return ids, nil
}

func toProductInfos(products []*domain.Product) []usecase.ProductInfo {
	result := make([]usecase.ProductInfo, 0, len(products))
	for _, pr := range products {
		result = append(result, usecase.NewProductInfo(pr))
	}
	return result
}
