package pgdb

import (
	"context"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const customerColumns = `id, user_id, name, address, phone, email, registered_at`

// CustomerRepo хранит покупателей. Для одной учётной записи существует не более одного покупателя.
type CustomerRepo struct {
	pool *pgxpool.Pool
	conv converter.CustomerConverter
}

func NewCustomerRepo(pool *pgxpool.Pool, conv converter.CustomerConverter) *CustomerRepo {
	return &CustomerRepo{pool: pool, conv: conv}
}

func scanCustomer(row pgx.Row, model *converter.CustomerModel) error {
	return row.Scan(
		&model.ID, &model.UserID, &model.Name, &model.Address, &model.Phone, &model.Email, &model.RegisteredAt,
	)
}

// ResolveOrCreate находит покупателя по user_id или создаёт его одним запросом.
// Конкурентные вызовы сходятся на уникальном индексе user_id.
func (c *CustomerRepo) ResolveOrCreate(ctx context.Context, customer *domain.Customer, patch domain.CustomerProfile) (*domain.Customer, error) {
	model := c.conv.ToModel(customer)
	query := `
		INSERT INTO customers (user_id, name, address, phone, email)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			name = COALESCE(NULLIF($6, ''), customers.name),
			address = COALESCE(NULLIF($7, ''), customers.address),
			phone = COALESCE(NULLIF($8, ''), customers.phone),
			email = COALESCE(NULLIF($9, ''), customers.email)
		RETURNING ` + customerColumns

	var out converter.CustomerModel
	err := scanCustomer(executor(ctx, c.pool).QueryRow(ctx, query,
		model.UserID, model.Name, model.Address, model.Phone, model.Email,
		patch.Name, patch.Address, patch.Phone, patch.Email,
	), &out)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.conv.ToEntity(&out), nil
}

func (c *CustomerRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var model converter.CustomerModel
	err := scanCustomer(executor(ctx, c.pool).QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id), &model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), noRows(err, e.ErrCustomerNotFound))
	}

	return c.conv.ToEntity(&model), nil
}

func (c *CustomerRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Customer, error) {
	var model converter.CustomerModel
	err := scanCustomer(executor(ctx, c.pool).QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE user_id = $1`, userID), &model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), noRows(err, e.ErrCustomerNotFound))
	}

	return c.conv.ToEntity(&model), nil
}

// List ищет покупателей по подстроке имени или email, новые первыми.
func (c *CustomerRepo) List(ctx context.Context, search string, limit, offset int) ([]domain.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY registered_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := executor(ctx, c.pool).Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]converter.CustomerModel, 0)
	for rows.Next() {
		var model converter.CustomerModel
		if err := scanCustomer(rows, &model); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return c.conv.ToArrEntity(models), nil
}

// Update перезаписывает только непустые поля профиля.
func (c *CustomerRepo) Update(ctx context.Context, id int64, patch domain.CustomerProfile) (*domain.Customer, error) {
	query := `
		UPDATE customers SET
			name = COALESCE(NULLIF($2, ''), name),
			address = COALESCE(NULLIF($3, ''), address),
			phone = COALESCE(NULLIF($4, ''), phone),
			email = COALESCE(NULLIF($5, ''), email)
		WHERE id = $1
		RETURNING ` + customerColumns

	var model converter.CustomerModel
	err := scanCustomer(executor(ctx, c.pool).QueryRow(ctx, query,
		id, patch.Name, patch.Address, patch.Phone, patch.Email,
	), &model)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), noRows(err, e.ErrCustomerNotFound))
	}

	return c.conv.ToEntity(&model), nil
}
