package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID           int64           `db:"id"`
	Name         string          `db:"name"`
	Description  string          `db:"description"`
	CategoryID   int64           `db:"category_id"`
	CategoryName string          `db:"category_name"`
	Price        decimal.Decimal `db:"price"`
	Stock        int             `db:"stock"`
	ImageKey     *string         `db:"image_key"`
	IsActive     bool            `db:"is_active"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    *time.Time      `db:"updated_at"`
}

// CategoryModel представляет запись таблицы categories в PostgreSQL.
type CategoryModel struct {
	ID         int64      `db:"id"`
	Name       string     `db:"name"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at"`
	IsArchived bool       `db:"is_archived"`
}

// CustomerModel представляет запись таблицы customers в PostgreSQL.
type CustomerModel struct {
	ID           int64     `db:"id"`
	UserID       *int64    `db:"user_id"`
	Name         string    `db:"name"`
	Address      string    `db:"address"`
	Phone        string    `db:"phone"`
	Email        string    `db:"email"`
	RegisteredAt time.Time `db:"registered_at"`
}

// SaleModel представляет запись таблицы sales в PostgreSQL.
type SaleModel struct {
	ID            int64           `db:"id"`
	CustomerID    int64           `db:"customer_id"`
	SellerID      *int64          `db:"seller_id"`
	SellerName    *string         `db:"seller_name"`
	PaymentMethod string          `db:"payment_method"`
	Status        string          `db:"status"`
	Total         decimal.Decimal `db:"total"`
	CreatedAt     time.Time       `db:"created_at"`
	CancelledAt   *time.Time      `db:"cancelled_at"`
	Lines         []SaleLineModel
}

// SaleLineModel представляет запись таблицы sale_lines в PostgreSQL.
type SaleLineModel struct {
	ID        int64           `db:"id"`
	SaleID    int64           `db:"sale_id"`
	ProductID int64           `db:"product_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Subtotal  decimal.Decimal `db:"subtotal"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID int64      `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
