package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductInfoRedisModel — представление товара в кэше. Цена хранится строкой, чтобы не терять точность.
type ProductInfoRedisModel struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	CategoryName string          `json:"category_name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	IsActive     bool            `json:"is_active"`
	ImageKey     *string         `json:"image_key,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}
