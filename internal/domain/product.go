package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает товар каталога
type Product struct {
	ID           int64
	Name         string
	Description  string
	CategoryID   int64
	CategoryName string
	Price        decimal.Decimal // NUMERIC(12,2)
	Stock        int
	ImageKey     *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

func NewProduct(name, description string, price decimal.Decimal, stock int, categoryID int64) *Product {
	return &Product{
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		CategoryID:  categoryID,
		IsActive:    true,
	}
}

// CanSell сообщает, можно ли продать qty единиц товара.
func (p *Product) CanSell(qty int) bool {
	return p.IsActive && qty > 0 && p.Stock >= qty
}
