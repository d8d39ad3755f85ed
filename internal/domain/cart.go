package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem — позиция корзины покупателя.
type CartItem struct {
	CustomerID int64
	ProductID  int64
	Quantity   int
	AddedAt    time.Time
}

func NewCartItem(customerID, productID int64, quantity int) *CartItem {
	return &CartItem{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
	}
}

// CartLine — позиция корзины вместе с текущими данными товара.
type CartLine struct {
	ProductID   int64
	ProductName string
	Price       decimal.Decimal
	Stock       int
	IsActive    bool
	Quantity    int
	AddedAt     time.Time
}

// Subtotal считает стоимость позиции по текущей цене каталога.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart — корзина покупателя.
type Cart struct {
	CustomerID int64
	Lines      []CartLine
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
