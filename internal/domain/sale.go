package domain

import (
	"math"
	"strings"
	"time"

	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// Границы колонок NUMERIC(12,2) и INTEGER: значения за ними Postgres отвергает переполнением.
const MaxQuantity = math.MaxInt32

var MaxAmount = decimal.RequireFromString("9999999999.99")

// SaleStatus — состояние продажи.
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	// SaleStatusPending зарезервирован в схеме, сервис его не выставляет.
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// ParseSaleStatus разбирает статус из строки запроса.
func ParseSaleStatus(s string) (SaleStatus, error) {
	switch st := SaleStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case SaleStatusCompleted, SaleStatusPending, SaleStatusCancelled:
		return st, nil
	default:
		return "", e.ErrInvalidStatus
	}
}

// CanTransition проверяет допустимость перехода. Единственный переход: completed -> cancelled.
func (s SaleStatus) CanTransition(to SaleStatus) bool {
	return s == SaleStatusCompleted && to == SaleStatusCancelled
}

// PaymentMethod — способ оплаты продажи.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// ParsePaymentMethod разбирает способ оплаты; пустая строка означает наличные.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PaymentCash, nil
	}

	switch pm := PaymentMethod(s); pm {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return pm, nil
	default:
		return "", e.ErrInvalidPaymentMethod
	}
}

// Sale — заголовок продажи вместе со строками. Создаётся и отменяется как единое целое.
type Sale struct {
	ID            int64
	CustomerID    int64
	SellerID      *int64
	SellerName    *string
	PaymentMethod PaymentMethod
	Status        SaleStatus
	Total         decimal.Decimal
	CreatedAt     time.Time
	CancelledAt   *time.Time
	Lines         []SaleLine
}

// SaleLine — строка продажи. Цена фиксируется в момент продажи и больше не пересчитывается.
type SaleLine struct {
	ID        int64
	SaleID    int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

func NewSaleLine(productID int64, quantity int, unitPrice decimal.Decimal) SaleLine {
	return SaleLine{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// NewSale собирает завершённую продажу и считает итог по строкам.
func NewSale(customerID int64, seller *Actor, payment PaymentMethod, lines []SaleLine) *Sale {
	s := &Sale{
		CustomerID:    customerID,
		PaymentMethod: payment,
		Status:        SaleStatusCompleted,
		Lines:         lines,
	}
	if seller != nil {
		id, name := seller.IdentityID, seller.DisplayName
		s.SellerID = &id
		if name != "" {
			s.SellerName = &name
		}
	}
	s.Total = s.LinesTotal()

	return s
}

// LinesTotal возвращает сумму подытогов всех строк.
func (s *Sale) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Subtotal)
	}
	return total
}

// Cancel переводит продажу в cancelled.
func (s *Sale) Cancel(at time.Time) error {
	if s.Status == SaleStatusCancelled {
		return e.ErrSaleAlreadyCancelled
	}
	if !s.Status.CanTransition(SaleStatusCancelled) {
		return e.ErrIllegalTransition
	}

	s.Status = SaleStatusCancelled
	s.CancelledAt = &at
	return nil
}

// ValidateAmounts проверяет, что подытоги и итог помещаются в NUMERIC(12,2).
func (s *Sale) ValidateAmounts() error {
	for _, l := range s.Lines {
		if l.Subtotal.GreaterThan(MaxAmount) {
			return e.ErrAmountTooLarge
		}
	}
	if s.Total.GreaterThan(MaxAmount) {
		return e.ErrAmountTooLarge
	}
	return nil
}

// ValidatePrice проверяет, что цена неотрицательна, не больше MaxAmount и содержит не больше двух знаков после запятой.
func ValidatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return e.ErrInvalidPrice
	}
	if p.GreaterThan(MaxAmount) {
		return e.ErrPriceTooLarge
	}
	if !p.Equal(p.Round(2)) {
		return e.ErrPricePrecision
	}
	return nil
}

// ValidateQuantity проверяет количество строки продажи или корзины.
func ValidateQuantity(q int) error {
	if q <= 0 {
		return e.ErrInvalidQuantity
	}
	if q > MaxQuantity {
		return e.ErrQuantityTooLarge
	}
	return nil
}

// ValidateStock проверяет остаток товара.
func ValidateStock(stock int) error {
	if stock < 0 || stock > MaxQuantity {
		return e.ErrInvalidStock
	}
	return nil
}
