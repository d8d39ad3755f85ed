package e

import (
	"errors"
	"fmt"
)

// Kind — стабильная категория ошибки, которую видит клиент.
type Kind string

const (
	KindInvalidRequest    Kind = "invalid_request"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindInsufficientStock Kind = "insufficient_stock"
	KindInvalidState      Kind = "invalid_state"
	KindUnauthenticated   Kind = "unauthenticated"
	KindInternal          Kind = "internal"
)

var (
	// Базовые категории
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid state")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInternal          = errors.New("internal server error")

	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// 400 Bad Request
	ErrNoItems               = newKindErr(ErrInvalidRequest, "sale must contain at least one item")
	ErrInvalidProductID      = newKindErr(ErrInvalidRequest, "product id must be positive")
	ErrInvalidQuantity       = newKindErr(ErrInvalidRequest, "quantity must be a positive integer")
	ErrInvalidPrice          = newKindErr(ErrInvalidRequest, "price must be a non-negative number")
	ErrPricePrecision        = newKindErr(ErrInvalidRequest, "price must have at most 2 decimal places")
	ErrPriceTooLarge         = newKindErr(ErrInvalidRequest, "price exceeds 9999999999.99")
	ErrQuantityTooLarge      = newKindErr(ErrInvalidRequest, "quantity exceeds 2147483647")
	ErrAmountTooLarge        = newKindErr(ErrInvalidRequest, "sale amount exceeds 9999999999.99")
	ErrInvalidPaymentMethod  = newKindErr(ErrInvalidRequest, "unsupported payment method")
	ErrCustomerIDRequired    = newKindErr(ErrInvalidRequest, "customer id is required")
	ErrInvalidStatus         = newKindErr(ErrInvalidRequest, "invalid sale status")
	ErrInvalidDateRange      = newKindErr(ErrInvalidRequest, "date_from must not be after date_to")
	ErrProductUnavailable    = newKindErr(ErrInvalidRequest, "product not found or inactive")
	ErrNothingToUpdate       = newKindErr(ErrInvalidRequest, "no fields to update")
	ErrProductNameRequired   = newKindErr(ErrInvalidRequest, "product name is required")
	ErrCategoryRequired      = newKindErr(ErrInvalidRequest, "product category is required")
	ErrInvalidStock          = newKindErr(ErrInvalidRequest, "stock must be an integer between 0 and 2147483647")
	ErrEmptyCart             = newKindErr(ErrInvalidRequest, "cart is empty")
	ErrMalformedBody         = newKindErr(ErrInvalidRequest, "malformed request body")
	ErrInvalidID             = newKindErr(ErrInvalidRequest, "invalid id")
	ErrExpectedMultipart     = newKindErr(ErrInvalidRequest, "expected multipart/form-data")
	ErrNoImage               = newKindErr(ErrInvalidRequest, "no image provided")
	ErrFileTooLarge          = newKindErr(ErrInvalidRequest, "file too large")
	ErrUnsupportedMediaType  = newKindErr(ErrInvalidRequest, "unsupported media type")
	ErrCustomerNameRequired  = newKindErr(ErrInvalidRequest, "customer name must not be empty")
	ErrInvalidIdentityHeader = newKindErr(ErrUnauthenticated, "missing or invalid identity headers")

	// 404 Not Found
	ErrSaleNotFound     = newKindErr(ErrNotFound, "sale not found")
	ErrCustomerNotFound = newKindErr(ErrNotFound, "customer not found")
	ErrProductNotFound  = newKindErr(ErrNotFound, "product not found")
	ErrCartItemNotFound = newKindErr(ErrNotFound, "item not found in cart")

	// 403 Forbidden
	ErrNotSaleOwner     = newKindErr(ErrForbidden, "sale belongs to another customer")
	ErrNotCustomerOwner = newKindErr(ErrForbidden, "customer record belongs to another identity")
	ErrStaffOnly        = newKindErr(ErrForbidden, "operation is restricted to staff")
	ErrCustomersOnly    = newKindErr(ErrForbidden, "operation is restricted to customers")

	// 409 Conflict
	ErrSaleAlreadyCancelled = newKindErr(ErrInvalidState, "sale already cancelled")
	ErrIllegalTransition    = newKindErr(ErrInvalidState, "illegal sale status transition")
)

// kindErr — конкретная ошибка, принадлежащая одной из базовых категорий.
type kindErr struct {
	kind error
	msg  string
}

func newKindErr(kind error, msg string) error {
	return &kindErr{kind: kind, msg: msg}
}

func (k *kindErr) Error() string { return k.msg }

func (k *kindErr) Unwrap() error { return k.kind }

// StockError описывает нехватку остатка по конкретному товару.
type StockError struct {
	ProductID int64
	Available int
	Requested int
}

func (s *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d", s.ProductID, s.Available, s.Requested)
}

func (s *StockError) Unwrap() error { return ErrInsufficientStock }

// ProductError указывает на отсутствующий или неактивный товар в заказе.
type ProductError struct {
	ProductID int64
}

func (p *ProductError) Error() string {
	return fmt.Sprintf("product %d not found or inactive", p.ProductID)
}

func (p *ProductError) Unwrap() error { return ErrProductUnavailable }

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// KindOf возвращает категорию ошибки. Неизвестные ошибки считаются внутренними.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	default:
		return KindInternal
	}
}

// Message возвращает текст, безопасный для отдачи клиенту: самую внутреннюю
// доменную ошибку без префиксов операций. Для внутренних ошибок детали скрываются.
func Message(err error) string {
	if KindOf(err) == KindInternal {
		return ErrInternal.Error()
	}

	var stockErr *StockError
	if errors.As(err, &stockErr) {
		return stockErr.Error()
	}

	var productErr *ProductError
	if errors.As(err, &productErr) {
		return productErr.Error()
	}

	var ke *kindErr
	if errors.As(err, &ke) {
		return ke.Error()
	}

	return err.Error()
}
