package e

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"invalid request", ErrNoItems, KindInvalidRequest},
		{"wrapped not found", Wrap("SaleUseCase.GetSale", ErrSaleNotFound), KindNotFound},
		{"forbidden", ErrNotSaleOwner, KindForbidden},
		{"stock", &StockError{ProductID: 7, Available: 50, Requested: 100}, KindInsufficientStock},
		{"product", Wrap("op", &ProductError{ProductID: 3}), KindInvalidRequest},
		{"invalid state", ErrSaleAlreadyCancelled, KindInvalidState},
		{"unknown", errors.New("connection reset"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	err := Wrap("SaleUseCase.CreateSale", Wrap("tx", &StockError{ProductID: 7, Available: 50, Requested: 100}))
	assert.Equal(t, "insufficient stock for product 7: available 50, requested 100", Message(err))

	assert.Equal(t, "sale already cancelled", Message(Wrap("op", ErrSaleAlreadyCancelled)))
	assert.Equal(t, "product 3 not found or inactive", Message(Wrap("op", &ProductError{ProductID: 3})))
	assert.Equal(t, ErrInternal.Error(), Message(fmt.Errorf("pg: %w", errors.New("deadlock detected"))))
}

func TestStockErrorIs(t *testing.T) {
	err := Wrap("op", &StockError{ProductID: 1, Available: 0, Requested: 1})

	assert.True(t, errors.Is(err, ErrInsufficientStock))

	var stockErr *StockError
	assert.True(t, errors.As(err, &stockErr))
	assert.Equal(t, int64(1), stockErr.ProductID)
}
