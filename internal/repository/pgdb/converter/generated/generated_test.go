package generated

import (
	"testing"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleConverter_KeepsLinesAndEnums(t *testing.T) {
	conv := NewSaleConverterImpl()
	name := "Seller Ana"

	model := &converter.SaleModel{
		ID:            10,
		CustomerID:    3,
		SellerName:    &name,
		PaymentMethod: "card",
		Status:        "cancelled",
		Total:         decimal.RequireFromString("90.00"),
		CreatedAt:     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		Lines: []converter.SaleLineModel{
			{ID: 1, SaleID: 10, ProductID: 7, Quantity: 2, UnitPrice: decimal.RequireFromString("45.00"), Subtotal: decimal.RequireFromString("90.00")},
		},
	}

	sale := conv.ToEntity(model)
	require.NotNil(t, sale)
	assert.Equal(t, domain.SaleStatusCancelled, sale.Status)
	assert.Equal(t, domain.PaymentCard, sale.PaymentMethod)
	require.Len(t, sale.Lines, 1)
	assert.Equal(t, int64(7), sale.Lines[0].ProductID)
	assert.Equal(t, "Seller Ana", *sale.SellerName)

	assert.Nil(t, conv.ToEntity(nil))
}

func TestOutboxEventConverter_ToArrEntity(t *testing.T) {
	conv := NewOutboxEventConverterImpl()

	events := conv.ToArrEntity([]*converter.OutboxEventModel{
		{ID: 1, EventID: "a", EventType: "sale.created", AggregateID: 5, Status: "processing"},
	})

	require.Len(t, events, 1)
	assert.Equal(t, usecase.SaleCreated, events[0].EventType)
	assert.Equal(t, usecase.Processing, events[0].Status)
	assert.Equal(t, int64(5), events[0].AggregateID)
	assert.Nil(t, conv.ToArrEntity(nil))
}
