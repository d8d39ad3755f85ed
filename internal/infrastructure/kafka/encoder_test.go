package kafka

import (
	"testing"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestSaleEventEncoder_Encode(t *testing.T) {
	ev := &usecase.SaleEvent{
		EventID:    "6f1c2b1e-0000-4000-8000-000000000001",
		EventType:  usecase.SaleCreated,
		SaleID:     15,
		CustomerID: 3,
		Status:     domain.SaleStatusCompleted,
		Total:      decimal.RequireFromString("90"),
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600)),
		Lines: []usecase.SaleEventLine{{
			ProductID: 7,
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("45"),
			Subtotal:  decimal.RequireFromString("90"),
		}},
	}

	data, err := NewSaleEventEncoder().EncodeSaleEvent(ev)
	require.NoError(t, err)

	var st structpb.Struct
	require.NoError(t, proto.Unmarshal(data, &st))
	m := st.AsMap()

	assert.Equal(t, "sale.created", m["event_type"])
	assert.Equal(t, float64(15), m["sale_id"])
	assert.Equal(t, "completed", m["status"])
	assert.Equal(t, "90.00", m["total"])
	assert.Equal(t, "2026-03-01T09:00:00Z", m["occurred_at"])

	lines, ok := m["lines"].([]interface{})
	require.True(t, ok)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]interface{})
	assert.Equal(t, float64(7), line["product_id"])
	assert.Equal(t, "45.00", line["unit_price"])
}
