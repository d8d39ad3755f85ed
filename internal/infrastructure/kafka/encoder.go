package kafka

import (
	"time"

	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// SaleEventEncoder сериализует событие продажи в google.protobuf.Struct.
// Денежные значения передаются строками с двумя знаками, чтобы потребители не теряли точность.
type SaleEventEncoder struct{}

func NewSaleEventEncoder() *SaleEventEncoder {
	return &SaleEventEncoder{}
}

func (SaleEventEncoder) EncodeSaleEvent(event *usecase.SaleEvent) ([]byte, error) {
	lines := make([]interface{}, 0, len(event.Lines))
	for _, l := range event.Lines {
		lines = append(lines, map[string]interface{}{
			"product_id": l.ProductID,
			"quantity":   l.Quantity,
			"unit_price": l.UnitPrice.StringFixed(2),
			"subtotal":   l.Subtotal.StringFixed(2),
		})
	}

	st, err := structpb.NewStruct(map[string]interface{}{
		"event_id":    event.EventID,
		"event_type":  string(event.EventType),
		"sale_id":     event.SaleID,
		"customer_id": event.CustomerID,
		"status":      string(event.Status),
		"total":       event.Total.StringFixed(2),
		"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339Nano),
		"lines":       lines,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return proto.Marshal(st)
}
