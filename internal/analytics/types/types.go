package types

import (
	"bytes"
	"encoding/json"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/jasirilabs/lats-backend/pkg/enums"
)

// Envelope is the canonical domain-event envelope as it arrives from
// Pub/Sub: outbox attributes plus the stored payload envelope.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Data          json.RawMessage           `json:"data"`
}

// DataMap converts the raw payload to a map for keyed access.
func (e Envelope) DataMap() (map[string]any, error) {
	if len(bytes.TrimSpace(e.Data)) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(e.Data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// SalesFactRow mirrors the sales_facts BigQuery schema, one row per sold
// line. Amounts are base-currency values.
type SalesFactRow struct {
	EventID    string    `bigquery:"event_id"`
	SaleID     string    `bigquery:"sale_id"`
	SaleNumber int64     `bigquery:"sale_number"`
	ProductID  string    `bigquery:"product_id"`
	VariantID  string    `bigquery:"variant_id"`
	SKU        string    `bigquery:"sku"`
	Name       string    `bigquery:"name"`
	Quantity   int64     `bigquery:"quantity"`
	UnitPrice  float64   `bigquery:"unit_price"`
	UnitCost   float64   `bigquery:"unit_cost"`
	Revenue    float64   `bigquery:"revenue"`
	Cost       float64   `bigquery:"cost"`
	SoldAt     time.Time `bigquery:"sold_at"`
	OccurredAt time.Time `bigquery:"occurred_at"`
}

// PurchaseFactRow mirrors the purchase_facts BigQuery schema, one row per
// submitted purchase order.
type PurchaseFactRow struct {
	EventID         string    `bigquery:"event_id"`
	OrderID         string    `bigquery:"order_id"`
	OrderNumber     int64     `bigquery:"order_number"`
	SupplierID      *string   `bigquery:"supplier_id"`
	Currency        string    `bigquery:"currency"`
	Subtotal        float64   `bigquery:"subtotal"`
	Tax             float64   `bigquery:"tax"`
	Discount        float64   `bigquery:"discount"`
	Total           float64   `bigquery:"total"`
	TotalBaseAmount float64   `bigquery:"total_base_amount"`
	ItemCount       int64     `bigquery:"item_count"`
	SubmittedAt     time.Time `bigquery:"submitted_at"`
	OccurredAt      time.Time `bigquery:"occurred_at"`
}

// EventLogRow is the append-only log of every consumed domain event.
type EventLogRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	AggregateType string             `bigquery:"aggregate_type"`
	AggregateID   string             `bigquery:"aggregate_id"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}
