package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregatePurchaseOrder OutboxAggregateType = "purchase_order"
	AggregateShipment      OutboxAggregateType = "shipment"
	AggregateSale          OutboxAggregateType = "sale"
	AggregateMessage       OutboxAggregateType = "whatsapp_message"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePurchaseOrder,
	AggregateShipment,
	AggregateSale,
	AggregateMessage,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventPurchaseOrderSubmitted OutboxEventType = "purchase_order_submitted"
	EventPurchaseOrderReceived  OutboxEventType = "purchase_order_received"
	EventPurchaseOrderCancelled OutboxEventType = "purchase_order_cancelled"
	EventShipmentDelivered      OutboxEventType = "shipment_delivered"
	EventSaleRecorded           OutboxEventType = "sale_recorded"
	EventMessageFailed          OutboxEventType = "whatsapp_message_failed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPurchaseOrderSubmitted,
	EventPurchaseOrderReceived,
	EventPurchaseOrderCancelled,
	EventShipmentDelivered,
	EventSaleRecorded,
	EventMessageFailed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
