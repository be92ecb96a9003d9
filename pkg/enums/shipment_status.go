package enums

import "fmt"

// ShipmentStatus tracks an inbound shipment attached to a purchase order.
type ShipmentStatus string

const (
	ShipmentStatusPending        ShipmentStatus = "pending"
	ShipmentStatusInTransit      ShipmentStatus = "in_transit"
	ShipmentStatusOutForDelivery ShipmentStatus = "out_for_delivery"
	ShipmentStatusDelivered      ShipmentStatus = "delivered"
	ShipmentStatusException      ShipmentStatus = "exception"
	ShipmentStatusReturned       ShipmentStatus = "returned"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusPending,
	ShipmentStatusInTransit,
	ShipmentStatusOutForDelivery,
	ShipmentStatusDelivered,
	ShipmentStatusException,
	ShipmentStatusReturned,
}

func (s ShipmentStatus) String() string {
	return string(s)
}

func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the shipment has reached a final state.
func (s ShipmentStatus) IsTerminal() bool {
	return s == ShipmentStatusDelivered || s == ShipmentStatusReturned
}

// CanTransitionTo reports whether the status may move to target. Exceptions
// can resume transit; delivered and returned are final.
func (s ShipmentStatus) CanTransitionTo(target ShipmentStatus) bool {
	switch s {
	case ShipmentStatusPending:
		return target == ShipmentStatusInTransit || target == ShipmentStatusException
	case ShipmentStatusInTransit:
		return target == ShipmentStatusOutForDelivery || target == ShipmentStatusDelivered || target == ShipmentStatusException
	case ShipmentStatusOutForDelivery:
		return target == ShipmentStatusDelivered || target == ShipmentStatusException
	case ShipmentStatusException:
		return target == ShipmentStatusInTransit || target == ShipmentStatusOutForDelivery || target == ShipmentStatusReturned || target == ShipmentStatusDelivered
	}
	return false
}

func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
