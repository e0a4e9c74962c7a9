package enums

import "fmt"

// DeliveryStatus tracks a shipment record.
type DeliveryStatus string

const (
	DeliveryStatusPrepared  DeliveryStatus = "prepared"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusPrepared,
	DeliveryStatusInTransit,
	DeliveryStatusDelivered,
}

var deliveryTransitions = map[DeliveryStatus]DeliveryStatus{
	DeliveryStatusPrepared:  DeliveryStatusInTransit,
	DeliveryStatusInTransit: DeliveryStatusDelivered,
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the target is the legal next state.
// Shipments advance strictly forward.
func (d DeliveryStatus) CanTransitionTo(target DeliveryStatus) bool {
	next, ok := deliveryTransitions[d]
	return ok && next == target
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
