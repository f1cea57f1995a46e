package enum

// Order lifecycle. CHECK constrained in the DB.

const (
	OrderStatusPlaced     = "PLACED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusReady      = "READY"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// IsTerminalOrderStatus reports whether an order in this status can never
// change again.
func IsTerminalOrderStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Table occupancy. CHECK constrained in the DB.

const (
	TableStateFree     = "FREE"
	TableStateOccupied = "OCCUPIED"
)

// Payment methods. Labels only, no DB constraint.

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodCard     = "CARD"
	PaymentMethodTransfer = "TRANSFER"
)

func IsValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer:
		return true
	}
	return false
}
