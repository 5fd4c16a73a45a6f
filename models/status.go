package models

// OrderStatus is the lifecycle stage of an order. It is persisted as its
// symbolic name, not a numeric code.
type OrderStatus string

const (
	StatusPending      OrderStatus = "PENDING"       // placed but not paid
	StatusPaid         OrderStatus = "PAID"          // payment received
	StatusProcessing   OrderStatus = "PROCESSING"    // seller preparing the order
	StatusShipped      OrderStatus = "SHIPPED"       // handed to the logistics partner
	StatusToReceive    OrderStatus = "TO_RECEIVE"    // parcel out for delivery
	StatusCompleted    OrderStatus = "COMPLETED"     // delivered
	StatusCancelled    OrderStatus = "CANCELLED"     // cancelled before shipment
	StatusReturnRefund OrderStatus = "RETURN_REFUND" // buyer initiated a return/refund
)

// CancellableStatuses are the pre-shipment states an order may be cancelled from.
var CancellableStatuses = []OrderStatus{StatusPending, StatusPaid, StatusProcessing}

// RefundableStatuses are the post-fulfillment states a refund may start from.
var RefundableStatuses = []OrderStatus{StatusShipped, StatusToReceive, StatusCompleted}

func (s OrderStatus) String() string { return string(s) }

// In reports whether s is one of the given statuses.
func (s OrderStatus) In(set []OrderStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in status s may transition to CANCELLED.
func (s OrderStatus) Cancellable() bool { return s.In(CancellableStatuses) }

// Refundable reports whether an order in status s may transition to RETURN_REFUND.
func (s OrderStatus) Refundable() bool { return s.In(RefundableStatuses) }
