package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lifecycle event names published to Kafka/SNS.
const (
	EventOrderPlaced    = "order.placed"
	EventOrderCancelled = "order.cancelled"
	EventOrderRefunded  = "order.refunded"
)

// OrderEvent is the JSON payload emitted after a lifecycle transition commits.
type OrderEvent struct {
	Event      string          `json:"event"`
	OrderID    string          `json:"order_id"`
	UserID     int64           `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Timestamp  time.Time       `json:"timestamp"`
}
