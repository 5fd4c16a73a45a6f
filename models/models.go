package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order aggregates the line items and the single payment of one purchase.
// Ownership is unidirectional: items and payment carry only the order id.
type Order struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        int64           `json:"userId" gorm:"not null;index"`
	TotalPrice    decimal.Decimal `json:"totalPrice" gorm:"type:numeric(12,2);not null"`
	OrderStatus   OrderStatus     `json:"orderStatus" gorm:"type:varchar(20);not null"`
	PaymentStatus string          `json:"paymentStatus" gorm:"type:varchar(20);not null"`
	CreatedAt     time.Time       `json:"createdDate" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"-" gorm:"autoUpdateTime"`
	OrderItems    []OrderItem     `json:"orderItems,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment       *Payment        `json:"payment,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem is one product line within an order. Items are immutable after
// creation; there is no update path.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `json:"orderId" gorm:"type:uuid;not null;index"`
	ProductID string          `json:"productId" gorm:"type:varchar(64);not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
}

// Payment is the single payment record of an order (unique per order).
type Payment struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID `json:"orderId" gorm:"type:uuid;uniqueIndex;not null"`
	PaymentMethod string    `json:"paymentMethod" gorm:"type:varchar(40)"`
	TransactionID string    `json:"transactionId" gorm:"type:varchar(64);uniqueIndex"`
	PaymentStatus string    `json:"paymentStatus" gorm:"type:varchar(20)"`
	PaymentDate   time.Time `json:"paymentDate"`
}
