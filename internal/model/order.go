package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderCompleted, OrderCancelled},
	OrderCompleted: {},
	OrderCancelled: {},
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Terminal orders accept no further edits.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	BaseModel
	OrderNumber  string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"order_number"`
	OrderDate    time.Time       `gorm:"type:date;not null" json:"order_date"`
	Status       OrderStatus     `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	CustomerID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer     *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	EnterpriseID uuid.UUID       `gorm:"type:uuid;not null;index" json:"enterprise_id"`
	Enterprise   *Enterprise     `gorm:"foreignKey:EnterpriseID" json:"enterprise,omitempty"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Notes        *string         `gorm:"type:text" json:"notes,omitempty"`
	Items        []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product     *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:NO ACTION" json:"-"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
}

// ReservedQuantities sums item quantities per product.
func (o *Order) ReservedQuantities() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(o.Items))
	for _, item := range o.Items {
		out[item.ProductID] += item.Quantity
	}
	return out
}
