package model

import "github.com/google/uuid"

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

type MovementReason string

const (
	ReasonReserve MovementReason = "reserve"
	ReasonRelease MovementReason = "release"
	ReasonRestock MovementReason = "restock"
	ReasonAdjust  MovementReason = "adjust"
)

// StockMovement is the audit row written next to every stock change.
type StockMovement struct {
	BaseModel
	ProductID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product       `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Type       MovementType   `gorm:"type:varchar(10);not null" json:"type"`
	Quantity   int            `gorm:"not null" json:"quantity"`
	Reason     MovementReason `gorm:"type:varchar(20);not null" json:"reason"`
	OrderID    *uuid.UUID     `gorm:"type:uuid;index" json:"order_id,omitempty"`
	StockAfter int            `gorm:"not null" json:"stock_after"`
}
