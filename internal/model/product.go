package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// MaxStock is the upper bound the stock ledger enforces after every delta.
	MaxStock = 999999
	// LowStockThreshold feeds the dashboard's low stock counter.
	LowStockThreshold = 10
)

type Product struct {
	BaseModel
	Name         string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_product_enterprise_name" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock        int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	EnterpriseID uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_enterprise_name" json:"enterprise_id"`
	Enterprise   *Enterprise     `gorm:"foreignKey:EnterpriseID" json:"enterprise,omitempty"`
}
