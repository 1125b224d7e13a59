package model

import "time"

// Enterprise is the merchant that owns products and receives orders.
type Enterprise struct {
	BaseModel
	LegalName      string    `gorm:"type:varchar(255);not null" json:"legal_name"`
	TradeName      string    `gorm:"type:varchar(255);not null" json:"trade_name"`
	FoundationDate time.Time `gorm:"type:date" json:"foundation_date"`
	CNPJ           string    `gorm:"type:varchar(18);uniqueIndex;not null" json:"cnpj"`
	Address        string    `gorm:"type:text" json:"address"`
}
