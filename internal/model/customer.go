package model

type Customer struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Email   string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone   string `gorm:"type:varchar(20)" json:"phone"`
	CPF     string `gorm:"type:varchar(14);uniqueIndex;not null" json:"cpf"`
	Address string `gorm:"type:text" json:"address"`
}
