package model

// Role groups the privileges granted to a user at creation time.
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleAdmin    = "ADMIN"
	RoleOperator = "OPERATOR"
)

var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Full access including order deletion and user management",
	},
	{
		Code:        RoleOperator,
		Name:        "Operator",
		Description: "Places and manages orders, cannot delete orders or manage users",
	},
}

// OperatorExcluded lists the privileges the OPERATOR role does not receive.
var OperatorExcluded = map[string]bool{
	PrivOrderDelete: true,
	PrivUserCreate:  true,
}
