package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "order:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivOrderCreate      = "order:create"
	PrivOrderUpdate      = "order:update"
	PrivOrderCancel      = "order:cancel"
	PrivOrderDelete      = "order:delete"
	PrivProductCreate    = "product:create"
	PrivProductRestock   = "product:restock"
	PrivCustomerCreate   = "customer:create"
	PrivEnterpriseCreate = "enterprise:create"
	PrivDashboardView    = "dashboard:view"
	PrivUserCreate       = "user:create"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	{Code: PrivOrderCreate, Name: "Create Order"},
	{Code: PrivOrderUpdate, Name: "Update Order"},
	{Code: PrivOrderCancel, Name: "Cancel Order"},
	{Code: PrivOrderDelete, Name: "Delete Order"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductRestock, Name: "Restock Product"},
	{Code: PrivCustomerCreate, Name: "Create Customer"},
	{Code: PrivEnterpriseCreate, Name: "Create Enterprise"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
	{Code: PrivUserCreate, Name: "Create User"},
}
