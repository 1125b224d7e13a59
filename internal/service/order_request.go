package service

import (
	"time"

	"go-order-ws/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type OrderItemRequest struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type CreateOrderRequest struct {
	CustomerID   uuid.UUID          `json:"customer_id" validate:"uuid_required"`
	EnterpriseID uuid.UUID          `json:"enterprise_id" validate:"uuid_required"`
	OrderNumber  string             `json:"order_number"`
	OrderDate    string             `json:"order_date" validate:"required"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	Notes        *string            `json:"notes"`
	Items        []OrderItemRequest `json:"items"`
}

// UpdateOrderRequest is a partial patch: nil fields are left untouched. A non-nil Items
// replaces the whole item set.
type UpdateOrderRequest struct {
	OrderNumber  *string             `json:"order_number"`
	OrderDate    *string             `json:"order_date"`
	Status       *string             `json:"status"`
	CustomerID   *uuid.UUID          `json:"customer_id"`
	EnterpriseID *uuid.UUID          `json:"enterprise_id"`
	TotalAmount  *decimal.Decimal    `json:"total_amount"`
	Notes        *string             `json:"notes"`
	Items        *[]OrderItemRequest `json:"items"`
}

// ParseOrderDate accepts a calendar date or an RFC 3339 timestamp.
func ParseOrderDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperror.Invalid("order date %q must be formatted as YYYY-MM-DD", raw).WithField("orderDate")
}

func toItemInputs(items []OrderItemRequest) []OrderItemInput {
	out := make([]OrderItemInput, len(items))
	for i, it := range items {
		out[i] = OrderItemInput(it)
	}
	return out
}

func (r *CreateOrderRequest) submission() (*OrderSubmission, error) {
	date, err := ParseOrderDate(r.OrderDate)
	if err != nil {
		return nil, err
	}
	return &OrderSubmission{
		CustomerID:   r.CustomerID,
		EnterpriseID: r.EnterpriseID,
		OrderNumber:  r.OrderNumber,
		OrderDate:    date,
		TotalAmount:  r.TotalAmount,
		Notes:        r.Notes,
		Items:        toItemInputs(r.Items),
	}, nil
}
