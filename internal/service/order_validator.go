package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go-order-ws/internal/repository"
	"go-order-ws/pkg/apperror"
	"go-order-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MaxItemQuantity      = 100
	MaxOrderQuantity     = 50
	MaxProductNameLength = 255
	MaxNotesLength       = 1000
)

// Tolerance bounds every money comparison. The difference must stay strictly below it.
var Tolerance = decimal.RequireFromString("0.01")

// OrderItemInput is one line of a submission, before it becomes a persisted OrderItem.
type OrderItemInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// OrderSubmission is a parsed create request.
type OrderSubmission struct {
	CustomerID   uuid.UUID
	EnterpriseID uuid.UUID
	OrderNumber  string
	OrderDate    time.Time
	TotalAmount  decimal.Decimal
	Notes        *string
	Items        []OrderItemInput
}

// OrderValidator decides whether a submission may be persisted. It never writes.
type OrderValidator struct {
	catalog       repository.CatalogReader
	minOrderValue decimal.Decimal
	now           func() time.Time
}

func NewOrderValidator(catalog repository.CatalogReader, minOrderValue decimal.Decimal, now func() time.Time) *OrderValidator {
	if now == nil {
		now = time.Now
	}
	return &OrderValidator{catalog: catalog, minOrderValue: minOrderValue, now: now}
}

func (v *OrderValidator) MinOrderValue() decimal.Decimal { return v.minOrderValue }

// ValidateSubmission runs every check a new order must pass, failing on the first violation.
func (v *OrderValidator) ValidateSubmission(ctx context.Context, sub *OrderSubmission) error {
	if err := v.RequireCustomer(ctx, sub.CustomerID); err != nil {
		return err
	}
	if err := v.RequireEnterprise(ctx, sub.EnterpriseID); err != nil {
		return err
	}
	if err := v.ValidateItems(ctx, sub.EnterpriseID, sub.Items, nil); err != nil {
		return err
	}
	if err := ValidateTotal(sub.Items, sub.TotalAmount); err != nil {
		return err
	}
	if err := v.ValidateMinimum(sub.TotalAmount); err != nil {
		return err
	}
	if err := v.ValidateOrderDate(sub.OrderDate); err != nil {
		return err
	}
	if err := ValidateOrderNumber(sub.OrderNumber); err != nil {
		return err
	}
	if err := ValidateNotes(sub.Notes); err != nil {
		return err
	}
	return CheckOrderNumberUnique(ctx, v.catalog, sub.OrderNumber, nil)
}

func (v *OrderValidator) RequireCustomer(ctx context.Context, id uuid.UUID) error {
	ok, err := v.catalog.CustomerExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("customer %s not found", id).WithField("customerId")
	}
	return nil
}

func (v *OrderValidator) RequireEnterprise(ctx context.Context, id uuid.UUID) error {
	ok, err := v.catalog.EnterpriseExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("enterprise %s not found", id).WithField("enterpriseId")
	}
	return nil
}

// ValidateItems checks an item set against itself and the live catalog. credit holds
// quantities already reserved by the order being edited, which count as available stock.
func (v *OrderValidator) ValidateItems(ctx context.Context, enterpriseID uuid.UUID, items []OrderItemInput, credit map[uuid.UUID]int) error {
	if len(items) == 0 {
		return apperror.Invalid("order must have at least one item").WithField("items")
	}
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if seen[item.ProductID] {
			return apperror.Invalid("order cannot contain duplicate products").WithField("items")
		}
		seen[item.ProductID] = true
	}

	total := 0
	for i, item := range items {
		if err := checkItemBounds(item); err != nil {
			return apperror.ForItem(i, err)
		}
		total += item.Quantity
	}
	if total > MaxOrderQuantity {
		return apperror.Invalid("total quantity of items cannot exceed %d, got %d", MaxOrderQuantity, total).WithField("items")
	}

	for i, item := range items {
		expected := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !withinTolerance(item.Subtotal, expected) {
			return apperror.ForItem(i, apperror.Invalid("incorrect subtotal, expected %s, got %s",
				expected.StringFixed(2), item.Subtotal.StringFixed(2)))
		}
	}

	for i, item := range items {
		if err := v.checkAgainstCatalog(ctx, enterpriseID, item, credit[item.ProductID]); err != nil {
			return apperror.ForItem(i, err)
		}
	}
	return nil
}

func checkItemBounds(item OrderItemInput) error {
	switch {
	case item.Quantity <= 0:
		return apperror.Invalid("quantity must be greater than zero")
	case item.Quantity > MaxItemQuantity:
		return apperror.Invalid("quantity cannot exceed %d units", MaxItemQuantity)
	case item.UnitPrice.IsNegative():
		return apperror.Invalid("unit price cannot be negative")
	case item.Subtotal.IsNegative():
		return apperror.Invalid("subtotal cannot be negative")
	case !isCents(item.UnitPrice):
		return apperror.Invalid("unit price cannot have more than 2 decimal places")
	case !isCents(item.Subtotal):
		return apperror.Invalid("subtotal cannot have more than 2 decimal places")
	case strings.TrimSpace(item.ProductName) == "":
		return apperror.Invalid("product name is required")
	case utf8.RuneCountInString(item.ProductName) > MaxProductNameLength:
		return apperror.Invalid("product name cannot exceed %d characters", MaxProductNameLength)
	}
	return nil
}

func (v *OrderValidator) checkAgainstCatalog(ctx context.Context, enterpriseID uuid.UUID, item OrderItemInput, credit int) error {
	product, err := v.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		return err
	}
	if product.EnterpriseID != enterpriseID {
		return apperror.Invalid("product %q does not belong to the specified enterprise", product.Name)
	}
	if !withinTolerance(item.UnitPrice, product.Price) {
		return apperror.Invalid("price mismatch for product %q: current price %s, submitted %s",
			product.Name, product.Price.StringFixed(2), item.UnitPrice.StringFixed(2))
	}
	if product.Name != item.ProductName {
		return apperror.Invalid("product name mismatch, expected %q, got %q", product.Name, item.ProductName)
	}
	if available := product.Stock + credit; available < item.Quantity {
		return apperror.Invalid("insufficient stock for product %q - available %d, requested %d",
			product.Name, available, item.Quantity)
	}
	return nil
}

// isCents reports whether d is representable in the 2-decimal money columns.
func isCents(d decimal.Decimal) bool { return d.Equal(d.Round(2)) }

// ValidateTotal requires total to match the sum of item subtotals.
func ValidateTotal(items []OrderItemInput, total decimal.Decimal) error {
	if !isCents(total) {
		return apperror.Invalid("total amount cannot have more than 2 decimal places").WithField("totalAmount")
	}
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Subtotal)
	}
	if !withinTolerance(sum, total) {
		return apperror.Invalid("total mismatch: expected %s, got %s", sum.StringFixed(2), total.StringFixed(2)).
			WithField("totalAmount")
	}
	return nil
}

func (v *OrderValidator) ValidateMinimum(total decimal.Decimal) error {
	if total.LessThan(v.minOrderValue) {
		return apperror.Invalid("minimum order value is %s, got %s",
			v.minOrderValue.StringFixed(2), total.StringFixed(2)).WithField("totalAmount")
	}
	return nil
}

// ValidateOrderDate accepts any date up to the end of the current day.
func (v *OrderValidator) ValidateOrderDate(date time.Time) error {
	now := v.now()
	y, m, d := now.Date()
	endOfDay := time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), now.Location())
	if date.After(endOfDay) {
		return apperror.Invalid("order date cannot be in the future").WithField("orderDate")
	}
	return nil
}

func ValidateOrderNumber(number string) error {
	switch {
	case strings.TrimSpace(number) == "":
		return apperror.Invalid("order number is required").WithField("orderNumber")
	case len(number) > validator.MaxOrderNumberLength:
		return apperror.Invalid("order number cannot exceed %d characters", validator.MaxOrderNumberLength).WithField("orderNumber")
	case !validator.IsOrderNumber(number):
		return apperror.Invalid("order number may only contain letters, digits and hyphens").WithField("orderNumber")
	}
	return nil
}

func ValidateNotes(notes *string) error {
	if notes != nil && utf8.RuneCountInString(*notes) > MaxNotesLength {
		return apperror.Invalid("notes cannot exceed %d characters", MaxNotesLength).WithField("notes")
	}
	return nil
}

// CheckOrderNumberUnique is run once before and again inside the unit of work; the unique
// index stays the final guard.
func CheckOrderNumberUnique(ctx context.Context, catalog repository.CatalogReader, number string, excludeID *uuid.UUID) error {
	taken, err := catalog.OrderNumberExists(ctx, number, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("an order with number %s already exists", number).WithField("orderNumber")
	}
	return nil
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerance)
}
