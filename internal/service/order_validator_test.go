package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go-order-ws/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) submission(number string, items ...OrderItemRequest) *OrderSubmission {
	req := f.request(number, items...)
	date, err := ParseOrderDate(req.OrderDate)
	if err != nil {
		panic(err)
	}
	return &OrderSubmission{
		CustomerID:   req.CustomerID,
		EnterpriseID: req.EnterpriseID,
		OrderNumber:  req.OrderNumber,
		OrderDate:    date,
		TotalAmount:  req.TotalAmount,
		Items:        toItemInputs(req.Items),
	}
}

func TestValidateSubmissionAccepts(t *testing.T) {
	f := newFixture(t)
	sub := f.submission("ORD-1", f.item(f.mouse, "Mouse", 2, "10.00"), f.item(f.keyboard, "Keyboard", 1, "25.50"))

	assert.NoError(t, f.validator.ValidateSubmission(context.Background(), sub))
}

func TestValidateSubmissionFailures(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		mutate  func(s *OrderSubmission)
		kind    apperror.Kind
		message string
	}{
		{
			name:    "unknown customer",
			mutate:  func(s *OrderSubmission) { s.CustomerID = uuid.New() },
			kind:    apperror.KindNotFound,
			message: "customer",
		},
		{
			name:    "unknown enterprise",
			mutate:  func(s *OrderSubmission) { s.EnterpriseID = uuid.New() },
			kind:    apperror.KindNotFound,
			message: "enterprise",
		},
		{
			name:    "no items",
			mutate:  func(s *OrderSubmission) { s.Items = nil },
			kind:    apperror.KindInvalidRequest,
			message: "at least one item",
		},
		{
			name: "duplicate product",
			mutate: func(s *OrderSubmission) {
				s.Items = append(s.Items, s.Items[0])
			},
			kind:    apperror.KindInvalidRequest,
			message: "duplicate products",
		},
		{
			name:    "zero quantity",
			mutate:  func(s *OrderSubmission) { s.Items[0].Quantity = 0 },
			kind:    apperror.KindInvalidRequest,
			message: "Item 1: quantity must be greater than zero",
		},
		{
			name:    "item quantity ceiling",
			mutate:  func(s *OrderSubmission) { s.Items[0].Quantity = MaxItemQuantity + 1 },
			kind:    apperror.KindInvalidRequest,
			message: "Item 1: quantity cannot exceed 100",
		},
		{
			name: "order quantity ceiling",
			mutate: func(s *OrderSubmission) {
				s.Items[0].Quantity = 30
				s.Items[1].Quantity = 21
			},
			kind:    apperror.KindInvalidRequest,
			message: "total quantity of items cannot exceed 50",
		},
		{
			name:    "blank product name",
			mutate:  func(s *OrderSubmission) { s.Items[1].ProductName = "  " },
			kind:    apperror.KindInvalidRequest,
			message: "Item 2: product name is required",
		},
		{
			name:    "negative unit price",
			mutate:  func(s *OrderSubmission) { s.Items[0].UnitPrice = dec("-10.00") },
			kind:    apperror.KindInvalidRequest,
			message: "Item 1: unit price cannot be negative",
		},
		{
			name:    "negative subtotal",
			mutate:  func(s *OrderSubmission) { s.Items[1].Subtotal = dec("-25.50") },
			kind:    apperror.KindInvalidRequest,
			message: "Item 2: subtotal cannot be negative",
		},
		{
			name:    "long product name",
			mutate:  func(s *OrderSubmission) { s.Items[0].ProductName = strings.Repeat("m", MaxProductNameLength+1) },
			kind:    apperror.KindInvalidRequest,
			message: "Item 1: product name cannot exceed 255 characters",
		},
		{
			name:    "unit price below a cent",
			mutate:  func(s *OrderSubmission) { s.Items[1].UnitPrice = dec("25.504") },
			kind:    apperror.KindInvalidRequest,
			message: "Item 2: unit price cannot have more than 2 decimal places",
		},
		{
			name:    "subtotal below a cent",
			mutate:  func(s *OrderSubmission) { s.Items[0].Subtotal = dec("20.001") },
			kind:    apperror.KindInvalidRequest,
			message: "Item 1: subtotal cannot have more than 2 decimal places",
		},
		{
			name:    "total below a cent",
			mutate:  func(s *OrderSubmission) { s.TotalAmount = dec("45.504") },
			kind:    apperror.KindInvalidRequest,
			message: "total amount cannot have more than 2 decimal places",
		},
		{
			name:    "subtotal off",
			mutate:  func(s *OrderSubmission) { s.Items[0].Subtotal = dec("21.00") },
			kind:    apperror.KindInvalidRequest,
			message: "Item 1: incorrect subtotal",
		},
		{
			name:    "foreign product",
			mutate:  func(s *OrderSubmission) { s.Items[1].ProductID = f.foreign },
			kind:    apperror.KindInvalidRequest,
			message: "Item 2: product \"Monitor\" does not belong",
		},
		{
			name:    "missing product",
			mutate:  func(s *OrderSubmission) { s.Items[1].ProductID = uuid.New() },
			kind:    apperror.KindNotFound,
			message: "Item 2:",
		},
		{
			name:    "renamed product",
			mutate:  func(s *OrderSubmission) { s.Items[0].ProductName = "Mice" },
			kind:    apperror.KindInvalidRequest,
			message: "Item 1: product name mismatch",
		},
		{
			name:    "total mismatch",
			mutate:  func(s *OrderSubmission) { s.TotalAmount = dec("45.49") },
			kind:    apperror.KindInvalidRequest,
			message: "total mismatch: expected 45.50, got 45.49",
		},
		{
			name:    "future date",
			mutate:  func(s *OrderSubmission) { s.OrderDate = testNow.AddDate(0, 0, 1) },
			kind:    apperror.KindInvalidRequest,
			message: "order date cannot be in the future",
		},
		{
			name:    "malformed order number",
			mutate:  func(s *OrderSubmission) { s.OrderNumber = "ORD 1" },
			kind:    apperror.KindInvalidRequest,
			message: "letters, digits and hyphens",
		},
		{
			name:    "long order number",
			mutate:  func(s *OrderSubmission) { s.OrderNumber = strings.Repeat("A", 51) },
			kind:    apperror.KindInvalidRequest,
			message: "cannot exceed 50 characters",
		},
		{
			name: "long notes",
			mutate: func(s *OrderSubmission) {
				notes := strings.Repeat("n", MaxNotesLength+1)
				s.Notes = &notes
			},
			kind:    apperror.KindInvalidRequest,
			message: "notes cannot exceed 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := f.submission("ORD-1", f.item(f.mouse, "Mouse", 2, "10.00"), f.item(f.keyboard, "Keyboard", 1, "25.50"))
			tt.mutate(sub)

			err := f.validator.ValidateSubmission(context.Background(), sub)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestValidateSubmissionMinimumOrderValue(t *testing.T) {
	f := newFixture(t)
	cheap := f.store.addProduct(f.enterprise, "Sticker", "1.00", 50)
	sub := f.submission("ORD-1", f.item(cheap, "Sticker", 4, "1.00"))

	err := f.validator.ValidateSubmission(context.Background(), sub)

	require.ErrorIs(t, err, apperror.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "minimum order value is 5.00, got 4.00")
}

func TestValidateSubmissionReportsFirstFailingItem(t *testing.T) {
	f := newFixture(t)
	sub := f.submission("ORD-1",
		f.item(f.mouse, "Mouse", 6, "10.00"),
		f.item(f.keyboard, "Keyboard", 11, "25.50"),
	)

	err := f.validator.ValidateSubmission(context.Background(), sub)

	require.Error(t, err)
	assert.Equal(t, `Item 1: insufficient stock for product "Mouse" - available 5, requested 6`, err.Error())
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "items[0]", appErr.Field)
}

func TestValidateSubmissionDuplicateNumber(t *testing.T) {
	f := newFixture(t)
	createPending(t, f, "ORD-1", f.item(f.mouse, "Mouse", 1, "10.00"))

	err := f.validator.ValidateSubmission(context.Background(), f.submission("ORD-1", f.item(f.mouse, "Mouse", 1, "10.00")))

	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestValidateItemsCountsCredit(t *testing.T) {
	f := newFixture(t)
	items := toItemInputs([]OrderItemRequest{f.item(f.mouse, "Mouse", 7, "10.00")})

	err := f.validator.ValidateItems(context.Background(), f.enterprise, items, nil)
	require.ErrorIs(t, err, apperror.ErrInvalidRequest)

	err = f.validator.ValidateItems(context.Background(), f.enterprise, items, map[uuid.UUID]int{f.mouse: 2})
	assert.NoError(t, err)
}

func TestToleranceIsStrict(t *testing.T) {
	assert.True(t, withinTolerance(dec("20.00"), dec("20.009")))
	assert.False(t, withinTolerance(dec("20.00"), dec("19.99")))
	assert.False(t, withinTolerance(dec("20.00"), dec("20.01")))
}

func TestValidateOrderDateEndOfDay(t *testing.T) {
	v := NewOrderValidator(nil, dec("0"), func() time.Time { return testNow })

	assert.NoError(t, v.ValidateOrderDate(time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC)))
	assert.NoError(t, v.ValidateOrderDate(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Error(t, v.ValidateOrderDate(time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)))
}

func TestParseOrderDate(t *testing.T) {
	d, err := ParseOrderDate("2024-05-10")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Day())

	_, err = ParseOrderDate("2024-05-10T08:30:00Z")
	assert.NoError(t, err)

	_, err = ParseOrderDate("10/05/2024")
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)
}
