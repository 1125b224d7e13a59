package service

import (
	"go-order-ws/internal/model"
	"go-order-ws/pkg/apperror"
)

// ParseStatus turns client input into a known status.
func ParseStatus(raw string) (model.OrderStatus, error) {
	s := model.OrderStatus(raw)
	if !s.Valid() {
		return "", apperror.Invalid("unknown order status %q", raw).WithField("status")
	}
	return s, nil
}

// ValidateTransition guards the order lifecycle: pending may become completed or cancelled,
// terminal states never move.
func ValidateTransition(from, to model.OrderStatus) error {
	if !to.Valid() {
		return apperror.Invalid("unknown order status %q", to).WithField("status")
	}
	if !from.CanTransitionTo(to) {
		return apperror.Invalid("invalid status transition from %s to %s", from, to).WithField("status")
	}
	return nil
}

// EnsureMutable rejects any edit of a completed or cancelled order.
func EnsureMutable(order *model.Order) error {
	switch order.Status {
	case model.OrderCompleted:
		return apperror.Invalid("order %s is completed and can no longer be changed", order.OrderNumber)
	case model.OrderCancelled:
		return apperror.Invalid("order %s is cancelled and can no longer be changed", order.OrderNumber)
	}
	return nil
}
