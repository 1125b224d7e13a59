package service

import (
	"context"
	"errors"

	"go-order-ws/internal/model"
	"go-order-ws/internal/repository"
	"go-order-ws/pkg/apperror"

	"github.com/google/uuid"
)

// StockChange describes one signed adjustment of a product's stock.
type StockChange struct {
	ProductID uuid.UUID
	Delta     int
	Reason    model.MovementReason
	OrderID   *uuid.UUID
	Actor     model.Actor
}

// StockLedger is the only writer of Product.Stock. Every call runs against the
// transaction-bound store handed in by the caller.
type StockLedger struct{}

func NewStockLedger() *StockLedger {
	return &StockLedger{}
}

// ApplyDelta locks the product row, checks the resulting stock stays within
// [0, model.MaxStock], writes it with a guarded update and logs the movement.
func (l *StockLedger) ApplyDelta(ctx context.Context, tx repository.Store, change StockChange) (*model.StockMovement, error) {
	if change.Delta == 0 {
		return nil, apperror.Invalid("stock change must not be zero").WithField("quantity")
	}

	product, err := tx.Products().FindByIDForUpdate(ctx, change.ProductID)
	if err != nil {
		return nil, err
	}

	next := product.Stock + change.Delta
	if next < 0 {
		return nil, insufficientStock(product, -change.Delta)
	}
	if next > model.MaxStock {
		return nil, stockCeiling(product, change.Delta)
	}

	if err := tx.Products().ApplyStockDelta(ctx, product.ID, change.Delta, model.MaxStock, change.Actor.ID); err != nil {
		// The row moved under the lock check; report the bound the delta heads for.
		if errors.Is(err, repository.ErrStockGuard) {
			if change.Delta > 0 {
				return nil, stockCeiling(product, change.Delta)
			}
			return nil, insufficientStock(product, -change.Delta)
		}
		return nil, err
	}
	product.Stock = next

	movement := &model.StockMovement{
		ProductID:  product.ID,
		Type:       model.MovementIn,
		Quantity:   change.Delta,
		Reason:     change.Reason,
		OrderID:    change.OrderID,
		StockAfter: next,
	}
	if change.Delta < 0 {
		movement.Type = model.MovementOut
		movement.Quantity = -change.Delta
	}
	movement.CreatedBy = change.Actor.ID
	movement.UpdatedBy = change.Actor.ID
	if err := tx.Movements().Create(ctx, movement); err != nil {
		return nil, err
	}
	movement.Product = product
	return movement, nil
}

func insufficientStock(product *model.Product, requested int) error {
	return apperror.Invalid("insufficient stock for product %q - available %d, requested %d",
		product.Name, product.Stock, requested)
}

func stockCeiling(product *model.Product, adding int) error {
	return apperror.Invalid("stock for product %q cannot exceed %d - current %d, adding %d",
		product.Name, model.MaxStock, product.Stock, adding)
}

// Reserve takes qty units out of stock on behalf of an order.
func (l *StockLedger) Reserve(ctx context.Context, tx repository.Store, productID uuid.UUID, qty int, orderID *uuid.UUID, actor model.Actor) (*model.StockMovement, error) {
	if qty <= 0 {
		return nil, apperror.Invalid("reserve quantity must be positive, got %d", qty).WithField("quantity")
	}
	return l.ApplyDelta(ctx, tx, StockChange{ProductID: productID, Delta: -qty, Reason: model.ReasonReserve, OrderID: orderID, Actor: actor})
}

// Release returns qty units previously reserved by an order.
func (l *StockLedger) Release(ctx context.Context, tx repository.Store, productID uuid.UUID, qty int, orderID *uuid.UUID, actor model.Actor) (*model.StockMovement, error) {
	if qty <= 0 {
		return nil, apperror.Invalid("release quantity must be positive, got %d", qty).WithField("quantity")
	}
	return l.ApplyDelta(ctx, tx, StockChange{ProductID: productID, Delta: qty, Reason: model.ReasonRelease, OrderID: orderID, Actor: actor})
}

// Restock applies a manual adjustment: positive deltas are restocks, negative ones write-offs.
func (l *StockLedger) Restock(ctx context.Context, tx repository.Store, productID uuid.UUID, delta int, actor model.Actor) (*model.StockMovement, error) {
	reason := model.ReasonRestock
	if delta < 0 {
		reason = model.ReasonAdjust
	}
	return l.ApplyDelta(ctx, tx, StockChange{ProductID: productID, Delta: delta, Reason: reason, Actor: actor})
}
