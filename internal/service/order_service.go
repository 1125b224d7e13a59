package service

import (
	"context"
	"fmt"
	"time"

	"go-order-ws/internal/events"
	"go-order-ws/internal/model"
	"go-order-ws/internal/repository"
	"go-order-ws/pkg/apperror"
	"go-order-ws/pkg/metrics"
	"go-order-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderService interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest, actor model.Actor) (*model.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, req *UpdateOrderRequest, actor model.Actor) (*model.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID, actor model.Actor) error
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Order, error)
	ListOrdersByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]model.Order, error)
}

type OrderServiceDeps struct {
	Store     repository.Store
	Validator *OrderValidator
	Ledger    *StockLedger
	Events    events.Publisher
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Tracer    trace.Tracer
	Clock     func() time.Time
}

type orderService struct {
	store     repository.Store
	validator *OrderValidator
	ledger    *StockLedger
	events    events.Publisher
	log       *zap.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

func NewOrderService(deps OrderServiceDeps) OrderService {
	s := &orderService{
		store:     deps.Store,
		validator: deps.Validator,
		ledger:    deps.Ledger,
		events:    deps.Events,
		log:       deps.Logger,
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
		now:       deps.Clock,
	}
	if s.ledger == nil {
		s.ledger = NewStockLedger()
	}
	if s.events == nil {
		s.events = events.Nop()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("go-order-ws/service")
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// begin opens a span and returns the func that closes it with the operation's outcome.
func (s *orderService) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	started := s.now()
	ctx, span := s.tracer.Start(ctx, "order."+operation, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		s.metrics.ObserveOrder(operation, started, err)
	}
}

func (s *orderService) CreateOrder(ctx context.Context, req *CreateOrderRequest, actor model.Actor) (_ *model.Order, err error) {
	ctx, end := s.begin(ctx, "create", attribute.String("order.number", req.OrderNumber))
	defer func() { end(err) }()

	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Invalid("%s", validator.FirstError(errs))
	}
	sub, err := req.submission()
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateSubmission(ctx, sub); err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderNumber:  sub.OrderNumber,
		OrderDate:    sub.OrderDate,
		Status:       model.OrderPending,
		CustomerID:   sub.CustomerID,
		EnterpriseID: sub.EnterpriseID,
		TotalAmount:  sub.TotalAmount,
		Notes:        sub.Notes,
	}
	order.ID = uuid.New()
	order.CreatedBy = actor.ID
	order.UpdatedBy = actor.ID

	var moves []*model.StockMovement
	err = s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		if err := CheckOrderNumberUnique(ctx, tx.Catalog(), order.OrderNumber, nil); err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		items := buildItems(order.ID, sub.Items, actor)
		if err := tx.Orders().CreateItems(ctx, items); err != nil {
			return err
		}
		reserved, err := s.reserveAll(ctx, tx, order.ID, items, actor)
		moves = reserved
		return err
	})
	if err != nil {
		return nil, err
	}

	created, err := s.store.Orders().FindByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("order created",
		zap.String("order_id", created.ID.String()),
		zap.String("order_number", created.OrderNumber),
		zap.String("total", created.TotalAmount.StringFixed(2)),
		zap.Int("items", len(created.Items)),
		zap.String("user_id", actor.ID),
	)
	s.publish(ctx, events.TypeOrderCreated, "", created, actor,
		fmt.Sprintf("%s created order %s", actor.Name, created.OrderNumber), moves)
	return created, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, id uuid.UUID, req *UpdateOrderRequest, actor model.Actor) (_ *model.Order, err error) {
	ctx, end := s.begin(ctx, "update", attribute.String("order.id", id.String()))
	defer func() { end(err) }()

	existing, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.planUpdate(ctx, existing, req)
	if err != nil {
		return nil, err
	}

	var moves []*model.StockMovement
	err = s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		current, err := tx.Orders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := EnsureMutable(current); err != nil {
			return err
		}
		if plan.orderNumber != current.OrderNumber {
			if err := CheckOrderNumberUnique(ctx, tx.Catalog(), plan.orderNumber, &current.ID); err != nil {
				return err
			}
		}

		active := current.Items
		if plan.items != nil {
			released, err := s.releaseAll(ctx, tx, current.ID, current.Items, actor)
			moves = append(moves, released...)
			if err != nil {
				return err
			}
			if err := tx.Orders().DeleteItems(ctx, current.ID); err != nil {
				return err
			}
			active = buildItems(current.ID, plan.items, actor)
			if err := tx.Orders().CreateItems(ctx, active); err != nil {
				return err
			}
			reserved, err := s.reserveAll(ctx, tx, current.ID, active, actor)
			moves = append(moves, reserved...)
			if err != nil {
				return err
			}
		}
		if plan.status == model.OrderCancelled {
			released, err := s.releaseAll(ctx, tx, current.ID, active, actor)
			moves = append(moves, released...)
			if err != nil {
				return err
			}
		}

		current.OrderNumber = plan.orderNumber
		current.OrderDate = plan.orderDate
		current.Status = plan.status
		current.CustomerID = plan.customerID
		current.EnterpriseID = plan.enterpriseID
		current.TotalAmount = plan.total
		current.Notes = plan.notes
		current.UpdatedBy = actor.ID
		return tx.Orders().Update(ctx, current)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	evt := events.TypeOrderUpdated
	if updated.Status == model.OrderCancelled {
		evt = events.TypeOrderCancelled
	}
	s.log.Info("order updated",
		zap.String("order_id", id.String()),
		zap.String("status", string(updated.Status)),
		zap.Bool("items_replaced", plan.items != nil),
		zap.String("user_id", actor.ID),
	)
	s.publish(ctx, evt, "", updated, actor,
		fmt.Sprintf("%s updated order %s", actor.Name, updated.OrderNumber), moves)
	return updated, nil
}

// updatePlan is the fully validated target state of an order patch.
type updatePlan struct {
	orderNumber  string
	orderDate    time.Time
	status       model.OrderStatus
	customerID   uuid.UUID
	enterpriseID uuid.UUID
	total        decimal.Decimal
	notes        *string
	items        []OrderItemInput
}

func (s *orderService) planUpdate(ctx context.Context, existing *model.Order, req *UpdateOrderRequest) (*updatePlan, error) {
	if err := EnsureMutable(existing); err != nil {
		return nil, err
	}
	plan := &updatePlan{
		orderNumber:  existing.OrderNumber,
		orderDate:    existing.OrderDate,
		status:       existing.Status,
		customerID:   existing.CustomerID,
		enterpriseID: existing.EnterpriseID,
		total:        existing.TotalAmount,
		notes:        existing.Notes,
	}

	if req.Status != nil {
		next, err := ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		if next != existing.Status {
			if err := ValidateTransition(existing.Status, next); err != nil {
				return nil, err
			}
			plan.status = next
		}
	}

	if req.Items != nil {
		plan.items = toItemInputs(*req.Items)
	}

	if req.OrderNumber != nil && *req.OrderNumber != existing.OrderNumber {
		if err := ValidateOrderNumber(*req.OrderNumber); err != nil {
			return nil, err
		}
		if err := CheckOrderNumberUnique(ctx, s.validator.catalog, *req.OrderNumber, &existing.ID); err != nil {
			return nil, err
		}
		plan.orderNumber = *req.OrderNumber
	}

	if req.CustomerID != nil && *req.CustomerID != existing.CustomerID {
		if err := s.validator.RequireCustomer(ctx, *req.CustomerID); err != nil {
			return nil, err
		}
		plan.customerID = *req.CustomerID
	}
	if req.EnterpriseID != nil && *req.EnterpriseID != existing.EnterpriseID {
		if err := s.validator.RequireEnterprise(ctx, *req.EnterpriseID); err != nil {
			return nil, err
		}
		plan.enterpriseID = *req.EnterpriseID
		if plan.items == nil {
			if err := s.checkItemsBelongTo(ctx, existing.Items, plan.enterpriseID); err != nil {
				return nil, err
			}
		}
	}

	if plan.items != nil {
		if err := s.validator.ValidateItems(ctx, plan.enterpriseID, plan.items, existing.ReservedQuantities()); err != nil {
			return nil, err
		}
	}

	if req.OrderDate != nil {
		date, err := ParseOrderDate(*req.OrderDate)
		if err != nil {
			return nil, err
		}
		if err := s.validator.ValidateOrderDate(date); err != nil {
			return nil, err
		}
		plan.orderDate = date
	}
	if req.Notes != nil {
		if err := ValidateNotes(req.Notes); err != nil {
			return nil, err
		}
		plan.notes = req.Notes
	}

	if req.TotalAmount != nil || plan.items != nil {
		lines := plan.items
		if lines == nil {
			lines = itemInputsOf(existing.Items)
		}
		if req.TotalAmount != nil {
			plan.total = *req.TotalAmount
		} else {
			plan.total = sumSubtotals(lines)
		}
		if err := ValidateTotal(lines, plan.total); err != nil {
			return nil, err
		}
		if err := s.validator.ValidateMinimum(plan.total); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func (s *orderService) checkItemsBelongTo(ctx context.Context, items []model.OrderItem, enterpriseID uuid.UUID) error {
	for i, item := range items {
		product, err := s.validator.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return apperror.ForItem(i, err)
		}
		if product.EnterpriseID != enterpriseID {
			return apperror.ForItem(i, apperror.Invalid("product %q does not belong to the specified enterprise", product.Name))
		}
	}
	return nil
}

func (s *orderService) CancelOrder(ctx context.Context, id uuid.UUID, actor model.Actor) (_ *model.Order, err error) {
	ctx, end := s.begin(ctx, "cancel", attribute.String("order.id", id.String()))
	defer func() { end(err) }()

	var moves []*model.StockMovement
	err = s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := ValidateTransition(order.Status, model.OrderCancelled); err != nil {
			return err
		}
		released, err := s.releaseAll(ctx, tx, order.ID, order.Items, actor)
		moves = released
		if err != nil {
			return err
		}
		order.Status = model.OrderCancelled
		order.UpdatedBy = actor.ID
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	cancelled, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("order cancelled", zap.String("order_id", id.String()), zap.String("user_id", actor.ID))
	s.publish(ctx, events.TypeOrderCancelled, "", cancelled, actor,
		fmt.Sprintf("%s cancelled order %s", actor.Name, cancelled.OrderNumber), moves)
	return cancelled, nil
}

// DeleteOrder hard-deletes a pending or cancelled order. Pending orders give their
// reservation back first; cancelled ones already did.
func (s *orderService) DeleteOrder(ctx context.Context, id uuid.UUID, actor model.Actor) (err error) {
	ctx, end := s.begin(ctx, "delete", attribute.String("order.id", id.String()))
	defer func() { end(err) }()

	var (
		deleted *model.Order
		moves   []*model.StockMovement
	)
	err = s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == model.OrderCompleted {
			return apperror.Invalid("order %s is completed and cannot be deleted", order.OrderNumber)
		}
		if order.Status == model.OrderPending {
			released, err := s.releaseAll(ctx, tx, order.ID, order.Items, actor)
			moves = released
			if err != nil {
				return err
			}
		}
		if err := tx.Orders().DeleteItems(ctx, order.ID); err != nil {
			return err
		}
		deleted = order
		return tx.Orders().Delete(ctx, order.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("order deleted", zap.String("order_id", id.String()), zap.String("user_id", actor.ID))
	s.publish(ctx, events.TypeOrderDeleted, "", deleted, actor,
		fmt.Sprintf("%s deleted order %s", actor.Name, deleted.OrderNumber), moves)
	return nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.store.Orders().FindByID(ctx, id)
}

func (s *orderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.store.Orders().FindAll(ctx)
}

func (s *orderService) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Order, error) {
	if err := s.validator.RequireCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.store.Orders().FindByCustomer(ctx, customerID)
}

func (s *orderService) ListOrdersByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]model.Order, error) {
	if err := s.validator.RequireEnterprise(ctx, enterpriseID); err != nil {
		return nil, err
	}
	return s.store.Orders().FindByEnterprise(ctx, enterpriseID)
}

func (s *orderService) reserveAll(ctx context.Context, tx repository.Store, orderID uuid.UUID, items []model.OrderItem, actor model.Actor) ([]*model.StockMovement, error) {
	moves := make([]*model.StockMovement, 0, len(items))
	for i, item := range items {
		mv, err := s.ledger.Reserve(ctx, tx, item.ProductID, item.Quantity, &orderID, actor)
		if err != nil {
			return moves, apperror.ForItem(i, err)
		}
		moves = append(moves, mv)
	}
	return moves, nil
}

func (s *orderService) releaseAll(ctx context.Context, tx repository.Store, orderID uuid.UUID, items []model.OrderItem, actor model.Actor) ([]*model.StockMovement, error) {
	moves := make([]*model.StockMovement, 0, len(items))
	for i, item := range items {
		mv, err := s.ledger.Release(ctx, tx, item.ProductID, item.Quantity, &orderID, actor)
		if err != nil {
			return moves, apperror.ForItem(i, err)
		}
		moves = append(moves, mv)
	}
	return moves, nil
}

// publish runs after commit only; delivery failures are logged and never undo the write.
func (s *orderService) publish(ctx context.Context, eventType, action string, order *model.Order, actor model.Actor, message string, moves []*model.StockMovement) {
	now := s.now()
	evt := events.Event{
		Type:    eventType,
		Action:  action,
		Data:    order,
		User:    actor,
		Message: message,
		At:      now,
		Key:     order.ID.String(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn("publish order event", zap.String("type", eventType), zap.Error(err))
	}
	for _, mv := range moves {
		s.metrics.ObserveStock(string(mv.Type), string(mv.Reason), mv.Quantity)
		if err := s.events.Publish(ctx, stockEvent(mv, actor, now)); err != nil {
			s.log.Warn("publish stock event", zap.String("product_id", mv.ProductID.String()), zap.Error(err))
		}
	}
}

func buildItems(orderID uuid.UUID, inputs []OrderItemInput, actor model.Actor) []model.OrderItem {
	items := make([]model.OrderItem, len(inputs))
	for i, in := range inputs {
		items[i] = model.OrderItem{
			OrderID:     orderID,
			ProductID:   in.ProductID,
			ProductName: in.ProductName,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Subtotal:    in.Subtotal,
		}
		items[i].CreatedBy = actor.ID
		items[i].UpdatedBy = actor.ID
	}
	return items
}

func itemInputsOf(items []model.OrderItem) []OrderItemInput {
	out := make([]OrderItemInput, len(items))
	for i, it := range items {
		out[i] = OrderItemInput{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		}
	}
	return out
}

func sumSubtotals(items []OrderItemInput) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}
