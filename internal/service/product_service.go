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
	"go.uber.org/zap"
)

var maxProductPrice = decimal.NewFromInt(1000000)

type ProductService interface {
	CreateProduct(ctx context.Context, req *CreateProductRequest, actor model.Actor) (*model.Product, error)
	GetProducts(ctx context.Context, enterpriseID *uuid.UUID) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, req *AdjustStockRequest, actor model.Actor) (*model.StockMovement, error)
	GetMovements(ctx context.Context, id uuid.UUID) ([]model.StockMovement, error)
}

type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,min=2,max=255"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock" validate:"min=0,max=999999"`
	EnterpriseID uuid.UUID       `json:"enterprise_id" validate:"uuid_required"`
}

// AdjustStockRequest carries a signed delta: positive restocks, negative writes off.
type AdjustStockRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

type productService struct {
	store   repository.Store
	ledger  *StockLedger
	events  events.Publisher
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewProductService(store repository.Store, ledger *StockLedger, pub events.Publisher, log *zap.Logger, m *metrics.Metrics) ProductService {
	return &productService{store: store, ledger: ledger, events: pub, log: log, metrics: m, now: time.Now}
}

func validatePrice(price decimal.Decimal) error {
	switch {
	case !price.IsPositive():
		return apperror.Invalid("price must be greater than zero").WithField("price")
	case price.GreaterThan(maxProductPrice):
		return apperror.Invalid("price cannot exceed %s", maxProductPrice.StringFixed(2)).WithField("price")
	case !price.Equal(price.Round(2)):
		return apperror.Invalid("price cannot have more than 2 decimal places").WithField("price")
	}
	return nil
}

func (s *productService) CreateProduct(ctx context.Context, req *CreateProductRequest, actor model.Actor) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Invalid("%s", validator.FirstError(errs))
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	ok, err := s.store.Catalog().EnterpriseExists(ctx, req.EnterpriseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NotFound("enterprise %s not found", req.EnterpriseID).WithField("enterpriseId")
	}
	taken, err := s.store.Products().NameExists(ctx, req.EnterpriseID, req.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.Conflict("product %q already exists for this enterprise", req.Name).WithField("name")
	}

	product := &model.Product{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		EnterpriseID: req.EnterpriseID,
	}
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID

	var initial *model.StockMovement
	err = s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		if err := tx.Products().Create(ctx, product); err != nil {
			return err
		}
		if req.Stock == 0 {
			return nil
		}
		mv, err := s.ledger.Restock(ctx, tx, product.ID, req.Stock, actor)
		initial = mv
		return err
	})
	if err != nil {
		return nil, err
	}
	product.Stock = req.Stock

	s.log.Info("product created", zap.String("product_id", product.ID.String()), zap.String("name", product.Name), zap.String("user_id", actor.ID))
	evt := events.Event{
		Type:    events.TypeStockUpdate,
		Action:  "product_created",
		Data:    product,
		User:    actor,
		Message: fmt.Sprintf("%s created product '%s'", actor.Name, product.Name),
		At:      s.now(),
		Key:     product.ID.String(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn("publish product event", zap.Error(err))
	}
	if initial != nil {
		s.metrics.ObserveStock(string(initial.Type), string(initial.Reason), initial.Quantity)
	}
	return product, nil
}

func (s *productService) GetProducts(ctx context.Context, enterpriseID *uuid.UUID) ([]model.Product, error) {
	if enterpriseID != nil {
		return s.store.Products().FindByEnterprise(ctx, *enterpriseID)
	}
	return s.store.Products().FindAll(ctx)
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.store.Products().FindByID(ctx, id)
}

func (s *productService) AdjustStock(ctx context.Context, id uuid.UUID, req *AdjustStockRequest, actor model.Actor) (*model.StockMovement, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Invalid("stock change must not be zero").WithField("quantity")
	}

	var mv *model.StockMovement
	err := s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		var err error
		mv, err = s.ledger.Restock(ctx, tx, id, req.Quantity, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("stock adjusted",
		zap.String("product_id", id.String()),
		zap.Int("delta", req.Quantity),
		zap.Int("stock_after", mv.StockAfter),
		zap.String("user_id", actor.ID),
	)
	s.metrics.ObserveStock(string(mv.Type), string(mv.Reason), mv.Quantity)
	if err := s.events.Publish(ctx, stockEvent(mv, actor, s.now())); err != nil {
		s.log.Warn("publish stock event", zap.Error(err))
	}
	return mv, nil
}

func (s *productService) GetMovements(ctx context.Context, id uuid.UUID) ([]model.StockMovement, error) {
	if _, err := s.store.Products().FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Movements().FindByProduct(ctx, id)
}

func stockEvent(mv *model.StockMovement, actor model.Actor, at time.Time) events.Event {
	name := ""
	if mv.Product != nil {
		name = mv.Product.Name
	}
	verb := "added"
	if mv.Type == model.MovementOut {
		verb = "removed"
	}
	return events.Event{
		Type:   events.TypeStockUpdate,
		Action: string(mv.Reason),
		Data: map[string]interface{}{
			"product_id":   mv.ProductID,
			"product_name": name,
			"type":         mv.Type,
			"quantity":     mv.Quantity,
			"stock_after":  mv.StockAfter,
			"order_id":     mv.OrderID,
		},
		User:    actor,
		Message: fmt.Sprintf("%s %s %d units of '%s' (%s)", actor.Name, verb, mv.Quantity, name, mv.Type),
		At:      at,
		Key:     mv.ProductID.String(),
	}
}
