package repository

import (
	"context"

	"go-order-ws/internal/model"
	"go-order-ws/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	// Create inserts the header only; items go through CreateItems.
	Create(ctx context.Context, order *model.Order) error
	CreateItems(ctx context.Context, items []model.OrderItem) error
	DeleteItems(ctx context.Context, orderID uuid.UUID) error
	// Update persists scalar header fields.
	Update(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindAll(ctx context.Context) ([]model.Order, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Order, error)
	FindByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]model.Order, error)
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func duplicateOrderNumber(err error, orderNumber string) error {
	if IsDuplicateKey(err) {
		return apperror.Conflict("an order with number %s already exists", orderNumber).WithField("orderNumber")
	}
	return err
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
	return duplicateOrderNumber(err, order.OrderNumber)
}

func (r *orderRepo) CreateItems(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *orderRepo) DeleteItems(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error
}

func (r *orderRepo) Update(ctx context.Context, order *model.Order) error {
	err := r.db.WithContext(ctx).Model(order).
		Select("order_number", "order_date", "status", "customer_id", "enterprise_id", "total_amount", "notes", "updated_by", "updated_at").
		Updates(order).Error
	return duplicateOrderNumber(err, order.OrderNumber)
}

func (r *orderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Order{}, "id = ?", id).Error
}

func (r *orderRepo) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Enterprise").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.withRelations(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, "order %s not found", id)
	}
	return &order, nil
}

func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, "order %s not found", id)
	}
	return &order, nil
}

func (r *orderRepo) FindAll(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.withRelations(ctx).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := r.withRelations(ctx).Where("customer_id = ?", customerID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	err := r.withRelations(ctx).Where("enterprise_id = ?", enterpriseID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}
