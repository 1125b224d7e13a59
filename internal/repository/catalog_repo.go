package repository

import (
	"context"

	"go-order-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogReader is the read-only ground truth consulted while validating orders.
type CatalogReader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	CustomerExists(ctx context.Context, id uuid.UUID) (bool, error)
	EnterpriseExists(ctx context.Context, id uuid.UUID) (bool, error)
	OrderNumberExists(ctx context.Context, orderNumber string, excludeID *uuid.UUID) (bool, error)
}

type catalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) CatalogReader {
	return &catalogRepo{db}
}

func (r *catalogRepo) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, "product %s not found", id)
	}
	return &product, nil
}

func (r *catalogRepo) exists(ctx context.Context, m interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(m).Where(query, args...).Limit(1).Count(&count).Error
	return count > 0, err
}

func (r *catalogRepo) CustomerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &model.Customer{}, "id = ?", id)
}

func (r *catalogRepo) EnterpriseExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, &model.Enterprise{}, "id = ?", id)
}

func (r *catalogRepo) OrderNumberExists(ctx context.Context, orderNumber string, excludeID *uuid.UUID) (bool, error) {
	if excludeID != nil {
		return r.exists(ctx, &model.Order{}, "order_number = ? AND id <> ?", orderNumber, *excludeID)
	}
	return r.exists(ctx, &model.Order{}, "order_number = ?", orderNumber)
}
