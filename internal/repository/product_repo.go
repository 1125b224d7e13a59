package repository

import (
	"context"

	"go-order-ws/internal/model"
	"go-order-ws/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindByIDForUpdate locks the product row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	NameExists(ctx context.Context, enterpriseID uuid.UUID, name string) (bool, error)
	// ApplyStockDelta adds delta to stock only if the result stays within [0, max].
	// It returns ErrStockGuard when the guard rejects the write.
	ApplyStockDelta(ctx context.Context, id uuid.UUID, delta, max int, updatedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if IsDuplicateKey(err) {
			return apperror.Conflict("product %q already exists for this enterprise", product.Name)
		}
		return err
	}
	return nil
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("enterprise_id = ?", enterpriseID).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Enterprise").First(&product, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, "product %s not found", id)
	}
	return &product, nil
}

func (r *productRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err, "product %s not found", id)
	}
	return &product, nil
}

func (r *productRepo) NameExists(ctx context.Context, enterpriseID uuid.UUID, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("enterprise_id = ? AND name = ?", enterpriseID, name).
		Count(&count).Error
	return count > 0, err
}

func (r *productRepo) ApplyStockDelta(ctx context.Context, id uuid.UUID, delta, max int, updatedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock + ? >= 0 AND stock + ? <= ?", id, delta, delta, max).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", delta),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockGuard
	}
	return nil
}
