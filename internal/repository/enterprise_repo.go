package repository

import (
	"context"

	"go-order-ws/internal/model"
	"go-order-ws/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnterpriseRepository interface {
	Create(ctx context.Context, enterprise *model.Enterprise) error
	FindAll(ctx context.Context) ([]model.Enterprise, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Enterprise, error)
}

type enterpriseRepo struct {
	db *gorm.DB
}

func NewEnterpriseRepo(db *gorm.DB) EnterpriseRepository {
	return &enterpriseRepo{db}
}

func (r *enterpriseRepo) Create(ctx context.Context, enterprise *model.Enterprise) error {
	if err := r.db.WithContext(ctx).Create(enterprise).Error; err != nil {
		if IsDuplicateKey(err) {
			return apperror.Conflict("an enterprise with CNPJ %s already exists", enterprise.CNPJ).WithField("cnpj")
		}
		return err
	}
	return nil
}

func (r *enterpriseRepo) FindAll(ctx context.Context) ([]model.Enterprise, error) {
	var enterprises []model.Enterprise
	err := r.db.WithContext(ctx).Order("legal_name ASC").Find(&enterprises).Error
	return enterprises, err
}

func (r *enterpriseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Enterprise, error) {
	var enterprise model.Enterprise
	if err := r.db.WithContext(ctx).First(&enterprise, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, "enterprise %s not found", id)
	}
	return &enterprise, nil
}
