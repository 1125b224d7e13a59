package service

import (
	"context"
	"strings"
	"time"

	"go-order-ws/internal/model"
	"go-order-ws/internal/repository"
	"go-order-ws/pkg/apperror"
	"go-order-ws/pkg/validator"

	"github.com/google/uuid"
)

type EnterpriseService interface {
	CreateEnterprise(ctx context.Context, req *CreateEnterpriseRequest, actor model.Actor) (*model.Enterprise, error)
	GetEnterprises(ctx context.Context) ([]model.Enterprise, error)
	GetEnterprise(ctx context.Context, id uuid.UUID) (*model.Enterprise, error)
}

type CreateEnterpriseRequest struct {
	LegalName      string `json:"legal_name" validate:"required,min=2,max=255"`
	TradeName      string `json:"trade_name" validate:"required,min=2,max=255"`
	FoundationDate string `json:"foundation_date" validate:"required"`
	CNPJ           string `json:"cnpj" validate:"required,cnpj"`
	Address        string `json:"address"`
}

type enterpriseService struct {
	repo repository.EnterpriseRepository
	now  func() time.Time
}

func NewEnterpriseService(repo repository.EnterpriseRepository) EnterpriseService {
	return &enterpriseService{repo: repo, now: time.Now}
}

func (s *enterpriseService) CreateEnterprise(ctx context.Context, req *CreateEnterpriseRequest, actor model.Actor) (*model.Enterprise, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Invalid("%s", validator.FirstError(errs))
	}
	founded, err := time.Parse(dateLayout, req.FoundationDate)
	if err != nil {
		return nil, apperror.Invalid("foundation date must be formatted as YYYY-MM-DD").WithField("foundationDate")
	}
	if founded.After(s.now()) {
		return nil, apperror.Invalid("foundation date cannot be in the future").WithField("foundationDate")
	}

	enterprise := &model.Enterprise{
		LegalName:      strings.TrimSpace(req.LegalName),
		TradeName:      strings.TrimSpace(req.TradeName),
		FoundationDate: founded,
		CNPJ:           onlyDigits(req.CNPJ),
		Address:        req.Address,
	}
	enterprise.CreatedBy = actor.ID
	enterprise.UpdatedBy = actor.ID
	if err := s.repo.Create(ctx, enterprise); err != nil {
		return nil, err
	}
	return enterprise, nil
}

func (s *enterpriseService) GetEnterprises(ctx context.Context) ([]model.Enterprise, error) {
	return s.repo.FindAll(ctx)
}

func (s *enterpriseService) GetEnterprise(ctx context.Context, id uuid.UUID) (*model.Enterprise, error) {
	return s.repo.FindByID(ctx, id)
}
