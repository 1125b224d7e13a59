package service

import (
	"context"
	"strings"

	"go-order-ws/internal/model"
	"go-order-ws/internal/repository"
	"go-order-ws/pkg/apperror"
	"go-order-ws/pkg/validator"

	"github.com/google/uuid"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest, actor model.Actor) (*model.Customer, error)
	GetCustomers(ctx context.Context) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
}

type CreateCustomerRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	CPF     string `json:"cpf" validate:"required,cpf"`
	Address string `json:"address"`
}

type customerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

// onlyDigits normalizes CPF and CNPJ so punctuation cannot defeat the unique index.
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *customerService) CreateCustomer(ctx context.Context, req *CreateCustomerRequest, actor model.Actor) (*model.Customer, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Invalid("%s", validator.FirstError(errs))
	}
	customer := &model.Customer{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:   req.Phone,
		CPF:     onlyDigits(req.CPF),
		Address: req.Address,
	}
	customer.CreatedBy = actor.ID
	customer.UpdatedBy = actor.ID
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) GetCustomers(ctx context.Context) ([]model.Customer, error) {
	return s.repo.FindAll(ctx)
}

func (s *customerService) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return s.repo.FindByID(ctx, id)
}
