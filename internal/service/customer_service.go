package service

import (
	"context"

	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CustomerRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Email       string          `json:"email" validate:"omitempty,email"`
	Phone       string          `json:"phone" validate:"max=20"`
	Address     string          `json:"address"`
	CreditLimit decimal.Decimal `json:"credit_limit" validate:"money"`
	IsActive    *bool           `json:"is_active"`
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, req *CustomerRequest, actor *model.Actor) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, req *CustomerRequest, actor *model.Actor) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*model.CustomerSummary, error)
	ListCustomers(ctx context.Context, search string) ([]model.Customer, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: repo}
}

func (s *customerService) CreateCustomer(ctx context.Context, req *CustomerRequest, actor *model.Actor) (*model.Customer, error) {
	const op = "CustomerService.CreateCustomer"

	if err := checkStruct(op, req); err != nil {
		return nil, err
	}

	customer := &model.Customer{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		CreditLimit: req.CreditLimit,
		IsActive:    true,
	}
	customer.CreatedBy = actor.AuditName()
	customer.UpdatedBy = actor.AuditName()

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, storeFailure(op, err)
	}
	return customer, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id uuid.UUID, req *CustomerRequest, actor *model.Actor) (*model.Customer, error) {
	const op = "CustomerService.UpdateCustomer"

	if err := checkStruct(op, req); err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupFailure(op, err, ErrCustomerNotFound)
	}

	customer.Name = req.Name
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address
	customer.CreditLimit = req.CreditLimit
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}
	customer.UpdatedBy = actor.AuditName()

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, storeFailure(op, err)
	}
	return customer, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return lookupFailure("CustomerService.DeleteCustomer", err, ErrCustomerNotFound)
	}
	return nil
}

// GetCustomer returns the customer with lifetime spend and order count.
func (s *customerService) GetCustomer(ctx context.Context, id uuid.UUID) (*model.CustomerSummary, error) {
	summary, err := s.customerRepo.Summary(ctx, id)
	if err != nil {
		return nil, lookupFailure("CustomerService.GetCustomer", err, ErrCustomerNotFound)
	}
	return summary, nil
}

func (s *customerService) ListCustomers(ctx context.Context, search string) ([]model.Customer, error) {
	customers, err := s.customerRepo.FindAll(ctx, search)
	if err != nil {
		return nil, storeFailure("CustomerService.ListCustomers", err)
	}
	return customers, nil
}
