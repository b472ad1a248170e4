package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/repository"
)

type CustomerService struct {
	store repository.Store
}

func NewCustomerService(store repository.Store) *CustomerService {
	return &CustomerService{store: store}
}

type CustomerInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Address   domain.Address
}

func (in CustomerInput) validate() error {
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return &domain.ValidationError{Field: "email", Message: "a valid email is required"}
	}
	if in.FirstName == "" {
		return &domain.ValidationError{Field: "first_name", Message: "is required"}
	}
	return nil
}

func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	customer := domain.NewCustomer(in.Email, in.FirstName, in.LastName, in.Phone, in.Address)
	if err := s.store.Customers().Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, in CustomerInput) (*domain.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	customer, err := s.store.Customers().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	customer.Email = in.Email
	customer.FirstName = in.FirstName
	customer.LastName = in.LastName
	customer.Phone = in.Phone
	customer.Address = in.Address
	if err := s.store.Customers().Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return s.store.Customers().GetByID(ctx, id)
}

func (s *CustomerService) List(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	return s.store.Customers().List(ctx, limit, offset)
}
