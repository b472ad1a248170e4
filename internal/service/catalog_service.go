package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/repository"
)

// CatalogService manages the descriptive side of products. Quantities are
// off limits here: they only move through the StockLedger.
type CatalogService struct {
	store  repository.Store
	ledger *StockLedger
}

func NewCatalogService(store repository.Store, ledger *StockLedger) *CatalogService {
	return &CatalogService{store: store, ledger: ledger}
}

type ProductInput struct {
	Name          string
	Description   string
	SKU           string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	Quantity      int
	IsBestseller  bool
	ImageURL      string
}

func (in ProductInput) validate() error {
	if in.Name == "" {
		return &domain.ValidationError{Field: "name", Message: "is required"}
	}
	if !in.Price.IsPositive() {
		return &domain.ValidationError{Field: "price", Message: "must be positive"}
	}
	if in.Quantity < 0 {
		return &domain.ValidationError{Field: "quantity", Message: "must not be negative"}
	}
	return nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product := domain.NewProduct(in.Name, in.Description, in.Price, in.Quantity)
	product.SKU = in.SKU
	product.OriginalPrice = in.OriginalPrice
	product.IsBestseller = in.IsBestseller
	product.ImageURL = in.ImageURL
	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update edits the descriptive fields. The initial quantity is ignored
// here; stock moves only through AdjustStock.
func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Name = in.Name
	product.Description = in.Description
	product.SKU = in.SKU
	product.Price = in.Price
	product.OriginalPrice = in.OriginalPrice
	product.IsBestseller = in.IsBestseller
	product.ImageURL = in.ImageURL
	if err := s.store.Products().Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.store.Products().GetByID(ctx, id)
}

func (s *CatalogService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	return s.store.Products().List(ctx, f)
}

// Deactivate soft-deletes a product. Historical orders and the audit trail
// keep referencing it.
func (s *CatalogService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.store.Products().Deactivate(ctx, id)
}

// AdjustStock is the manual stock endpoint behind PUT /products/:id/stock.
func (s *CatalogService) AdjustStock(ctx context.Context, id uuid.UUID, delta int, reason domain.AdjustmentReason, note string) (*domain.Product, error) {
	if reason == "" {
		reason = domain.ReasonManualAdjustment
	}
	product, _, err := s.ledger.AdjustStanding(ctx, id, delta, reason, note)
	return product, err
}

// InventoryHistory returns the product's stock audit trail, newest first.
func (s *CatalogService) InventoryHistory(ctx context.Context, id uuid.UUID, limit int) ([]domain.StockAdjustment, error) {
	return s.ledger.History(ctx, id, limit)
}
