package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"
	"go-retail-pos/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductRequest struct {
	SKU           string          `json:"sku" validate:"required,max=50"`
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price" validate:"money"`
	CostPrice     decimal.Decimal `json:"cost_price" validate:"money"`
	Quantity      int             `json:"quantity" validate:"min=0"`
	AlertQuantity *int            `json:"alert_quantity" validate:"omitempty,min=0"`
	CategoryID    *uuid.UUID      `json:"category_id"`
	Barcode       string          `json:"barcode" validate:"max=64"`
	IsActive      *bool           `json:"is_active"`
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, req *ProductRequest, actor *model.Actor) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor *model.Actor) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor *model.Actor) error
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)

	CreateCategory(ctx context.Context, req *CategoryRequest, actor *model.Actor) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	notifier     Notifier
}

func NewProductService(pRepo repository.ProductRepository, cRepo repository.CategoryRepository, notifier Notifier) ProductService {
	return &productService{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		notifier:     notifierOrNop(notifier),
	}
}

func (s *productService) CreateProduct(ctx context.Context, req *ProductRequest, actor *model.Actor) (*model.Product, error) {
	const op = "ProductService.CreateProduct"

	if err := checkStruct(op, req); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, op, req.CategoryID); err != nil {
		return nil, err
	}

	product := &model.Product{
		SKU:           strings.TrimSpace(req.SKU),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         req.Price,
		CostPrice:     req.CostPrice,
		Quantity:      req.Quantity,
		AlertQuantity: model.DefaultAlertQuantity,
		CategoryID:    req.CategoryID,
		Barcode:       req.Barcode,
		IsActive:      true,
	}
	if req.AlertQuantity != nil {
		product.AlertQuantity = *req.AlertQuantity
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.CreatedBy = actor.AuditName()
	product.UpdatedBy = actor.AuditName()

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict(op, ErrDuplicateSKU)
		}
		return nil, storeFailure(op, err)
	}

	s.notifier.Publish(ws.Event{
		Type:   "stock_update",
		Action: ws.EventProductCreated,
		Data: map[string]interface{}{
			"id":       product.ID,
			"sku":      product.SKU,
			"name":     product.Name,
			"quantity": product.Quantity,
			"price":    product.Price,
		},
		User:    eventUser(actor),
		Message: fmt.Sprintf("%s created product '%s'", actorName(actor), product.Name),
	})
	return product, nil
}

// UpdateProduct changes catalog fields only. The quantity in req is ignored;
// stock moves through sales and adjustments.
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor *model.Actor) (*model.Product, error) {
	const op = "ProductService.UpdateProduct"

	if err := checkStruct(op, req); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, op, req.CategoryID); err != nil {
		return nil, err
	}

	existing, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupFailure(op, err, ErrProductNotFound)
	}

	existing.SKU = strings.TrimSpace(req.SKU)
	existing.Name = strings.TrimSpace(req.Name)
	existing.Description = req.Description
	existing.Price = req.Price
	existing.CostPrice = req.CostPrice
	existing.CategoryID = req.CategoryID
	existing.Category = nil
	existing.Barcode = req.Barcode
	if req.AlertQuantity != nil {
		existing.AlertQuantity = *req.AlertQuantity
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	existing.UpdatedBy = actor.AuditName()

	if err := s.productRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict(op, ErrDuplicateSKU)
		}
		return nil, storeFailure(op, err)
	}

	updated, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupFailure(op, err, ErrProductNotFound)
	}

	s.notifier.Publish(ws.Event{
		Type:   "stock_update",
		Action: ws.EventProductUpdated,
		Data: map[string]interface{}{
			"id":       updated.ID,
			"sku":      updated.SKU,
			"name":     updated.Name,
			"quantity": updated.Quantity,
			"price":    updated.Price,
		},
		User:    eventUser(actor),
		Message: fmt.Sprintf("%s updated product '%s'", actorName(actor), updated.Name),
	})
	return updated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID, actor *model.Actor) error {
	if err := s.productRepo.Delete(ctx, id, actor.AuditName()); err != nil {
		return lookupFailure("ProductService.DeleteProduct", err, ErrProductNotFound)
	}
	return nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupFailure("ProductService.GetProduct", err, ErrProductNotFound)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, storeFailure("ProductService.ListProducts", err)
	}
	return products, nil
}

func (s *productService) CreateCategory(ctx context.Context, req *CategoryRequest, actor *model.Actor) (*model.Category, error) {
	const op = "ProductService.CreateCategory"

	if err := checkStruct(op, req); err != nil {
		return nil, err
	}
	category := &model.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	category.CreatedBy = actor.AuditName()
	category.UpdatedBy = actor.AuditName()

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict(op, ErrDuplicateCategory)
		}
		return nil, storeFailure(op, err)
	}
	return category, nil
}

func (s *productService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, storeFailure("ProductService.ListCategories", err)
	}
	return categories, nil
}

func (s *productService) checkCategory(ctx context.Context, op string, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid(op, ErrCategoryNotFound)
		}
		return storeFailure(op, err)
	}
	return nil
}
