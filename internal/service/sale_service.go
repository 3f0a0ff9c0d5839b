package service

import (
	"context"
	"errors"
	"fmt"

	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"
	"go-retail-pos/internal/ws"
	"go-retail-pos/pkg/config"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SaleItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"money"`
}

type RecordSaleRequest struct {
	CustomerID    *uuid.UUID        `json:"customer_id"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	Subtotal      decimal.Decimal   `json:"subtotal" validate:"money"`
	Tax           decimal.Decimal   `json:"tax" validate:"money"`
	Discount      decimal.Decimal   `json:"discount" validate:"money"`
	Total         decimal.Decimal   `json:"total" validate:"money"`
	PaidAmount    decimal.Decimal   `json:"paid_amount" validate:"money"`
	DueAmount     decimal.Decimal   `json:"due_amount" validate:"money"`
	PaymentMethod string            `json:"payment_method" validate:"required,max=32"`
	Notes         string            `json:"notes" validate:"max=1000"`
}

type SaleOptions struct {
	AllowAnonymous bool
	OversellPolicy string
}

type SaleService interface {
	RecordSale(ctx context.Context, req *RecordSaleRequest, actor *model.Actor) (*model.Sale, error)
	ListSales(ctx context.Context, filter repository.SaleFilter) ([]model.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error)
}

type saleService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	saleRepo     repository.SaleRepository
	customerRepo repository.CustomerRepository
	invoices     InvoiceGenerator
	notifier     Notifier
	opts         SaleOptions
	log          *zap.Logger
}

func NewSaleService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	customerRepo repository.CustomerRepository,
	invoices InvoiceGenerator,
	notifier Notifier,
	opts SaleOptions,
	log *zap.Logger,
) SaleService {
	if opts.OversellPolicy == "" {
		opts.OversellPolicy = config.OversellReject
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &saleService{
		db:           db,
		productRepo:  productRepo,
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		invoices:     invoices,
		notifier:     notifierOrNop(notifier),
		opts:         opts,
		log:          log,
	}
}

func (s *saleService) RecordSale(ctx context.Context, req *RecordSaleRequest, actor *model.Actor) (sale *model.Sale, err error) {
	const op = "SaleService.RecordSale"

	ctx, span := tracer.Start(ctx, op)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if actor == nil && !s.opts.AllowAnonymous {
		return nil, unauthorized(op, ErrActorRequired)
	}
	if err := s.validate(op, req); err != nil {
		return nil, err
	}

	invoice, err := s.invoices.Next()
	if err != nil {
		return nil, storeFailure(op, err)
	}
	span.SetAttributes(
		attribute.String("sale.invoice_number", invoice),
		attribute.Int("sale.items", len(req.Items)),
		attribute.String("sale.oversell_policy", s.opts.OversellPolicy),
	)

	due, change := model.ExpectedDue(req.Total, req.PaidAmount)
	sale = &model.Sale{
		InvoiceNumber: invoice,
		CustomerID:    req.CustomerID,
		Subtotal:      req.Subtotal,
		Tax:           req.Tax,
		Discount:      req.Discount,
		Total:         req.Total,
		PaidAmount:    req.PaidAmount,
		DueAmount:     due,
		ChangeAmount:  change,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: model.PaymentCompleted,
		Notes:         req.Notes,
	}
	if due.IsPositive() {
		sale.PaymentStatus = model.PaymentPending
	}
	if actor != nil {
		userID := actor.UserID
		sale.UserID = &userID
	}

	clamp := s.opts.OversellPolicy == config.OversellClamp
	var lowStock []*model.Product

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.CustomerID != nil {
			if _, err := s.customerRepo.FindByIDTx(tx, *req.CustomerID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalid(op, ErrCustomerNotFound)
				}
				return storeFailure(op, err)
			}
		}

		for _, item := range req.Items {
			ok, err := s.productRepo.DecrementQuantity(tx, item.ProductID, item.Quantity, clamp, actor.AuditName())
			if err != nil {
				return storeFailure(op, err)
			}

			product, err := s.productRepo.FindByIDTx(tx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalidf(op, "%w: %s", ErrProductNotFound, item.ProductID)
				}
				return storeFailure(op, err)
			}
			if !ok {
				return ruleViolation(op, fmt.Errorf("%w for %s: requested %d, available %d",
					ErrInsufficientStock, product.Name, item.Quantity, product.Quantity))
			}
			if crossedLowStock(product, -item.Quantity) {
				lowStock = append(lowStock, product)
			}

			sale.Items = append(sale.Items, model.SaleItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				LineTotal: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			})
		}

		if err := s.saleRepo.Create(tx, sale); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &Error{Op: op, Kind: KindPersistence, Err: ErrInvoiceCollision, Retryable: true}
			}
			return storeFailure(op, err)
		}
		return nil
	})
	if err != nil {
		s.log.Warn("sale rejected", zap.String("invoice_number", invoice), zap.Error(err))
		return nil, err
	}

	s.log.Info("sale recorded",
		zap.String("invoice_number", sale.InvoiceNumber),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.String("user", actor.AuditName()),
	)
	s.publishSale(sale, actor, lowStock)

	return sale, nil
}

// validate checks field constraints and the totals invariants.
func (s *saleService) validate(op string, req *RecordSaleRequest) error {
	if req == nil {
		return invalidf(op, "sale request is required")
	}
	if err := checkStruct(op, req); err != nil {
		return err
	}

	expected := model.ExpectedTotal(req.Subtotal, req.Tax, req.Discount)
	if !model.WithinTolerance(expected, req.Total) {
		return invalidf(op, "%w: subtotal - discount + tax = %s, total = %s",
			ErrTotalsMismatch, expected.StringFixed(2), req.Total.StringFixed(2))
	}

	due, _ := model.ExpectedDue(req.Total, req.PaidAmount)
	if !model.WithinTolerance(due, req.DueAmount) {
		return invalidf(op, "%w: expected %s, got %s",
			ErrDueMismatch, due.StringFixed(2), req.DueAmount.StringFixed(2))
	}
	return nil
}

func (s *saleService) publishSale(sale *model.Sale, actor *model.Actor, lowStock []*model.Product) {
	s.notifier.Publish(ws.Event{
		Type:   "stock_update",
		Action: ws.EventSaleRecorded,
		Data: map[string]interface{}{
			"id":             sale.ID,
			"invoice_number": sale.InvoiceNumber,
			"total":          sale.Total,
			"items":          len(sale.Items),
		},
		User:    eventUser(actor),
		Message: fmt.Sprintf("%s recorded sale %s", actorName(actor), sale.InvoiceNumber),
	})
	for _, p := range lowStock {
		s.notifier.Publish(lowStockEvent(p))
	}
}

func (s *saleService) ListSales(ctx context.Context, filter repository.SaleFilter) ([]model.Sale, error) {
	sales, err := s.saleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, storeFailure("SaleService.ListSales", err)
	}
	return sales, nil
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupFailure("SaleService.GetSale", err, ErrSaleNotFound)
	}
	return sale, nil
}
