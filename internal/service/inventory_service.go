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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AdjustStockRequest struct {
	Type     string `json:"type" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Reason   string `json:"reason" validate:"required,max=255"`
}

type AdjustStockResult struct {
	NewQuantity int                         `json:"new_quantity"`
	Transaction *model.InventoryTransaction `json:"transaction"`
}

type InventoryService interface {
	AdjustStock(ctx context.Context, productID uuid.UUID, req *AdjustStockRequest, actor *model.Actor) (*AdjustStockResult, error)
	GetInventoryStats(ctx context.Context) (*repository.InventoryStats, error)
	ListTransactions(ctx context.Context, filter repository.InventoryTransactionFilter) ([]model.InventoryTransaction, error)
}

type inventoryService struct {
	db              *gorm.DB
	productRepo     repository.ProductRepository
	transactionRepo repository.InventoryTransactionRepository
	notifier        Notifier
	log             *zap.Logger
}

func NewInventoryService(db *gorm.DB, pRepo repository.ProductRepository, tRepo repository.InventoryTransactionRepository, notifier Notifier, log *zap.Logger) InventoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &inventoryService{
		db:              db,
		productRepo:     pRepo,
		transactionRepo: tRepo,
		notifier:        notifierOrNop(notifier),
		log:             log,
	}
}

func (s *inventoryService) AdjustStock(ctx context.Context, productID uuid.UUID, req *AdjustStockRequest, actor *model.Actor) (result *AdjustStockResult, err error) {
	const op = "InventoryService.AdjustStock"

	ctx, span := tracer.Start(ctx, op)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if actor == nil {
		return nil, unauthorized(op, ErrActorRequired)
	}
	if req == nil {
		return nil, invalidf(op, "adjustment request is required")
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if err := checkStruct(op, req); err != nil {
		return nil, err
	}
	adjType, ok := model.ParseAdjustmentType(req.Type)
	if !ok {
		return nil, invalid(op, ErrInvalidAdjustment)
	}

	delta := adjType.Delta(req.Quantity)
	span.SetAttributes(
		attribute.String("product.id", productID.String()),
		attribute.Int("adjustment.delta", delta),
	)

	var product *model.Product
	record := &model.InventoryTransaction{
		ProductID: productID,
		Type:      adjType,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		UserID:    actor.UserID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.productRepo.AdjustQuantity(tx, productID, delta, actor.AuditName())
		if err != nil {
			return storeFailure(op, err)
		}

		product, err = s.productRepo.FindByIDTx(tx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(op, ErrProductNotFound)
			}
			return storeFailure(op, err)
		}
		if !applied {
			return ruleViolation(op, fmt.Errorf("%w for %s: requested %d, available %d",
				ErrInsufficientStock, product.Name, req.Quantity, product.Quantity))
		}

		record.NewQuantity = product.Quantity
		record.PreviousQuantity = product.Quantity - delta
		if err := s.transactionRepo.Create(tx, record); err != nil {
			return storeFailure(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("stock adjusted",
		zap.String("product_id", productID.String()),
		zap.String("type", string(adjType)),
		zap.Int("previous", record.PreviousQuantity),
		zap.Int("new", record.NewQuantity),
		zap.String("user", actor.AuditName()),
	)
	s.publishAdjustment(product, record, actor, delta)

	return &AdjustStockResult{NewQuantity: record.NewQuantity, Transaction: record}, nil
}

func (s *inventoryService) publishAdjustment(product *model.Product, record *model.InventoryTransaction, actor *model.Actor, delta int) {
	verb := "added"
	if record.Type == model.AdjustDecrease {
		verb = "removed"
	}

	s.notifier.Publish(ws.Event{
		Type:   "stock_update",
		Action: ws.EventStockAdjusted,
		Data: map[string]interface{}{
			"id":                record.ID,
			"type":              record.Type,
			"quantity":          record.Quantity,
			"product_id":        product.ID,
			"previous_quantity": record.PreviousQuantity,
			"new_quantity":      record.NewQuantity,
			"product": map[string]interface{}{
				"name": product.Name,
				"sku":  product.SKU,
			},
		},
		User:    eventUser(actor),
		Message: fmt.Sprintf("%s %s %d units of '%s'", actorName(actor), verb, record.Quantity, product.Name),
	})
	if crossedLowStock(product, delta) {
		s.notifier.Publish(lowStockEvent(product))
	}
}

func (s *inventoryService) GetInventoryStats(ctx context.Context) (*repository.InventoryStats, error) {
	stats, err := s.productRepo.Stats(ctx)
	if err != nil {
		return nil, storeFailure("InventoryService.GetInventoryStats", err)
	}
	return stats, nil
}

func (s *inventoryService) ListTransactions(ctx context.Context, filter repository.InventoryTransactionFilter) ([]model.InventoryTransaction, error) {
	if filter.Type != "" {
		t, ok := model.ParseAdjustmentType(string(filter.Type))
		if !ok {
			return nil, invalid("InventoryService.ListTransactions", ErrInvalidAdjustment)
		}
		filter.Type = t
	}
	records, err := s.transactionRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, storeFailure("InventoryService.ListTransactions", err)
	}
	return records, nil
}
