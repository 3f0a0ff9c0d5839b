package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeedbackRequest struct {
	SaleID     uuid.UUID  `json:"sale_id" validate:"uuid_required"`
	CustomerID *uuid.UUID `json:"customer_id"`
	Rating     int        `json:"rating" validate:"required,min=1,max=5"`
	Comment    string     `json:"comment" validate:"max=1000"`
}

type FeedbackService interface {
	SubmitFeedback(ctx context.Context, req *FeedbackRequest) (*model.CustomerFeedback, error)
	ListFeedback(ctx context.Context, filter repository.FeedbackFilter) ([]model.CustomerFeedback, error)
	FeedbackLink(ctx context.Context, saleID uuid.UUID) (string, error)
	CheckToken(ctx context.Context, saleID uuid.UUID, token string) (*model.Sale, error)
}

type feedbackService struct {
	db           *gorm.DB
	feedbackRepo repository.FeedbackRepository
	saleRepo     repository.SaleRepository
	customerRepo repository.CustomerRepository
	key          []byte
	linkBase     string
}

func NewFeedbackService(
	db *gorm.DB,
	feedbackRepo repository.FeedbackRepository,
	saleRepo repository.SaleRepository,
	customerRepo repository.CustomerRepository,
	appKey, frontendURL string,
) FeedbackService {
	return &feedbackService{
		db:           db,
		feedbackRepo: feedbackRepo,
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		key:          []byte(appKey),
		linkBase:     strings.TrimRight(frontendURL, "/"),
	}
}

// FeedbackToken signs the sale id and creation time with key.
func FeedbackToken(key []byte, sale *model.Sale) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(sale.ID.String() + sale.CreatedAt.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyFeedbackToken compares in constant time.
func VerifyFeedbackToken(key []byte, sale *model.Sale, token string) bool {
	expected := FeedbackToken(key, sale)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(token)))
}

func (s *feedbackService) SubmitFeedback(ctx context.Context, req *FeedbackRequest) (*model.CustomerFeedback, error) {
	const op = "FeedbackService.SubmitFeedback"

	if err := checkStruct(op, req); err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.FindByID(ctx, req.SaleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid(op, ErrSaleNotFound)
		}
		return nil, storeFailure(op, err)
	}

	customerID := req.CustomerID
	if customerID == nil {
		customerID = sale.CustomerID
	}
	if customerID == nil {
		return nil, invalidf(op, "%w: sale has no customer", ErrCustomerNotFound)
	}

	feedback := &model.CustomerFeedback{
		SaleID:     sale.ID,
		CustomerID: *customerID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.customerRepo.FindByIDTx(tx, *customerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid(op, ErrCustomerNotFound)
			}
			return storeFailure(op, err)
		}
		if err := s.feedbackRepo.Create(tx, feedback); err != nil {
			return storeFailure(op, err)
		}
		if err := s.customerRepo.RefreshAverageRating(tx, *customerID); err != nil {
			return storeFailure(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return feedback, nil
}

func (s *feedbackService) ListFeedback(ctx context.Context, filter repository.FeedbackFilter) ([]model.CustomerFeedback, error) {
	feedback, err := s.feedbackRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, storeFailure("FeedbackService.ListFeedback", err)
	}
	return feedback, nil
}

// FeedbackLink builds the public URL a customer uses to rate a sale.
func (s *feedbackService) FeedbackLink(ctx context.Context, saleID uuid.UUID) (string, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return "", lookupFailure("FeedbackService.FeedbackLink", err, ErrSaleNotFound)
	}
	return s.linkBase + "/feedback/" + sale.ID.String() + "/" + FeedbackToken(s.key, sale), nil
}

func (s *feedbackService) CheckToken(ctx context.Context, saleID uuid.UUID, token string) (*model.Sale, error) {
	const op = "FeedbackService.CheckToken"

	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized(op, ErrInvalidToken)
		}
		return nil, storeFailure(op, err)
	}
	if !VerifyFeedbackToken(s.key, sale, token) {
		return nil, unauthorized(op, ErrInvalidToken)
	}
	return sale, nil
}
