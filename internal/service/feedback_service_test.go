package service

import (
	"context"
	"strings"
	"testing"

	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAppKey = "feedback-test-key"

func (f *fixture) feedbackService() FeedbackService {
	return NewFeedbackService(f.db, f.feedback, f.sales, f.customers, testAppKey, "https://shop.example.com/")
}

func (f *fixture) sale(customer *model.Customer) *model.Sale {
	f.t.Helper()
	p := f.product("FB-"+uuid.NewString()[:8], 10, 1, "3.00")
	req := cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: money("3.00")})
	if customer != nil {
		req.CustomerID = &customer.ID
	}
	sale, err := f.saleService(SaleOptions{}).RecordSale(context.Background(), req, f.actor)
	require.NoError(f.t, err)
	return sale
}

func TestFeedbackToken_Verify(t *testing.T) {
	f := newFixture(t)
	sale := f.sale(nil)
	key := []byte(testAppKey)

	token := FeedbackToken(key, sale)
	assert.Len(t, token, 64)
	assert.True(t, VerifyFeedbackToken(key, sale, token))
	assert.True(t, VerifyFeedbackToken(key, sale, strings.ToUpper(token)))
	assert.False(t, VerifyFeedbackToken([]byte("other-key"), sale, token))

	tampered := []byte(token)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	assert.False(t, VerifyFeedbackToken(key, sale, string(tampered)))
}

func TestFeedbackLinkAndCheckToken(t *testing.T) {
	f := newFixture(t)
	sale := f.sale(nil)
	svc := f.feedbackService()
	ctx := context.Background()

	link, err := svc.FeedbackLink(ctx, sale.ID)
	require.NoError(t, err)
	prefix := "https://shop.example.com/feedback/" + sale.ID.String() + "/"
	require.True(t, strings.HasPrefix(link, prefix), link)

	token := strings.TrimPrefix(link, prefix)
	got, err := svc.CheckToken(ctx, sale.ID, token)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, got.ID)

	_, err = svc.CheckToken(ctx, sale.ID, "deadbeef")
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.CheckToken(ctx, uuid.New(), token)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	_, err = svc.FeedbackLink(ctx, uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestSubmitFeedback_UpdatesAverageRating(t *testing.T) {
	f := newFixture(t)
	customer := f.customer("Rita")
	svc := f.feedbackService()
	ctx := context.Background()

	for _, rating := range []int{5, 2} {
		sale := f.sale(customer)
		fb, err := svc.SubmitFeedback(ctx, &FeedbackRequest{SaleID: sale.ID, Rating: rating, Comment: "  ok  "})
		require.NoError(t, err)
		assert.Equal(t, customer.ID, fb.CustomerID)
		assert.Equal(t, "ok", fb.Comment)
	}

	got, err := f.customers.FindByID(ctx, customer.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AverageRating)
	assert.InDelta(t, 3.5, *got.AverageRating, 0.001)

	list, err := svc.ListFeedback(ctx, repository.FeedbackFilter{CustomerID: &customer.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSubmitFeedback_Rejections(t *testing.T) {
	f := newFixture(t)
	customer := f.customer("Rita")
	withCustomer := f.sale(customer)
	anonymous := f.sale(nil)
	svc := f.feedbackService()
	ctx := context.Background()

	_, err := svc.SubmitFeedback(ctx, &FeedbackRequest{SaleID: withCustomer.ID, Rating: 6})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.SubmitFeedback(ctx, &FeedbackRequest{SaleID: withCustomer.ID, Rating: 0})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.SubmitFeedback(ctx, &FeedbackRequest{SaleID: anonymous.ID, Rating: 4})
	assert.Equal(t, KindValidation, KindOf(err))
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = svc.SubmitFeedback(ctx, &FeedbackRequest{SaleID: uuid.New(), Rating: 4})
	assert.Equal(t, KindValidation, KindOf(err))
	assert.ErrorIs(t, err, ErrSaleNotFound)

	missing := uuid.New()
	_, err = svc.SubmitFeedback(ctx, &FeedbackRequest{SaleID: anonymous.ID, CustomerID: &missing, Rating: 4})
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	assert.Zero(t, f.count(&model.CustomerFeedback{}))
}
