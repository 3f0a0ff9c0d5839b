package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"
	"go-retail-pos/internal/ws"
	"go-retail-pos/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var invoicePattern = regexp.MustCompile(`^INV-[A-Z0-9]{8}$`)

func TestRecordSale_NormalScenario(t *testing.T) {
	f := newFixture(t)
	p := f.product("SKU-1", 10, 2, "5.00")
	svc := f.saleService(SaleOptions{})

	req := &RecordSaleRequest{
		Items:         []SaleItemRequest{{ProductID: p.ID, Quantity: 2, UnitPrice: money("5.00")}},
		Subtotal:      money("10.00"),
		Tax:           money("0.80"),
		Total:         money("10.80"),
		PaidAmount:    money("10.80"),
		DueAmount:     money("0"),
		PaymentMethod: "cash",
	}

	sale, err := svc.RecordSale(context.Background(), req, f.actor)
	require.NoError(t, err)

	assert.Regexp(t, invoicePattern, sale.InvoiceNumber)
	assert.Equal(t, "10.80", sale.Total.StringFixed(2))
	assert.Equal(t, model.PaymentCompleted, sale.PaymentStatus)
	require.NotNil(t, sale.UserID)
	assert.Equal(t, f.actor.UserID, *sale.UserID)
	assert.Equal(t, 8, f.quantity(p))

	stored, err := svc.GetSale(context.Background(), sale.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Equal(t, "10.00", stored.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "5.00", stored.Items[0].UnitPrice.StringFixed(2))

	assert.Equal(t, []string{ws.EventSaleRecorded}, f.notifier.actions())
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	p := f.product("SKU-1", 3, 1, "1.00")

	_, err := f.saleService(SaleOptions{}).RecordSale(context.Background(),
		cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 5, UnitPrice: money("1.00")}), f.actor)

	require.Error(t, err)
	assert.Equal(t, KindBusinessRule, KindOf(err))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, f.quantity(p))
	assert.Zero(t, f.count(&model.Sale{}))
	assert.Empty(t, f.notifier.actions())
}

func TestRecordSale_RollsBackEarlierLines(t *testing.T) {
	f := newFixture(t)
	a := f.product("A", 10, 1, "2.00")
	b := f.product("B", 1, 0, "3.00")

	_, err := f.saleService(SaleOptions{}).RecordSale(context.Background(), cashSale(
		SaleItemRequest{ProductID: a.ID, Quantity: 2, UnitPrice: money("2.00")},
		SaleItemRequest{ProductID: b.ID, Quantity: 5, UnitPrice: money("3.00")},
	), f.actor)

	require.Error(t, err)
	assert.Equal(t, 10, f.quantity(a), "first line must be rolled back")
	assert.Equal(t, 1, f.quantity(b))
	assert.Zero(t, f.count(&model.Sale{}))
	assert.Zero(t, f.count(&model.SaleItem{}))
}

// faultyProducts fails the n-th decrement with a store error.
type faultyProducts struct {
	repository.ProductRepository
	failOn int
	calls  int
}

func (r *faultyProducts) DecrementQuantity(tx *gorm.DB, id uuid.UUID, quantity int, clamp bool, updatedBy string) (bool, error) {
	r.calls++
	if r.calls == r.failOn {
		return false, errors.New("disk I/O error")
	}
	return r.ProductRepository.DecrementQuantity(tx, id, quantity, clamp, updatedBy)
}

func TestRecordSale_AtomicUnderStoreFault(t *testing.T) {
	f := newFixture(t)
	a := f.product("A", 10, 1, "2.00")
	b := f.product("B", 10, 1, "3.00")

	products := &faultyProducts{ProductRepository: f.products, failOn: 2}
	svc := NewSaleService(f.db, products, f.sales, f.customers, NewInvoiceGenerator("INV-"), f.notifier, SaleOptions{}, nil)

	_, err := svc.RecordSale(context.Background(), cashSale(
		SaleItemRequest{ProductID: a.ID, Quantity: 2, UnitPrice: money("2.00")},
		SaleItemRequest{ProductID: b.ID, Quantity: 2, UnitPrice: money("3.00")},
	), f.actor)

	require.Error(t, err)
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Equal(t, 10, f.quantity(a))
	assert.Equal(t, 10, f.quantity(b))
	assert.Zero(t, f.count(&model.Sale{}))
	assert.Empty(t, f.notifier.actions())
}

func TestRecordSale_ConcurrentNoOversell(t *testing.T) {
	f := newFixture(t)
	p := f.product("HOT", 5, 0, "1.00")
	svc := f.saleService(SaleOptions{})

	const buyers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordSale(context.Background(),
				cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: money("1.00")}), f.actor)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, buyers-5, rejected)
	assert.Equal(t, 0, f.quantity(p))
	assert.Equal(t, int64(5), f.count(&model.Sale{}))
}

func TestRecordSale_ClampPolicy(t *testing.T) {
	f := newFixture(t)
	p := f.product("SKU-1", 2, 1, "1.00")
	svc := f.saleService(SaleOptions{OversellPolicy: config.OversellClamp})

	_, err := svc.RecordSale(context.Background(),
		cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 5, UnitPrice: money("1.00")}), f.actor)

	require.NoError(t, err)
	assert.Equal(t, 0, f.quantity(p))
}

func TestRecordSale_Actor(t *testing.T) {
	f := newFixture(t)
	p := f.product("SKU-1", 10, 1, "1.00")
	req := func() *RecordSaleRequest {
		return cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: money("1.00")})
	}

	_, err := f.saleService(SaleOptions{}).RecordSale(context.Background(), req(), nil)
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.ErrorIs(t, err, ErrActorRequired)
	assert.Equal(t, 10, f.quantity(p))

	sale, err := f.saleService(SaleOptions{AllowAnonymous: true}).RecordSale(context.Background(), req(), nil)
	require.NoError(t, err)
	assert.Nil(t, sale.UserID)
	assert.Equal(t, 9, f.quantity(p))
}

func TestRecordSale_MissingReferences(t *testing.T) {
	f := newFixture(t)
	p := f.product("SKU-1", 10, 1, "1.00")
	svc := f.saleService(SaleOptions{})

	_, err := svc.RecordSale(context.Background(),
		cashSale(SaleItemRequest{ProductID: uuid.New(), Quantity: 1, UnitPrice: money("1.00")}), f.actor)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.ErrorIs(t, err, ErrProductNotFound)

	req := cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: money("1.00")})
	missing := uuid.New()
	req.CustomerID = &missing
	_, err = svc.RecordSale(context.Background(), req, f.actor)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	assert.Equal(t, 10, f.quantity(p))
}

func TestRecordSale_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.product("SKU-1", 10, 1, "1.00")
	svc := f.saleService(SaleOptions{})

	cases := map[string]func(r *RecordSaleRequest){
		"no items":        func(r *RecordSaleRequest) { r.Items = nil },
		"zero quantity":   func(r *RecordSaleRequest) { r.Items[0].Quantity = 0 },
		"negative price":  func(r *RecordSaleRequest) { r.Items[0].UnitPrice = money("-1") },
		"three decimals":  func(r *RecordSaleRequest) { r.Tax = money("0.005") },
		"no method":       func(r *RecordSaleRequest) { r.PaymentMethod = "" },
		"total mismatch":  func(r *RecordSaleRequest) { r.Total = money("5.00") },
		"due mismatch":    func(r *RecordSaleRequest) { r.PaidAmount = money("0.50") },
		"negative amount": func(r *RecordSaleRequest) { r.Discount = money("-0.10") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: money("1.00")})
			mutate(req)
			_, err := svc.RecordSale(context.Background(), req, f.actor)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
	assert.Equal(t, 10, f.quantity(p))
}

func TestRecordSale_PartialPaymentAndChange(t *testing.T) {
	f := newFixture(t)
	p := f.product("SKU-1", 10, 1, "10.80")
	svc := f.saleService(SaleOptions{})

	req := cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: money("10.80")})
	req.PaidAmount = money("4.00")
	req.DueAmount = money("6.80")
	sale, err := svc.RecordSale(context.Background(), req, f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, sale.PaymentStatus)
	assert.Equal(t, "6.80", sale.DueAmount.StringFixed(2))

	req = cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: money("10.80")})
	req.PaidAmount = money("20.00")
	sale, err = svc.RecordSale(context.Background(), req, f.actor)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, sale.PaymentStatus)
	assert.Equal(t, "9.20", sale.ChangeAmount.StringFixed(2))
}

type fixedInvoice string

func (f fixedInvoice) Next() (string, error) { return string(f), nil }

func TestRecordSale_InvoiceCollisionIsRetryable(t *testing.T) {
	f := newFixture(t)
	p := f.product("SKU-1", 10, 1, "1.00")
	svc := NewSaleService(f.db, f.products, f.sales, f.customers, fixedInvoice("INV-AAAAAAAA"), f.notifier, SaleOptions{}, nil)
	req := func() *RecordSaleRequest {
		return cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: money("1.00")})
	}

	_, err := svc.RecordSale(context.Background(), req(), f.actor)
	require.NoError(t, err)

	_, err = svc.RecordSale(context.Background(), req(), f.actor)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvoiceCollision)
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 9, f.quantity(p), "colliding sale must not consume stock")
}

func TestRecordSale_LowStockAlert(t *testing.T) {
	f := newFixture(t)
	p := f.product("SKU-1", 6, 5, "1.00")

	_, err := f.saleService(SaleOptions{}).RecordSale(context.Background(),
		cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 2, UnitPrice: money("1.00")}), f.actor)
	require.NoError(t, err)

	assert.Equal(t, []string{ws.EventSaleRecorded, ws.EventLowStockAlert}, f.notifier.actions())
}

func TestListSales(t *testing.T) {
	f := newFixture(t)
	p := f.product("SKU-1", 10, 1, "1.00")
	c := f.customer("Alice")
	svc := f.saleService(SaleOptions{})

	for i := 0; i < 3; i++ {
		req := cashSale(SaleItemRequest{ProductID: p.ID, Quantity: 1, UnitPrice: money("1.00")})
		if i == 0 {
			req.CustomerID = &c.ID
		}
		_, err := svc.RecordSale(context.Background(), req, f.actor)
		require.NoError(t, err)
	}

	all, err := svc.ListSales(context.Background(), repository.SaleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := svc.ListSales(context.Background(), repository.SaleFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	mine, err := svc.ListSales(context.Background(), repository.SaleFilter{CustomerID: &c.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Customer)
	assert.Equal(t, "Alice", mine[0].Customer.Name)

	_, err = svc.GetSale(context.Background(), uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))
}
