package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"
	"go-retail-pos/internal/ws"
	"go-retail-pos/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []ws.Event
}

func (n *recordingNotifier) Publish(e ws.Event) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Action
	}
	return out
}

type fixture struct {
	t         *testing.T
	db        *gorm.DB
	products  repository.ProductRepository
	sales     repository.SaleRepository
	customers repository.CustomerRepository
	inventory repository.InventoryTransactionRepository
	feedback  repository.FeedbackRepository
	users     repository.UserRepository
	notifier  *recordingNotifier
	actor     *model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "pos.db"), nil)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		t:         t,
		db:        db,
		products:  repository.NewProductRepo(db),
		sales:     repository.NewSaleRepo(db),
		customers: repository.NewCustomerRepo(db),
		inventory: repository.NewInventoryTransactionRepo(db),
		feedback:  repository.NewFeedbackRepo(db),
		users:     repository.NewUserRepo(db),
		notifier:  &recordingNotifier{},
	}

	user := &model.User{Email: "cashier@example.com", FullName: "Casey Cashier", Role: model.RoleCashier, IsActive: true}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, f.users.Create(context.Background(), user))
	f.actor = &model.Actor{UserID: user.ID, Name: user.FullName, Email: user.Email, Role: user.Role}
	return f
}

func (f *fixture) product(sku string, qty, alert int, price string) *model.Product {
	f.t.Helper()
	p := &model.Product{
		SKU:           sku,
		Name:          "Product " + sku,
		Price:         decimal.RequireFromString(price),
		Quantity:      qty,
		AlertQuantity: alert,
		IsActive:      true,
	}
	require.NoError(f.t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) customer(name string) *model.Customer {
	f.t.Helper()
	c := &model.Customer{Name: name, IsActive: true}
	require.NoError(f.t, f.customers.Create(context.Background(), c))
	return c
}

func (f *fixture) quantity(p *model.Product) int {
	f.t.Helper()
	got, err := f.products.FindByIDTx(f.db, p.ID)
	require.NoError(f.t, err)
	return got.Quantity
}

func (f *fixture) count(m interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(m).Count(&n).Error)
	return n
}

func (f *fixture) saleService(opts SaleOptions) SaleService {
	return NewSaleService(f.db, f.products, f.sales, f.customers, NewInvoiceGenerator("INV-"), f.notifier, opts, nil)
}

func (f *fixture) inventoryService() InventoryService {
	return NewInventoryService(f.db, f.products, f.inventory, f.notifier, nil)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// cashSale builds a fully paid, untaxed request for the given lines.
func cashSale(lines ...SaleItemRequest) *RecordSaleRequest {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return &RecordSaleRequest{
		Items:         lines,
		Subtotal:      subtotal,
		Total:         subtotal,
		PaidAmount:    subtotal,
		PaymentMethod: "cash",
	}
}
