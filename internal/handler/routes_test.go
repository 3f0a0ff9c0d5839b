package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-retail-pos/internal/cache"
	"go-retail-pos/internal/model"
	"go-retail-pos/internal/repository"
	"go-retail-pos/internal/service"
	"go-retail-pos/pkg/database"
	"go-retail-pos/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	t        *testing.T
	app      *fiber.App
	products repository.ProductRepository
	users    service.UserService
}

func newTestServer(t *testing.T, allowAnonymous bool) *testServer {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "pos.db"), nil)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	userRepo := repository.NewUserRepo(db)
	log := zap.NewNop()

	users := service.NewUserService(userRepo)
	_, err = users.SeedAdmin(context.Background(), "admin@example.com", "admin123")
	require.NoError(t, err)

	deps := Dependencies{
		Auth: service.NewAuthService(userRepo, jwt.NewManager("handler-secret", time.Hour)),
		Sales: service.NewSaleService(db, productRepo, saleRepo, customerRepo,
			service.NewInvoiceGenerator("INV-"), nil, service.SaleOptions{AllowAnonymous: allowAnonymous}, log),
		Inventory: service.NewInventoryService(db, productRepo, repository.NewInventoryTransactionRepo(db), nil, log),
		Products:  service.NewProductService(productRepo, repository.NewCategoryRepo(db), nil),
		Customers: service.NewCustomerService(customerRepo),
		Feedback: service.NewFeedbackService(db, repository.NewFeedbackRepo(db), saleRepo, customerRepo,
			"handler-key", "https://shop.example.com"),
		Analytics:      service.NewAnalyticsService(repository.NewAnalyticsRepo(db), productRepo),
		Users:          users,
		Idempotency:    cache.NewMemoryIdempotency(time.Hour),
		AllowAnonymous: allowAnonymous,
		Log:            log,
	}

	app := fiber.New()
	RegisterRoutes(app, deps)
	return &testServer{t: t, app: app, products: productRepo, users: users}
}

func (s *testServer) do(method, path, token string, body interface{}, headers ...string) (int, map[string]interface{}) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(s.t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	status, body := s.do(http.MethodPost, "/api/v1/auth/login", "", fiber.Map{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, status, body)
	return body["token"].(string)
}

func (s *testServer) product(sku string, qty int, price string) *model.Product {
	s.t.Helper()
	p := &model.Product{SKU: sku, Name: sku, Price: decimal.RequireFromString(price), Quantity: qty, AlertQuantity: 1, IsActive: true}
	require.NoError(s.t, s.products.Create(context.Background(), p))
	return p
}

func saleBody(p *model.Product, qty int, unit string) fiber.Map {
	total := decimal.RequireFromString(unit).Mul(decimal.NewFromInt(int64(qty))).StringFixed(2)
	return fiber.Map{
		"items":          []fiber.Map{{"product_id": p.ID, "quantity": qty, "unit_price": unit}},
		"subtotal":       total,
		"total":          total,
		"paid_amount":    total,
		"payment_method": "cash",
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)
	status, body := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestRecordSale_StatusMapping(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login("admin@example.com", "admin123")
	p := s.product("SKU-1", 3, "2.00")

	status, body := s.do(http.MethodPost, "/api/v1/sales", "", saleBody(p, 1, "2.00"))
	assert.Equal(t, http.StatusUnauthorized, status, body)

	status, body = s.do(http.MethodPost, "/api/v1/sales", token, saleBody(p, 5, "2.00"))
	assert.Equal(t, http.StatusUnprocessableEntity, status, body)
	assert.Equal(t, "business_rule", body["kind"])

	bad := saleBody(p, 1, "2.00")
	bad["items"] = []fiber.Map{}
	status, body = s.do(http.MethodPost, "/api/v1/sales", token, bad)
	assert.Equal(t, http.StatusBadRequest, status, body)
	assert.Equal(t, "validation", body["kind"])
	assert.Contains(t, body, "details")

	status, body = s.do(http.MethodPost, "/api/v1/sales", token, saleBody(p, 2, "2.00"))
	require.Equal(t, http.StatusCreated, status, body)
	data := body["data"].(map[string]interface{})
	assert.Regexp(t, `^INV-[A-Z0-9]{8}$`, data["invoice_number"])

	saleID := data["id"].(string)
	status, _ = s.do(http.MethodGet, "/api/v1/sales/"+saleID, token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodGet, "/api/v1/sales/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodGet, "/api/v1/sales/00000000-0000-0000-0000-000000000001", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRecordSale_IdempotencyKey(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login("admin@example.com", "admin123")
	p := s.product("SKU-1", 10, "1.00")

	status, _ := s.do(http.MethodPost, "/api/v1/sales", token, saleBody(p, 1, "1.00"), "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(http.MethodPost, "/api/v1/sales", token, saleBody(p, 1, "1.00"), "Idempotency-Key", "checkout-1")
	assert.Equal(t, http.StatusConflict, status, body)

	got, err := s.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Quantity)

	// A failed attempt frees its key.
	status, _ = s.do(http.MethodPost, "/api/v1/sales", token, saleBody(p, 50, "1.00"), "Idempotency-Key", "checkout-2")
	require.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = s.do(http.MethodPost, "/api/v1/sales", token, saleBody(p, 2, "1.00"), "Idempotency-Key", "checkout-2")
	assert.Equal(t, http.StatusCreated, status)
}

func TestRecordSale_Anonymous(t *testing.T) {
	s := newTestServer(t, true)
	p := s.product("SKU-1", 2, "1.50")

	status, body := s.do(http.MethodPost, "/api/v1/sales", "", saleBody(p, 1, "1.50"))
	require.Equal(t, http.StatusCreated, status, body)

	status, _ = s.do(http.MethodPost, "/api/v1/sales", "garbage", saleBody(p, 1, "1.50"))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdjustStock_Roles(t *testing.T) {
	s := newTestServer(t, false)
	admin := s.login("admin@example.com", "admin123")
	p := s.product("SKU-1", 0, "1.00")

	_, err := s.users.CreateUser(context.Background(), &service.CreateUserRequest{
		Email: "cashier@example.com", Password: "secret123", FullName: "Cashier", Role: model.RoleCashier,
	}, nil)
	require.NoError(t, err)
	cashier := s.login("cashier@example.com", "secret123")

	path := "/api/v1/inventory/" + p.ID.String() + "/adjust"
	body := fiber.Map{"type": "increase", "quantity": 20, "reason": "Delivery"}

	status, resp := s.do(http.MethodPost, path, cashier, body)
	assert.Equal(t, http.StatusForbidden, status, resp)

	status, resp = s.do(http.MethodPost, path, admin, body)
	require.Equal(t, http.StatusCreated, status, resp)
	assert.EqualValues(t, 20, resp["new_quantity"])

	status, resp = s.do(http.MethodPost, path, admin, fiber.Map{"type": "decrease", "quantity": 25, "reason": "Oops"})
	assert.Equal(t, http.StatusUnprocessableEntity, status, resp)

	status, resp = s.do(http.MethodPost, path, admin, fiber.Map{"type": "sideways", "quantity": 1, "reason": "x"})
	assert.Equal(t, http.StatusBadRequest, status, resp)

	status, _ = s.do(http.MethodGet, "/api/v1/users", cashier, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.do(http.MethodGet, "/api/v1/inventory/transactions?type=in", cashier, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestPublicFeedback(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login("admin@example.com", "admin123")
	p := s.product("SKU-1", 5, "4.00")

	status, resp := s.do(http.MethodPost, "/api/v1/customers", token, fiber.Map{"name": "Rita"})
	require.Equal(t, http.StatusCreated, status, resp)
	customerID := resp["data"].(map[string]interface{})["id"].(string)

	sale := saleBody(p, 1, "4.00")
	sale["customer_id"] = customerID
	status, resp = s.do(http.MethodPost, "/api/v1/sales", token, sale)
	require.Equal(t, http.StatusCreated, status, resp)
	saleID := resp["data"].(map[string]interface{})["id"].(string)

	status, resp = s.do(http.MethodGet, "/api/v1/sales/"+saleID+"/feedback-link", token, nil)
	require.Equal(t, http.StatusOK, status, resp)
	link := resp["feedback_url"].(string)
	publicPath := "/api/v1" + strings.TrimPrefix(link, "https://shop.example.com")

	status, resp = s.do(http.MethodPost, "/api/v1/feedback/"+saleID+"/0000", "", fiber.Map{"rating": 5})
	assert.Equal(t, http.StatusUnauthorized, status, resp)

	status, resp = s.do(http.MethodPost, publicPath, "", fiber.Map{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, status, resp)

	status, resp = s.do(http.MethodPost, publicPath, "", fiber.Map{"rating": 4, "comment": "Quick checkout"})
	require.Equal(t, http.StatusCreated, status, resp)

	status, resp = s.do(http.MethodGet, "/api/v1/customers/"+customerID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 4, resp["average_rating"])
	assert.EqualValues(t, 1, resp["total_orders"])
}
