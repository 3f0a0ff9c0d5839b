package repository

import (
	"context"
	"path/filepath"
	"testing"

	"go-retail-pos/internal/model"
	"go-retail-pos/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "pos.db"), nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, qty, alert int, price string) *model.Product {
	t.Helper()
	p := &model.Product{
		SKU:           sku,
		Name:          "Product " + sku,
		Price:         decimal.RequireFromString(price),
		Quantity:      qty,
		AlertQuantity: alert,
		IsActive:      true,
	}
	require.NoError(t, NewProductRepo(db).Create(context.Background(), p))
	return p
}

func seedUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, FullName: "Test User", Role: model.RoleCashier, IsActive: true}
	require.NoError(t, u.SetPassword("secret123"))
	require.NoError(t, NewUserRepo(db).Create(context.Background(), u))
	return u
}
