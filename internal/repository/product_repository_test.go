package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Open-WP-Club/phone-order-woo/internal/model"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestDecrementStockFloor(t *testing.T) {
	db := setupDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p := &model.Product{Name: "Widget", Price: 10, Stock: 3, Purchasable: true}
	require.NoError(t, repo.Create(ctx, p))

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 2))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	// would go below zero
	err = repo.DecrementStock(ctx, p.ID, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock, "failed decrement must not change stock")

	// draining the last unit is fine
	require.NoError(t, repo.DecrementStock(ctx, p.ID, 1))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestCreatePersistsPurchasableFalse(t *testing.T) {
	db := setupDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p := &model.Product{Name: "Retired", Price: 10, Stock: 3, Purchasable: false}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Purchasable, "explicit false must survive the insert")
}

func TestCreatePersistsGuestFalse(t *testing.T) {
	db := setupDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	c := &model.Customer{Username: "regular_user", Email: "regular@example.com", Phone: "555-0000", Guest: false, PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, c))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Guest)
}

func TestDecrementStockUnknownProduct(t *testing.T) {
	db := setupDB(t)
	repo := NewProductRepository(db)

	err := repo.DecrementStock(context.Background(), 42, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCustomerUniquePhone(t *testing.T) {
	db := setupDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	first := &model.Customer{Username: "guest_a", Email: "a@phone-order.local", Phone: "555-1234", PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, first))

	dup := &model.Customer{Username: "guest_b", Email: "b@phone-order.local", Phone: "555-1234", PasswordHash: "x"}
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOrderUpdateStatusMissing(t *testing.T) {
	db := setupDB(t)
	repo := NewOrderRepository(db)

	err := repo.UpdateStatus(context.Background(), 42, model.OrderStatusCompleted)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSettingsUpsert(t *testing.T) {
	db := setupDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "phone_order_form_title")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Upsert(ctx, "phone_order_form_title", "first"))
	require.NoError(t, repo.Upsert(ctx, "phone_order_form_title", "second"))

	val, ok, err := repo.Get(ctx, "phone_order_form_title")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", val)
}
