package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Open-WP-Club/phone-order-woo/internal/model"
	"github.com/Open-WP-Club/phone-order-woo/internal/repository"
)

type intakeEnv struct {
	db        *gorm.DB
	products  repository.ProductRepository
	orders    repository.OrderRepository
	records   repository.AnalyticsRepository
	analytics AnalyticsService
	intake    IntakeService
	events    *Dispatcher
}

func newIntakeEnv(t *testing.T) *intakeEnv {
	t.Helper()
	db, c := newTestEnv(t)

	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)
	records := repository.NewAnalyticsRepository(db)
	settings := NewSettingsService(repository.NewSettingsRepository(db))
	resolver := NewCustomerResolver(repository.NewCustomerRepository(db), c, time.Hour, "")
	analytics := NewAnalyticsService(orders, records, settings, c, 5*time.Minute)
	dispatcher := NewDispatcher(16)

	return &intakeEnv{
		db:        db,
		products:  products,
		orders:    orders,
		records:   records,
		analytics: analytics,
		intake:    NewIntakeService(db, products, resolver, analytics, settings, dispatcher, 10*time.Second),
		events:    dispatcher,
	}
}

func (e *intakeEnv) seedProduct(t *testing.T, name string, price float64, stock int, purchasable bool) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Price: price, Stock: stock, Purchasable: purchasable}
	require.NoError(t, e.products.Create(context.Background(), p))
	return p
}

func TestSubmitSuccess(t *testing.T) {
	env := newIntakeEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, "Widget", 10.00, 5, true)

	res, ierr := env.intake.Submit(ctx, SubmitInput{
		Phone:     "555-1234",
		ProductID: p.ID,
		Quantity:  1,
		Meta:      ClientMeta{UserAgent: "test-agent", IPAddress: "203.0.113.7"},
	})
	require.Nil(t, ierr)
	require.NotZero(t, res.OrderID)
	require.NotEmpty(t, res.OrderNumber)
	assert.Contains(t, res.Message, "Thank you")

	order, err := env.orders.GetByID(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, order.Status)
	assert.Equal(t, model.CreatedViaPhoneOrder, order.CreatedVia)
	assert.Equal(t, "phone_order", order.PaymentMethod)
	assert.Equal(t, "555-1234", order.BillingPhone)
	assert.InDelta(t, 10.00, order.Total, 0.001)

	// stock decremented by quantity
	after, err := env.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, after.Stock)

	// exactly one analytics record attached
	rec, err := env.records.GetByOrderID(ctx, res.OrderID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "test-agent", rec.UserAgent)
	assert.Equal(t, "203.0.113.7", rec.IPAddress)

	// dashboard count reflects the new order
	stats, err := env.analytics.DashboardStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalOrders)
}

func TestSubmitReusesCustomerAcrossProducts(t *testing.T) {
	env := newIntakeEnv(t)
	ctx := context.Background()
	p1 := env.seedProduct(t, "Widget", 10.00, 5, true)
	p2 := env.seedProduct(t, "Gadget", 25.00, 5, true)

	res1, ierr := env.intake.Submit(ctx, SubmitInput{Phone: "555-1234", ProductID: p1.ID})
	require.Nil(t, ierr)
	res2, ierr := env.intake.Submit(ctx, SubmitInput{Phone: "555-1234", ProductID: p2.ID})
	require.Nil(t, ierr)

	o1, err := env.orders.GetByID(ctx, res1.OrderID)
	require.NoError(t, err)
	o2, err := env.orders.GetByID(ctx, res2.OrderID)
	require.NoError(t, err)
	assert.Equal(t, o1.CustomerID, o2.CustomerID)

	var customers int64
	require.NoError(t, env.db.Model(&model.Customer{}).Count(&customers).Error)
	assert.EqualValues(t, 1, customers)
}

func TestSubmitQuantity(t *testing.T) {
	env := newIntakeEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, "Widget", 10.00, 5, true)

	res, ierr := env.intake.Submit(ctx, SubmitInput{Phone: "555-1234", ProductID: p.ID, Quantity: 3})
	require.Nil(t, ierr)

	order, err := env.orders.GetByID(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, 3, order.Quantity)
	assert.InDelta(t, 30.00, order.Total, 0.001)

	after, err := env.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.Stock)
}

func TestSubmitInvalidPhone(t *testing.T) {
	env := newIntakeEnv(t)
	p := env.seedProduct(t, "Widget", 10.00, 5, true)

	_, ierr := env.intake.Submit(context.Background(), SubmitInput{Phone: "bad", ProductID: p.ID})
	require.NotNil(t, ierr)
	assert.Equal(t, KindInvalidPhone, ierr.Kind)
	assert.Equal(t, "Please enter a valid phone number", ierr.Message)
	assertNoOrders(t, env.db)
}

func TestSubmitProductNotFound(t *testing.T) {
	env := newIntakeEnv(t)

	_, ierr := env.intake.Submit(context.Background(), SubmitInput{Phone: "555-1234", ProductID: 42})
	require.NotNil(t, ierr)
	assert.Equal(t, KindProductNotFound, ierr.Kind)
	assertNoOrders(t, env.db)
}

func TestSubmitNotPurchasable(t *testing.T) {
	env := newIntakeEnv(t)
	p := env.seedProduct(t, "Retired", 10.00, 5, false)

	_, ierr := env.intake.Submit(context.Background(), SubmitInput{Phone: "555-1234", ProductID: p.ID})
	require.NotNil(t, ierr)
	assert.Equal(t, KindProductNotPurchasable, ierr.Kind)
	assertNoOrders(t, env.db)
}

func TestSubmitOutOfStock(t *testing.T) {
	env := newIntakeEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, "Sold Out", 10.00, 0, true)

	_, ierr := env.intake.Submit(ctx, SubmitInput{Phone: "555-1234", ProductID: p.ID})
	require.NotNil(t, ierr)
	assert.Equal(t, KindOutOfStock, ierr.Kind)
	assertNoOrders(t, env.db)

	// stock untouched
	after, err := env.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Stock)
}

func TestSubmitQuantityExceedingStock(t *testing.T) {
	env := newIntakeEnv(t)
	p := env.seedProduct(t, "Scarce", 10.00, 2, true)

	_, ierr := env.intake.Submit(context.Background(), SubmitInput{Phone: "555-1234", ProductID: p.ID, Quantity: 3})
	require.NotNil(t, ierr)
	assert.Equal(t, KindOutOfStock, ierr.Kind)
	assertNoOrders(t, env.db)
}

func TestSubmitInternalErrorsStayGeneric(t *testing.T) {
	env := newIntakeEnv(t)
	p := env.seedProduct(t, "Widget", 10.00, 5, true)

	// drop the orders table so persistence fails
	require.NoError(t, env.db.Migrator().DropTable(&model.Order{}))

	_, ierr := env.intake.Submit(context.Background(), SubmitInput{Phone: "555-1234", ProductID: p.ID})
	require.NotNil(t, ierr)
	assert.Equal(t, KindOrderCreationFailed, ierr.Kind)
	assert.Equal(t, "An error occurred. Please try again or contact us directly.", ierr.Message)
	assert.NotContains(t, ierr.Message, "orders", "store detail must not leak to callers")
}

func assertNoOrders(t *testing.T, db *gorm.DB) {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.Order{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
