package pgdb_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/cfg"
	"github.com/DRSN-tech/sales-backend/internal/domain"
	"github.com/DRSN-tech/sales-backend/internal/repository/pgdb"
	"github.com/DRSN-tech/sales-backend/internal/repository/pgdb/converter/generated"
	"github.com/DRSN-tech/sales-backend/internal/testutil"
	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/clock"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/DRSN-tech/sales-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCache struct{}

func (nopCache) GetProducts(context.Context, []int64) (map[int64]usecase.ProductInfo, error) {
	return map[int64]usecase.ProductInfo{}, nil
}
func (nopCache) Generations(context.Context, []int64) (map[int64]int64, error) {
	return map[int64]int64{}, nil
}
func (nopCache) SetProducts(context.Context, []usecase.ProductInfo, map[int64]int64) error {
	return nil
}
func (nopCache) DeleteProducts(context.Context, []int64) error { return nil }

type rawEncoder struct{}

func (rawEncoder) EncodeSaleEvent(ev *usecase.SaleEvent) ([]byte, error) {
	return []byte(ev.EventID), nil
}

type ledger struct {
	pool      *pgxpool.Pool
	tx        *tr.Manager
	sales     *usecase.SaleUseCase
	customers *pgdb.CustomerRepo
	outbox    *pgdb.OutboxEventRepo
	cart      *usecase.CartUseCase
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	pool := testutil.NewTestPool(t)
	testutil.TruncateAll(t, context.Background(), pool)

	log := logger.NewNop()
	txm := tr.NewManager(pool, 5*time.Second, 2*time.Second, log)

	productRepo := pgdb.NewProductRepo(pool, generated.NewProductConverterImpl())
	customerRepo := pgdb.NewCustomerRepo(pool, generated.NewCustomerConverterImpl())
	saleRepo := pgdb.NewSaleRepo(pool, generated.NewSaleConverterImpl())
	outboxRepo := pgdb.NewOutboxEventRepo(pool, generated.NewOutboxEventConverterImpl())

	sales := usecase.NewSaleUC(
		txm, saleRepo, productRepo, customerRepo, outboxRepo, rawEncoder{}, nopCache{},
		clock.NewSystem(), &cfg.SalesCfg{PricePolicy: cfg.PricePolicyCatalog}, log,
	)

	return &ledger{
		pool:      pool,
		tx:        txm,
		sales:     sales,
		customers: customerRepo,
		outbox:    outboxRepo,
		cart:      usecase.NewCartUC(txm, pgdb.NewCartRepo(pool), productRepo, customerRepo, sales, log),
	}
}

func customer(id int64) domain.Actor {
	return domain.NewActor(id, domain.RoleCustomer, "Maria", "maria@shop.test")
}

func TestLedger_CreateAndCancelSale(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	productID := testutil.InsertProduct(t, ctx, l.pool, "Coffee", "45.00", 50)

	sale, err := l.sales.CreateSale(ctx, &usecase.CreateSaleReq{
		Actor: customer(1),
		Items: []usecase.SaleItemReq{{ProductID: productID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "90.00", sale.Total.StringFixed(2))
	assert.Equal(t, 48, testutil.ProductStock(t, ctx, l.pool, productID))
	require.Len(t, sale.Lines, 1)
	assert.Equal(t, "Coffee", sale.Lines[0].ProductName)
	assert.Equal(t, "General", sale.Lines[0].CategoryName)
	assert.Equal(t, 1, testutil.CountRows(t, ctx, l.pool, "outbox_events"))

	cancelled, err := l.sales.CancelSale(ctx, customer(1), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 50, testutil.ProductStock(t, ctx, l.pool, productID))

	_, err = l.sales.CancelSale(ctx, customer(1), sale.ID)
	assert.ErrorIs(t, err, e.ErrInvalidState)
	assert.Equal(t, 50, testutil.ProductStock(t, ctx, l.pool, productID))
}

func TestLedger_InsufficientStockRollsBack(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	productID := testutil.InsertProduct(t, ctx, l.pool, "Coffee", "45.00", 50)

	_, err := l.sales.CreateSale(ctx, &usecase.CreateSaleReq{
		Actor: customer(1),
		Items: []usecase.SaleItemReq{{ProductID: productID, Quantity: 100}},
	})

	var stockErr *e.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 50, stockErr.Available)
	assert.Equal(t, 50, testutil.ProductStock(t, ctx, l.pool, productID))
	assert.Zero(t, testutil.CountRows(t, ctx, l.pool, "sales"))
	assert.Zero(t, testutil.CountRows(t, ctx, l.pool, "customers"))
	assert.Zero(t, testutil.CountRows(t, ctx, l.pool, "outbox_events"))
}

func TestLedger_ConcurrentSalesOfLastUnit(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	productID := testutil.InsertProduct(t, ctx, l.pool, "Coffee", "45.00", 1)

	const buyers = 4
	var (
		wg   sync.WaitGroup
		errs = make([]error, buyers)
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.sales.CreateSale(ctx, &usecase.CreateSaleReq{
				Actor: customer(int64(i + 1)),
				Items: []usecase.SaleItemReq{{ProductID: productID, Quantity: 1}},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, e.ErrInsufficientStock), "unexpected error: %v", err)
	}

	assert.Equal(t, 1, succeeded)
	assert.Zero(t, testutil.ProductStock(t, ctx, l.pool, productID))
	assert.Equal(t, 1, testutil.CountRows(t, ctx, l.pool, "sales"))
}

func TestLedger_StaffSaleRequiresExistingCustomer(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	productID := testutil.InsertProduct(t, ctx, l.pool, "Coffee", "45.00", 5)
	customerID := testutil.InsertCustomer(t, ctx, l.pool, "Walk-in")
	staff := domain.NewActor(9, domain.RoleStaff, "Ana", "")

	sale, err := l.sales.CreateSale(ctx, &usecase.CreateSaleReq{
		Actor:         staff,
		CustomerID:    &customerID,
		PaymentMethod: "card",
		Items:         []usecase.SaleItemReq{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, sale.SellerName)
	assert.Equal(t, "Ana", *sale.SellerName)
	assert.Equal(t, domain.PaymentCard, sale.PaymentMethod)

	missing := customerID + 1000
	_, err = l.sales.CreateSale(ctx, &usecase.CreateSaleReq{
		Actor:      staff,
		CustomerID: &missing,
		Items:      []usecase.SaleItemReq{{ProductID: productID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, e.ErrCustomerNotFound)
	assert.Equal(t, 4, testutil.ProductStock(t, ctx, l.pool, productID))

	list, err := l.sales.ListSales(ctx, &usecase.ListSalesReq{Actor: staff, Status: "completed"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ItemsCount)
	assert.Equal(t, "Walk-in", list[0].CustomerName)
}

func TestCustomerRepo_ResolveOrCreateConcurrently(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	const callers = 8
	var (
		wg  sync.WaitGroup
		ids = make([]int64, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := l.customers.ResolveOrCreate(ctx, domain.NewCustomerForActor(customer(77), domain.CustomerProfile{}), domain.CustomerProfile{})
			if assert.NoError(t, err) {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, testutil.CountRows(t, ctx, l.pool, "customers"))

	updated, err := l.customers.ResolveOrCreate(ctx,
		domain.NewCustomerForActor(customer(77), domain.CustomerProfile{}),
		domain.CustomerProfile{Address: "Main st. 5"},
	)
	require.NoError(t, err)
	assert.Equal(t, "Main st. 5", updated.Address)
	assert.Equal(t, "Maria", updated.Name)
}

func TestCart_CheckoutClearsCart(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	productID := testutil.InsertProduct(t, ctx, l.pool, "Tea", "2.50", 10)

	_, err := l.cart.AddToCart(ctx, &usecase.CartItemReq{Actor: customer(1), ProductID: productID, Quantity: 4})
	require.NoError(t, err)

	sale, err := l.cart.Checkout(ctx, &usecase.CheckoutReq{Actor: customer(1)})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.00").Equal(sale.Total))
	assert.Equal(t, 6, testutil.ProductStock(t, ctx, l.pool, productID))
	assert.Zero(t, testutil.CountRows(t, ctx, l.pool, "cart_items"))
}

func TestOutboxEventRepo_ClaimAndRelease(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	productID := testutil.InsertProduct(t, ctx, l.pool, "Coffee", "45.00", 10)

	sale, err := l.sales.CreateSale(ctx, &usecase.CreateSaleReq{
		Actor: customer(1),
		Items: []usecase.SaleItemReq{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err)

	events, err := l.outbox.GetAndMarkAsProcessing(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, usecase.SaleCreated, events[0].EventType)
	assert.Equal(t, sale.ID, events[0].AggregateID)
	assert.Equal(t, usecase.Processing, events[0].Status)

	again, err := l.outbox.GetAndMarkAsProcessing(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	released, err := l.outbox.ReleaseStale(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	events, err = l.outbox.GetAndMarkAsProcessing(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NoError(t, l.outbox.MarkAsProcessed(ctx, events[0].ID))

	released, err = l.outbox.ReleaseStale(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, released)
}

func (l *ledger) buy(t *testing.T, actor domain.Actor, items ...usecase.SaleItemReq) *usecase.SaleDetails {
	t.Helper()

	sale, err := l.sales.CreateSale(context.Background(), &usecase.CreateSaleReq{Actor: actor, Items: items})
	require.NoError(t, err)
	return sale
}

func TestStatsRepo_CountsOnlyCompletedSalesInPeriod(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	stats := pgdb.NewStatsRepo(l.pool)
	coffee := testutil.InsertProduct(t, ctx, l.pool, "Coffee", "45.00", 50)
	tea := testutil.InsertProduct(t, ctx, l.pool, "Tea", "2.50", 50)
	retired := testutil.InsertProduct(t, ctx, l.pool, "Cocoa", "3.00", 5)
	_, err := l.pool.Exec(ctx, `UPDATE products SET is_active = FALSE WHERE id = $1`, retired)
	require.NoError(t, err)

	completed := l.buy(t, customer(1), usecase.SaleItemReq{ProductID: coffee, Quantity: 2})

	cancelled := l.buy(t, customer(2), usecase.SaleItemReq{ProductID: tea, Quantity: 5})
	_, err = l.sales.CancelSale(ctx, customer(2), cancelled.ID)
	require.NoError(t, err)

	old := l.buy(t, customer(3), usecase.SaleItemReq{ProductID: coffee, Quantity: 10})
	_, err = l.pool.Exec(ctx, `UPDATE sales SET created_at = NOW() - INTERVAL '30 days' WHERE id = $1`, old.ID)
	require.NoError(t, err)

	now := time.Now()
	from := now.AddDate(0, 0, -7)
	period := usecase.NewInclusivePeriod(&from, &now)

	sales, err := stats.SalesStats(ctx, period)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sales.Count)
	assert.Equal(t, "90.00", sales.Revenue.StringFixed(2))

	products, err := stats.TopProducts(ctx, period, 10)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, coffee, products[0].ProductID)
	assert.Equal(t, "Coffee", products[0].Name)
	assert.Equal(t, int64(2), products[0].QuantitySold)
	assert.Equal(t, "90.00", products[0].Revenue.StringFixed(2))

	customers, err := stats.TopCustomers(ctx, period, 10)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, completed.CustomerID, customers[0].CustomerID)
	assert.Equal(t, int64(1), customers[0].Purchases)
	assert.Equal(t, "90.00", customers[0].TotalSpent.StringFixed(2))

	// без границ выборка включает старую продажу, отменённая остаётся за бортом
	all, err := stats.SalesStats(ctx, usecase.Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Count)
	assert.Equal(t, "540.00", all.Revenue.StringFixed(2))

	summary, err := stats.Summary(ctx, usecase.DayPeriod(now))
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TodaySales)
	assert.Equal(t, "90.00", summary.TodayRevenue.StringFixed(2))
	assert.Equal(t, int64(3), summary.Customers)
	assert.Equal(t, int64(2), summary.ActiveProducts)
}

func TestStatsRepo_TopOrderingAndLimit(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	stats := pgdb.NewStatsRepo(l.pool)
	coffee := testutil.InsertProduct(t, ctx, l.pool, "Coffee", "45.00", 50)
	tea := testutil.InsertProduct(t, ctx, l.pool, "Tea", "2.50", 50)

	frequent := l.buy(t, customer(1), usecase.SaleItemReq{ProductID: tea, Quantity: 1})
	l.buy(t, customer(1), usecase.SaleItemReq{ProductID: tea, Quantity: 1})
	big := l.buy(t, customer(2), usecase.SaleItemReq{ProductID: coffee, Quantity: 3})
	small := l.buy(t, customer(3), usecase.SaleItemReq{ProductID: tea, Quantity: 6})

	products, err := stats.TopProducts(ctx, usecase.Period{}, 10)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, tea, products[0].ProductID)
	assert.Equal(t, int64(8), products[0].QuantitySold)
	assert.Equal(t, "20.00", products[0].Revenue.StringFixed(2))
	assert.Equal(t, coffee, products[1].ProductID)

	limited, err := stats.TopProducts(ctx, usecase.Period{}, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, tea, limited[0].ProductID)

	customers, err := stats.TopCustomers(ctx, usecase.Period{}, 10)
	require.NoError(t, err)
	require.Len(t, customers, 3)
	// сначала по числу покупок, при равенстве по сумме
	assert.Equal(t, frequent.CustomerID, customers[0].CustomerID)
	assert.Equal(t, int64(2), customers[0].Purchases)
	assert.Equal(t, "5.00", customers[0].TotalSpent.StringFixed(2))
	assert.Equal(t, big.CustomerID, customers[1].CustomerID)
	assert.Equal(t, small.CustomerID, customers[2].CustomerID)

	top2, err := stats.TopCustomers(ctx, usecase.Period{}, 2)
	require.NoError(t, err)
	require.Len(t, top2, 2)
	assert.Equal(t, big.CustomerID, top2[1].CustomerID)
}
