package orders

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/db"
	"github.com/sokohub/sokohub-backend/pkg/db/dbtest"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/pagination"
)

func newTestService(t *testing.T) (*Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc := NewService(NewRepository(client), client, logg, config.OrdersConfig{
		PlacementRetryAttempts: 2,
		PlacementRetryBackoff:  time.Millisecond,
	})
	return svc, client
}

func seedVendor(t *testing.T, client *db.Client) *models.Vendor {
	t.Helper()
	vendor := &models.Vendor{
		ID:           uuid.New(),
		Name:         "Mama Mboga Supplies",
		Email:        uuid.NewString() + "@vendor.test",
		Phone:        "254700000001",
		PasswordHash: "x",
	}
	require.NoError(t, client.DB().Create(vendor).Error)
	return vendor
}

func seedFarmer(t *testing.T, client *db.Client) *models.Farmer {
	t.Helper()
	farmer := &models.Farmer{
		ID:           uuid.New(),
		Name:         "Kinangop Growers",
		Email:        uuid.NewString() + "@farmer.test",
		Phone:        "254700000002",
		PasswordHash: "x",
	}
	require.NoError(t, client.DB().Create(farmer).Error)
	return farmer
}

func seedProduce(t *testing.T, client *db.Client, farmerID uuid.UUID, quantity int, unitPrice string) *models.Produce {
	t.Helper()
	produce := &models.Produce{
		ID:        uuid.New(),
		Name:      "Hass Avocado",
		UnitPrice: decimal.RequireFromString(unitPrice),
		Quantity:  quantity,
		Quality:   "Grade A",
		FarmerID:  farmerID,
	}
	require.NoError(t, client.DB().Create(produce).Error)
	return produce
}

func TestPlaceOrderReservesStockAndFreezesTotal(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client)
	farmer := seedFarmer(t, client)
	produce := seedProduce(t, client, farmer.ID, 10, "3.50")

	order, err := svc.PlaceOrder(ctx, vendor.ID, PlaceOrderInput{ProduceID: produce.ID, Quantity: 4})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, farmer.ID, order.FarmerID)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("14")), "total %s", order.TotalPrice)
	assert.False(t, order.DepositPaid)

	var remaining models.Produce
	require.NoError(t, client.DB().First(&remaining, "id = ?", produce.ID).Error)
	assert.Equal(t, 6, remaining.Quantity)

	// A later price change must not touch already placed orders.
	require.NoError(t, client.DB().Model(&models.Produce{}).
		Where("id = ?", produce.ID).
		Update("unit_price", decimal.RequireFromString("99.99")).Error)

	var reloaded models.Order
	require.NoError(t, client.DB().First(&reloaded, "id = ?", order.ID).Error)
	assert.True(t, reloaded.TotalPrice.Equal(decimal.RequireFromString("14")))
}

func TestPlaceOrderRejectsInsufficientStock(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client)
	farmer := seedFarmer(t, client)
	produce := seedProduce(t, client, farmer.ID, 10, "100.00")

	_, err := svc.PlaceOrder(ctx, vendor.ID, PlaceOrderInput{ProduceID: produce.ID, Quantity: 7})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, vendor.ID, PlaceOrderInput{ProduceID: produce.ID, Quantity: 5})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Contains(t, typed.Message(), "insufficient stock")

	var remaining models.Produce
	require.NoError(t, client.DB().First(&remaining, "id = ?", produce.ID).Error)
	assert.Equal(t, 3, remaining.Quantity, "failed placement must not touch stock")

	_, err = svc.PlaceOrder(ctx, vendor.ID, PlaceOrderInput{ProduceID: produce.ID, Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, client.DB().First(&remaining, "id = ?", produce.ID).Error)
	assert.Equal(t, 0, remaining.Quantity)
}

func TestPlaceOrderConcurrentNeverOversells(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client)
	farmer := seedFarmer(t, client)
	produce := seedProduce(t, client, farmer.ID, 10, "5.00")

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(ctx, vendor.ID, PlaceOrderInput{ProduceID: produce.ID, Quantity: 2})
		}(i)
	}
	wg.Wait()

	placed := 0
	for _, err := range errs {
		if err == nil {
			placed++
			continue
		}
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "unexpected error: %v", err)
		assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	}
	assert.Equal(t, 5, placed)

	var remaining models.Produce
	require.NoError(t, client.DB().First(&remaining, "id = ?", produce.ID).Error)
	assert.Equal(t, 0, remaining.Quantity)
}

func TestPlaceOrderValidation(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client)

	_, err := svc.PlaceOrder(ctx, vendor.ID, PlaceOrderInput{ProduceID: uuid.New(), Quantity: 0})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.PlaceOrder(ctx, vendor.ID, PlaceOrderInput{ProduceID: uuid.New(), Quantity: 3})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCancelReturnsStock(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client)
	farmer := seedFarmer(t, client)
	produce := seedProduce(t, client, farmer.ID, 10, "2.00")

	order, err := svc.PlaceOrder(ctx, vendor.ID, PlaceOrderInput{ProduceID: produce.ID, Quantity: 6})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, vendor.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	var remaining models.Produce
	require.NoError(t, client.DB().First(&remaining, "id = ?", produce.ID).Error)
	assert.Equal(t, 10, remaining.Quantity)

	_, err = svc.Cancel(ctx, vendor.ID, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCancelChecksOwnership(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client)
	other := seedVendor(t, client)
	farmer := seedFarmer(t, client)
	produce := seedProduce(t, client, farmer.ID, 5, "2.00")

	order, err := svc.PlaceOrder(ctx, vendor.ID, PlaceOrderInput{ProduceID: produce.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, other.ID, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func seedOrderAt(t *testing.T, client *db.Client, vendorID, farmerID, produceID uuid.UUID, status enums.OrderStatus, at time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:         uuid.New(),
		VendorID:   vendorID,
		FarmerID:   farmerID,
		ProduceID:  produceID,
		Quantity:   1,
		TotalPrice: decimal.RequireFromString("10.00"),
		Status:     status,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	require.NoError(t, client.DB().Create(order).Error)
	return order
}

func TestListPagesNewestFirst(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client)
	farmer := seedFarmer(t, client)
	produce := seedProduce(t, client, farmer.ID, 100, "10.00")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		o := seedOrderAt(t, client, vendor.ID, farmer.ID, produce.ID, enums.OrderStatusPending, base.Add(time.Duration(i)*time.Hour))
		ids = append(ids, o.ID)
	}

	page, err := svc.List(ctx, vendor.ID, ListFilters{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, ids[4], page.Orders[0].ID)
	assert.Equal(t, ids[3], page.Orders[1].ID)

	page2, err := svc.List(ctx, vendor.ID, ListFilters{}, pagination.Params{Limit: 2, Cursor: *page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page2.Orders, 2)
	assert.Equal(t, ids[2], page2.Orders[0].ID)
	assert.Equal(t, ids[1], page2.Orders[1].ID)

	require.NotNil(t, page2.NextCursor)
	page3, err := svc.List(ctx, vendor.ID, ListFilters{}, pagination.Params{Limit: 2, Cursor: *page2.NextCursor})
	require.NoError(t, err)
	require.Len(t, page3.Orders, 1)
	assert.Nil(t, page3.NextCursor)
	assert.Equal(t, ids[0], page3.Orders[0].ID)
}

func TestListFiltersAreConjunctive(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client)
	farmer := seedFarmer(t, client)
	produce := seedProduce(t, client, farmer.ID, 100, "10.00")

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedOrderAt(t, client, vendor.ID, farmer.ID, produce.ID, enums.OrderStatusPending, base)
	confirmed := seedOrderAt(t, client, vendor.ID, farmer.ID, produce.ID, enums.OrderStatusConfirmed, base.Add(24*time.Hour))
	seedOrderAt(t, client, vendor.ID, farmer.ID, produce.ID, enums.OrderStatusConfirmed, base.Add(96*time.Hour))

	status := enums.OrderStatusConfirmed
	from := base.Add(12 * time.Hour)
	to := base.Add(48 * time.Hour)
	page, err := svc.List(ctx, vendor.ID, ListFilters{Status: &status, From: &from, To: &to}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, confirmed.ID, page.Orders[0].ID)
}

func TestListRejectsInvertedDateRange(t *testing.T) {
	svc, client := newTestService(t)
	vendor := seedVendor(t, client)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	_, err := svc.List(context.Background(), vendor.ID, ListFilters{From: &from, To: &to}, pagination.Params{})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestListFallsBackToUnknownProduceName(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	vendor := seedVendor(t, client)
	farmer := seedFarmer(t, client)
	produce := seedProduce(t, client, farmer.ID, 10, "4.00")

	order, err := svc.PlaceOrder(ctx, vendor.ID, PlaceOrderInput{ProduceID: produce.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, client.DB().Exec("DELETE FROM produce WHERE id = ?", produce.ID).Error)

	page, err := svc.List(ctx, vendor.ID, ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, order.ID, page.Orders[0].ID)
	assert.Equal(t, "Unknown", page.Orders[0].ProduceName)

	summary, err := svc.Get(ctx, vendor.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", summary.ProduceName)
}
