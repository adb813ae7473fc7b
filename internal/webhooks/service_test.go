package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokohub/sokohub-backend/internal/orders"
	"github.com/sokohub/sokohub-backend/internal/payments"
	"github.com/sokohub/sokohub-backend/pkg/db"
	"github.com/sokohub/sokohub-backend/pkg/db/dbtest"
	"github.com/sokohub/sokohub-backend/pkg/db/models"
	"github.com/sokohub/sokohub-backend/pkg/enums"
	pkgerrors "github.com/sokohub/sokohub-backend/pkg/errors"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/metrics"
)

type fixture struct {
	svc     *Service
	client  *db.Client
	order   *models.Order
	payment *models.Payment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "webhooks-test", Output: io.Discard})

	vendorID := uuid.New()
	farmerID := uuid.New()
	order := &models.Order{
		ID:         uuid.New(),
		VendorID:   vendorID,
		FarmerID:   farmerID,
		ProduceID:  uuid.New(),
		Quantity:   2,
		TotalPrice: decimal.RequireFromString("300.00"),
		Status:     enums.OrderStatusPending,
	}
	require.NoError(t, client.DB().Create(order).Error)

	payment := &models.Payment{
		ID:                uuid.New(),
		OrderID:           order.ID,
		VendorID:          vendorID,
		FarmerID:          farmerID,
		Amount:            order.TotalPrice,
		CheckoutRequestID: "ws_CO_RECON_1",
		Status:            enums.PaymentStatusPending,
	}
	require.NoError(t, client.DB().Create(payment).Error)

	svc := NewService(client, payments.NewRepository(client), orders.NewRepository(client), logg, metrics.NewReconciliationMetrics(nil))
	return &fixture{svc: svc, client: client, order: order, payment: payment}
}

func (f *fixture) reloadPayment(t *testing.T) *models.Payment {
	t.Helper()
	var payment models.Payment
	require.NoError(t, f.client.DB().First(&payment, "id = ?", f.payment.ID).Error)
	return &payment
}

func (f *fixture) reloadOrder(t *testing.T) *models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, f.client.DB().First(&order, "id = ?", f.order.ID).Error)
	return &order
}

func successResult(checkoutRequestID, receipt string) CallbackResult {
	return CallbackResult{
		CheckoutRequestID: checkoutRequestID,
		ResultCode:        0,
		ResultDesc:        "The service request is processed successfully.",
		MpesaReceipt:      &receipt,
	}
}

func TestReconcileSuccessConfirmsOrder(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.Reconcile(context.Background(), successResult("ws_CO_RECON_1", "QGR7TEST01")))

	payment := f.reloadPayment(t)
	assert.Equal(t, enums.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.MpesaReceipt)
	assert.Equal(t, "QGR7TEST01", *payment.MpesaReceipt)

	order := f.reloadOrder(t)
	assert.Equal(t, enums.OrderStatusConfirmed, order.Status)
	assert.True(t, order.DepositPaid)
	require.NotNil(t, order.MpesaReceipt)
	assert.Equal(t, "QGR7TEST01", *order.MpesaReceipt)
}

func TestReconcileFailureFailsBoth(t *testing.T) {
	f := newFixture(t)

	result := CallbackResult{
		CheckoutRequestID: "ws_CO_RECON_1",
		ResultCode:        1032,
		ResultDesc:        "Request cancelled by user",
	}
	require.NoError(t, f.svc.Reconcile(context.Background(), result))

	payment := f.reloadPayment(t)
	assert.Equal(t, enums.PaymentStatusFailed, payment.Status)
	require.NotNil(t, payment.FailureReason)
	assert.Equal(t, "Request cancelled by user", *payment.FailureReason)
	assert.Nil(t, payment.MpesaReceipt)

	order := f.reloadOrder(t)
	assert.Equal(t, enums.OrderStatusFailed, order.Status)
	assert.False(t, order.DepositPaid)
}

func TestReconcileDuplicateDeliveryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Reconcile(ctx, successResult("ws_CO_RECON_1", "QGR7TEST01")))

	// A replayed success and a contradictory failure both land after the
	// payment settled; neither may change anything.
	require.NoError(t, f.svc.Reconcile(ctx, successResult("ws_CO_RECON_1", "QGR7OTHER")))
	require.NoError(t, f.svc.Reconcile(ctx, CallbackResult{
		CheckoutRequestID: "ws_CO_RECON_1",
		ResultCode:        1,
		ResultDesc:        "late failure",
	}))

	payment := f.reloadPayment(t)
	assert.Equal(t, enums.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.MpesaReceipt)
	assert.Equal(t, "QGR7TEST01", *payment.MpesaReceipt)
	assert.Nil(t, payment.FailureReason)

	order := f.reloadOrder(t)
	assert.Equal(t, enums.OrderStatusConfirmed, order.Status)
}

func TestReconcileUnknownIDAcksWithoutChanges(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.Reconcile(context.Background(), successResult("ws_CO_NOBODY", "QGR7TEST01")))

	assert.Equal(t, enums.PaymentStatusPending, f.reloadPayment(t).Status)
	assert.Equal(t, enums.OrderStatusPending, f.reloadOrder(t).Status)
}

func TestReconcileRejectsEmptyCheckoutRequestID(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Reconcile(context.Background(), CallbackResult{ResultCode: 0})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestReconcileLeavesCancelledOrderAlone(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.client.DB().Model(&models.Order{}).
		Where("id = ?", f.order.ID).
		Update("status", enums.OrderStatusCancelled).Error)

	require.NoError(t, f.svc.Reconcile(context.Background(), successResult("ws_CO_RECON_1", "QGR7TEST01")))

	// Payment settles, but a cancelled order must never flip to confirmed.
	assert.Equal(t, enums.PaymentStatusCompleted, f.reloadPayment(t).Status)
	order := f.reloadOrder(t)
	assert.Equal(t, enums.OrderStatusCancelled, order.Status)
	assert.False(t, order.DepositPaid)
}

func TestDarajaCallbackResultExtractsReceipt(t *testing.T) {
	payload := `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 300.00},
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
						{"Name": "PhoneNumber", "Value": 254700000001}
					]
				}
			}
		}
	}`

	var callback DarajaCallback
	require.NoError(t, json.Unmarshal([]byte(payload), &callback))

	result := callback.Result()
	assert.Equal(t, "ws_CO_191220191020363925", result.CheckoutRequestID)
	assert.Equal(t, 0, result.ResultCode)
	require.NotNil(t, result.MpesaReceipt)
	assert.Equal(t, "NLJ7RT61SV", *result.MpesaReceipt)
}

func TestDarajaCallbackResultWithoutMetadata(t *testing.T) {
	payload := `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-2",
				"CheckoutRequestID": "ws_CO_191220191020363926",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user"
			}
		}
	}`

	var callback DarajaCallback
	require.NoError(t, json.Unmarshal([]byte(payload), &callback))

	result := callback.Result()
	assert.Equal(t, 1032, result.ResultCode)
	assert.Nil(t, result.MpesaReceipt)
}
