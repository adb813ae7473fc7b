package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authsvc "github.com/sokohub/sokohub-backend/internal/auth"
	orderssvc "github.com/sokohub/sokohub-backend/internal/orders"
	paymentssvc "github.com/sokohub/sokohub-backend/internal/payments"
	producesvc "github.com/sokohub/sokohub-backend/internal/produce"
	reviewssvc "github.com/sokohub/sokohub-backend/internal/reviews"
	"github.com/sokohub/sokohub-backend/internal/webhooks"
	"github.com/sokohub/sokohub-backend/pkg/config"
	"github.com/sokohub/sokohub-backend/pkg/db/dbtest"
	"github.com/sokohub/sokohub-backend/pkg/logger"
	"github.com/sokohub/sokohub-backend/pkg/metrics"
	"github.com/sokohub/sokohub-backend/pkg/mpesa"
)

type stubGateway struct{}

func (stubGateway) InitiateSTKPush(_ context.Context, _ mpesa.STKPushRequest) (*mpesa.STKPushResponse, error) {
	return &mpesa.STKPushResponse{
		CheckoutRequestID: "ws_CO_ROUTER_1",
		ResponseCode:      mpesa.ResponseCodeAccepted,
		CustomerMessage:   "Enter your PIN",
	}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	client := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "router-secret", Issuer: "sokohub-test", ExpirationMinutes: 15}
	cfg.Password = config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	cfg.Orders = config.OrdersConfig{PlacementRetryAttempts: 2, PlacementRetryBackoff: time.Millisecond}

	ordersRepo := orderssvc.NewRepository(client)
	paymentsRepo := paymentssvc.NewRepository(client)

	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       client,
		Auth:     authsvc.NewService(authsvc.NewRepository(client), logg, cfg.JWT, cfg.Password),
		Produce:  producesvc.NewService(producesvc.NewRepository(client), logg),
		Orders:   orderssvc.NewService(ordersRepo, client, logg, cfg.Orders),
		Payments: paymentssvc.NewService(paymentsRepo, ordersRepo, stubGateway{}, logg),
		Reviews:  reviewssvc.NewService(reviewssvc.NewRepository(client), logg),
		Webhooks: webhooks.NewService(client, paymentsRepo, ordersRepo, logg, metrics.NewReconciliationMetrics(nil)),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-SokoHub-Env"))
}

func TestOrdersRequireAuthentication(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/orders/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVendorJourneyThroughRouter(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/farmers/register", "", map[string]any{
		"name":     "Molo Farm",
		"email":    "grower@example.com",
		"phone":    "254700000002",
		"password": "grow all the things",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	farmerToken := dataField(t, rec)["token"].(string)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/produce/", farmerToken, map[string]any{
		"name":       "Hass Avocado",
		"unit_price": "15.00",
		"quantity":   10,
		"quality":    "Grade A",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	produceID := dataField(t, rec)["ID"]
	require.NotNil(t, produceID)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/auth/vendors/register", "", map[string]any{
		"name":     "City Greens",
		"email":    "buyer@example.com",
		"phone":    "254700000001",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	vendorToken := dataField(t, rec)["token"].(string)

	// Farmers cannot place orders.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/orders/", farmerToken, map[string]any{
		"produce_id": produceID,
		"quantity":   4,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/orders/", vendorToken, map[string]any{
		"produce_id": produceID,
		"quantity":   4,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/orders/", vendorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := dataField(t, rec)["orders"].([]any)
	require.Len(t, orders, 1)
}

func TestMpesaCallbackAcksUnknownID(t *testing.T) {
	router := newTestRouter(t)

	payload := map[string]any{
		"Body": map[string]any{
			"stkCallback": map[string]any{
				"CheckoutRequestID": "ws_CO_UNSEEN",
				"ResultCode":        0,
				"ResultDesc":        "ok",
			},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/v1/webhooks/mpesa", "", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var ack map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, float64(0), ack["ResultCode"])
}

func TestUnknownStatusFilterRejected(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/vendors/register", "", map[string]any{
		"name":     "City Greens",
		"email":    "buyer2@example.com",
		"phone":    "254700000009",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := dataField(t, rec)["token"].(string)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/orders/?status=%s", "Shipped"), token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
