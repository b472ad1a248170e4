package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/handlers"
	"github.com/boutique-commerce/backoffice/internal/repository/repositorytest"
	"github.com/boutique-commerce/backoffice/internal/service"
)

type testEnv struct {
	app   *fiber.App
	store *repositorytest.MemStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repositorytest.NewStore()
	ledger := service.NewStockLedger(store, nil)
	workflow := service.NewOrderWorkflow(store, ledger, service.NopPublisher{}, "TND")
	catalog := service.NewCatalogService(store, ledger)
	coupons := service.NewCouponService(store)
	customers := service.NewCustomerService(store)

	app := fiber.New()
	api := app.Group("/api/v1")

	orders := handlers.NewOrderHandler(workflow)
	orderGroup := api.Group("/orders")
	orderGroup.Post("/", orders.Create)
	orderGroup.Get("/", orders.List)
	orderGroup.Get("/:id", orders.GetByID)
	orderGroup.Put("/:id", orders.Update)
	orderGroup.Delete("/:id", orders.Cancel)

	products := handlers.NewProductHandler(catalog)
	productGroup := api.Group("/products")
	productGroup.Post("/", products.Create)
	productGroup.Get("/", products.List)
	productGroup.Get("/:id", products.GetByID)
	productGroup.Put("/:id", products.Update)
	productGroup.Delete("/:id", products.Deactivate)
	productGroup.Put("/:id/stock", products.AdjustStock)
	productGroup.Get("/:id/inventory", products.InventoryHistory)

	couponHandler := handlers.NewCouponHandler(coupons)
	couponGroup := api.Group("/coupons")
	couponGroup.Post("/", couponHandler.Create)
	couponGroup.Post("/validate", couponHandler.Validate)
	couponGroup.Get("/:id", couponHandler.GetByID)

	customerHandler := handlers.NewCustomerHandler(customers, workflow)
	customerGroup := api.Group("/customers")
	customerGroup.Post("/", customerHandler.Create)
	customerGroup.Get("/:id/orders", customerHandler.Orders)

	return &testEnv{app: app, store: store}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var envelope map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func (e *testEnv) seedProduct(t *testing.T, name string, price float64, quantity int) domain.Product {
	t.Helper()
	p := domain.NewProduct(name, "", decimal.NewFromFloat(price), quantity)
	e.store.SeedProduct(*p)
	return *p
}

func addressBody() map[string]interface{} {
	return map[string]interface{}{
		"street":   "12 Rue de Carthage",
		"city":     "Tunis",
		"zip_code": "1000",
		"country":  "TN",
	}
}

func TestOrderEndpointsLifecycle(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.seedProduct(t, "Linen shirt", 49.90, 10)

	resp, envelope := env.request(t, http.MethodPost, "/api/v1/orders/", map[string]interface{}{
		"shipping_address": addressBody(),
		"items": []map[string]interface{}{
			{"product_id": shirt.ID.String(), "quantity": 2, "size": "M"},
		},
		"payment_method": "card",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, envelope["success"])

	data := envelope["data"].(map[string]interface{})
	orderID := data["id"].(string)
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "TND", data["currency"])
	assert.Equal(t, float64(2), data["item_count"])

	resp, envelope = env.request(t, http.MethodGet, "/api/v1/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = envelope["data"].(map[string]interface{})
	assert.Equal(t, orderID, data["id"])

	resp, envelope = env.request(t, http.MethodPut, "/api/v1/orders/"+orderID, map[string]interface{}{
		"status":          "shipped",
		"tracking_number": "TN-TRACK-9",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = envelope["data"].(map[string]interface{})
	assert.Equal(t, "shipped", data["status"])
	assert.Equal(t, "TN-TRACK-9", data["tracking_number"])
	assert.NotEmpty(t, data["shipped_at"])

	resp, envelope = env.request(t, http.MethodPut, "/api/v1/orders/"+orderID, map[string]interface{}{
		"payment_status": "completed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = envelope["data"].(map[string]interface{})
	assert.Equal(t, "completed", data["payment_status"])

	resp, envelope = env.request(t, http.MethodGet, "/api/v1/orders/?status=shipped", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := envelope["data"].([]interface{})
	require.Len(t, listed, 1)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	mug := env.seedProduct(t, "Ceramic mug", 14.00, 2)

	resp, envelope := env.request(t, http.MethodPost, "/api/v1/orders/", map[string]interface{}{
		"shipping_address": addressBody(),
		"items": []map[string]interface{}{
			{"product_id": mug.ID.String(), "quantity": 5},
		},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, envelope["success"])

	apiErr := envelope["error"].(map[string]interface{})
	assert.Equal(t, "INSUFFICIENT_STOCK", apiErr["code"])
	details := apiErr["details"].(map[string]interface{})
	assert.Equal(t, float64(5), details["requested"])
	assert.Equal(t, float64(2), details["available"])
}

func TestCancelOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.seedProduct(t, "Linen shirt", 49.90, 10)

	_, envelope := env.request(t, http.MethodPost, "/api/v1/orders/", map[string]interface{}{
		"shipping_address": addressBody(),
		"items": []map[string]interface{}{
			{"product_id": shirt.ID.String(), "quantity": 4},
		},
	})
	orderID := envelope["data"].(map[string]interface{})["id"].(string)

	resp, envelope := env.request(t, http.MethodDelete, "/api/v1/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "cancelled", data["status"])

	// A second cancellation is refused.
	resp, envelope = env.request(t, http.MethodDelete, "/api/v1/orders/"+orderID, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	apiErr := envelope["error"].(map[string]interface{})
	assert.Equal(t, "CANCELLATION_NOT_ALLOWED", apiErr["code"])
}

func TestOrderEndpointBadInput(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, envelope := env.request(t, http.MethodGet,
		fmt.Sprintf("/api/v1/orders/%s", "00000000-0000-0000-0000-000000000001"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	apiErr := envelope["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", apiErr["code"])

	// Neither status nor payment_status is a 400.
	_, envelope = env.request(t, http.MethodPost, "/api/v1/orders/", map[string]interface{}{
		"shipping_address": addressBody(),
		"items": []map[string]interface{}{
			{"product_id": env.seedProduct(t, "Mug", 14.00, 3).ID.String(), "quantity": 1},
		},
	})
	orderID := envelope["data"].(map[string]interface{})["id"].(string)
	resp, _ = env.request(t, http.MethodPut, "/api/v1/orders/"+orderID, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCustomerOrdersEndpoint(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.seedProduct(t, "Linen shirt", 49.90, 10)

	_, envelope := env.request(t, http.MethodPost, "/api/v1/customers/", map[string]interface{}{
		"email":      "amira@example.com",
		"first_name": "Amira",
		"address":    addressBody(),
	})
	customerID := envelope["data"].(map[string]interface{})["id"].(string)

	_, envelope = env.request(t, http.MethodPost, "/api/v1/orders/", map[string]interface{}{
		"customer_id":      customerID,
		"shipping_address": addressBody(),
		"items": []map[string]interface{}{
			{"product_id": shirt.ID.String(), "quantity": 1},
		},
	})
	require.Equal(t, true, envelope["success"])

	resp, envelope := env.request(t, http.MethodGet, "/api/v1/customers/"+customerID+"/orders", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := envelope["data"].([]interface{})
	require.Len(t, listed, 1)
	order := listed[0].(map[string]interface{})
	assert.Equal(t, customerID, order["customer_id"])
}

func TestUpdateOrderBothFieldsAtomic(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.seedProduct(t, "Linen shirt", 49.90, 10)

	resp, envelope := env.request(t, http.MethodPost, "/api/v1/orders/", map[string]interface{}{
		"shipping_address": addressBody(),
		"items": []map[string]interface{}{
			{"product_id": shirt.ID.String(), "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := envelope["data"].(map[string]interface{})["id"].(string)

	// A rejected payment transition leaves the status untouched too.
	resp, envelope = env.request(t, http.MethodPut, "/api/v1/orders/"+orderID, map[string]interface{}{
		"status":         "confirmed",
		"payment_status": "refunded",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", envelope["error"].(map[string]interface{})["code"])

	resp, envelope = env.request(t, http.MethodGet, "/api/v1/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "pending", data["payment_status"])

	resp, envelope = env.request(t, http.MethodPut, "/api/v1/orders/"+orderID, map[string]interface{}{
		"status":         "confirmed",
		"payment_status": "completed",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = envelope["data"].(map[string]interface{})
	assert.Equal(t, "confirmed", data["status"])
	assert.Equal(t, "completed", data["payment_status"])
}
