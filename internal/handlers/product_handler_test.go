package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductStockEndpoint(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, "Olive oil 1L", 18.50, 40)

	resp, envelope := env.request(t, http.MethodPut, "/api/v1/products/"+p.ID.String()+"/stock", map[string]interface{}{
		"quantity_change": -15,
		"reason":          "sale",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, float64(25), data["quantity"])

	// Reason defaults to manual_adjustment when omitted.
	resp, _ = env.request(t, http.MethodPut, "/api/v1/products/"+p.ID.String()+"/stock", map[string]interface{}{
		"quantity_change": 5,
		"note":            "recount",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope = env.request(t, http.MethodGet, "/api/v1/products/"+p.ID.String()+"/inventory", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	trail := envelope["data"].([]interface{})
	require.Len(t, trail, 2)

	newest := trail[0].(map[string]interface{})
	assert.Equal(t, "manual_adjustment", newest["reason"])
	assert.Equal(t, float64(25), newest["previous_quantity"])
	assert.Equal(t, float64(30), newest["new_quantity"])

	// Deductions below zero are refused and leave no trail entry.
	resp, envelope = env.request(t, http.MethodPut, "/api/v1/products/"+p.ID.String()+"/stock", map[string]interface{}{
		"quantity_change": -100,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	apiErr := envelope["error"].(map[string]interface{})
	assert.Equal(t, "INSUFFICIENT_STOCK", apiErr["code"])

	_, envelope = env.request(t, http.MethodGet, "/api/v1/products/"+p.ID.String()+"/inventory", nil)
	assert.Len(t, envelope["data"].([]interface{}), 2)
}

func TestProductCRUDEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, envelope := env.request(t, http.MethodPost, "/api/v1/products/", map[string]interface{}{
		"name":     "Tote bag",
		"price":    "25.00",
		"quantity": 12,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	productID := envelope["data"].(map[string]interface{})["id"].(string)

	resp, envelope = env.request(t, http.MethodPut, "/api/v1/products/"+productID, map[string]interface{}{
		"name":  "Canvas tote bag",
		"price": "27.50",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "Canvas tote bag", data["name"])
	// The quantity survives updates untouched.
	assert.Equal(t, float64(12), data["quantity"])

	resp, _ = env.request(t, http.MethodDelete, "/api/v1/products/"+productID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, envelope = env.request(t, http.MethodGet, "/api/v1/products/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, envelope["data"])

	resp, envelope = env.request(t, http.MethodGet, "/api/v1/products/?include_hidden=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, envelope["data"].([]interface{}), 1)

	resp, envelope = env.request(t, http.MethodPost, "/api/v1/products/", map[string]interface{}{
		"name": "Freebie",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	apiErr := envelope["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", apiErr["code"])
}

func TestCouponEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, envelope := env.request(t, http.MethodPost, "/api/v1/coupons/", map[string]interface{}{
		"code":                 "SUMMER10",
		"name":                 "Summer sale",
		"discount_type":        "percentage",
		"discount_value":       "10",
		"minimum_order_amount": "50",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	couponID := envelope["data"].(map[string]interface{})["id"].(string)

	resp, envelope = env.request(t, http.MethodPost, "/api/v1/coupons/validate", map[string]interface{}{
		"code":         "SUMMER10",
		"order_amount": "200",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "20", data["discount"])

	resp, envelope = env.request(t, http.MethodPost, "/api/v1/coupons/validate", map[string]interface{}{
		"code":         "SUMMER10",
		"order_amount": "30",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = envelope["data"].(map[string]interface{})
	assert.Equal(t, false, data["valid"])

	resp, envelope = env.request(t, http.MethodGet, "/api/v1/coupons/"+couponID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = envelope["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["used_count"])

	// Duplicate code is a conflict.
	resp, envelope = env.request(t, http.MethodPost, "/api/v1/coupons/", map[string]interface{}{
		"code":           "SUMMER10",
		"discount_type":  "fixed_amount",
		"discount_value": "5",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	apiErr := envelope["error"].(map[string]interface{})
	assert.Equal(t, "CONFLICT", apiErr["code"])
}
