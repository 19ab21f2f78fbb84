package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youssefabdellah10/craftopia-sub000/internal/testutil"
	"github.com/youssefabdellah10/craftopia-sub000/models"
)

// placeOrder inserts an order for customer containing one product by artist
func (e *testEnv) placeOrder(customer models.Customer, artist models.Artist, amount int64, createdAt time.Time) models.Order {
	e.t.Helper()

	product := models.Product{
		ArtistID: artist.ID,
		Type:     models.ProductTypeCustomizable,
		Name:     "Bespoke piece",
		Price:    decimal.NewFromInt(amount),
		Image:    []string{},
		Quantity: 1,
	}
	require.NoError(e.t, e.db.Create(&product).Error)

	order := models.Order{
		CustomerID:  customer.ID,
		TotalAmount: decimal.NewFromInt(amount),
		Status:      models.OrderStatusPending,
		CreatedAt:   createdAt,
	}
	require.NoError(e.t, e.db.Create(&order).Error)
	require.NoError(e.t, e.db.Create(&models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 1}).Error)
	return order
}

func TestListMyOrders(t *testing.T) {
	env := setupControllerTest(t)
	customer := testutil.CreateCustomer(t, env.db, "auth0|customer-1")
	other := testutil.CreateCustomer(t, env.db, "auth0|customer-2")
	artist := testutil.CreateArtist(t, env.db, "auth0|artist-1")

	older := env.placeOrder(customer, artist, 40, time.Now().Add(-48*time.Hour))
	newer := env.placeOrder(customer, artist, 75, time.Now().Add(-time.Hour))
	env.placeOrder(other, artist, 10, time.Now())

	w := env.do("auth0|customer-1", testutil.JSONRequest(t, http.MethodGet, "/api/v1/orders", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := dataList(t, w)
	require.Len(t, list, 2)
	first := list[0].(map[string]interface{})
	assert.Equal(t, float64(newer.ID), first["id"])
	assert.Equal(t, float64(older.ID), list[1].(map[string]interface{})["id"])

	items := first["items"].([]interface{})
	require.Len(t, items, 1)
	product := items[0].(map[string]interface{})["product"].(map[string]interface{})
	assert.Equal(t, models.ProductTypeCustomizable, product["type"])

	w = env.do("auth0|artist-1", testutil.JSONRequest(t, http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "CUSTOMER_PROFILE_REQUIRED", testutil.ErrorCode(testutil.DecodeBody(t, w)))
}

func TestListMyOrders_Empty(t *testing.T) {
	env := setupControllerTest(t)
	testutil.CreateCustomer(t, env.db, "auth0|customer-1")

	w := env.do("auth0|customer-1", testutil.JSONRequest(t, http.MethodGet, "/api/v1/orders", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, dataList(t, w))
}

func TestGetOrder_Access(t *testing.T) {
	env := setupControllerTest(t)
	customer := testutil.CreateCustomer(t, env.db, "auth0|customer-1")
	testutil.CreateCustomer(t, env.db, "auth0|customer-2")
	artist := testutil.CreateArtist(t, env.db, "auth0|artist-1")
	testutil.CreateArtist(t, env.db, "auth0|artist-2")

	order := env.placeOrder(customer, artist, 55, time.Now())
	path := fmt.Sprintf("/api/v1/orders/%d", order.ID)

	tests := []struct {
		name       string
		caller     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"ordering customer", "auth0|customer-1", path, http.StatusOK, ""},
		{"artist of an ordered product", "auth0|artist-1", path, http.StatusOK, ""},
		{"another customer", "auth0|customer-2", path, http.StatusForbidden, "FORBIDDEN"},
		{"unrelated artist", "auth0|artist-2", path, http.StatusForbidden, "FORBIDDEN"},
		{"unknown order", "auth0|customer-1", "/api/v1/orders/9999", http.StatusNotFound, "ORDER_NOT_FOUND"},
		{"invalid id", "auth0|customer-1", "/api/v1/orders/zero", http.StatusBadRequest, "INVALID_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.caller, testutil.JSONRequest(t, http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, testutil.ErrorCode(testutil.DecodeBody(t, w)))
				return
			}
			data := dataMap(t, w)
			assert.Equal(t, float64(order.ID), data["id"])
			requireDecimal(t, 55, data["total_amount"])
		})
	}
}
