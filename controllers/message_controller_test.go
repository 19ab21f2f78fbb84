package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youssefabdellah10/craftopia-sub000/internal/testutil"
	"github.com/youssefabdellah10/craftopia-sub000/models"
)

func TestSendMessage(t *testing.T) {
	env := setupControllerTest(t)
	customer := testutil.CreateCustomer(t, env.db, "auth0|customer-1")
	artist := testutil.CreateArtist(t, env.db, "auth0|artist-1")
	order := env.placeOrder(customer, artist, 60, time.Now())
	path := fmt.Sprintf("/api/v1/orders/%d/messages", order.ID)

	w := env.do("auth0|customer-1", testutil.JSONRequest(t, http.MethodPost, path,
		map[string]string{"text": "  Could the clasp be gold instead?  "}))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := dataMap(t, w)
	assert.Equal(t, "Could the clasp be gold instead?", data["text"])
	assert.Equal(t, customer.User.Name, data["sender_name"])
	assert.Equal(t, models.RoleCustomer, data["sender_role"])
	assert.Equal(t, float64(order.ID), data["order_id"])

	w = env.do("auth0|artist-1", testutil.JSONRequest(t, http.MethodPost, path,
		map[string]string{"text": "Yes, no extra charge."}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, models.RoleArtist, dataMap(t, w)["sender_role"])

	var count int64
	env.db.Model(&models.Message{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestSendMessage_Validation(t *testing.T) {
	env := setupControllerTest(t)
	customer := testutil.CreateCustomer(t, env.db, "auth0|customer-1")
	artist := testutil.CreateArtist(t, env.db, "auth0|artist-1")
	order := env.placeOrder(customer, artist, 60, time.Now())
	path := fmt.Sprintf("/api/v1/orders/%d/messages", order.ID)

	tests := []struct {
		name string
		body any
	}{
		{"missing text", map[string]string{}},
		{"blank text", map[string]string{"text": "   "}},
		{"text too long", map[string]string{"text": strings.Repeat("a", 2001)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("auth0|customer-1", testutil.JSONRequest(t, http.MethodPost, path, tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", testutil.ErrorCode(testutil.DecodeBody(t, w)))
		})
	}
}

func TestSendMessage_NonParticipant(t *testing.T) {
	env := setupControllerTest(t)
	customer := testutil.CreateCustomer(t, env.db, "auth0|customer-1")
	testutil.CreateCustomer(t, env.db, "auth0|customer-2")
	artist := testutil.CreateArtist(t, env.db, "auth0|artist-1")
	order := env.placeOrder(customer, artist, 60, time.Now())

	w := env.do("auth0|customer-2", testutil.JSONRequest(t, http.MethodPost,
		fmt.Sprintf("/api/v1/orders/%d/messages", order.ID), map[string]string{"text": "hello"}))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", testutil.ErrorCode(testutil.DecodeBody(t, w)))

	w = env.do("auth0|customer-1", testutil.JSONRequest(t, http.MethodPost,
		"/api/v1/orders/9999/messages", map[string]string{"text": "hello"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListMessages(t *testing.T) {
	env := setupControllerTest(t)
	customer := testutil.CreateCustomer(t, env.db, "auth0|customer-1")
	artist := testutil.CreateArtist(t, env.db, "auth0|artist-1")
	order := env.placeOrder(customer, artist, 60, time.Now())
	otherOrder := env.placeOrder(customer, artist, 20, time.Now())

	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, env.db.Create(&models.Message{
			OrderID:    order.ID,
			SenderID:   customer.UserID,
			SenderName: customer.Name,
			SenderRole: models.RoleCustomer,
			Text:       text,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	require.NoError(t, env.db.Create(&models.Message{
		OrderID: otherOrder.ID, SenderID: customer.UserID, SenderName: customer.Name, SenderRole: models.RoleCustomer, Text: "elsewhere",
	}).Error)

	w := env.do("auth0|artist-1", testutil.JSONRequest(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/messages", order.ID), nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := dataList(t, w)
	require.Len(t, list, 3)
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, want, list[i].(map[string]interface{})["text"])
	}
}
