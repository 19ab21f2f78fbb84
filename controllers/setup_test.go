package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/youssefabdellah10/craftopia-sub000/internal/testutil"
	"github.com/youssefabdellah10/craftopia-sub000/models"
	"github.com/youssefabdellah10/craftopia-sub000/services"
	"gorm.io/gorm"
)

// testEnv bundles the database and the mocked collaborators of one test
type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	mailer *services.MockEmailService
	images *services.MockImageService
	events *services.MockEventPublisher
}

func setupControllerTest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		t:      t,
		db:     testutil.NewTestDB(t),
		mailer: services.NewMockEmailService(),
		images: services.NewMockImageService(),
		events: services.NewMockEventPublisher(),
	}
	env.mailer.SetAsMockForTesting()
	env.images.SetAsMockForTesting()
	services.SetEventPublisher(env.events)

	t.Cleanup(func() {
		services.GetTaskRunner().Wait()
		services.SetEventPublisher(services.NoopEventPublisher{})
	})
	return env
}

// router registers the handlers under their production paths, authenticated as auth0ID
func (e *testEnv) router(auth0ID string) *gin.Engine {
	router := gin.New()
	authed := router.Group("/api/v1", testutil.MockAuth(auth0ID, "", "test-access-token"))

	requests := authed.Group("/customization-requests")
	requests.POST("", CreateCustomizationRequest)
	requests.GET("/open", ListOpenCustomizationRequests)
	requests.GET("/mine", ListMyCustomizationRequests)
	requests.GET("/mine/no-offers", ListMyCustomizationRequestsWithoutOffers)
	requests.GET("/:id", GetCustomizationRequest)
	requests.PATCH("/:id/close", CloseCustomizationRequest)
	requests.POST("/:id/responses", RespondToCustomizationRequest)

	responses := authed.Group("/customization-responses")
	responses.GET("/mine", ListMyCustomizationResponses)
	responses.GET("/artist-mine", ListArtistCustomizationResponses)
	responses.PATCH("/:id/accept", AcceptCustomizationResponse)
	responses.PATCH("/:id/decline", DeclineCustomizationResponse)

	orders := authed.Group("/orders")
	orders.GET("", ListMyOrders)
	orders.GET("/:id", GetOrder)
	orders.GET("/:id/messages", ListMessages)
	orders.POST("/:id/messages", SendMessage)

	authed.POST("/users", CreateUser)
	authed.GET("/users/me", GetMyProfile)
	authed.PUT("/users/me", UpdateMyProfile)

	return router
}

// do serves req as auth0ID and drains background tasks before returning
func (e *testEnv) do(auth0ID string, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router(auth0ID).ServeHTTP(w, req)
	services.GetTaskRunner().Wait()
	return w
}

func (e *testEnv) openRequest(customer models.Customer, title string) models.CustomizationRequest {
	e.t.Helper()

	request := models.CustomizationRequest{
		CustomerID:  customer.ID,
		Title:       title,
		Description: "Hand-thrown stoneware, speckled glaze",
		Budget:      decimal.NewFromInt(120),
		Deadline:    time.Now().AddDate(0, 2, 0),
		Status:      models.RequestStatusOpen,
	}
	require.NoError(e.t, e.db.Create(&request).Error)
	return request
}

func (e *testEnv) respond(request models.CustomizationRequest, artist models.Artist, price int64, status string) models.CustomizationResponse {
	e.t.Helper()

	response := models.CustomizationResponse{
		RequestID:                request.ID,
		ArtistID:                 artist.ID,
		Price:                    decimal.NewFromInt(price),
		EstimationCompletionTime: time.Now().AddDate(0, 1, 0),
		Status:                   status,
	}
	require.NoError(e.t, e.db.Create(&response).Error)
	return response
}

func futureDate(months int) string {
	return time.Now().AddDate(0, months, 0).Format("2006-01-02")
}

func dataMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	response := testutil.DecodeBody(t, w)
	require.Equal(t, true, response["success"], "body: %s", w.Body.String())
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "data should be an object: %s", w.Body.String())
	return data
}

func dataList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()

	response := testutil.DecodeBody(t, w)
	require.Equal(t, true, response["success"], "body: %s", w.Body.String())
	data, ok := response["data"].([]interface{})
	require.True(t, ok, "data should be a list: %s", w.Body.String())
	return data
}

func requireDecimal(t *testing.T, want int64, got interface{}) {
	t.Helper()

	s, ok := got.(string)
	require.True(t, ok, "decimal should be encoded as a string, got %v", got)
	require.True(t, decimal.RequireFromString(s).Equal(decimal.NewFromInt(want)), "want %d, got %s", want, s)
}
