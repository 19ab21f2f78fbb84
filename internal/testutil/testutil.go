// Package testutil holds the database and auth fixtures shared by handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/youssefabdellah10/craftopia-sub000/config"
	"github.com/youssefabdellah10/craftopia-sub000/middleware"
	"github.com/youssefabdellah10/craftopia-sub000/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated in-memory sqlite database and installs it as config.DB
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), config.GormConfig())
	require.NoError(t, err, "Failed to connect to test database")

	// each connection to :memory: would otherwise see its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db), "Failed to migrate test database")
	config.SetDB(db)
	return db
}

// MockAuth sets the context exactly as middleware.EnsureValidToken does
func MockAuth(auth0ID, role, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, auth0ID)
		c.Set(middleware.ContextAccessToken, accessToken)
		c.Set(middleware.ContextClaims, &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{
				Issuer:  "https://craftopia.test.auth0.com/",
				Subject: auth0ID,
			},
			CustomClaims: &middleware.CustomClaims{Role: role},
		})
		c.Next()
	}
}

// CreateCustomer inserts a user with a customer profile
func CreateCustomer(t *testing.T, db *gorm.DB, auth0ID string) models.Customer {
	t.Helper()

	user := models.User{Auth0ID: auth0ID, Name: gofakeit.Name(), Email: gofakeit.Email(), Role: models.RoleCustomer}
	require.NoError(t, db.Create(&user).Error)
	customer := models.Customer{UserID: user.ID, Name: user.Name}
	require.NoError(t, db.Create(&customer).Error)
	customer.User = user
	return customer
}

// CreateArtist inserts a user with an artist profile
func CreateArtist(t *testing.T, db *gorm.DB, auth0ID string) models.Artist {
	t.Helper()

	user := models.User{Auth0ID: auth0ID, Name: gofakeit.Name(), Email: gofakeit.Email(), Role: models.RoleArtist}
	require.NoError(t, db.Create(&user).Error)
	artist := models.Artist{UserID: user.ID, Name: user.Name, Username: gofakeit.Username() + gofakeit.DigitN(4)}
	require.NoError(t, db.Create(&artist).Error)
	artist.User = user
	return artist
}

// JSONRequest builds a request with body encoded as JSON (nil for no body)
func JSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// MultipartRequest builds a multipart/form-data request with fields and an
// optional "image" file.
func MultipartRequest(t *testing.T, method, path string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// DecodeBody unmarshals a JSON response body into a generic map
func DecodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response should be valid JSON: %s", w.Body.String())
	return response
}

// ErrorCode returns error.code from an error envelope
func ErrorCode(response map[string]interface{}) string {
	errObj, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}
