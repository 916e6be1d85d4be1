package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/moonmist/storefront/internal/events"
	"github.com/moonmist/storefront/internal/hash"
	"github.com/moonmist/storefront/internal/middleware/auth"
	"github.com/moonmist/storefront/internal/models"
	"github.com/moonmist/storefront/internal/token"
)

type testEnv struct {
	E         *echo.Echo
	DB        *gorm.DB
	Issuer    *token.Issuer
	Auth      *AuthHandler
	Product   *ProductHandler
	Cart      *CartHandler
	Favorites *FavoritesHandler
}

// stubStorage stands in for the S3 uploader.
type stubStorage struct{}

func (stubStorage) UploadImage(_ context.Context, filename, _ string, _ io.Reader) (string, error) {
	return "https://cdn.test/" + filename, nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.CartItem{}, &models.Favorite{}))

	issuer := token.NewIssuer([]byte("test-secret"), time.Hour)
	producer := &events.Producer{}

	return &testEnv{
		E:         echo.New(),
		DB:        db,
		Issuer:    issuer,
		Auth:      &AuthHandler{DB: db, Issuer: issuer, Producer: producer},
		Product:   &ProductHandler{DB: db, Producer: producer, Storage: stubStorage{}, Index: "products"},
		Cart:      &CartHandler{DB: db, Producer: producer},
		Favorites: &FavoritesHandler{DB: db, Producer: producer},
	}
}

func (env *testEnv) doJSON(method, path string, payload any) (*httptest.ResponseRecorder, echo.Context) {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) doMultipart(method, path string, fields map[string]string, images ...string) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for _, name := range images {
		fw, _ := w.CreateFormFile("images", name)
		_, _ = fw.Write([]byte("image-bytes"))
	}
	_ = w.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) createUser(t *testing.T, name, email, role string) *models.User {
	t.Helper()
	passwordHash, err := hash.HashPassword("password")
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	require.NoError(t, env.DB.Create(user).Error)
	return user
}

func (env *testEnv) createProduct(t *testing.T, title string, price float64) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.NewString(),
		Title:      title,
		Price:      price,
		Images:     []string{},
		Categories: []string{},
		Attributes: map[string]any{},
	}
	require.NoError(t, env.DB.Create(product).Error)
	return product
}

func asUser(c echo.Context, user *models.User) {
	auth.SetClaims(c, &token.Claims{UserID: user.ID, Email: user.Email, Role: user.Role})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
