package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"sweetshop/internal/config"
	"sweetshop/internal/domain/model"
	"sweetshop/internal/handler"
	infra "sweetshop/internal/infra/repository"
	repo "sweetshop/internal/repository"
	"sweetshop/internal/server"
	"sweetshop/internal/usecase"
)

const testSecret = "handler-test-secret"

// UserRepositoryのテスト用インメモリ実装
type userMemoryRepo struct {
	byEmail map[string]*model.User
}

func newUserMemoryRepo() *userMemoryRepo {
	return &userMemoryRepo{byEmail: make(map[string]*model.User)}
}

func (r *userMemoryRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return u, nil
}

func (r *userMemoryRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (r *userMemoryRepo) Create(ctx context.Context, u *model.User) error {
	r.byEmail[u.Email] = u
	return nil
}

type testIDGen struct{}

func (g *testIDGen) NewID() string { return uuid.NewString() }

type testClock struct{}

func (c *testClock) Now() time.Time { return time.Now() }

type testIssuer struct{}

func (i *testIssuer) Issue(userID string, role model.Role, now time.Time) (string, time.Time, error) {
	exp := now.Add(time.Hour)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	return signed, exp, err
}

func newTestApp(t *testing.T) (*echo.Echo, *infra.SweetMemoryRepository) {
	t.Helper()

	cfg := config.Config{
		JWTSecret:   testSecret,
		FrontendURL: "http://localhost:5173",
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := infra.NewSweetMemoryRepository()
	inventoryUC := usecase.NewInventoryUsecase(store)
	catalogUC := usecase.NewCatalogUsecase(store)
	authUC := usecase.NewAuthUsecase(
		newUserMemoryRepo(),
		usecase.NewBcryptPasswordHasher(4),
		usecase.NewBcryptPasswordVerifier(),
		&testIssuer{},
		&testIDGen{},
		&testClock{},
	)

	e := server.New(
		cfg,
		log,
		handler.NewAuthHandler(authUC),
		handler.NewSweetHandler(inventoryUC, catalogUC),
		handler.NewAdminSweetHandler(inventoryUC),
	)
	return e, store
}

func token(t *testing.T, role model.Role) string {
	t.Helper()

	signed, _, err := (&testIssuer{}).Issue(uuid.NewString(), role, time.Now())
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(e *echo.Echo, method string, path string, bearer string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func seed(t *testing.T, store *infra.SweetMemoryRepository, name string, qty int64, price float64) model.Sweet {
	t.Helper()

	now := time.Now()
	s, err := store.Create(context.Background(), model.Sweet{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  model.CategoryChocolate,
		Price:     decimal.NewFromFloat(price),
		Quantity:  qty,
		ImageURL:  model.DefaultImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed sweet: %v", err)
	}
	return s
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return m
}

// =====================
// 認可まわり
// =====================

func TestSweetRoutes_RequireAuthentication(t *testing.T) {
	e, _ := newTestApp(t)

	rec := doJSON(e, http.MethodGet, "/api/sweets", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutes_RejectUserRole(t *testing.T) {
	e, _ := newTestApp(t)

	rec := doJSON(e, http.MethodPost, "/api/sweets", token(t, model.RoleUser),
		`{"name":"Choco Bar","category":"chocolate","price":2.5,"quantity":3}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// =====================
// Purchase
// =====================

func TestPurchase_SuccessPayload(t *testing.T) {
	e, store := newTestApp(t)
	s := seed(t, store, "Choco Bar", 3, 2.50)

	rec := doJSON(e, http.MethodPost, "/api/sweets/"+s.ID+"/purchase", token(t, model.RoleUser),
		`{"quantity":3}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Purchase successful", body["message"])
	assert.Equal(t, float64(3), body["purchased"])
	assert.Equal(t, float64(7.5), body["total"])

	sweet, ok := body["sweet"].(map[string]interface{})
	assert.True(t, ok, "sweet object missing")
	assert.Equal(t, float64(0), sweet["quantity"])
}

func TestPurchase_InsufficientStockPayload(t *testing.T) {
	e, store := newTestApp(t)
	s := seed(t, store, "Choco Bar", 0, 2.50)

	rec := doJSON(e, http.MethodPost, "/api/sweets/"+s.ID+"/purchase", token(t, model.RoleUser),
		`{"quantity":1}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Insufficient stock. Only 0 items available.", body["error"])
}

func TestPurchase_UnknownSweet(t *testing.T) {
	e, _ := newTestApp(t)

	rec := doJSON(e, http.MethodPost, "/api/sweets/"+uuid.NewString()+"/purchase", token(t, model.RoleUser),
		`{"quantity":1}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Sweet not found", body["error"])
}

func TestPurchase_MissingQuantity(t *testing.T) {
	e, store := newTestApp(t)
	s := seed(t, store, "Choco Bar", 3, 2.50)

	rec := doJSON(e, http.MethodPost, "/api/sweets/"+s.ID+"/purchase", token(t, model.RoleUser), `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Quantity is required", body["error"])
}

// =====================
// List / Search
// =====================

func TestList_PaginationBlock(t *testing.T) {
	e, store := newTestApp(t)
	for i := 0; i < 12; i++ {
		seed(t, store, "Sweet", 1, 1.00)
	}

	rec := doJSON(e, http.MethodGet, "/api/sweets?page=2&limit=5", token(t, model.RoleUser), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	sweets, ok := body["sweets"].([]interface{})
	assert.True(t, ok, "sweets array missing")
	assert.Len(t, sweets, 5)

	pg, ok := body["pagination"].(map[string]interface{})
	assert.True(t, ok, "pagination block missing")
	assert.Equal(t, float64(2), pg["page"])
	assert.Equal(t, float64(5), pg["limit"])
	assert.Equal(t, float64(12), pg["total"])
	assert.Equal(t, float64(3), pg["pages"])
}

func TestSearch_NoPaginationBlock(t *testing.T) {
	e, store := newTestApp(t)
	seed(t, store, "Caramel Toffee", 1, 3.00)
	seed(t, store, "Mint Drop", 1, 8.00)

	rec := doJSON(e, http.MethodGet, "/api/sweets/search?minPrice=1&maxPrice=5", token(t, model.RoleUser), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	sweets, ok := body["sweets"].([]interface{})
	assert.True(t, ok, "sweets array missing")
	assert.Len(t, sweets, 1)

	_, hasPagination := body["pagination"]
	assert.False(t, hasPagination, "search must not paginate")
}

// =====================
// Admin CRUD / Restock
// =====================

func TestAdminCreate_ReturnsCreatedSweet(t *testing.T) {
	e, _ := newTestApp(t)

	rec := doJSON(e, http.MethodPost, "/api/sweets", token(t, model.RoleAdmin),
		`{"name":"Choco Bar","category":"chocolate","price":2.5,"quantity":3,"description":"dark"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Sweet created successfully", body["message"])

	sweet := body["sweet"].(map[string]interface{})
	assert.NotEmpty(t, sweet["id"])
	assert.Equal(t, "Choco Bar", sweet["name"])
	assert.Equal(t, model.DefaultImageURL, sweet["imageUrl"])
}

func TestAdminUpdate_PartialFieldsOnly(t *testing.T) {
	e, store := newTestApp(t)
	s := seed(t, store, "Choco Bar", 3, 2.50)

	rec := doJSON(e, http.MethodPut, "/api/sweets/"+s.ID, token(t, model.RoleAdmin),
		`{"price":3.25}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Sweet updated successfully", body["message"])

	sweet := body["sweet"].(map[string]interface{})
	assert.Equal(t, float64(3.25), sweet["price"])
	assert.Equal(t, "Choco Bar", sweet["name"])
	assert.Equal(t, float64(3), sweet["quantity"])
}

func TestAdminDelete_ThenPurchaseIsNotFound(t *testing.T) {
	e, store := newTestApp(t)
	s := seed(t, store, "Choco Bar", 3, 2.50)

	rec := doJSON(e, http.MethodDelete, "/api/sweets/"+s.ID, token(t, model.RoleAdmin), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sweet deleted successfully", decodeBody(t, rec)["message"])

	rec = doJSON(e, http.MethodPost, "/api/sweets/"+s.ID+"/purchase", token(t, model.RoleUser),
		`{"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRestock_Payload(t *testing.T) {
	e, store := newTestApp(t)
	s := seed(t, store, "Choco Bar", 0, 2.50)

	rec := doJSON(e, http.MethodPost, "/api/sweets/"+s.ID+"/restock", token(t, model.RoleAdmin),
		`{"quantity":10}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Restock successful", body["message"])
	assert.Equal(t, float64(10), body["restocked"])

	sweet := body["sweet"].(map[string]interface{})
	assert.Equal(t, float64(10), sweet["quantity"])
}

// =====================
// Auth
// =====================

func TestAuth_RegisterThenLogin(t *testing.T) {
	e, _ := newTestApp(t)

	rec := doJSON(e, http.MethodPost, "/api/auth/register", "",
		`{"email":"candy@example.com","password":"sugar-rush"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "User registered successfully", body["message"])
	assert.NotEmpty(t, body["token"])

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "candy@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	_, leaked := user["passwordHash"]
	assert.False(t, leaked, "password hash must not be serialized")

	rec = doJSON(e, http.MethodPost, "/api/auth/login", "",
		`{"email":"candy@example.com","password":"sugar-rush"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", decodeBody(t, rec)["message"])

	rec = doJSON(e, http.MethodPost, "/api/auth/login", "",
		`{"email":"candy@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_DuplicateRegistration(t *testing.T) {
	e, _ := newTestApp(t)

	first := doJSON(e, http.MethodPost, "/api/auth/register", "",
		`{"email":"candy@example.com","password":"sugar-rush"}`)
	assert.Equal(t, http.StatusCreated, first.Code)

	second := doJSON(e, http.MethodPost, "/api/auth/register", "",
		`{"email":"candy@example.com","password":"sugar-rush"}`)
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Equal(t, "User already exists with this email", decodeBody(t, second)["error"])
}
