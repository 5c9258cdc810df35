package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"cryptomart/internal/domain"
	"cryptomart/internal/pricing"
	authsvc "cryptomart/internal/service/auth"
	productsvc "cryptomart/internal/service/product"
	salesvc "cryptomart/internal/service/sale"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

type stubAuthService struct {
	registerErr error
	adminErr    error
	loginErr    error
	loggedOut   []string
}

func (s *stubAuthService) Register(_ context.Context, _ authsvc.Credentials) (string, error) {
	return "new-token", s.registerErr
}

func (s *stubAuthService) Login(_ context.Context, username, _ string) (string, domain.Role, error) {
	if s.loginErr != nil {
		return "", "", s.loginErr
	}
	return "login-token", domain.RoleAdmin, nil
}

func (s *stubAuthService) CreateAdmin(_ context.Context, in authsvc.Credentials) (*domain.User, error) {
	if s.adminErr != nil {
		return nil, s.adminErr
	}
	return &domain.User{ID: "u-admin", Username: in.Username, Role: domain.RoleAdmin}, nil
}

func (s *stubAuthService) Authenticate(_ context.Context, token string) (authsvc.Claims, error) {
	switch token {
	case adminToken:
		return authsvc.Claims{UserID: "u-admin", Role: domain.RoleAdmin, SessionID: "s-admin"}, nil
	case userToken:
		return authsvc.Claims{UserID: "u-user", Role: domain.RoleUser, SessionID: "s-user"}, nil
	}
	return authsvc.Claims{}, authsvc.ErrInvalidToken
}

func (s *stubAuthService) Logout(_ context.Context, sessionID string) error {
	s.loggedOut = append(s.loggedOut, sessionID)
	return nil
}

type stubProductService struct {
	products  []domain.Product
	lastInput productsvc.CreateInput
	total     pricing.Money
	createErr error
}

func (s *stubProductService) Create(_ context.Context, ownerID string, in productsvc.CreateInput) (*domain.Product, error) {
	s.lastInput = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	price, err := pricing.Parse(strings.TrimSpace(in.Price))
	if err != nil {
		return nil, err
	}
	return &domain.Product{ID: "p-new", Name: in.Name, Price: price, Quantity: in.Quantity, CreatedBy: ownerID}, nil
}

func (s *stubProductService) List(context.Context) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubProductService) Count(context.Context) (int, error) {
	return len(s.products), nil
}

func (s *stubProductService) TotalSales(context.Context) (pricing.Money, error) {
	return s.total, nil
}

type stubSaleService struct {
	recordErr  error
	lastSeller string
}

func (s *stubSaleService) Quote(_ context.Context, lines []salesvc.LineInput) (*domain.Cart, error) {
	cart := &domain.Cart{}
	for _, l := range lines {
		if err := cart.Add(domain.Product{ID: l.ProductID, Price: pricing.MustParse("10.50")}, l.Quantity); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

func (s *stubSaleService) Record(ctx context.Context, sellerID string, customer domain.Customer, lines []salesvc.LineInput) (*domain.Sale, error) {
	s.lastSeller = sellerID
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	cart, _ := s.Quote(ctx, lines)
	return &domain.Sale{ID: "sale-1", SoldBy: sellerID, Customer: customer, Lines: cart.Lines, Total: cart.Total}, nil
}

func (s *stubSaleService) Get(_ context.Context, id, viewerID string, admin bool) (*domain.Sale, error) {
	if id != "sale-1" || (!admin && viewerID != "u-user") {
		return nil, domain.ErrNotFound
	}
	return &domain.Sale{ID: id, SoldBy: "u-user", Total: pricing.MustParse("0.999999999999999")}, nil
}

type stubUserService struct{ count int }

func (s *stubUserService) Count(context.Context) (int, error) { return s.count, nil }

type fixture struct {
	router   *gin.Engine
	auth     *stubAuthService
	products *stubProductService
	sales    *stubSaleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth: &stubAuthService{},
		products: &stubProductService{products: []domain.Product{
			{ID: "p1", Name: "Miner", Price: pricing.MustParse("0.333333333333333"), Quantity: 1, CreatedAt: time.Now()},
		}},
		sales: &stubSaleService{},
	}
	router, err := buildRouter(zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)), nil, Deps{
		AuthSvc:    f.auth,
		ProductSvc: f.products,
		SaleSvc:    f.sales,
		UserSvc:    &stubUserService{count: 5},
	})
	require.NoError(t, err)
	f.router = router
	return f
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestBuildRouterRequiresServices(t *testing.T) {
	_, err := buildRouter(zap.NewNop(), nil, Deps{})
	require.Error(t, err)
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/readyz", "", "").Code)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestReadyHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{errors.New("down"), http.StatusServiceUnavailable},
	} {
		r := gin.New()
		r.GET("/readyz", readyHandler(fakePinger{err: tc.err}))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, tc.want, rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/products/sales/total", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "msg": "Authentication invalid"}, decode(t, rec))

	rec = f.do(http.MethodGet, "/api/products/sales/total", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/products", userToken, `{"price":"1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized to access this route", decode(t, rec)["msg"])
}

func TestCreateProduct_PriceForms(t *testing.T) {
	f := newFixture(t)
	base := `{"name":"Ledger","description":"wallet","image":"x.png","manufacturingYear":"2023-01-01","quantity":2,"price":%s}`

	for _, tc := range []struct {
		raw      string
		wantRaw  string
		wantCode int
		wantOut  string
	}{
		{`"10.50"`, "10.50", http.StatusCreated, "10.5"},
		{`" 7.25 "`, " 7.25 ", http.StatusCreated, "7.25"},
		{`10.50`, "10.50", http.StatusCreated, "10.5"},
		{`0.1000000000000000000000001`, "0.1000000000000000000000001", http.StatusCreated, "0.1000000000000000000000001"},
		{`"abc"`, "abc", http.StatusBadRequest, ""},
		{`-5`, "-5", http.StatusBadRequest, ""},
		{`1e5`, "1e5", http.StatusBadRequest, ""},
		{`null`, "", http.StatusBadRequest, ""},
	} {
		rec := f.do(http.MethodPost, "/api/products", adminToken, strings.Replace(base, "%s", tc.raw, 1))
		require.Equal(t, tc.wantCode, rec.Code, "price %s: %s", tc.raw, rec.Body.String())
		assert.Equal(t, tc.wantRaw, f.products.lastInput.Price, "price %s", tc.raw)

		body := decode(t, rec)
		if tc.wantCode != http.StatusCreated {
			assert.Equal(t, "price must be a valid positive number", body["msg"])
			continue
		}
		product := body["product"].(map[string]any)
		assert.Equal(t, tc.wantOut, product["price"], "price must be serialised as a string")
		assert.Equal(t, true, body["success"])
	}
}

func TestCreateProduct_BadDate(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/products", adminToken, `{"name":"x","price":"1","manufacturingYear":"yesterday"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateProduct_FieldValidation(t *testing.T) {
	f := newFixture(t)
	f.products.createErr = domain.NewValidationError("Please provide product name", "quantity cannot be negative")
	rec := f.do(http.MethodPost, "/api/products", adminToken, `{"price":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide product name; quantity cannot be negative", decode(t, rec)["msg"])
}

func TestListAndGetProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["count"])
	products := body["products"].([]any)
	assert.Equal(t, "0.333333333333333", products[0].(map[string]any)["price"])

	rec = f.do(http.MethodGet, "/api/products/p1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/products/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No product found with id: nope", decode(t, rec)["msg"])

	rec = f.do(http.MethodGet, "/api/products/count", "", "")
	assert.Equal(t, float64(1), decode(t, rec)["count"])
}

func TestTotalSalesIsRoundedForDisplay(t *testing.T) {
	f := newFixture(t)
	f.products.total = pricing.MustParse("31.833333333333333")

	rec := f.do(http.MethodGet, "/api/products/sales/total", userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"totalSales": "31.83"}, decode(t, rec))

	f.products.total = pricing.Zero
	rec = f.do(http.MethodGet, "/api/products/sales/total", userToken, "")
	assert.Equal(t, "0.00", decode(t, rec)["totalSales"])
}

func TestAuthRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/auth/register", "", `{"username":"a","email":"a@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User registered successfully", decode(t, rec)["msg"])

	f.auth.registerErr = domain.ErrAlreadyExists
	rec = f.do(http.MethodPost, "/api/auth/register", "", `{"username":"a","email":"a@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/login", "", `{"username":"a","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "login-token", body["token"])
	assert.Equal(t, "admin", body["role"])

	f.auth.loginErr = authsvc.ErrInvalidCredentials
	rec = f.do(http.MethodPost, "/api/auth/login", "", `{"username":"a","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/login", "", `{"username":"a"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/add-admin", "", `{"username":"root","email":"r@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	f.auth.adminErr = domain.ErrAlreadyExists
	rec = f.do(http.MethodPost, "/api/auth/add-admin", "", `{"username":"root","email":"r@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Admin already exists", decode(t, rec)["msg"])

	rec = f.do(http.MethodPost, "/api/auth/logout", userToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"s-user"}, f.auth.loggedOut)
}

func TestUsersCount(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/users/count", "", "")
	assert.Equal(t, map[string]any{"count": float64(5)}, decode(t, rec))
}

func TestSalesRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/sales/quote", "", `{"products":[{"productId":"p1","quantity":1}]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/sales/quote", userToken, `{"products":[{"productId":"p1","quantity":3}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode(t, rec)["cart"].(map[string]any)
	assert.Equal(t, "31.5", cart["totalPrice"])

	sale := `{"customer":{"fullName":"Ada","contactNumber":"1","email":"ada@example.com","walletAddress":"0xabc"},"products":[{"productId":"p1","quantity":2}]}`
	rec = f.do(http.MethodPost, "/api/sales", userToken, sale)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "u-user", f.sales.lastSeller)
	assert.Equal(t, "21", decode(t, rec)["sale"].(map[string]any)["totalAmount"])

	rec = f.do(http.MethodPost, "/api/sales", userToken, `{"customer":{},"products":[{"productId":"p1","quantity":2}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.sales.recordErr = domain.ErrInsufficientStock
	rec = f.do(http.MethodPost, "/api/sales", userToken, sale)
	assert.Equal(t, http.StatusConflict, rec.Code)

	f.sales.recordErr = errors.New("db down")
	rec = f.do(http.MethodPost, "/api/sales", userToken, sale)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Something went wrong", decode(t, rec)["msg"])
}

func TestGetSaleRoute(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/sales/sale-1", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/sales/sale-1", userToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.999999999999999", decode(t, rec)["sale"].(map[string]any)["totalAmount"])

	rec = f.do(http.MethodGet, "/api/sales/sale-1", adminToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/sales/nope", userToken, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No sale found with id: nope", decode(t, rec)["msg"])
}

func TestParseManufacturingDate(t *testing.T) {
	for _, in := range []string{"2023", "2023-04-05", "2023-04-05T10:00:00Z"} {
		got, err := parseManufacturingDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2023, got.Year())
	}
	got, err := parseManufacturingDate("  ")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
	_, err = parseManufacturingDate("03/04/2023")
	assert.Error(t, err)
}
