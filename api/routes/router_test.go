package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	authsvc "github.com/pvalette/boutique-backend/internal/auth"
	cartsvc "github.com/pvalette/boutique-backend/internal/cart"
	"github.com/pvalette/boutique-backend/internal/catalog"
	deliverysvc "github.com/pvalette/boutique-backend/internal/deliveries"
	ordersvc "github.com/pvalette/boutique-backend/internal/orders"
	supportsvc "github.com/pvalette/boutique-backend/internal/support"
	pkgauth "github.com/pvalette/boutique-backend/pkg/auth"
	"github.com/pvalette/boutique-backend/pkg/config"
	"github.com/pvalette/boutique-backend/pkg/db/models"
	"github.com/pvalette/boutique-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type fakeIdemStore struct {
	data map[string]string
}

func (f *fakeIdemStore) Get(_ context.Context, key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeIdemStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeIdemStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("test:%s:%s", scope, id)
}

func (f *fakeIdemStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, authsvc.RegisterInput) (*models.User, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Login(context.Context, string, string) (*authsvc.TokenPair, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Refresh(context.Context, string, string) (*authsvc.TokenPair, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Logout(context.Context, string) error { return nil }

func (stubAuthService) Profile(context.Context, uuid.UUID) (*models.User, error) {
	return &models.User{ID: uuid.New(), Email: "shopper@example.com"}, nil
}

func (stubAuthService) UpdateProfile(context.Context, uuid.UUID, authsvc.UpdateProfileInput) (*models.User, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubCatalog struct{}

func (stubCatalog) List(context.Context, catalog.ListFilter) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (stubCatalog) Get(context.Context, uuid.UUID) (*models.Product, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubCatalog) Create(context.Context, catalog.CreateProductInput) (*models.Product, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubCatalog) Update(context.Context, uuid.UUID, catalog.UpdateProductInput) (*models.Product, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubCatalog) Deactivate(context.Context, uuid.UUID) error { return nil }

func (stubCatalog) Reserve(context.Context, *gorm.DB, uuid.UUID, int) error { return nil }

func (stubCatalog) Release(context.Context, *gorm.DB, uuid.UUID, int) error { return nil }

type stubCart struct{}

func (stubCart) Add(context.Context, uuid.UUID, uuid.UUID, int) error { return nil }

func (stubCart) Remove(context.Context, uuid.UUID, uuid.UUID, int) error { return nil }

func (stubCart) View(context.Context, uuid.UUID) (*cartsvc.View, error) {
	return &cartsvc.View{Items: []cartsvc.LineView{}}, nil
}

func (stubCart) Items(context.Context, uuid.UUID) ([]models.CartItem, error) {
	return []models.CartItem{}, nil
}

func (stubCart) Clear(context.Context, *gorm.DB, uuid.UUID) error { return nil }

type stubOrders struct{}

func (stubOrders) Checkout(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubOrders) PayByCard(context.Context, ordersvc.PayByCardInput) (*ordersvc.PaymentOutcome, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubOrders) RequestCancellation(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubOrders) Refund(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubOrders) List(context.Context, uuid.UUID) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrders) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubOrders) Payments(context.Context, uuid.UUID, uuid.UUID) ([]models.Payment, error) {
	return []models.Payment{}, nil
}

func (stubOrders) AttachDelivery(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) error { return nil }

func (stubOrders) MarkShipped(context.Context, *gorm.DB, uuid.UUID) error { return nil }

func (stubOrders) MarkDelivered(context.Context, *gorm.DB, uuid.UUID) error { return nil }

type stubBilling struct{}

func (stubBilling) Issue(context.Context, *gorm.DB, *models.Order) (*models.Invoice, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubBilling) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Invoice, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubBilling) GetByOrder(context.Context, uuid.UUID, uuid.UUID) (*models.Invoice, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubBilling) List(context.Context, uuid.UUID) ([]models.Invoice, error) {
	return []models.Invoice{}, nil
}

type stubDeliveries struct{}

func (stubDeliveries) Prepare(context.Context, deliverysvc.PrepareInput) (*models.Delivery, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubDeliveries) Ship(context.Context, uuid.UUID) (*models.Delivery, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubDeliveries) MarkDelivered(context.Context, uuid.UUID) (*models.Delivery, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubDeliveries) Track(context.Context, uuid.UUID, uuid.UUID) (*models.Delivery, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubSupport struct{}

func (stubSupport) Open(context.Context, uuid.UUID, supportsvc.OpenInput) (*models.SupportThread, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubSupport) PostMessage(context.Context, uuid.UUID, *uuid.UUID, string) (*models.SupportMessage, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubSupport) Close(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (stubSupport) List(context.Context, uuid.UUID) ([]models.SupportThread, error) {
	return []models.SupportThread{}, nil
}

func (stubSupport) Get(context.Context, uuid.UUID, uuid.UUID) (*models.SupportThread, error) {
	return nil, fmt.Errorf("not implemented")
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev, Port: "0"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "boutique-test", ExpirationMinutes: 30},
	}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          stubPinger{},
		Sessions:    stubSessions{},
		Idempotency: &fakeIdemStore{data: map[string]string{}},
		AuthService: stubAuthService{},
		Catalog:     stubCatalog{},
		Cart:        stubCart{},
		Orders:      stubOrders{},
		Billing:     stubBilling{},
		Deliveries:  stubDeliveries{},
		Support:     stubSupport{},
	})
}

func bearerToken(t *testing.T) string {
	t.Helper()
	cfg := config.JWTConfig{Secret: "router-test-secret", Issuer: "boutique-test", ExpirationMinutes: 30}
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics", "/api/v1/products"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestRouterRejectsUnauthenticatedPrivateRoutes(t *testing.T) {
	router := testRouter(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/cart"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodPost, "/api/v1/checkout"},
		{http.MethodGet, "/api/v1/me"},
		{http.MethodGet, "/api/v1/support/threads"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s %s got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestRouterServesAuthenticatedCart(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+bearerToken(t))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}

	var body struct {
		Data cartsvc.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode cart view: %v", err)
	}
	if body.Data.TotalCents != 0 {
		t.Fatalf("expected empty cart, got total %d", body.Data.TotalCents)
	}
}

func TestRouterCheckoutRequiresIdempotencyKey(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+bearerToken(t))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key got %d", resp.Code)
	}
}
