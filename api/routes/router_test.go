package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmfresh/farmfresh-backend/api/controllers"
	product "github.com/farmfresh/farmfresh-backend/internal/products"
	pkgAuth "github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/config"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	"github.com/farmfresh/farmfresh-backend/pkg/metrics"
	"github.com/farmfresh/farmfresh-backend/pkg/pagination"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubProducts struct {
	product.Service
	filters product.ListFilters
}

func (s *stubProducts) List(_ context.Context, filters product.ListFilters, params pagination.Params) (pagination.Page[product.ProductDTO], error) {
	s.filters = filters
	return pagination.NewPage([]product.ProductDTO{}, 0, params), nil
}

func (s *stubProducts) ListOwn(_ context.Context, _ pkgAuth.Principal, _ *enums.ProductStatus, params pagination.Params) (pagination.Page[product.ProductDTO], error) {
	return pagination.NewPage([]product.ProductDTO{}, 0, params), nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", CORSAllowedOrigins: []string{"*"}},
		JWT: config.JWTConfig{
			Secret:            "router-secret",
			Issuer:            "farmfresh",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(t *testing.T, mutate func(*Deps)) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	deps := Deps{
		Config:      testConfig(),
		Sessions:    stubSessions{},
		Ready:       map[string]controllers.Pinger{"db": stubPinger{}},
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewRouter(deps)
}

func bearer(t *testing.T, role enums.Role, farmID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:          uuid.New(),
		Role:            role,
		FarmerProfileID: farmID,
		JTI:             uuid.NewString(),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

// signedClaims signs claims as is, for tokens the minting helper refuses to issue.
func signedClaims(t *testing.T, claims pkgAuth.AccessTokenClaims) string {
	t.Helper()
	cfg := testConfig().JWT
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		Subject:   claims.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)
	return "Bearer " + token
}

func do(h http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	resp := do(router, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get("X-FarmFresh-Env"))

	resp = do(router, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, resp.Code)

	failing := newTestRouter(t, func(d *Deps) {
		d.Ready = map[string]controllers.Pinger{"redis": stubPinger{err: errors.New("down")}}
	})
	resp = do(failing, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	products := &stubProducts{}
	router := newTestRouter(t, func(d *Deps) { d.Products = products })

	resp := do(router, http.MethodGet, "/api/v1/products?keyword=%E8%8B%B9%E6%9E%9C&organic=true", "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "苹果", products.filters.Keyword)
	require.NotNil(t, products.filters.Organic)
	assert.True(t, *products.filters.Organic)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, path := range []string{"/api/v1/cart", "/api/v1/addresses", "/api/v1/orders", "/api/v1/auth/me"} {
		resp := do(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
}

func TestFarmerRoutesRejectCustomers(t *testing.T) {
	router := newTestRouter(t, func(d *Deps) { d.Products = &stubProducts{} })

	resp := do(router, http.MethodGet, "/api/v1/farmer/products", bearer(t, enums.RoleCustomer, nil))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// a farmer token without a profile cannot act as a farm
	noProfile := signedClaims(t, pkgAuth.AccessTokenClaims{UserID: uuid.New(), Role: enums.RoleFarmer})
	resp = do(router, http.MethodPut, "/api/v1/farmer/profile", noProfile)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	farmID := uuid.New()
	resp = do(router, http.MethodGet, "/api/v1/farmer/products", bearer(t, enums.RoleFarmer, &farmID))
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestMetricsEndpointExportsRequests(t *testing.T) {
	router := newTestRouter(t, nil)
	do(router, http.MethodGet, "/health/live", "")

	resp := do(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.True(t, strings.Contains(body, "http_requests_total"), "missing request counter")
	assert.Contains(t, body, `route="/health/live"`)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	resp := do(newTestRouter(t, nil), http.MethodGet, "/api/v1/nope", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
