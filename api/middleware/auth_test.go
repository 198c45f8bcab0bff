package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/auth/session"
	"github.com/farmfresh/farmfresh-backend/pkg/config"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token := mintTestToken(t, enums.RoleCustomer, nil)

	for name, verifier := range map[string]stubSessionVerifier{
		"revoked":     {ok: false},
		"store error": {err: errors.New("redis down")},
	} {
		handler := Auth(testJWT, verifier, nil)(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code == http.StatusOK {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

func TestAuthAttachesPrincipal(t *testing.T) {
	farmID := uuid.New()
	token := mintTestToken(t, enums.RoleFarmer, &farmID)

	var captured auth.Principal
	var accessID string
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = PrincipalFromContext(r.Context())
		accessID = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.UserID == uuid.Nil {
		t.Fatal("expected user id in context")
	}
	if !captured.OwnsFarm(farmID) {
		t.Fatalf("expected farmer principal for %s got %+v", farmID, captured)
	}
	if accessID == "" {
		t.Fatal("expected access id in context")
	}
}

func TestRequireRole(t *testing.T) {
	farmID := uuid.New()
	cases := []struct {
		name      string
		principal *auth.Principal
		want      int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"customer", &auth.Principal{UserID: uuid.New(), Role: enums.RoleCustomer}, http.StatusForbidden},
		{"farmer without profile", &auth.Principal{UserID: uuid.New(), Role: enums.RoleFarmer}, http.StatusForbidden},
		{"farmer", &auth.Principal{UserID: uuid.New(), Role: enums.RoleFarmer, FarmerProfileID: &farmID}, http.StatusOK},
		{"admin", &auth.Principal{UserID: uuid.New(), Role: enums.RoleAdmin}, http.StatusOK},
	}
	handler := RequireRole(nil, enums.RoleFarmer, enums.RoleAdmin)(okHandler())

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.principal != nil {
			req = req.WithContext(WithPrincipal(req.Context(), *tc.principal))
		}
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.want, resp.Code)
		}
	}
}

func mintTestToken(t *testing.T, role enums.Role, farmID *uuid.UUID) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		UserID:          uuid.New(),
		Role:            role,
		FarmerProfileID: farmID,
		JTI:             session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}
