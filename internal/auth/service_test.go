package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmfresh/farmfresh-backend/internal/users"
	pkgAuth "github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/auth/session"
	"github.com/farmfresh/farmfresh-backend/pkg/config"
	"github.com/farmfresh/farmfresh-backend/pkg/db"
	"github.com/farmfresh/farmfresh-backend/pkg/db/dbtest"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:                 "test-secret",
	Issuer:                 "farmfresh",
	ExpirationMinutes:      15,
	RefreshTokenTTLMinutes: 60,
}

// fakeSessions keeps refresh sessions in memory keyed by access id.
type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]fakeSession
	seq      int
}

type fakeSession struct {
	userID uuid.UUID
	token  string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]fakeSession{}}
}

func (f *fakeSessions) Open(_ context.Context, accessID string, userID uuid.UUID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	token := fmt.Sprintf("refresh-%d", f.seq)
	f.sessions[accessID] = fakeSession{userID: userID, token: token}
	return token, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, oldAccessID, provided string) (session.Rotation, error) {
	f.mu.Lock()
	stored, ok := f.sessions[oldAccessID]
	if !ok || stored.token != provided {
		f.mu.Unlock()
		return session.Rotation{}, session.ErrInvalidRefreshToken
	}
	delete(f.sessions, oldAccessID)
	f.mu.Unlock()
	next := session.NewAccessID()
	token, err := f.Open(ctx, next, stored.userID)
	return session.Rotation{AccessID: next, RefreshToken: token, UserID: stored.userID}, err
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, accessID)
	return nil
}

func (f *fakeSessions) has(accessID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sessions[accessID]
	return ok
}

func newAuthService(t *testing.T) (Service, *fakeSessions, *users.Repository) {
	t.Helper()
	svc, sessions, repo, _ := newAuthServiceWithDB(t)
	return svc, sessions, repo
}

func newAuthServiceWithDB(t *testing.T) (Service, *fakeSessions, *users.Repository, *db.Client) {
	t.Helper()
	client := dbtest.New(t)
	repo := users.NewRepository(client.DB())
	sessions := newFakeSessions()
	svc, err := NewService(ServiceParams{
		Users:          repo,
		Tx:             client,
		SessionManager: sessions,
		Hasher: security.NewHasher(config.PasswordConfig{
			ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
		}),
		JWTConfig: testJWT,
	})
	require.NoError(t, err)
	return svc, sessions, repo, client
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func TestRegisterFarmerCreatesProfile(t *testing.T) {
	svc, sessions, repo := newAuthService(t)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    " Farmer@Example.com ",
		Password: "correct-horse",
		Name:     "老王",
		Role:     enums.RoleFarmer,
		FarmName: "老王果园",
		Region:   "山东烟台",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User.FarmerProfileID)
	assert.Equal(t, "farmer@example.com", resp.User.Email)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleFarmer, claims.Role)
	assert.Equal(t, resp.User.FarmerProfileID, claims.FarmerProfileID)
	assert.True(t, sessions.has(claims.ID))

	stored, err := repo.FindByEmail(context.Background(), "farmer@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.FarmerProfile)
	assert.Equal(t, "老王果园", stored.FarmerProfile.FarmName)
}

func TestRegisterRejectsDuplicatesAndBadRoles(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()
	req := RegisterRequest{Email: "buyer@example.com", Password: "password1", Name: "买家", Role: enums.RoleCustomer}

	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	admin := req
	admin.Email = "root@example.com"
	admin.Role = enums.RoleAdmin
	_, err = svc.Register(ctx, admin)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	farmer := req
	farmer.Email = "farm@example.com"
	farmer.Role = enums.RoleFarmer
	_, err = svc.Register(ctx, farmer)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "farm name required")
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "password1", Name: "A", Role: enums.RoleCustomer})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "A@example.com", Password: "password1"})
	require.NoError(t, err)
	require.NotNil(t, resp.User.LastLoginAt)
	assert.Nil(t, resp.User.FarmerProfileID)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password1"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, sessions, _ := newAuthService(t)
	ctx := context.Background()
	first, err := svc.Register(ctx, RegisterRequest{Email: "r@example.com", Password: "password1", Name: "R", Role: enums.RoleCustomer})
	require.NoError(t, err)
	oldClaims, err := pkgAuth.ParseAccessToken(testJWT, first.AccessToken)
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	newClaims, err := pkgAuth.ParseAccessToken(testJWT, second.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldClaims.ID, newClaims.ID)
	assert.False(t, sessions.has(oldClaims.ID))
	assert.True(t, sessions.has(newClaims.ID))

	// the old pair is spent
	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	svc, sessions, repo := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterRequest{Email: "e@example.com", Password: "password1", Name: "E", Role: enums.RoleCustomer})
	require.NoError(t, err)
	user, err := repo.FindByEmail(ctx, "e@example.com")
	require.NoError(t, err)

	accessID := session.NewAccessID()
	expired, err := pkgAuth.MintAccessToken(testJWT, time.Now().Add(-time.Hour), pkgAuth.AccessTokenPayload{
		UserID: user.ID, Role: user.Role, JTI: accessID,
	})
	require.NoError(t, err)
	refresh, err := sessions.Open(ctx, accessID, user.ID)
	require.NoError(t, err)

	_, err = pkgAuth.ParseAccessToken(testJWT, expired)
	require.Error(t, err)

	resp, err := svc.Refresh(ctx, RefreshRequest{AccessToken: expired, RefreshToken: refresh})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRefreshRejectsSessionOfAnotherUser(t *testing.T) {
	svc, sessions, _ := newAuthService(t)
	ctx := context.Background()
	alice, err := svc.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "password1", Name: "Alice", Role: enums.RoleCustomer})
	require.NoError(t, err)
	bob, err := svc.Register(ctx, RegisterRequest{Email: "bob@example.com", Password: "password1", Name: "Bob", Role: enums.RoleCustomer})
	require.NoError(t, err)
	bobClaims, err := pkgAuth.ParseAccessToken(testJWT, bob.AccessToken)
	require.NoError(t, err)

	// alice's refresh token presented under an access token minted for alice's
	// jti but bob's uid
	aliceClaims, err := pkgAuth.ParseAccessToken(testJWT, alice.AccessToken)
	require.NoError(t, err)
	forged, err := pkgAuth.MintAccessToken(testJWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: bobClaims.UserID, Role: enums.RoleCustomer, JTI: aliceClaims.ID,
	})
	require.NoError(t, err)

	before := sessions.count()
	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: forged, RefreshToken: alice.RefreshToken})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, before-1, sessions.count(), "the consumed session is not replaced")
}

func TestRefreshSurfacesStorageFailures(t *testing.T) {
	svc, sessions, _, client := newAuthServiceWithDB(t)
	ctx := context.Background()
	resp, err := svc.Register(ctx, RegisterRequest{Email: "d@example.com", Password: "password1", Name: "D", Role: enums.RoleCustomer})
	require.NoError(t, err)

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal), "got %v", err)
	assert.Zero(t, sessions.count(), "rotated session must be revoked")
}

func TestRefreshRejectsInactiveUser(t *testing.T) {
	svc, sessions, repo, client := newAuthServiceWithDB(t)
	ctx := context.Background()
	resp, err := svc.Register(ctx, RegisterRequest{Email: "i@example.com", Password: "password1", Name: "I", Role: enums.RoleCustomer})
	require.NoError(t, err)
	user, err := repo.FindByEmail(ctx, "i@example.com")
	require.NoError(t, err)
	require.NoError(t, client.DB().Model(user).Update("is_active", false).Error)

	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	assert.Zero(t, sessions.count())
}

func TestLogoutAndMe(t *testing.T) {
	svc, sessions, _ := newAuthService(t)
	ctx := context.Background()
	resp, err := svc.Register(ctx, RegisterRequest{Email: "m@example.com", Password: "password1", Name: "M", Role: enums.RoleCustomer})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)

	me, err := svc.Me(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, "m@example.com", me.Email)

	require.NoError(t, svc.Logout(ctx, claims.ID))
	assert.False(t, sessions.has(claims.ID))

	_, err = svc.Me(ctx, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
