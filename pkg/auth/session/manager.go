// Package session keeps refresh sessions in redis, one record per issued access token.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/farmfresh/farmfresh-backend/pkg/config"
	redisclient "github.com/farmfresh/farmfresh-backend/pkg/redis"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	errMissingAccessID     = errors.New("access id is required")
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// record is what redis holds under the access id. Only a digest of the refresh
// token is stored.
type record struct {
	UserID      uuid.UUID `json:"uid"`
	RefreshHash string    `json:"rh"`
	IssuedAt    time.Time `json:"iat"`
}

// Rotation is the outcome of a successful refresh: the session now lives under
// AccessID and UserID is the account it was opened for.
type Rotation struct {
	AccessID     string
	RefreshToken string
	UserID       uuid.UUID
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager opens, rotates and revokes refresh sessions.
type Manager struct {
	store store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager requires the refresh ttl to outlive the access token.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newManager(client, cfg)
}

func newManager(s store, cfg config.JWTConfig) (*Manager, error) {
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if accessTTL := cfg.AccessTokenTTL(); ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: s, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Open starts a session for userID bound to accessID and returns the refresh token.
func (m *Manager) Open(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", errMissingAccessID
	}
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	return m.write(ctx, accessID, userID)
}

// Rotate consumes the session under oldAccessID when provided matches, and
// opens a fresh one for the same user.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (Rotation, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return Rotation{}, ErrInvalidRefreshToken
	}
	key := m.store.AccessSessionKey(oldAccessID)
	current, err := m.read(ctx, key)
	if err != nil {
		return Rotation{}, err
	}
	if subtle.ConstantTimeCompare([]byte(current.RefreshHash), []byte(digest(provided))) != 1 {
		return Rotation{}, ErrInvalidRefreshToken
	}

	// drop the old session first so a replayed pair cannot rotate twice
	if err := m.store.Del(ctx, key); err != nil {
		return Rotation{}, fmt.Errorf("drop session: %w", err)
	}
	next := NewAccessID()
	token, err := m.write(ctx, next, current.UserID)
	if err != nil {
		return Rotation{}, err
	}
	return Rotation{AccessID: next, RefreshToken: token, UserID: current.UserID}, nil
}

// Revoke deletes the session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errMissingAccessID
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

// HasSession reports whether the access id still has a live session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, errMissingAccessID
	}
	if _, err := m.read(ctx, m.store.AccessSessionKey(accessID)); err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces the identifier used as the JWT jti and the redis key.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) write(ctx context.Context, accessID string, userID uuid.UUID) (string, error) {
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(record{UserID: userID, RefreshHash: digest(token), IssuedAt: m.now()})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), string(payload), m.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// read maps a missing or unreadable record to ErrInvalidRefreshToken.
func (m *Manager) read(ctx context.Context, key string) (record, error) {
	raw, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return record{}, ErrInvalidRefreshToken
		}
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.UserID == uuid.Nil {
		return record{}, ErrInvalidRefreshToken
	}
	return rec, nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
