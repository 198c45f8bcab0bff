package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/farmfresh/farmfresh-backend/api/responses"
	"github.com/farmfresh/farmfresh-backend/pkg/config"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
	"github.com/farmfresh/farmfresh-backend/pkg/logger"
	pkgredis "github.com/farmfresh/farmfresh-backend/pkg/redis"
)

// Only the head of a body is inspected for the account email.
const maxThrottleBody = 64 << 10

// subjectFunc names who a request is counted against. An empty subject skips
// the limit for that request.
type subjectFunc func(r *http.Request, body []byte) string

type limit struct {
	dimension string
	max       int64
	subject   subjectFunc
	readsBody bool
}

// Throttle is a named set of fixed-window limits sharing one window. Limits are
// checked in the order they were added and the first exhausted one rejects.
type Throttle struct {
	name   string
	window time.Duration
	limits []limit
}

func NewThrottle(name string, window time.Duration) *Throttle {
	return &Throttle{name: strings.ToLower(strings.TrimSpace(name)), window: window}
}

// ByClientIP counts requests per client address.
func (t *Throttle) ByClientIP(perWindow int) *Throttle {
	return t.add(limit{dimension: "ip", max: int64(perWindow), subject: func(r *http.Request, _ []byte) string {
		return clientIP(r)
	}})
}

// ByAccountEmail counts requests per email in the JSON body. The email is
// hashed before it reaches redis or the logs.
func (t *Throttle) ByAccountEmail(perWindow int) *Throttle {
	return t.add(limit{dimension: "email", max: int64(perWindow), readsBody: true, subject: func(_ *http.Request, body []byte) string {
		email := accountEmail(body)
		if email == "" {
			return ""
		}
		sum := sha256.Sum256([]byte(email))
		return hex.EncodeToString(sum[:])
	}})
}

// ByCaller counts requests per authenticated user. Mount it after Auth.
func (t *Throttle) ByCaller(perWindow int) *Throttle {
	return t.add(limit{dimension: "user", max: int64(perWindow), subject: func(r *http.Request, _ []byte) string {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			return ""
		}
		return p.UserID.String()
	}})
}

func (t *Throttle) add(l limit) *Throttle {
	if l.max > 0 {
		t.limits = append(t.limits, l)
	}
	return t
}

func (t *Throttle) enabled() bool {
	return t != nil && t.window > 0 && len(t.limits) > 0
}

func (t *Throttle) readsBody() bool {
	for _, l := range t.limits {
		if l.readsBody {
			return true
		}
	}
	return false
}

func (t *Throttle) scope(dimension, subject string) string {
	name := t.name
	if name == "" {
		name = "default"
	}
	return name + ":" + dimension + ":" + subject
}

func (t *Throttle) retryAfter() string {
	return strconv.Itoa(int(math.Ceil(t.window.Seconds())))
}

func LoginThrottle(cfg config.AuthRateLimitConfig) *Throttle {
	return NewThrottle("login", cfg.LoginWindow).
		ByClientIP(cfg.LoginIPLimit).
		ByAccountEmail(cfg.LoginEmailLimit)
}

func RegisterThrottle(cfg config.AuthRateLimitConfig) *Throttle {
	return NewThrottle("register", cfg.RegisterWindow).
		ByClientIP(cfg.RegisterIPLimit).
		ByAccountEmail(cfg.RegisterEmailLimit)
}

// PlaceOrderThrottle limits how fast one customer can submit orders. Mount it
// ahead of Idempotency so a rejection is never stored as the key's response.
func PlaceOrderThrottle(cfg config.OrdersConfig) *Throttle {
	return NewThrottle("place-order", cfg.PlaceWindow).ByCaller(cfg.PlaceLimit)
}

// RateLimit enforces t against the shared redis limiter. A disabled throttle
// or a missing limiter mounts as a no-op.
func RateLimit(t *Throttle, limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !t.enabled() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var body []byte
			if t.readsBody() && r.Body != nil {
				var err error
				body, err = io.ReadAll(io.LimitReader(r.Body, maxThrottleBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
					return
				}
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
			}

			for _, l := range t.limits {
				subject := l.subject(r, body)
				if subject == "" {
					continue
				}
				allowed, count, err := limiter.FixedWindowAllow(ctx, t.scope(l.dimension, subject), l.max, t.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"throttle":       t.name,
							"dimension":      l.dimension,
							"attempts":       count,
							"limit":          l.max,
							"window_seconds": int(t.window.Seconds()),
						}), "rate_limit.blocked")
					}
					w.Header().Set("Retry-After", t.retryAfter())
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, try again later"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		first, _, _ := strings.Cut(header, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func accountEmail(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}
