package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shiksha-labs/prashnagen/api/responses"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
)

type fixedWindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy budgets a credential endpoint per client IP and per submitted email.
// A zero limit disables that dimension.
type AuthRateLimitPolicy struct {
	Name     string
	Window   time.Duration
	PerIP    int
	PerEmail int
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.Window > 0 && (p.PerIP > 0 || p.PerEmail > 0)
}

func (p AuthRateLimitPolicy) scope(kind, value string) string {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		name = "auth"
	}
	return "auth:" + name + ":" + kind + ":" + value
}

// AuthRateLimit throttles login and registration before any password work happens.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || !policy.enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if ip := clientIP(r); policy.PerIP > 0 && ip != "" {
				if !spend(ctx, w, limiter, logg, policy.scope("ip", ip), policy.PerIP, policy.Window, map[string]any{"ip": ip}) {
					return
				}
			}

			if policy.PerEmail > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if email := submittedEmail(body); email != "" {
					digest := hashValue(email)
					if !spend(ctx, w, limiter, logg, policy.scope("email", digest), policy.PerEmail, policy.Window, map[string]any{"email_hash": digest}) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserRateLimit caps how often one authenticated user may hit a route within a fixed window.
func UserRateLimit(name string, limit int, window time.Duration, limiter fixedWindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 || window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID != "" && !spend(r.Context(), w, limiter, logg, name+":"+userID, limit, window, nil) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// spend takes one unit from the window and writes the rejection itself when the budget is gone.
func spend(ctx context.Context, w http.ResponseWriter, limiter fixedWindowLimiter, logg *logger.Logger, scope string, limit int, window time.Duration, fields map[string]any) bool {
	allowed, count, err := limiter.FixedWindowAllow(ctx, scope, int64(limit), window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if allowed {
		return true
	}

	if logg != nil {
		logFields := map[string]any{
			"scope":          strings.SplitN(scope, ":", 2)[0],
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(window.Seconds()),
		}
		for k, v := range fields {
			logFields[k] = v
		}
		logg.Warn(logg.WithFields(ctx, logFields), "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, slow down"))
	return false
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
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

func submittedEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
