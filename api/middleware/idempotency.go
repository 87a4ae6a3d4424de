package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shiksha-labs/prashnagen/api/responses"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
	pkgredis "github.com/shiksha-labs/prashnagen/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	chargeReplayTTL = 24 * time.Hour
	topUpReplayTTL  = 7 * 24 * time.Hour
	// in-flight marker outlives the generation timeout
	inFlightTTL = 5 * time.Minute
)

// idempotentRoute marks a money-moving route. Patterns are chi route patterns.
type idempotentRoute struct {
	method string
	prefix string
	suffix string
	ttl    time.Duration
}

func (r idempotentRoute) matches(method, pattern string) bool {
	if r.method != method {
		return false
	}
	if r.suffix == "" {
		return pattern == r.prefix
	}
	return strings.HasPrefix(pattern, r.prefix) && strings.HasSuffix(pattern, r.suffix)
}

var idempotentRoutes = []idempotentRoute{
	{method: http.MethodPost, prefix: "/api/v1/questions/generate", ttl: chargeReplayTTL},
	{method: http.MethodPost, prefix: "/api/v1/wallet/top-up", ttl: topUpReplayTTL},
	{method: http.MethodPut, prefix: "/api/admin/v1/users/", suffix: "/balance", ttl: chargeReplayTTL},
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body"`
	RequestHash string `json:"request_hash"`
}

// Idempotency makes retries of debit and credit routes safe. A repeated Idempotency-Key with the
// same body replays the first successful response; a concurrent duplicate is refused while the
// first is still running. Failed attempts are not stored, so the client may retry with the same key.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := replayTTL(r.Method, routePattern(r))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			scope := strings.Join([]string{UserIDFromContext(ctx), r.Method, r.URL.Path}, "|")
			recordKey := store.IdempotencyKey(scope, clientKey)
			hash := digest(body)

			replayed, err := replay(ctx, store, w, recordKey, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if replayed {
				return
			}

			lockKey := store.IdempotencyKey(scope+"|inflight", clientKey)
			token := uuid.NewString()
			acquired, err := store.AcquireLock(ctx, lockKey, token, inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !acquired {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is already in progress"))
				return
			}
			defer func() {
				if err := store.ReleaseLock(context.WithoutCancel(ctx), lockKey, token); err != nil && logg != nil {
					logg.Error(ctx, "idempotency.release_failed", err)
				}
			}()

			// a duplicate may have finished between the first lookup and the lock
			replayed, err = replay(ctx, store, w, recordKey, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if replayed {
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			if capture.status < http.StatusOK || capture.status >= http.StatusMultipleChoices {
				return
			}
			remember(context.WithoutCancel(ctx), store, logg, recordKey, ttl, storedResponse{
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				RequestHash: hash,
			})
		})
	}
}

// replay writes a stored response for key, if any. A stored response for a different body is a conflict.
func replay(ctx context.Context, store pkgredis.IdempotencyStore, w http.ResponseWriter, key, hash string) (bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	if stored.RequestHash != hash {
		return false, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
	}
	body, err := base64.StdEncoding.DecodeString(stored.Body)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency body")
	}

	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(body)
	return true, nil
}

func remember(ctx context.Context, store pkgredis.IdempotencyStore, logg *logger.Logger, key string, ttl time.Duration, resp storedResponse) {
	payload, err := json.Marshal(resp)
	if err == nil {
		_, err = store.SetNX(ctx, key, string(payload), ttl)
	}
	if err != nil && logg != nil {
		logg.Error(ctx, "idempotency.persist_failed", err)
	}
}

func digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// routePattern prefers the matched chi pattern so path parameters do not defeat rule matching.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func replayTTL(method, pattern string) (time.Duration, bool) {
	for _, route := range idempotentRoutes {
		if route.matches(method, pattern) {
			return route.ttl, true
		}
	}
	return 0, false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
