package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiksha-labs/prashnagen/internal/admin"
	"github.com/shiksha-labs/prashnagen/internal/generation"
	"github.com/shiksha-labs/prashnagen/internal/taxonomy"
	"github.com/shiksha-labs/prashnagen/internal/users"
	pkgAuth "github.com/shiksha-labs/prashnagen/pkg/auth"
	"github.com/shiksha-labs/prashnagen/pkg/auth/session"
	"github.com/shiksha-labs/prashnagen/pkg/config"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
	"github.com/shiksha-labs/prashnagen/pkg/metrics"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAdminService struct {
	admin.Service
}

func (stubAdminService) ListUsers(ctx context.Context, filter users.ListFilter, params pagination.Params) (pagination.Page[users.UserDTO], error) {
	return pagination.Page[users.UserDTO]{Items: []users.UserDTO{}}, nil
}

type stubTaxonomyService struct {
	taxonomy.Service
	includeInactive *bool
}

func (s stubTaxonomyService) ListBoards(ctx context.Context, includeInactive bool) ([]taxonomy.BoardDTO, error) {
	if s.includeInactive != nil {
		*s.includeInactive = includeInactive
	}
	return []taxonomy.BoardDTO{{ID: uuid.New(), Name: "CBSE", Code: "CBSE", IsActive: true}}, nil
}

type stubGenerationService struct {
	generation.Service
	mu    sync.Mutex
	calls int
}

func (s *stubGenerationService) Generate(ctx context.Context, userID uuid.UUID, req generation.Request) (*generation.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return &generation.Result{GenerationID: uuid.New(), RequestedCount: req.Count, ActualCount: req.Count, UnitCost: 5, CoinsCharged: int64(5 * req.Count)}, nil
}

// memCache keeps idempotency records and fixed-window counters in memory.
type memCache struct {
	mu       sync.Mutex
	data     map[string]string
	counters map[string]int64
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}, counters: map[string]int64{}}
}

func (c *memCache) Ping(context.Context) error { return nil }

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (c *memCache) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = fmt.Sprint(value)
	return true, nil
}

func (c *memCache) AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return c.SetNX(ctx, key, token, ttl)
}

func (c *memCache) ReleaseLock(_ context.Context, key, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data[key] == token {
		delete(c.data, key)
	}
	return nil
}

func (c *memCache) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (c *memCache) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[scope]++
	n := c.counters[scope]
	return n <= limit, n, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "prashnagen", ExpirationMinutes: 60},
	}
}

func newTestRouter(cfg *config.Config, deps Dependencies) http.Handler {
	if deps.Sessions == nil {
		deps.Sessions = stubSessionManager{}
	}
	if deps.DB == nil {
		deps.DB = stubPinger{}
	}
	return NewRouter(cfg, logger.Nop(), deps)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.SystemRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

func serve(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{})
	resp := serve(router, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{DB: stubPinger{err: assert.AnError}})
	resp := serve(router, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), "database")
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), Dependencies{})
	for _, path := range []string{"/api/v1/me", "/api/v1/wallet", "/api/v1/questions", "/api/v1/pricing"} {
		resp := serve(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
	resp := serve(router, http.MethodPost, "/api/v1/questions/generate", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestPricingListsBloomCosts(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Dependencies{})
	resp := serve(router, http.MethodGet, "/api/v1/pricing", buildToken(t, cfg, enums.SystemRoleUser))
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.Contains(t, body, "remembering")
	assert.Contains(t, body, "creating")
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Dependencies{Admin: stubAdminService{}})

	resp := serve(router, http.MethodGet, "/api/admin/v1/users", buildToken(t, cfg, enums.SystemRoleUser))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = serve(router, http.MethodGet, "/api/admin/v1/users", buildToken(t, cfg, enums.SystemRoleAdmin))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = serve(router, http.MethodGet, "/api/admin/v1/users", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestPublicTaxonomyHidesInactive(t *testing.T) {
	var included bool
	router := newTestRouter(testConfig(), Dependencies{Taxonomy: stubTaxonomyService{includeInactive: &included}})

	resp := serve(router, http.MethodGet, "/api/public/taxonomy/boards", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, included)

	var body struct {
		Data []taxonomy.BoardDTO `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "CBSE", body.Data[0].Code)
}

func TestAdminTaxonomyIncludesInactive(t *testing.T) {
	cfg := testConfig()
	var included bool
	router := newTestRouter(cfg, Dependencies{Taxonomy: stubTaxonomyService{includeInactive: &included}})

	resp := serve(router, http.MethodGet, "/api/admin/v1/taxonomy/boards", buildToken(t, cfg, enums.SystemRoleAdmin))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, included)
}

func TestAdminRegisterMountedOnlyWhenEnabled(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, Dependencies{})
	resp := serve(router, http.MethodPost, "/api/admin/v1/auth/register", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	cfg.FeatureFlags.AdminRegister = true
	router = newTestRouter(cfg, Dependencies{})
	resp = serve(router, http.MethodPost, "/api/admin/v1/auth/register", "")
	assert.NotEqual(t, http.StatusNotFound, resp.Code)

	cfg.App.Env = "prod"
	router = newTestRouter(cfg, Dependencies{})
	resp = serve(router, http.MethodPost, "/api/admin/v1/auth/register", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "prashnagen_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	router := newTestRouter(testConfig(), Dependencies{Metrics: registry})
	resp := serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, strings.Contains(resp.Body.String(), "prashnagen_test_total 1"))
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := newTestRouter(testConfig(), Dependencies{
		Metrics:     registry,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
	})

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health/live", "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/api/v1/questions/"+uuid.NewString(), "").Code)

	body := serve(router, http.MethodGet, "/metrics", "").Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",route="/health/live",status="200"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",route="/api/v1/questions/{questionId}",status="401"} 1`)
}

func TestGenerateReplayDoesNotSpendRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Generation.RateLimit = 1
	cfg.Generation.RateLimitWindow = time.Minute
	cache := newMemCache()
	svc := &stubGenerationService{}
	router := newTestRouter(cfg, Dependencies{Cache: cache, Generation: svc})
	token := buildToken(t, cfg, enums.SystemRoleUser)
	topicID := uuid.NewString()

	post := func(key string) *httptest.ResponseRecorder {
		body := `{"topic_id":"` + topicID + `","question_type":"mcq","bloom_level":"remembering","count":2}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/questions/generate", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", key)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := post("same")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	replayed := post("same")
	require.Equal(t, http.StatusCreated, replayed.Code, replayed.Body.String())
	assert.Equal(t, "true", replayed.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, first.Body.String(), replayed.Body.String())
	assert.Equal(t, 1, svc.calls)

	fresh := post("other")
	assert.Equal(t, http.StatusTooManyRequests, fresh.Code)
	assert.Equal(t, 1, svc.calls)
}
