package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"rockspotter/models"
	"rockspotter/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret(strings.Repeat("m", 32))
}

func TestAuthMiddleware(t *testing.T) {
	userID := primitive.NewObjectID()
	token, err := utils.GenerateJWTToken(userID.Hex(), "alice@example.com", models.RoleModerator)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	router := gin.New()
	router.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.Hex(), "role": CurrentRole(c)})
	})

	cases := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"bad format", "Token " + token, "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"valid header", "Bearer " + token, "", http.StatusOK},
		{"valid query", "", "?token=" + token, http.StatusOK},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.name, tc.status, w.Code)
		}
		if tc.status == http.StatusOK && !strings.Contains(w.Body.String(), userID.Hex()) {
			t.Errorf("%s: expected user ID in response, got %s", tc.name, w.Body.String())
		}
	}
}

func TestRBACPolicies(t *testing.T) {
	if err := InitCasbin(""); err != nil {
		t.Fatalf("InitCasbin failed: %v", err)
	}

	cases := []struct {
		role, resource, action string
		allowed                bool
	}{
		{models.RoleAdmin, "achievement", "award", true},
		{models.RoleAdmin, "rock", "delete", true},
		{models.RoleModerator, "hunt", "delete", true},
		{models.RoleModerator, "user", "update", false},
		{models.RoleModerator, "achievement", "create", false},
		{models.RoleUser, "user", "read", false},
		{"", "user", "read", false},
	}
	for _, tc := range cases {
		if got := Allowed(tc.role, tc.resource, tc.action); got != tc.allowed {
			t.Errorf("Allowed(%q, %s, %s): expected %v, got %v", tc.role, tc.resource, tc.action, tc.allowed, got)
		}
	}

	router := gin.New()
	router.POST("/award", func(c *gin.Context) {
		c.Set(ContextRole, c.GetHeader("X-Role"))
		c.Next()
	}, RBACMiddleware("achievement", "award"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for role, want := range map[string]int{models.RoleAdmin: http.StatusNoContent, models.RoleUser: http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodPost, "/award", nil)
		req.Header.Set("X-Role", role)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("role %s: expected %d, got %d", role, want, w.Code)
		}
	}
}

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memCounter) Count(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key], nil
}

func (m *memCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

// scriptedRedis answers commands in place of a server
type scriptedRedis struct {
	count     int64
	ttl       time.Duration
	expireErr error
	expires   int
}

func (s *scriptedRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (s *scriptedRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() != "expire" {
			err := fmt.Errorf("unexpected command %s", cmd.Name())
			cmd.SetErr(err)
			return err
		}
		s.expires++
		if s.expireErr != nil {
			cmd.SetErr(s.expireErr)
			return s.expireErr
		}
		cmd.(*redis.BoolCmd).SetVal(true)
		return nil
	}
}

func (s *scriptedRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			switch c := cmd.(type) {
			case *redis.IntCmd:
				c.SetVal(s.count)
			case *redis.DurationCmd:
				c.SetVal(s.ttl)
			}
		}
		return nil
	}
}

func newScriptedCounter(script *scriptedRedis) HitCounter {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	rdb.AddHook(script)
	return NewRedisCounter(rdb)
}

func TestRedisCounterHitSetsWindow(t *testing.T) {
	ctx := context.Background()

	script := &scriptedRedis{count: 1, ttl: -1}
	n, err := newScriptedCounter(script).Hit(ctx, "rate:test:1.2.3.4", time.Minute)
	if err != nil || n != 1 {
		t.Errorf("Expected first hit to count 1, got %d err=%v", n, err)
	}
	if script.expires != 1 {
		t.Errorf("Expected the window to be set once, got %d", script.expires)
	}

	script = &scriptedRedis{count: 7, ttl: 30 * time.Second}
	if _, err := newScriptedCounter(script).Hit(ctx, "rate:test:1.2.3.4", time.Minute); err != nil {
		t.Errorf("Hit failed: %v", err)
	}
	if script.expires != 0 {
		t.Errorf("Expected a running window to be left alone, got %d expires", script.expires)
	}

	// a key that lost its expiry gets one on the next hit
	script = &scriptedRedis{count: 7, ttl: -1}
	if _, err := newScriptedCounter(script).Hit(ctx, "rate:test:1.2.3.4", time.Minute); err != nil {
		t.Errorf("Hit failed: %v", err)
	}
	if script.expires != 1 {
		t.Errorf("Expected the missing window to be restored, got %d expires", script.expires)
	}
}

func TestRedisCounterHitReportsExpireFailure(t *testing.T) {
	script := &scriptedRedis{count: 1, ttl: -1, expireErr: errors.New("READONLY")}
	if _, err := newScriptedCounter(script).Hit(context.Background(), "rate:test:1.2.3.4", time.Minute); err == nil {
		t.Errorf("Expected an error when the window cannot be set")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	counter := &memCounter{counts: make(map[string]int64)}
	limit := RateLimit{Name: "test", Max: 3, Window: time.Minute, Message: "slow down"}

	router := gin.New()
	router.GET("/", RateLimitMiddleware(counter, limit), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 1; i <= 4; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		want := http.StatusOK
		if i == 4 {
			want = http.StatusTooManyRequests
		}
		if w.Code != want {
			t.Errorf("request %d: expected %d, got %d", i, want, w.Code)
		}
	}
}

func TestAuthRateLimitCountsFailuresOnly(t *testing.T) {
	counter := &memCounter{counts: make(map[string]int64)}
	limit := AuthRateLimit
	limit.Max = 2

	router := gin.New()
	router.POST("/login", RateLimitMiddleware(counter, limit), func(c *gin.Context) {
		if c.Query("ok") == "1" {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusUnauthorized)
	})

	send := func(path string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		return w.Code
	}

	for i := 0; i < 5; i++ {
		if code := send("/login?ok=1"); code != http.StatusOK {
			t.Fatalf("Expected successful logins to be unlimited, got %d", code)
		}
	}
	send("/login")
	send("/login")
	if code := send("/login?ok=1"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after 2 failures, got %d", code)
	}
}

func TestRateLimitDisabledWithoutCounter(t *testing.T) {
	router := gin.New()
	router.GET("/", RateLimitMiddleware(NewRedisCounter(nil), APIRateLimit), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected pass-through without Redis, got %d", w.Code)
	}
}
