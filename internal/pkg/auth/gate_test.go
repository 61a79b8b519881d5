package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	cacheport "go-roomchat/internal/infrastructure/cache/port"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	"go-roomchat/internal/pkg/chat/persistence/repository/memory"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap/zaptest"
)

const testSecret = "jwt-test-secret"

func sign(t *testing.T, secret, subject string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject, ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

type mapCache struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.values[k]; ok {
			delete(c.values, k)
			n++
		}
	}
	return n, nil
}

func (c *mapCache) Ping(context.Context) error { return nil }
func (c *mapCache) Close() error               { return nil }

func newStore() *memory.Store {
	s := memory.NewStore()
	s.AddUser(5, "alice")
	return s
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	gate := NewJWTGate(testSecret, newStore(), WithLogger(zaptest.NewLogger(t)))
	token := sign(t, testSecret, "alice", time.Hour)

	for _, cred := range []string{token, "Bearer " + token, "bearer  " + token} {
		p, err := gate.Verify(context.Background(), cred)
		if err != nil {
			t.Fatalf("verify %q: %v", cred, err)
		}
		if p != (chat.Principal{ID: 5, DisplayName: "alice"}) {
			t.Fatalf("unexpected principal %+v", p)
		}
	}
}

func TestVerifyRejects(t *testing.T) {
	gate := NewJWTGate(testSecret, newStore())
	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": sign(t, "other", "alice", time.Hour),
		"expired":      sign(t, testSecret, "alice", -time.Minute),
		"unknown user": sign(t, testSecret, "mallory", time.Hour),
		"no subject":   sign(t, testSecret, "", time.Hour),
		"alg none":     unsigned,
	}
	for name, cred := range cases {
		if _, err := gate.Verify(context.Background(), cred); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: expected ErrUnauthorized, got %v", name, err)
		}
	}
}

func TestVerifyLookupOutageIsNotUnauthorized(t *testing.T) {
	store := newStore()
	store.SetFailure(errors.New("db down"))
	gate := NewJWTGate(testSecret, store)

	_, err := gate.Verify(context.Background(), sign(t, testSecret, "alice", time.Hour))
	if err == nil || errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestVerifyUsesCache(t *testing.T) {
	store := newStore()
	cache := newMapCache()
	gate := NewJWTGate(testSecret, store, WithCache(cache, 10*time.Minute))
	token := sign(t, testSecret, "alice", time.Minute)

	if _, err := gate.Verify(context.Background(), token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	key := cacheKeyPrefix + digest(token)
	if ttl := cache.ttls[key]; ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected ttl capped by token expiry, got %v", ttl)
	}

	// A cached principal survives a store outage.
	store.SetFailure(errors.New("db down"))
	p, err := gate.Verify(context.Background(), token)
	if err != nil || p.ID != 5 {
		t.Fatalf("expected cached principal, got %+v %v", p, err)
	}
}

func TestVerifyDropsUnreadableCacheEntry(t *testing.T) {
	cache := newMapCache()
	gate := NewJWTGate(testSecret, newStore(), WithCache(cache, 10*time.Minute))
	token := sign(t, testSecret, "mallory", time.Minute)
	key := cacheKeyPrefix + digest(token)
	_ = cache.Set(context.Background(), key, "{not json", time.Minute)

	if _, err := gate.Verify(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := cache.Get(context.Background(), key); !errors.Is(err, cacheport.ErrMiss) {
		t.Fatalf("expected unreadable entry removed, got %v", err)
	}
}

func TestRequireBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := NewJWTGate(testSecret, newStore())

	r := gin.New()
	r.GET("/me", RequireBearer(gate), func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": p.ID})
	})

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer nope", http.StatusUnauthorized},
		{"Bearer " + sign(t, testSecret, "alice", time.Hour), http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%q: expected %d, got %d", tc.header, tc.want, rec.Code)
		}
	}
}
