// Package auth turns bearer credentials into chat principals.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	cacheport "go-roomchat/internal/infrastructure/cache/port"
	chat "go-roomchat/internal/pkg/chat/application/domain"
	userrepo "go-roomchat/internal/repository/port"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// ErrUnauthorized covers every credential that does not map to a live user.
var ErrUnauthorized = errors.New("auth: unauthorized")

const cacheKeyPrefix = "auth:principal:"

// UserLookup is the slice of the user repository the gate needs.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*userrepo.User, error)
}

// JWTGate verifies HS256 tokens whose subject is a username.
type JWTGate struct {
	secret   []byte
	users    UserLookup
	cache    cacheport.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*JWTGate)

// WithCache stores verified principals under a digest of the token for at most ttl.
func WithCache(c cacheport.Cache, ttl time.Duration) Option {
	return func(g *JWTGate) {
		g.cache = c
		g.cacheTTL = ttl
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(g *JWTGate) {
		if l != nil {
			g.logger = l
		}
	}
}

func NewJWTGate(secret string, users UserLookup, opts ...Option) *JWTGate {
	g := &JWTGate{
		secret: []byte(secret),
		users:  users,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Verify returns the principal for credential. Any credential problem yields
// ErrUnauthorized; lookup outages are returned as other errors.
func (g *JWTGate) Verify(ctx context.Context, credential string) (chat.Principal, error) {
	token := strings.TrimSpace(credential)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return chat.Principal{}, ErrUnauthorized
	}

	key := cacheKeyPrefix + digest(token)
	if p, ok := g.cached(ctx, key); ok {
		return p, nil
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil {
		g.logger.Debug("token rejected", zap.Error(err))
		return chat.Principal{}, ErrUnauthorized
	}
	if claims.Subject == "" {
		return chat.Principal{}, ErrUnauthorized
	}

	user, err := g.users.FindByUsername(ctx, claims.Subject)
	if errors.Is(err, userrepo.ErrUserNotFound) {
		return chat.Principal{}, ErrUnauthorized
	}
	if err != nil {
		return chat.Principal{}, fmt.Errorf("auth: lookup %q: %w", claims.Subject, err)
	}

	p := chat.Principal{ID: user.ID, DisplayName: user.Username}
	g.remember(ctx, key, p, claims.ExpiresAt)
	return p, nil
}

func (g *JWTGate) cached(ctx context.Context, key string) (chat.Principal, bool) {
	if g.cache == nil {
		return chat.Principal{}, false
	}
	raw, err := g.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cacheport.ErrMiss) {
			g.logger.Warn("principal cache read failed", zap.Error(err))
		}
		return chat.Principal{}, false
	}
	var p chat.Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.ID == 0 {
		// Unreadable entry; drop it so the next call repopulates from the store.
		if _, err := g.cache.Del(ctx, key); err != nil {
			g.logger.Warn("principal cache delete failed", zap.Error(err))
		}
		return chat.Principal{}, false
	}
	return p, true
}

func (g *JWTGate) remember(ctx context.Context, key string, p chat.Principal, exp *jwt.NumericDate) {
	if g.cache == nil || g.cacheTTL <= 0 {
		return
	}
	ttl := g.cacheTTL
	if exp != nil {
		if left := exp.Time.Sub(g.now()); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, string(raw), ttl); err != nil {
		g.logger.Warn("principal cache write failed", zap.Error(err))
	}
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
