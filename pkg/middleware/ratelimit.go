package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/auth"
)

// RateLimiter enforces fixed-window request limits per actor, backed by
// Redis. Each scope keeps its own window so AI-heavy routes can run with a
// tighter budget than plain CRUD.
type RateLimiter struct {
	logger *zap.Logger

	// count increments the window counter and returns the new value.
	// Swapped out in tests.
	count func(ctx context.Context, key string, window time.Duration) (int64, error)
	now   func() time.Time
}

// NewRateLimiter builds a limiter over the shared Redis client.
func NewRateLimiter(client *redis.Client, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &RateLimiter{
		logger: logger.Named("ratelimit"),
		now:    time.Now,
	}
	l.count = func(ctx context.Context, key string, window time.Duration) (int64, error) {
		pipe := client.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, err
		}
		return incr.Val(), nil
	}
	return l
}

// Limit returns middleware that allows perMinute requests per actor within
// the scope's current minute window. perMinute <= 0 disables the limit.
// Redis failures never block the request.
func (l *RateLimiter) Limit(scope string, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil || perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			window := l.now().Unix() / 60
			key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, l.actorKey(r), window)

			n, err := l.count(r.Context(), key, time.Minute)
			if err != nil {
				l.logger.Warn("rate limit check failed",
					zap.String("scope", scope),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if n > int64(perMinute) {
				retryAfter := 60 - l.now().Unix()%60
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "rate_limited",
					"message": fmt.Sprintf("Rate limit exceeded for %s requests", scope),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// actorKey identifies the caller: the authenticated user when the request
// passed auth, the remote host otherwise.
func (l *RateLimiter) actorKey(r *http.Request) string {
	if actor, ok := auth.ActorFromContext(r.Context()); ok && actor != nil {
		return actor.ID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LimitFunc is Limit for plain handler funcs, for route tables built from
// http.HandlerFunc values.
func (l *RateLimiter) LimitFunc(scope string, perMinute int) func(http.HandlerFunc) http.HandlerFunc {
	mw := l.Limit(scope, perMinute)
	return func(next http.HandlerFunc) http.HandlerFunc {
		limited := mw(next)
		return func(w http.ResponseWriter, r *http.Request) {
			limited.ServeHTTP(w, r)
		}
	}
}

// RouteLimits bundles the per-scope request budgets handlers attach to
// their routes: General covers every guarded route, AI stacks on top for
// model-backed ones.
type RouteLimits struct {
	General func(http.HandlerFunc) http.HandlerFunc
	AI      func(http.HandlerFunc) http.HandlerFunc
}

// NewRouteLimits builds the two-tier budget set from configured per-minute
// counts. Non-positive counts disable the corresponding tier.
func NewRouteLimits(l *RateLimiter, generalPerMinute, aiPerMinute int) *RouteLimits {
	return &RouteLimits{
		General: l.LimitFunc("general", generalPerMinute),
		AI:      l.LimitFunc("ai", aiPerMinute),
	}
}
