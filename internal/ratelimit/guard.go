// Package ratelimit holds the per-user sliding-window guard in front of the
// content-generation endpoints. Generation is the expensive operation in the
// system, so the guard keys on the authenticated user, not the client IP.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lingopal-app/lingopal/internal/api"
	"github.com/lingopal-app/lingopal/internal/auth"
	"github.com/lingopal-app/lingopal/internal/metrics"
)

// Guard is a sliding-window counter over a Redis sorted set: one member per
// admitted request, scored by its timestamp in milliseconds.
//
// The check is read-then-write without a transaction. Two concurrent requests
// can both observe count 9 and both be admitted; that looseness is acceptable
// for a usage guard and must not be tightened to the award transaction's
// discipline, since this is not a financial invariant.
type Guard struct {
	client redis.Cmdable
	max    int
	window time.Duration

	now func() time.Time
}

func NewGuard(client redis.Cmdable, max int, window time.Duration) *Guard {
	return &Guard{
		client: client,
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether the user may run another generation now. The prune of
// expired members is written before the admission decision, so a rejected
// request still shrinks the stored window.
func (g *Guard) Allow(ctx context.Context, userID uuid.UUID) (bool, error) {
	key := "ratelimit:generate:" + userID.String()
	now := g.now()
	windowStart := now.Add(-g.window).UnixMilli()

	if err := g.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart, 10)).Err(); err != nil {
		return false, fmt.Errorf("pruning rate-limit window: %w", err)
	}

	count, err := g.client.ZCard(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("counting rate-limit window: %w", err)
	}
	if count >= int64(g.max) {
		return false, nil
	}

	// The member must be unique per admission, not per timestamp, or two
	// requests landing on the same instant would collapse into one entry.
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()
	if err := g.client.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member}).Err(); err != nil {
		return false, fmt.Errorf("recording rate-limit entry: %w", err)
	}
	if err := g.client.Expire(ctx, key, g.window+time.Second).Err(); err != nil {
		return false, fmt.Errorf("setting rate-limit ttl: %w", err)
	}
	return true, nil
}

// Middleware enforces the guard on authenticated routes. On Redis errors it
// fails open, same as the auth limiter.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		if !ok {
			api.HandleError(w, api.ErrUnauthorized)
			return
		}

		allowed, err := g.Allow(r.Context(), userID)
		if err != nil {
			slog.Warn("generation guard: redis error, failing open", "error", err, "user_id", userID)
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			metrics.RateLimitRejectionsTotal.Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(g.window.Seconds())))
			api.HandleError(w, api.NewResourceExhaustedError("generation limit reached, try again later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
