package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/inframonitor-backend/pkg/clientip"
)

const (
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
)

// RedisRateLimit is a fixed-window counter shared by every instance. An IP that
// exceeds Max within Window is blocked for BlockFor.
type RedisRateLimit struct {
	Client   *redis.Client
	Window   time.Duration
	Max      int64
	BlockFor time.Duration
	Log      *zap.SugaredLogger
}

// DefaultRedisRateLimit allows 300 requests per 2 minutes and blocks for 15 minutes.
func DefaultRedisRateLimit(client *redis.Client, log *zap.SugaredLogger) *RedisRateLimit {
	return &RedisRateLimit{Client: client, Window: 2 * time.Minute, Max: 300, BlockFor: 15 * time.Minute, Log: log}
}

// Middleware fails open when Redis is unavailable.
func (l *RedisRateLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l == nil || l.Client == nil {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientip.RealClientIP(r)
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		blocked, err := l.IsBlocked(ctx, ip)
		if err == nil && blocked {
			writeJSONError(w, http.StatusTooManyRequests, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		key := RateLimitKeyPrefix + ip
		pipe := l.Client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.Window)
		if _, err := pipe.Exec(ctx); err != nil {
			if l.Log != nil {
				l.Log.Warnw("rate limit check failed, allowing request", "ip", ip, "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		count := incr.Val()

		if count > l.Max {
			if err := l.Client.Set(ctx, BlockedIPKeyPrefix+ip, "1", l.BlockFor).Err(); err != nil && l.Log != nil {
				l.Log.Warnw("failed to block ip", "ip", ip, "error", err)
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(l.BlockFor.Seconds())))
			writeJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded. Your IP has been temporarily blocked. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.Max, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(l.Max-count, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(l.Window).Unix(), 10))
		next.ServeHTTP(w, r)
	})
}

// Unblock removes an IP from the blocked list.
func (l *RedisRateLimit) Unblock(ctx context.Context, ip string) error {
	return l.Client.Del(ctx, BlockedIPKeyPrefix+ip).Err()
}

// IsBlocked checks if an IP is currently blocked.
func (l *RedisRateLimit) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := l.Client.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	return n > 0, err
}
