package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// LoginLimiter throttles login attempts per account using a redis
// fixed-window counter. A nil limiter (redis not configured) allows
// everything, so the service degrades gracefully without redis.
type LoginLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewLoginLimiter builds a limiter against the given redis address. Returns
// nil when addr is empty.
func NewLoginLimiter(addr, password string, db int) *LoginLimiter {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &LoginLimiter{
		client: client,
		limit:  10,
		window: 5 * time.Minute,
	}
}

// Allow reports whether another login attempt for the account may proceed.
// Redis failures are logged and fail open: a broken limiter must not lock
// everyone out.
func (l *LoginLimiter) Allow(ctx context.Context, account string) bool {
	if l == nil || l.client == nil {
		return true
	}

	key := fmt.Sprintf("messdesk:login:%s", account)
	count, errIncr := l.client.Incr(ctx, key).Result()
	if errIncr != nil {
		log.WithError(errIncr).Warn("login limiter unavailable")
		return true
	}
	if count == 1 {
		if errExpire := l.client.Expire(ctx, key, l.window).Err(); errExpire != nil {
			log.WithError(errExpire).Warn("login limiter expire failed")
		}
	}
	return count <= int64(l.limit)
}

// Reset clears the attempt counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, account string) {
	if l == nil || l.client == nil {
		return
	}
	key := fmt.Sprintf("messdesk:login:%s", account)
	if errDel := l.client.Del(ctx, key).Err(); errDel != nil {
		log.WithError(errDel).Warn("login limiter reset failed")
	}
}
