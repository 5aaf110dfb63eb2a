package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymbuddy/internal/telemetry/tracing"
)

const (
	checkerCacheSize          = 10 * 1024 * 1024
	checkerCacheExpireSeconds = 60
)

// LoginChecker validates tokens against redis, keeping resolved sessions
// in a short lived in-process cache.
type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
	cache       *freecache.Cache
	nowFunc     func() time.Time
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
		cache:       freecache.NewCache(checkerCacheSize),
		nowFunc:     time.Now,
	}
}

func (lc *LoginChecker) UserID(ctx context.Context, token string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.checker.user_id")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cacheKey := []byte(token)
	if cached, err := lc.cache.Get(cacheKey); err == nil {
		if userID, err := strconv.Atoi(string(cached)); err == nil {
			return userID, nil
		}
		lc.cache.Del(cacheKey)
	}

	session, err := getSession(ctx, lc.redisClient, token)
	if err != nil {
		return 0, err
	}

	now := lc.nowFunc()
	if session.Expired(lc.ttl, now) {
		return 0, ErrSessionExpired
	}

	expireSeconds := checkerCacheExpireSeconds
	if left := int(session.CreatedAt.Add(lc.ttl).Sub(now).Seconds()); left < expireSeconds {
		expireSeconds = left
	}
	if expireSeconds > 0 {
		if err := lc.cache.Set(cacheKey, []byte(strconv.Itoa(session.UserID)), expireSeconds); err != nil {
			log.Errorf("login checker, cache session: %s", err)
		}
	}

	return session.UserID, nil
}

// Forget drops the cached session so a logged out token stops working immediately.
func (lc *LoginChecker) Forget(token string) {
	lc.cache.Del([]byte(token))
}
