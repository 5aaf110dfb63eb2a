package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymbuddy/pkg"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	tokenLength      = 35
	sessionKeyPrefix = "gymbuddy-session||"
	tokensSetKey     = "gymbuddy-sessions"

	fieldUserID    = "user_id"
	fieldCreatedAt = "created_at"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

type Session struct {
	Token     string
	UserID    int
	CreatedAt time.Time
}

func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.CreatedAt) > ttl
}

// Service keeps login sessions in redis, one hash per token, plus a set of all tokens
// so expired sessions can be cleaned up.
type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(ttl time.Duration, redisClient *redis.Client) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (as *Service) TTL() time.Duration {
	return as.ttl
}

func (as *Service) Login(ctx context.Context, userID int, createdAt time.Time) (string, error) {
	token, err := as.RandStringFunc(tokenLength)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + token
	if err := as.redisClient.HSet(ctx, sessionKey,
		fieldUserID, userID,
		fieldCreatedAt, createdAt.Unix(),
	).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	if err := as.redisClient.Expire(ctx, sessionKey, as.ttl).Err(); err != nil {
		return "", fmt.Errorf("set session expiry: %w", err)
	}

	// add token to list of sessions
	if err := as.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", fmt.Errorf("register session: %w", err)
	}

	return token, nil
}

// Session loads the session stored for token, expired or not.
func (as *Service) Session(ctx context.Context, token string) (*Session, error) {
	return getSession(ctx, as.redisClient, token)
}

func getSession(ctx context.Context, redisClient *redis.Client, token string) (*Session, error) {
	fields, err := redisClient.HGetAll(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}

	userID, err := strconv.Atoi(fields[fieldUserID])
	if err != nil {
		return nil, fmt.Errorf("parse session user id: %w", err)
	}
	createdAtUnix, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse session created at: %w", err)
	}

	return &Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}

// Logout removes the session and reports whether it existed.
func (as *Service) Logout(ctx context.Context, token string) (bool, error) {
	deleted, err := as.redisClient.Del(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}

	// remove token from the list of sessions
	if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return false, err
	}

	return deleted > 0, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context) {
	sessionTokens, err := as.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	if len(sessionTokens) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Infof("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	now := time.Now()
	var toRemove []string
	for _, token := range sessionTokens {
		session, err := as.Session(ctx, token)
		if errors.Is(err, ErrSessionNotFound) {
			// redis already expired the hash, only the set entry is left
			toRemove = append(toRemove, token)
			continue
		}
		if err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		if session.Expired(as.ttl, now) {
			log.Debugf("=>\twill clean the session of user %d", session.UserID)
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		if _, err := as.Logout(ctx, token); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
		}
	}
	log.Infof("=> auth service, scan and clean done, removed %d sessions", len(toRemove))
}
