// Package session bridges the HTTP layer's session mechanism into the
// websocket handshake path. The same token that authenticates REST requests is
// resolved here, against the same Redis-backed store, before any channel logic
// runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrSessionInvalid covers bad, missing, or expired tokens. A failed
	// lookup is never downgraded to an anonymous session.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrSessionStore covers store errors and timeouts during resolution.
	ErrSessionStore = errors.New("session store unavailable")
)

// Session is the resolved server-side session record.
type Session struct {
	ID       string
	UserID   uint
	IssuedAt time.Time
}

// Resolver resolves a raw session token into a live session, or fails.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Session, error)
}

// Store issues, resolves, and revokes sessions. Tokens are HMAC-signed JWTs
// carrying the session id; the authoritative record lives in Redis so a logout
// invalidates every outstanding copy of the token.
type Store struct {
	rdb            *redis.Client
	secret         []byte
	ttl            time.Duration
	resolveTimeout time.Duration
}

func NewStore(rdb *redis.Client, secret string, ttl, resolveTimeout time.Duration) *Store {
	return &Store{
		rdb:            rdb,
		secret:         []byte(secret),
		ttl:            ttl,
		resolveTimeout: resolveTimeout,
	}
}

func sessionKey(sid string) string {
	return "session:" + sid
}

// Issue creates a session record for the user and returns the signed token.
func (s *Store) Issue(ctx context.Context, userID uint) (string, error) {
	sid := uuid.New().String()
	now := time.Now()

	// Record and TTL go out in one transaction so a partial failure cannot
	// leave a session hash that never expires.
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(sid), map[string]interface{}{
			"user_id":   userID,
			"issued_at": now.Unix(),
		})
		pipe.Expire(ctx, sessionKey(sid), s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSessionStore, err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"sid":     sid,
		"exp":     now.Add(s.ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

// Resolve validates the token and loads the backing session record. The Redis
// lookup is bounded by the configured timeout so a slow store cannot stall the
// connection-acceptance loop.
func (s *Store) Resolve(ctx context.Context, tokenString string) (*Session, error) {
	if tokenString == "" {
		return nil, ErrSessionInvalid
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrSessionInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrSessionInvalid
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return nil, ErrSessionInvalid
	}
	claimedUser, ok := claims["user_id"].(float64)
	if !ok {
		return nil, ErrSessionInvalid
	}

	ctx, cancel := context.WithTimeout(ctx, s.resolveTimeout)
	defer cancel()

	record, err := s.rdb.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStore, err)
	}
	if len(record) == 0 {
		// Record expired or revoked
		return nil, ErrSessionInvalid
	}

	userID, err := strconv.ParseUint(record["user_id"], 10, 64)
	if err != nil || uint(userID) != uint(claimedUser) {
		return nil, ErrSessionInvalid
	}

	sess := &Session{ID: sid, UserID: uint(userID)}
	if issued, err := strconv.ParseInt(record["issued_at"], 10, 64); err == nil {
		sess.IssuedAt = time.Unix(issued, 0)
	}
	return sess, nil
}

// Revoke deletes the session record. The JWT keeps its exp but no longer
// resolves afterwards.
func (s *Store) Revoke(ctx context.Context, sid string) error {
	if err := s.rdb.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionStore, err)
	}
	return nil
}
