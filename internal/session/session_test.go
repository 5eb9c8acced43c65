package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// The token-validation path runs entirely before the store lookup, so these
// tests use a store with no Redis client behind it.
func newParseOnlyStore(secret string) *Store {
	return NewStore(nil, secret, 24*time.Hour, time.Second)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func TestResolveEmptyToken(t *testing.T) {
	s := newParseOnlyStore("secret")
	if _, err := s.Resolve(context.Background(), ""); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("Expected ErrSessionInvalid, got %v", err)
	}
}

func TestResolveGarbageToken(t *testing.T) {
	s := newParseOnlyStore("secret")
	if _, err := s.Resolve(context.Background(), "not.a.jwt"); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("Expected ErrSessionInvalid, got %v", err)
	}
}

func TestResolveWrongSecret(t *testing.T) {
	s := newParseOnlyStore("secret")
	token := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": 1,
		"sid":     "abc",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	if _, err := s.Resolve(context.Background(), token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("Expected ErrSessionInvalid, got %v", err)
	}
}

func TestResolveExpiredToken(t *testing.T) {
	s := newParseOnlyStore("secret")
	token := signToken(t, "secret", jwt.MapClaims{
		"user_id": 1,
		"sid":     "abc",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := s.Resolve(context.Background(), token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("Expected ErrSessionInvalid, got %v", err)
	}
}

func TestResolveMissingSessionClaim(t *testing.T) {
	s := newParseOnlyStore("secret")
	token := signToken(t, "secret", jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	if _, err := s.Resolve(context.Background(), token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("Expected ErrSessionInvalid, got %v", err)
	}
}

func TestResolveMissingUserClaim(t *testing.T) {
	s := newParseOnlyStore("secret")
	token := signToken(t, "secret", jwt.MapClaims{
		"sid": "abc",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := s.Resolve(context.Background(), token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("Expected ErrSessionInvalid, got %v", err)
	}
}

func newBackedStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb, "secret", ttl, time.Second), mr, rdb
}

func TestIssueAndResolve(t *testing.T) {
	s, mr, _ := newBackedStore(t, time.Hour)

	token, err := s.Issue(context.Background(), 42)
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}

	sess, err := s.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Failed to resolve session: %v", err)
	}
	if sess.UserID != 42 {
		t.Errorf("Expected user 42, got %d", sess.UserID)
	}
	if sess.ID == "" {
		t.Error("Expected a session id")
	}

	// The record must never be persisted without a bound on its lifetime
	if ttl := mr.TTL(sessionKey(sess.ID)); ttl <= 0 {
		t.Errorf("Expected session record to carry a TTL, got %v", ttl)
	}
}

func TestResolveRevokedSession(t *testing.T) {
	s, _, _ := newBackedStore(t, time.Hour)

	token, err := s.Issue(context.Background(), 7)
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}
	sess, err := s.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Failed to resolve session: %v", err)
	}

	if err := s.Revoke(context.Background(), sess.ID); err != nil {
		t.Fatalf("Failed to revoke session: %v", err)
	}

	// The token still parses and is unexpired, but the record is gone
	if _, err := s.Resolve(context.Background(), token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("Expected ErrSessionInvalid after revocation, got %v", err)
	}
}

func TestResolveExpiredRecord(t *testing.T) {
	s, mr, _ := newBackedStore(t, time.Minute)

	token, err := s.Issue(context.Background(), 7)
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := s.Resolve(context.Background(), token); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("Expected ErrSessionInvalid after record expiry, got %v", err)
	}
}

func TestResolveStoreTimeout(t *testing.T) {
	_, _, rdb := newBackedStore(t, time.Hour)

	issuer := NewStore(rdb, "secret", time.Hour, time.Second)
	token, err := issuer.Issue(context.Background(), 7)
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}

	// A resolve window that has already elapsed stands in for a store too
	// slow to answer; the failure must be a store error, never a silent
	// anonymous pass.
	stalled := NewStore(rdb, "secret", time.Hour, time.Nanosecond)
	if _, err := stalled.Resolve(context.Background(), token); !errors.Is(err, ErrSessionStore) {
		t.Errorf("Expected ErrSessionStore on timeout, got %v", err)
	}
}
