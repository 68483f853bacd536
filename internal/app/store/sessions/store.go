// internal/app/store/sessions/store.go

// Package sessions implements the server-side session store on Redis.
// Each session is a token-keyed record with a TTL; a per-user set indexes
// the active tokens so single-session enforcement, disable cascades, and
// global revocation stay O(sessions), not O(keyspace).
//
// Lifecycle is none -> active -> revoked, and revoked is terminal: a
// revoked token is deleted, so it can never validate again.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/domain/models"
	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix = "session:"
	userPrefix    = "user_sessions:"
)

// ErrNoSession is returned when a token does not resolve to an active
// session: never issued, expired, or revoked.
var ErrNoSession = fmt.Errorf("session not found or revoked")

// Session is the stored record for one active login.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"` // snapshot at login; authorization refetches the user
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// ClientMeta carries request attributes recorded on the session.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// Store manages sessions in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at redisURL and verifies the connection.
func New(redisURL string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient creates a store from an existing Redis client. Tests use
// this with miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func sessionKey(token string) string { return sessionPrefix + token }
func userKey(userID string) string   { return userPrefix + userID }

// Create starts a new session for user. When allowMultiLogin is false, any
// other active session for the same user is revoked first, so at no point
// are two sessions simultaneously active under that configuration.
//
// The caller is responsible for having verified credentials and that the
// user is not disabled; Create refuses disabled users as a backstop.
func (s *Store) Create(ctx context.Context, user *models.User, meta ClientMeta, allowMultiLogin bool) (Session, error) {
	if user == nil || user.Disabled() {
		return Session{}, fmt.Errorf("cannot create session for missing or disabled user")
	}

	if !allowMultiLogin {
		if _, err := s.RevokeAllForUser(ctx, user.ID.Hex()); err != nil {
			return Session{}, fmt.Errorf("revoke prior sessions: %w", err)
		}
	}

	now := time.Now().UTC()
	sess := Session{
		Token:     uuid.NewString(),
		UserID:    user.ID.Hex(),
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sess.Token), data, s.ttl)
	pipe.SAdd(ctx, userKey(sess.UserID), sess.Token)
	// The index set outlives individual sessions; expired members are
	// pruned on read. Refresh its TTL so abandoned users fade out.
	pipe.Expire(ctx, userKey(sess.UserID), s.ttl+time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Get resolves a token to its active session.
func (s *Store) Get(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}
	data, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	sess.Token = token
	return sess, nil
}

// Revoke ends one session. Revoking an already-gone token is not an error;
// the session is just as revoked either way.
func (s *Store) Revoke(ctx context.Context, token string) error {
	sess, err := s.Get(ctx, token)
	if err == ErrNoSession {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.SRem(ctx, userKey(sess.UserID), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAllForUser ends every active session for one user and returns how
// many were revoked. Used at logout-everywhere, on user disable (the
// cascade is immediate, not deferred), and by single-session enforcement.
func (s *Store) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	tokens, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("list user sessions: %w", err)
	}

	revoked := 0
	for _, token := range tokens {
		n, err := s.client.Del(ctx, sessionKey(token)).Result()
		if err != nil {
			return revoked, fmt.Errorf("revoke session: %w", err)
		}
		revoked += int(n)
	}
	if err := s.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return revoked, fmt.Errorf("clear session index: %w", err)
	}
	return revoked, nil
}

// RevokeAll ends every active session for every user (root capability).
// Returns the number of sessions revoked.
func (s *Store) RevokeAll(ctx context.Context) (int, error) {
	revoked := 0
	iter := s.client.Scan(ctx, 0, sessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return revoked, fmt.Errorf("revoke session: %w", err)
		}
		revoked += int(n)
	}
	if err := iter.Err(); err != nil {
		return revoked, fmt.Errorf("scan sessions: %w", err)
	}

	iter = s.client.Scan(ctx, 0, userPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return revoked, fmt.Errorf("clear session index: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return revoked, fmt.Errorf("scan session indexes: %w", err)
	}
	return revoked, nil
}

// ActiveTokensForUser returns the user's live tokens, pruning index
// entries whose session records have already expired.
func (s *Store) ActiveTokensForUser(ctx context.Context, userID string) ([]string, error) {
	tokens, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	active := make([]string, 0, len(tokens))
	for _, token := range tokens {
		n, err := s.client.Exists(ctx, sessionKey(token)).Result()
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if n == 0 {
			_ = s.client.SRem(ctx, userKey(userID), token).Err()
			continue
		}
		active = append(active, token)
	}
	return active, nil
}

// Ping checks Redis connectivity for health reporting.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
