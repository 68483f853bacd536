package testutil

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	sessionstore "github.com/parleyhq/parley/internal/app/store/sessions"
	"github.com/redis/go-redis/v9"
)

// SetupSessionStore starts an in-process miniredis and returns a session
// store backed by it, both torn down at cleanup.
func SetupSessionStore(t *testing.T, ttl time.Duration) (*sessionstore.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return sessionstore.NewWithClient(client, ttl), mr
}
