// Package redistest connects tests to a scratch Redis database.
package redistest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultURL points at database 15 so tests never touch real data
const DefaultURL = "redis://localhost:6379/15"

// Client returns a client for the test Redis, flushing the database before
// and after the test. The test is skipped when Redis is not reachable.
func Client(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("ENCORE_TEST_REDIS_URL")
	if url == "" {
		url = DefaultURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("invalid test redis url %q: %v", url, err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Skipping Redis tests because Redis is not available at %s: %v", url, err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush test redis: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}
