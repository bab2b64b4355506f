package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/starcast/talenthub/internal/cache"
	"github.com/starcast/talenthub/internal/realtime"
)

// changeFeed invalidates cached listings and announces row changes to the
// admin realtime hub after a successful write.
type changeFeed struct {
	cache     cache.Cache
	ttl       time.Duration
	publisher realtime.Publisher
}

func newChangeFeed(c cache.Cache, ttl time.Duration, pub realtime.Publisher) changeFeed {
	if c == nil {
		c = cache.NewMemory()
	}
	if pub == nil {
		pub = realtime.Nop{}
	}
	return changeFeed{cache: c, ttl: ttl, publisher: pub}
}

func (f changeFeed) changed(ctx context.Context, cachePrefix, table, action string, id uuid.UUID) {
	if cachePrefix != "" {
		if err := f.cache.DeletePrefix(ctx, cachePrefix); err != nil {
			slog.Warn("cache invalidation failed", "prefix", cachePrefix, "error", err)
		}
	}
	f.publisher.Publish(table, action, id)
}

func (f changeFeed) load(ctx context.Context, key string, dest interface{}) bool {
	hit, err := f.cache.GetJSON(ctx, key, dest)
	if err != nil {
		slog.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (f changeFeed) store(ctx context.Context, key string, value interface{}) {
	if err := f.cache.SetJSON(ctx, key, value, f.ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}

// likePattern lowercases and escapes a user search term for LIKE.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// cleanList trims entries and drops blanks and duplicates, keeping order.
func cleanList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
