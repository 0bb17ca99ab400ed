// README: Result cache backed by Redis, keyed by a fingerprint of the search input.
package scheduling

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "scheduling:result:%s"

type Cache struct {
	redis *redis.Client
}

func NewCache(redis *redis.Client) *Cache {
	return &Cache{redis: redis}
}

// Get returns the cached result for key and whether it was present.
func (c *Cache) Get(ctx context.Context, key string) (Result, bool, error) {
	val, err := c.redis.Get(ctx, resultKey(key)).Bytes()
	if err == redis.Nil {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	var r Result
	if err := json.Unmarshal(val, &r); err != nil {
		return Result{}, false, err
	}
	return r, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, r Result, ttl time.Duration) error {
	val, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, resultKey(key), val, ttl).Err()
}

func resultKey(key string) string {
	return fmt.Sprintf(resultKeyPrefix, key)
}

// Fingerprint identifies a search input. Identical request and driver lists
// searched under identical options always produce the same schedule, so the
// fingerprint is a safe cache key.
func Fingerprint(requests []RideRequest, drivers []Driver, opts Options) (string, error) {
	opts = opts.withDefaults()
	payload := struct {
		Requests      []RideRequest `json:"requests"`
		Drivers       []Driver      `json:"drivers"`
		Overlap       OverlapRule   `json:"overlap"`
		EnforceBreaks bool          `json:"enforce_breaks"`
		Location      string        `json:"location"`
	}{requests, drivers, opts.Overlap, opts.EnforceBreaks, opts.Location.String()}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
