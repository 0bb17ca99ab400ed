package scheduling

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFingerprintStable(t *testing.T) {
	b := feasibleBatch("fp")
	a1, err := Fingerprint(b.Requests, b.Drivers, DefaultOptions())
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	a2, _ := Fingerprint(b.Requests, b.Drivers, Options{})
	if a1 != a2 {
		t.Fatalf("zero options should fingerprint like defaults: %s != %s", a1, a2)
	}

	interval, _ := Fingerprint(b.Requests, b.Drivers, Options{Overlap: OverlapInterval})
	if interval == a1 {
		t.Fatal("overlap rule must change the fingerprint")
	}
	breaks, _ := Fingerprint(b.Requests, b.Drivers, Options{EnforceBreaks: true})
	if breaks == a1 {
		t.Fatal("break enforcement must change the fingerprint")
	}

	reordered := []RideRequest{b.Requests[1], b.Requests[0]}
	swapped, _ := Fingerprint(reordered, b.Drivers, DefaultOptions())
	if swapped == a1 {
		t.Fatal("request order must change the fingerprint")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	redisAddr := os.Getenv("RIDESCHED_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("RIDESCHED_REDIS_ADDR not set; skipping integration test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	cache := NewCache(rdb)
	ctx := context.Background()
	key := fmt.Sprintf("test_%d", time.Now().UnixNano())

	if _, ok, err := cache.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	b := feasibleBatch("cache")
	res, err := Solve(ctx, b.Requests, b.Drivers, DefaultOptions())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if err := cache.Set(ctx, key, res, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := cache.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Status != res.Status || len(got.Assignments) != len(res.Assignments) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, res)
	}
	for i := range got.Assignments {
		if got.Assignments[i] != res.Assignments[i] {
			t.Errorf("assignment %d: got %+v want %+v", i, got.Assignments[i], res.Assignments[i])
		}
	}
	_ = rdb.Del(ctx, resultKey(key)).Err()
}
