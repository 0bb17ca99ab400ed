package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"RIDESCHED_HTTP_ADDR", "RIDESCHED_SEARCH_TIMEOUT", "RIDESCHED_MAX_NODES",
		"RIDESCHED_OVERLAP_RULE", "RIDESCHED_ENFORCE_BREAKS", "RIDESCHED_TIMEZONE",
		"RIDESCHED_CACHE_TTL", "RIDESCHED_BATCH_CONCURRENCY",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.Scheduling.Timeout)
	assert.Equal(t, 0, cfg.Scheduling.MaxNodes)
	assert.Equal(t, "endpoint", cfg.Scheduling.OverlapRule)
	assert.False(t, cfg.Scheduling.EnforceBreaks)
	assert.Equal(t, "UTC", cfg.Scheduling.Timezone)
	assert.Equal(t, 10*time.Minute, cfg.Scheduling.CacheTTL)
	assert.Equal(t, 4, cfg.Scheduling.BatchConcurrency)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RIDESCHED_HTTP_ADDR", ":9999")
	t.Setenv("RIDESCHED_SEARCH_TIMEOUT", "250ms")
	t.Setenv("RIDESCHED_MAX_NODES", "5000")
	t.Setenv("RIDESCHED_OVERLAP_RULE", "INTERVAL")
	t.Setenv("RIDESCHED_ENFORCE_BREAKS", "true")
	t.Setenv("RIDESCHED_TIMEZONE", "Asia/Taipei")
	t.Setenv("RIDESCHED_BATCH_CONCURRENCY", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Scheduling.Timeout)
	assert.Equal(t, 5000, cfg.Scheduling.MaxNodes)
	assert.Equal(t, "interval", cfg.Scheduling.OverlapRule)
	assert.True(t, cfg.Scheduling.EnforceBreaks)
	assert.Equal(t, "Asia/Taipei", cfg.Scheduling.Timezone)
	assert.Equal(t, 1, cfg.Scheduling.BatchConcurrency, "concurrency is clamped to at least one")
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("RIDESCHED_MAX_NODES", "lots")
	t.Setenv("RIDESCHED_SEARCH_TIMEOUT", "soon")
	t.Setenv("RIDESCHED_OVERLAP_RULE", "")
	t.Setenv("RIDESCHED_TIMEZONE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Scheduling.MaxNodes)
	assert.Equal(t, 10*time.Second, cfg.Scheduling.Timeout)
}

func TestLoad_RejectsUnknownOverlapRule(t *testing.T) {
	t.Setenv("RIDESCHED_OVERLAP_RULE", "fuzzy")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RIDESCHED_OVERLAP_RULE")
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("RIDESCHED_OVERLAP_RULE", "")
	t.Setenv("RIDESCHED_TIMEZONE", "Mars/Olympus_Mons")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RIDESCHED_TIMEZONE")
}
