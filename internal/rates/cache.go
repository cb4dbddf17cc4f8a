package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"budgetbook/internal/core"
)

const (
	cacheFile = "rates.json"

	// DefaultBase is the ledger's home currency.
	DefaultBase = "MYR"

	// DefaultTTL is how long a snapshot stays fresh before a refresh is
	// attempted.
	DefaultTTL = 12 * time.Hour
)

// fallbackRates are approximate MYR-based multipliers used when no cache
// exists and the provider is unreachable, so conversion degrades instead
// of crashing on a first offline run.
var fallbackRates = map[string]float64{
	"MYR": 1.0,
	"USD": 0.21,
	"EUR": 0.195,
	"GBP": 0.17,
	"SGD": 0.29,
	"JPY": 31.5,
	"AUD": 0.33,
	"CNY": 1.53,
	"THB": 7.6,
	"IDR": 3450.0,
	"INR": 18.6,
}

// Cache owns the on-disk rate snapshot and the refresh policy. A failed
// refresh never disturbs the previous in-memory or on-disk state.
type Cache struct {
	path     string
	base     string
	ttl      time.Duration
	provider *Provider

	mu   sync.Mutex
	snap *core.RateSnapshot
	now  func() time.Time
}

func NewCache(dir, base string, ttl time.Duration, provider *Provider) *Cache {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = DefaultBase
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		path:     filepath.Join(dir, cacheFile),
		base:     base,
		ttl:      ttl,
		provider: provider,
		now:      time.Now,
	}
}

// Base returns the snapshot's base currency code.
func (c *Cache) Base() string {
	return c.base
}

// LoadCached returns the cached snapshot, or the built-in fallback when
// the file is missing or unreadable. Never errors.
func (c *Cache) LoadCached() core.RateSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Cache) currentLocked() core.RateSnapshot {
	if c.snap != nil {
		return *c.snap
	}

	snap, err := readSnapshot(c.path)
	if err != nil || snap.Base == "" || len(snap.Rates) == 0 {
		snap = c.fallback()
	}
	c.snap = &snap
	return snap
}

func (c *Cache) fallback() core.RateSnapshot {
	rates := make(map[string]float64, len(fallbackRates))
	for code, r := range fallbackRates {
		rates[code] = r
	}
	rates[c.base] = 1.0
	return core.RateSnapshot{Base: c.base, FetchedAt: 0, Rates: rates}
}

// Refresh returns the cached snapshot when it is younger than the TTL and
// force is not set. Otherwise it performs exactly one provider fetch; on
// any failure the previous snapshot is returned unchanged together with a
// soft error. On success the whole table is replaced, the base forced to
// 1.0 and the snapshot persisted.
func (c *Cache) Refresh(ctx context.Context, force bool) (core.RateSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.currentLocked()
	if !force && snap.FetchedAt > 0 {
		age := c.now().Unix() - snap.FetchedAt
		if age >= 0 && time.Duration(age)*time.Second < c.ttl {
			return snap, nil
		}
	}

	table, err := c.provider.Fetch(ctx, c.base)
	if err != nil {
		return snap, err
	}
	table[c.base] = 1.0

	next := core.RateSnapshot{
		Base:      c.base,
		FetchedAt: c.now().Unix(),
		Rates:     table,
	}
	if err := writeSnapshot(c.path, next); err != nil {
		slog.Warn("rate snapshot not persisted, keeping previous", "error", err)
		return snap, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	c.snap = &next
	return next, nil
}

// Convert multiplies the amount by the target currency's rate, rounding
// half-up to two digits. A missing rate triggers exactly one forced
// refresh before failing with ErrRateUnavailable.
func (c *Cache) Convert(ctx context.Context, amount core.Money, target string) (core.Money, float64, error) {
	target = strings.ToUpper(strings.TrimSpace(target))
	if target == "" {
		return core.Money{}, 0, core.ErrMissingField
	}
	if target == c.base {
		return amount, 1.0, nil
	}

	snap := c.LoadCached()
	rate, ok := snap.Rates[target]
	if !ok {
		refreshed, err := c.Refresh(ctx, true)
		if err != nil {
			return core.Money{}, 0, fmt.Errorf("%w: %s", core.ErrRateUnavailable, target)
		}
		rate, ok = refreshed.Rates[target]
		if !ok {
			return core.Money{}, 0, fmt.Errorf("%w: %s", core.ErrRateUnavailable, target)
		}
	}
	return amount.MulRate(rate), rate, nil
}

func readSnapshot(path string) (core.RateSnapshot, error) {
	var snap core.RateSnapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()
	err = json.NewDecoder(f).Decode(&snap)
	return snap, err
}

// writeSnapshot persists the snapshot atomically: temp file then rename,
// so a crash mid-write cannot corrupt the cache.
func writeSnapshot(path string, snap core.RateSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "rates-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
