package rates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budgetbook/internal/core"
)

func newTestCache(t *testing.T, handler http.HandlerFunc) (*Cache, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewCache(t.TempDir(), "MYR", DefaultTTL, NewProvider(srv.URL))
	return c, srv
}

func serveRates(t *testing.T, rates map[string]float64) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result":                "success",
			"time_last_update_unix": time.Now().Unix(),
			"rates":                 rates,
		})
	}
}

func TestLoadCachedFallsBackWhenMissing(t *testing.T) {
	c := NewCache(t.TempDir(), "MYR", DefaultTTL, NewProvider("http://127.0.0.1:0"))

	snap := c.LoadCached()
	if snap.FetchedAt != 0 {
		t.Errorf("fallback FetchedAt = %d, want 0", snap.FetchedAt)
	}
	if snap.Rates["MYR"] != 1.0 {
		t.Errorf("base rate = %v, want 1.0", snap.Rates["MYR"])
	}
	if len(snap.Rates) < 2 {
		t.Error("fallback snapshot should carry approximate rates")
	}
}

func TestLoadCachedFallsBackOnCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rates.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewCache(dir, "MYR", DefaultTTL, NewProvider("http://127.0.0.1:0"))
	snap := c.LoadCached()
	if snap.FetchedAt != 0 || snap.Rates["MYR"] != 1.0 {
		t.Errorf("corrupt cache should fall back, got %+v", snap)
	}
}

func TestRefreshReplacesAndPersists(t *testing.T) {
	c, _ := newTestCache(t, serveRates(t, map[string]float64{"USD": 0.22, "EUR": 0.20}))

	snap, err := c.Refresh(context.Background(), true)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap.Rates["USD"] != 0.22 {
		t.Errorf("USD rate = %v, want 0.22", snap.Rates["USD"])
	}
	if snap.Rates["MYR"] != 1.0 {
		t.Errorf("base not forced to 1.0: %v", snap.Rates["MYR"])
	}
	if snap.FetchedAt == 0 {
		t.Error("FetchedAt not set after refresh")
	}
	// Old fallback entries must not leak in: the table is replaced, not merged.
	if _, ok := snap.Rates["IDR"]; ok {
		t.Error("refresh merged instead of replacing the rate table")
	}

	disk, err := readSnapshot(c.path)
	if err != nil {
		t.Fatalf("snapshot not persisted: %v", err)
	}
	if disk.Rates["USD"] != 0.22 {
		t.Errorf("persisted USD rate = %v", disk.Rates["USD"])
	}
}

func TestRefreshWithinTTLSkipsNetwork(t *testing.T) {
	calls := 0
	c, _ := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		serveRates(t, map[string]float64{"USD": 0.22})(w, r)
	})

	if _, err := c.Refresh(context.Background(), true); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := c.Refresh(context.Background(), false); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if calls != 1 {
		t.Errorf("provider called %d times, want 1 (fresh cache short-circuits)", calls)
	}
}

func TestRefreshSoftFailureKeepsSnapshot(t *testing.T) {
	fail := false
	c, _ := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		serveRates(t, map[string]float64{"USD": 0.22})(w, r)
	})

	before, err := c.Refresh(context.Background(), true)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fail = true
	after, err := c.Refresh(context.Background(), true)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", err)
	}
	if after.FetchedAt != before.FetchedAt || after.Rates["USD"] != 0.22 {
		t.Errorf("failed refresh disturbed the snapshot: %+v", after)
	}
}

func TestRefreshAcceptsConversionRatesShape(t *testing.T) {
	c, _ := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success":          true,
			"conversion_rates": map[string]float64{"SGD": 0.29},
		})
	})
	snap, err := c.Refresh(context.Background(), true)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap.Rates["SGD"] != 0.29 {
		t.Errorf("conversion_rates not accepted: %+v", snap.Rates)
	}
}

func TestConvert(t *testing.T) {
	c, _ := newTestCache(t, serveRates(t, map[string]float64{"USD": 0.2115}))
	if _, err := c.Refresh(context.Background(), true); err != nil {
		t.Fatal(err)
	}

	got, rate, err := c.Convert(context.Background(), core.Money{Cents: 10000}, "USD")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if rate != 0.2115 {
		t.Errorf("rate = %v", rate)
	}
	if got.Cents != 2115 {
		t.Errorf("100.00 MYR -> %s USD, want 21.15", got)
	}

	same, rate, err := c.Convert(context.Background(), core.Money{Cents: 500}, "myr")
	if err != nil || rate != 1.0 || same.Cents != 500 {
		t.Errorf("base->base conversion: %s, %v, %v", same, rate, err)
	}
}

func TestConvertMissingRateTriggersOneRefresh(t *testing.T) {
	calls := 0
	c, _ := newTestCache(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		serveRates(t, map[string]float64{"USD": 0.22})(w, r)
	})
	if _, err := c.Refresh(context.Background(), true); err != nil {
		t.Fatal(err)
	}

	_, _, err := c.Convert(context.Background(), core.Money{Cents: 100}, "CHF")
	if !errors.Is(err, core.ErrRateUnavailable) {
		t.Fatalf("err = %v, want ErrRateUnavailable", err)
	}
	if calls != 2 {
		t.Errorf("provider called %d times, want 2 (one lazy retry)", calls)
	}
}
