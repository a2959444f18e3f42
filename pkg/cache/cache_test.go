package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/meshmap/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := Clear(ctx, c); err != nil {
		t.Errorf("Clear on a non-clearer should be a no-op, got %v", err)
	}
	if !Disabled(c) || !Disabled(WithHooks(c)) {
		t.Error("null cache should report disabled, hooked or not")
	}
	if Disabled(WithHooks(mustFileCache(t))) {
		t.Error("file cache reported disabled")
	}
}

func mustFileCache(t *testing.T) *FileCache {
	t.Helper()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fc
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("empty cache should miss")
	}
	if err := c.Set(ctx, "artifact:1", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "artifact:1")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Errorf("Get() = %q, %v, %v; want hit", data, hit, err)
	}

	if err := c.Delete(ctx, "artifact:1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "artifact:1"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "artifact:1"); err != nil {
		t.Errorf("deleting twice should not fail: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("fresh entry should hit")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte("{not json"), 0o644)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want clean miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte(k), 0)
	}
	if err := Clear(ctx, c); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("%d entries left after Clear", len(entries))
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Error("Clear should keep the root directory")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.TopologyKey("mongo", "networkmap"); got != "topology:mongo:networkmap" {
		t.Errorf("TopologyKey() = %q", got)
	}

	base := ArtifactKeyOpts{Format: "svg", Width: 800, Height: 600, SettleTicks: 300, Seed: 1}
	a1 := k.ArtifactKey("hash123", base)
	if a1 != k.ArtifactKey("hash123", base) {
		t.Error("ArtifactKey should be deterministic")
	}

	variants := []ArtifactKeyOpts{
		{Format: "png", Width: 800, Height: 600, SettleTicks: 300, Seed: 1},
		{Format: "svg", Width: 801, Height: 600, SettleTicks: 300, Seed: 1},
		{Format: "svg", Width: 800, Height: 600, SettleTicks: 10, Seed: 1},
		{Format: "svg", Width: 800, Height: 600, SettleTicks: 300, Seed: 2},
		{Format: "svg", Width: 800, Height: 600, SettleTicks: 300, Seed: 1, Styles: map[string]string{"Router": "x"}},
	}
	for i, v := range variants {
		if k.ArtifactKey("hash123", v) == a1 {
			t.Errorf("variant %d should change the key", i)
		}
	}
	if k.ArtifactKey("other", base) == a1 {
		t.Error("topology hash should change the key")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "site:garage:")
	if got := scoped.TopologyKey("file", "map.json"); got != "site:garage:topology:file:map.json" {
		t.Errorf("TopologyKey() = %q", got)
	}
	ak := scoped.ArtifactKey("h", ArtifactKeyOpts{})
	if len(ak) < 12 || ak[:12] != "site:garage:" {
		t.Errorf("ArtifactKey should be prefixed: %s", ak)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	if got := NewScopedKeyer(nil, "p:").TopologyKey("a", "b"); got != "p:topology:a:b" {
		t.Errorf("TopologyKey() = %q", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = 100 * time.Millisecond })
	ctx := context.Background()
	errBoom := errors.New("boom")

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return errBoom }); err != errBoom || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry then succeed: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrNetwork) })
	if calls != 3 || err != ErrNetwork {
		t.Errorf("exhausted: err=%v calls=%d, want unwrapped ErrNetwork after 3", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrNetwork) })
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) || err.Error() != ErrNetwork.Error() {
		t.Errorf("Retryable(ErrNetwork) = %v", err)
	}
	if IsRetryable(ErrNetwork) {
		t.Error("plain error should not be retryable")
	}
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	fills := 0
	fill := func() ([]byte, error) { fills++; return []byte("rendered"), nil }

	data, hit, err := Fetch(ctx, c, "artifact:x", 0, fill)
	if err != nil || hit || string(data) != "rendered" {
		t.Fatalf("first Fetch() = %q, %v, %v", data, hit, err)
	}
	data, hit, err = Fetch(ctx, c, "artifact:x", 0, fill)
	if err != nil || !hit || string(data) != "rendered" {
		t.Fatalf("second Fetch() = %q, %v, %v", data, hit, err)
	}
	if fills != 1 {
		t.Errorf("fill called %d times, want 1", fills)
	}

	errFill := errors.New("render failed")
	if _, _, err := Fetch(ctx, c, "artifact:y", 0, func() ([]byte, error) { return nil, errFill }); err != errFill {
		t.Errorf("Fetch() error = %v, want fill error", err)
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets int
	keyTypes           []string
}

func (h *countingHooks) OnCacheHit(_ context.Context, kt string) {
	h.hits++
	h.keyTypes = append(h.keyTypes, kt)
}
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestWithHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	fc, _ := NewFileCache(t.TempDir())
	c := WithHooks(fc)
	if WithHooks(c) != c {
		t.Error("WithHooks should not double-wrap")
	}

	c.Get(ctx, "artifact:a")
	c.Set(ctx, "artifact:a", []byte("x"), 0)
	c.Get(ctx, "artifact:a")

	if hooks.hits != 1 || hooks.misses != 1 || hooks.sets != 1 {
		t.Errorf("hits=%d misses=%d sets=%d, want 1/1/1", hooks.hits, hooks.misses, hooks.sets)
	}
	if len(hooks.keyTypes) != 1 || hooks.keyTypes[0] != "artifact" {
		t.Errorf("key types = %v, want [artifact]", hooks.keyTypes)
	}
	if err := Clear(ctx, c); err != nil {
		t.Errorf("Clear through hooks: %v", err)
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, RedisOptions{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("NewRedisCache() error = %v, want ErrNetwork", err)
	}
}
