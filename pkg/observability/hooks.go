// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through hook interfaces with no-op defaults, so
// instrumentation never becomes a hard dependency. Commands register real
// implementations at startup:
//
//	func main() {
//	    observability.SetSimulationHooks(&mySimHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call the registered hooks:
//
//	observability.Simulation().OnDragStart(ctx, nodeID)
//	observability.Simulation().OnSettle(ctx, ticks, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Simulation Hooks
// =============================================================================

// SimulationHooks receives events from the map event loop.
type SimulationHooks interface {
	// OnTick is called after every simulation step.
	OnTick(ctx context.Context, alpha float64, nodeCount int)

	// OnSettle is called when the simulation cools below its minimum alpha.
	OnSettle(ctx context.Context, ticks int, duration time.Duration)

	// Drag events
	OnDragStart(ctx context.Context, nodeID string)
	OnDragEnd(ctx context.Context, nodeID string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the live map server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)

	// OnStream records a snapshot stream opening (open=true) or closing.
	OnStream(ctx context.Context, clients int, open bool)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSimulationHooks is a no-op implementation of SimulationHooks.
type NoopSimulationHooks struct{}

func (NoopSimulationHooks) OnTick(context.Context, float64, int)         {}
func (NoopSimulationHooks) OnSettle(context.Context, int, time.Duration) {}
func (NoopSimulationHooks) OnDragStart(context.Context, string)          {}
func (NoopSimulationHooks) OnDragEnd(context.Context, string)            {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnStream(context.Context, int, bool)                            {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	simulationHooks SimulationHooks = NoopSimulationHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetSimulationHooks registers custom simulation hooks.
// This should be called once at application startup.
func SetSimulationHooks(h SimulationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		simulationHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Simulation returns the registered simulation hooks.
func Simulation() SimulationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return simulationHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	simulationHooks = NoopSimulationHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
