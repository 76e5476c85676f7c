// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about mesh reading and conversion stages.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the conversion packages
// never import a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetSourceHooks(&mySourceHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnGeometryStart(ctx, m.ID, resolution)
//	// ... build geometry ...
//	observability.Pipeline().OnGeometryComplete(ctx, m.ID, cells, points, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the conversion pipeline.
type PipelineHooks interface {
	// Selection events
	OnSelectComplete(ctx context.Context, meshID uint32, pairs int, duration time.Duration, err error)

	// Geometry events
	OnGeometryStart(ctx context.Context, meshID uint32, resolution int)
	OnGeometryComplete(ctx context.Context, meshID uint32, cells, points int, duration time.Duration, err error)

	// Assembly events
	OnAssembleStart(ctx context.Context, meshID uint32, datasets int)
	OnAssembleComplete(ctx context.Context, meshID uint32, duration time.Duration, err error)

	// Write events
	OnWriteStart(ctx context.Context, meshID uint32, encoding string)
	OnWriteComplete(ctx context.Context, meshID uint32, files []string, duration time.Duration, err error)
}

// =============================================================================
// Source Hooks
// =============================================================================

// SourceHooks receives events from mesh document reading.
type SourceHooks interface {
	// OnReadStart records the start of a document read.
	OnReadStart(ctx context.Context, path string)

	// OnReadComplete records a finished read with the number of meshes found.
	OnReadComplete(ctx context.Context, path string, meshes int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnSelectComplete(context.Context, uint32, int, time.Duration, error) {}
func (NoopPipelineHooks) OnGeometryStart(context.Context, uint32, int)                        {}
func (NoopPipelineHooks) OnGeometryComplete(context.Context, uint32, int, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnAssembleStart(context.Context, uint32, int)                             {}
func (NoopPipelineHooks) OnAssembleComplete(context.Context, uint32, time.Duration, error)         {}
func (NoopPipelineHooks) OnWriteStart(context.Context, uint32, string)                             {}
func (NoopPipelineHooks) OnWriteComplete(context.Context, uint32, []string, time.Duration, error) {}

// NoopSourceHooks is a no-op implementation of SourceHooks.
type NoopSourceHooks struct{}

func (NoopSourceHooks) OnReadStart(context.Context, string)                             {}
func (NoopSourceHooks) OnReadComplete(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	sourceHooks   SourceHooks   = NoopSourceHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any conversion.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetSourceHooks registers custom source hooks.
// This should be called once at application startup before any reads.
func SetSourceHooks(h SourceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sourceHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Source returns the registered source hooks.
func Source() SourceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sourceHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	sourceHooks = NoopSourceHooks{}
}
