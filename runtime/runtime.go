package runtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/safe-url-paths/abi"
	"github.com/wippyai/safe-url-paths/engine"
	"github.com/wippyai/safe-url-paths/errors"
)

// Config holds runtime options. Zero values select defaults.
type Config struct {
	// Logger receives runtime diagnostics. Nil uses the package logger.
	Logger *zap.Logger
	// Metrics is updated on every interpolation. Nil disables metrics.
	Metrics *Metrics
}

// Runtime serializes access to one backend and compiles templates on it.
// It is safe for concurrent use.
type Runtime struct {
	backend engine.Backend
	logger  *zap.Logger
	metrics *Metrics

	mu     sync.Mutex
	closed bool
}

// New wraps b. cfg may be nil. Close closes b.
func New(b engine.Backend, cfg *Config) *Runtime {
	r := &Runtime{backend: b, logger: Logger()}
	if cfg != nil {
		if cfg.Logger != nil {
			r.logger = cfg.Logger
		}
		r.metrics = cfg.Metrics
	}
	return r
}

// Backend returns the wrapped backend.
func (r *Runtime) Backend() engine.Backend {
	return r.backend
}

// Compile packs statics into guest memory once. The statics stay resident
// until the template is closed.
func (r *Runtime) Compile(ctx context.Context, statics []string) (*Template, error) {
	if len(statics) == 0 {
		return nil, errors.InvalidInput(errors.PhaseInterpolate, "statics must contain at least one fragment")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "runtime")
	}

	region, err := abi.Pack(r.backend.Memory(), engine.Allocator(ctx, r.backend), abi.Strings(statics))
	if err != nil {
		return nil, err
	}
	r.metrics.opened()
	r.logger.Debug("template compiled",
		zap.Int("statics", len(statics)),
		zap.Uint32("ptr", region.Ptr),
		zap.Uint32("size", region.Size))

	return &Template{
		rt:      r,
		statics: region,
		holes:   len(statics) - 1,
	}, nil
}

// Interpolate compiles statics, renders dynamics, and releases the template.
func (r *Runtime) Interpolate(ctx context.Context, statics, dynamics []string) (string, error) {
	t, err := r.Compile(ctx, statics)
	if err != nil {
		r.metrics.observe("", err)
		return "", err
	}
	out, err := t.Interpolate(ctx, dynamics)
	if cerr := t.Close(ctx); cerr != nil && err == nil {
		return "", cerr
	}
	return out, err
}

// Close closes the backend. Templates compiled on r become unusable.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.backend.Close(ctx)
}

// Compile compiles statics on b with default options. b is not closed when
// the template is.
func Compile(ctx context.Context, b engine.Backend, statics []string) (*Template, error) {
	return New(b, nil).Compile(ctx, statics)
}

// Interpolate renders one path on b without keeping the statics resident.
func Interpolate(ctx context.Context, b engine.Backend, statics, dynamics []string) (string, error) {
	return New(b, nil).Interpolate(ctx, statics, dynamics)
}
