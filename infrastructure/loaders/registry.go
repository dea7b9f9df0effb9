package loaders

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.DatasetSource = (*Registry)(nil)

// Registry maps dataset formats to loaders and caches parsed datasets so
// that several configured datasets backed by the same file are parsed
// once per process.
//
// WARNING: cached records are shared between callers and must be treated
// as read-only.
type Registry struct {
	// loaders maps format names to their loader.
	loaders map[string]ports.DataLoader
	// mu protects loaders and cache.
	mu sync.RWMutex
	// cache stores parsed datasets keyed by format and absolute path.
	cache map[string]domain.Record
	// sf collapses concurrent loads of the same dataset into one parse.
	sf singleflight.Group

	logger *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		loaders: make(map[string]ports.DataLoader),
		cache:   make(map[string]domain.Record),
		logger:  logger,
	}
}

// NewDefaultRegistry creates a registry with the built-in Clarity XML,
// county CSV and results JSON loaders.
func NewDefaultRegistry(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	for _, l := range []ports.DataLoader{&ClarityXMLLoader{}, &CountyCSVLoader{}, &ResultsJSONLoader{}} {
		// Built-in formats are distinct.
		_ = r.Register(l)
	}
	return r
}

// Register adds a loader for its format. Registering a second loader for
// the same format is an error.
func (r *Registry) Register(l ports.DataLoader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.loaders[l.Format()]; dup {
		return fmt.Errorf("%w: loader for format %q already registered", domain.ErrInvalidConfiguration, l.Format())
	}
	r.loaders[l.Format()] = l
	return nil
}

// Formats returns the registered format names in sorted order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.loaders))
	for f := range r.loaders {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Load implements ports.DatasetSource.
func (r *Registry) Load(ctx context.Context, format, path string) (domain.Record, error) {
	r.mu.RLock()
	loader, ok := r.loaders[format]
	r.mu.RUnlock()
	if !ok {
		return nil, ports.NewLoaderError(format, path, ports.ErrUnsupportedFormat)
	}

	key := cacheKey(format, path)
	if rec, ok := r.cached(key); ok {
		return rec, nil
	}

	// The shared parse outlives any single caller's cancellation; each
	// caller still stops waiting when its own context is done.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.sf.DoChan(key, func() (any, error) {
		// Check again inside the flight to close the race between the
		// first cache check and the flight starting.
		if rec, ok := r.cached(key); ok {
			return rec, nil
		}
		start := time.Now()
		rec, err := loader.Load(loadCtx, path)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[key] = rec
		r.mu.Unlock()
		r.logger.Debug("Dataset parsed",
			zap.String("format", format),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)))
		return rec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			r.logger.Debug("Dataset load shared", zap.String("path", path))
		}
		rec, _ := res.Val.(domain.Record)
		return rec, nil
	}
}

func (r *Registry) cached(key string) (domain.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.cache[key]
	return rec, ok
}

func cacheKey(format, path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return format + "\x00" + path
}
