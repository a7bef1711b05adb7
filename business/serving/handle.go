// Package serving holds reloadable references to the offline products (RFM
// table, CLV model) that the gateway reads on every request.
package serving

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"salesInsight/pkg/logger"
)

// Loader fetches the latest value. A nil value with a nil error means
// nothing has been produced yet.
type Loader[T any] func(ctx context.Context) (*T, error)

// Handle publishes an immutable *T. Readers never lock; a swap is a single
// pointer store so they observe either the old or the new value.
type Handle[T any] struct {
	name   string
	loader Loader[T]

	current atomic.Pointer[T]
	reload  sync.Mutex
}

func NewHandle[T any](name string, loader Loader[T]) *Handle[T] {
	return &Handle[T]{name: name, loader: loader}
}

// Init performs the first load. A missing value is not an error.
func (h *Handle[T]) Init(ctx context.Context) error {
	return h.Reload(ctx)
}

// Reload replaces the current value with a fresh one from the loader. On
// failure, or when the loader has nothing, the current value stays.
func (h *Handle[T]) Reload(ctx context.Context) error {
	if h.loader == nil {
		return fmt.Errorf("%s handle: no loader configured", h.name)
	}

	h.reload.Lock()
	defer h.reload.Unlock()

	v, err := h.loader(ctx)
	if err != nil {
		logger.Warn("handle reload failed, keeping current value", "handle", h.name, "error", err)
		return fmt.Errorf("reload %s: %w", h.name, err)
	}
	if v == nil {
		logger.Info("handle reload found nothing to load", "handle", h.name, "loaded", h.Loaded())
		return nil
	}

	h.current.Store(v)
	logger.Info("handle reloaded", "handle", h.name)
	return nil
}

// Set publishes v directly, e.g. right after a training run.
func (h *Handle[T]) Set(v *T) {
	h.current.Store(v)
}

func (h *Handle[T]) Current() *T {
	return h.current.Load()
}

func (h *Handle[T]) Loaded() bool {
	return h.current.Load() != nil
}

// Teardown drops the published value.
func (h *Handle[T]) Teardown() {
	h.current.Store(nil)
}
