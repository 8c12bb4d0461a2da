package registry

import (
	"context"
	"sync"

	"github.com/rzpsarthak13/rowcache/internal/rowset"
)

// Hook runs when a row set joins or leaves a RowSetRegistry.
type Hook interface {
	// OnRegister is called after the row set is stored. An error undoes
	// the registration.
	OnRegister(ctx context.Context, name string, rs *rowset.RowSet) error

	// OnUnregister is called before the row set is removed. An error keeps
	// it registered.
	OnUnregister(ctx context.Context, name string, rs *rowset.RowSet) error
}

// HookFuncs adapts functions to Hook. Nil fields are no-ops.
type HookFuncs struct {
	OnRegisterFunc   func(ctx context.Context, name string, rs *rowset.RowSet) error
	OnUnregisterFunc func(ctx context.Context, name string, rs *rowset.RowSet) error
}

// OnRegister calls OnRegisterFunc if it's not nil.
func (f HookFuncs) OnRegister(ctx context.Context, name string, rs *rowset.RowSet) error {
	if f.OnRegisterFunc != nil {
		return f.OnRegisterFunc(ctx, name, rs)
	}
	return nil
}

// OnUnregister calls OnUnregisterFunc if it's not nil.
func (f HookFuncs) OnUnregister(ctx context.Context, name string, rs *rowset.RowSet) error {
	if f.OnUnregisterFunc != nil {
		return f.OnUnregisterFunc(ctx, name, rs)
	}
	return nil
}

// hookList runs hooks in registration order, stopping at the first error.
type hookList struct {
	mu    sync.RWMutex
	hooks []Hook
}

func (l *hookList) add(h Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, h)
}

func (l *hookList) snapshot() []Hook {
	l.mu.RLock()
	defer l.mu.RUnlock()
	hooks := make([]Hook, len(l.hooks))
	copy(hooks, l.hooks)
	return hooks
}

func (l *hookList) register(ctx context.Context, name string, rs *rowset.RowSet) error {
	for _, h := range l.snapshot() {
		if err := h.OnRegister(ctx, name, rs); err != nil {
			return err
		}
	}
	return nil
}

func (l *hookList) unregister(ctx context.Context, name string, rs *rowset.RowSet) error {
	for _, h := range l.snapshot() {
		if err := h.OnUnregister(ctx, name, rs); err != nil {
			return err
		}
	}
	return nil
}
