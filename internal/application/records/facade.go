package records

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/deepfraud/deepfraud/internal/domain/analysis"
)

// Facade chains record stores in priority order: the remote store first, the
// local cache last. Reads are strictly "first backend that answers with
// data"; sources are never merged, so records written only locally during a
// remote outage stay invisible while the remote answers. That inconsistency
// window is documented behavior, not a bug.
type Facade struct {
	// Backends in priority order. The last entry is the fallback of last resort.
	Backends []domain.RecordStore
	// MirrorWrites controls the write policy: true mirrors every record to
	// all backends, false writes later backends only when earlier ones fail.
	MirrorWrites bool
	// OnFallback is invoked when a read is served by anything but the
	// first backend. Optional.
	OnFallback func()
	Log        *zap.Logger
}

func NewFacade(mirror bool, log *zap.Logger, backends ...domain.RecordStore) *Facade {
	if log == nil {
		log = zap.NewNop()
	}
	return &Facade{Backends: backends, MirrorWrites: mirror, Log: log}
}

// Create persists the record. Succeeds if any backend accepted the write.
func (f *Facade) Create(ctx context.Context, r *domain.Result) error {
	var accepted int
	var lastErr error
	for i, b := range f.Backends {
		if !f.MirrorWrites && accepted > 0 {
			break
		}
		if err := b.Create(ctx, r); err != nil {
			lastErr = err
			f.Log.Warn("record store write failed",
				zap.String("store", b.Name()), zap.Int("priority", i), zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, lastErr)
	}
	return nil
}

// List returns records newest first from the first backend that answers with
// a non-empty result. An empty remote answer falls through to the local
// cache, matching the original remote-or-local read policy.
func (f *Facade) List(ctx context.Context) ([]*domain.Result, error) {
	var lastErr error
	for i, b := range f.Backends {
		out, err := b.List(ctx)
		if err != nil {
			lastErr = err
			f.Log.Warn("record store read failed", zap.String("store", b.Name()), zap.Error(err))
			continue
		}
		if len(out) > 0 {
			if i > 0 && f.OnFallback != nil {
				f.OnFallback()
			}
			return out, nil
		}
	}
	if lastErr != nil {
		// Every backend failed; surface an explicit empty state, not an error page.
		f.Log.Error("all record stores unavailable", zap.Error(lastErr))
	}
	return []*domain.Result{}, nil
}

// Clear is best-effort against remote backends (the remote's own access
// policy may silently restrict deletes) and unconditional on the local cache.
// Only a failure of the last backend, the fallback of last resort, is
// reported.
func (f *Facade) Clear(ctx context.Context) error {
	var finalErr error
	for i, b := range f.Backends {
		err := b.Clear(ctx)
		if err != nil {
			f.Log.Warn("record store clear failed", zap.String("store", b.Name()), zap.Error(err))
		}
		if i == len(f.Backends)-1 {
			finalErr = err
		}
	}
	if finalErr != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, finalErr)
	}
	return nil
}
