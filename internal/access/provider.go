package access

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source loads the raw access state from wherever it is mastered (identity
// provider export, config files, database). Implementations return a freshly
// built snapshot on every call.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*Snapshot, error)

func (f SourceFunc) Load(ctx context.Context) (*Snapshot, error) { return f(ctx) }

// Provider publishes the current snapshot to concurrent readers. Reads are a
// single atomic pointer load; a refresh builds a wholly new snapshot and
// swaps the pointer, so readers never observe a partially built snapshot.
// Concurrent refreshes coalesce into one Source call.
type Provider struct {
	source  Source
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
}

// NewProvider creates a Provider starting from an empty snapshot, so lookups
// before the first refresh fail closed with "not found" rather than panic.
func NewProvider(source Source) *Provider {
	p := &Provider{source: source}
	p.current.Store(NewBuilder().Build())
	return p
}

// Current returns the currently published snapshot.
func (p *Provider) Current() *Snapshot {
	return p.current.Load()
}

// Refresh loads a new snapshot from the source and publishes it. Concurrent
// callers share a single load; every caller observes the published result.
func (p *Provider) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, _ := p.group.Do("refresh", func() (any, error) {
		snap, err := p.source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load access snapshot: %w", err)
		}
		p.current.Store(snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Run refreshes the snapshot on a fixed interval until the context is
// cancelled. Load failures keep the previous snapshot published and are
// logged, not fatal.
func (p *Provider) Run(ctx context.Context, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.Refresh(ctx); err != nil {
				logger.ErrorContext(ctx, "access snapshot refresh failed", "error", err)
			}
		}
	}
}
