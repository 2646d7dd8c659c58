package collect

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/marocz/ece-exporter/internal/ece"
)

// cycleKey is the single-flight key: there is only ever one kind of cycle.
const cycleKey = "cycle"

// Fetcher is the upstream client surface the aggregator drives.
type Fetcher interface {
	FetchAllocators(ctx context.Context) (*ece.AllocatorsDocument, error)
	FetchProxies(ctx context.Context) (*ece.ProxiesDocument, error)
}

// Snapshot is the outcome of one collection cycle. Each resource settles
// independently: a document pointer or its error, never both. Partial success
// is a normal state, not a failure of the cycle.
type Snapshot struct {
	Seq       uint64
	FetchedAt time.Time

	Allocators    *ece.AllocatorsDocument
	AllocatorsErr error

	Proxies    *ece.ProxiesDocument
	ProxiesErr error
}

// Complete reports whether both resources were fetched successfully.
func (s *Snapshot) Complete() bool {
	return s.AllocatorsErr == nil && s.ProxiesErr == nil
}

// Aggregator coordinates collection cycles. All methods are safe for
// concurrent use.
type Aggregator struct {
	fetcher    Fetcher
	timeout    time.Duration
	onComplete func(*Snapshot)

	group singleflight.Group
	seq   atomic.Uint64
}

// New builds an Aggregator. onComplete is invoked once per executed cycle,
// after both fetches have settled and before waiting callers are released;
// it is where cache updates happen. It may be nil.
func New(f Fetcher, timeout time.Duration, onComplete func(*Snapshot)) *Aggregator {
	return &Aggregator{fetcher: f, timeout: timeout, onComplete: onComplete}
}

// Collect triggers a collection cycle, or joins the one already in flight,
// and returns its Snapshot. When ctx expires before the shared cycle settles,
// Collect returns ctx.Err() immediately; the cycle keeps running in the
// background and still reaches onComplete.
func (a *Aggregator) Collect(ctx context.Context) (*Snapshot, error) {
	ch := a.group.DoChan(cycleKey, func() (any, error) {
		return a.runCycle(), nil
	})

	select {
	case res := <-ch:
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runCycle performs the two fetches in parallel under the global timeout.
// The cycle context is detached from any caller so an impatient scraper
// cannot cancel work other callers are waiting on.
func (a *Aggregator) runCycle() *Snapshot {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	snap := &Snapshot{Seq: a.seq.Add(1)}
	start := time.Now()

	// Both goroutines return nil: a resource failing must not cancel the
	// sibling fetch, so errors live in the snapshot, not the group.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Allocators, snap.AllocatorsErr = a.fetcher.FetchAllocators(gctx)
		return nil
	})
	g.Go(func() error {
		snap.Proxies, snap.ProxiesErr = a.fetcher.FetchProxies(gctx)
		return nil
	})
	_ = g.Wait()

	snap.FetchedAt = time.Now()

	slog.Debug("collect: cycle settled",
		"seq", snap.Seq,
		"elapsed", time.Since(start),
		"allocators_err", snap.AllocatorsErr,
		"proxies_err", snap.ProxiesErr,
	)

	if a.onComplete != nil {
		a.onComplete(snap)
	}
	return snap
}
