package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// PoolEntry binds one account handle to the cookie jar its crawl work
// should use.
type PoolEntry struct {
	AccountHandle string
	Jar           Jar
}

// Pool ensures cookie jars for a batch of accounts concurrently, bounded
// by maxConcurrent simultaneous logins/probes so a large account list
// doesn't open one connection per account at once.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool returns a Pool allowing at most maxConcurrent simultaneous
// Ensure calls.
func NewPool(maxConcurrent int64) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pool{sem: semaphore.NewWeighted(maxConcurrent)}
}

// EnsureAll runs Manager.Ensure for every (handle, manager) pair
// concurrently, bounded by the pool's concurrency cap, and returns one
// PoolEntry per handle in the same order as managers. Each handle uses
// its own Probe from probes, since each session's probe is bound to its
// own Protocol Client and must not be shared across goroutines. The
// first manager to fail cancels the remaining work via the group's
// context.
func (p *Pool) EnsureAll(ctx context.Context, managers map[string]*Manager, probes map[string]Probe) ([]PoolEntry, error) {
	entries := make([]PoolEntry, len(managers))
	handles := make([]string, 0, len(managers))
	for h := range managers {
		handles = append(handles, h)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, handle := range handles {
		i, handle := i, handle
		mgr := managers[handle]
		probe := probes[handle]
		g.Go(func() error {
			if err := p.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer p.sem.Release(1)

			jar, err := mgr.Ensure(gctx, probe)
			if err != nil {
				return fmt.Errorf("ensure session for %s: %w", handle, err)
			}
			entries[i] = PoolEntry{AccountHandle: handle, Jar: jar}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
