// Package admission implements the per-domain Admission Controller: it
// bounds concurrent fetches to a single host and imposes a cool-down between
// consecutive fetches of the same host, on top of a global fetch ceiling.
package admission

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

type hostState struct {
	sem            *semaphore.Weighted
	mu             sync.Mutex
	lastCompletion time.Time
}

// Controller admits fetch tasks one host at a time under a per-host
// concurrency limit and cool-down, plus a global concurrency ceiling shared
// across all hosts.
type Controller struct {
	concurrentLimit int64
	coolDown        time.Duration

	global *semaphore.Weighted

	mu    sync.Mutex
	hosts map[string]*hostState
}

func New(concurrentLimit int64, coolDown time.Duration, globalLimit int64) *Controller {
	if concurrentLimit < 1 {
		concurrentLimit = 1
	}
	if globalLimit < 1 {
		globalLimit = 8
	}
	return &Controller{
		concurrentLimit: concurrentLimit,
		coolDown:        coolDown,
		global:          semaphore.NewWeighted(globalLimit),
		hosts:           make(map[string]*hostState),
	}
}

// Host extracts the registered domain (here, the full hostname) a URL
// belongs to, for use as the Controller's admission key.
func Host(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("admission: parse url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("admission: url has no host: %q", rawURL)
	}
	return u.Hostname(), nil
}

func (c *Controller) stateFor(host string) *hostState {
	c.mu.Lock()
	defer c.mu.Unlock()
	hs, ok := c.hosts[host]
	if !ok {
		hs = &hostState{sem: semaphore.NewWeighted(c.concurrentLimit)}
		c.hosts[host] = hs
	}
	return hs
}

// release is returned by Acquire; the caller must invoke it exactly once,
// regardless of fetch outcome, to free the per-host and global slots and
// stamp the host's last-completion time.
type release func()

// Acquire waits for a per-host slot, then a global fetch slot, then the
// host's cool-down, in that order — matching the acquire sequence the
// Orchestrator's per-URL task performs: (a) domain slot, (b) global slot. The
// returned release must run exactly once when the fetch completes.
func (c *Controller) Acquire(ctx context.Context, rawURL string) (release, error) {
	host, err := Host(rawURL)
	if err != nil {
		return nil, err
	}

	hs := c.stateFor(host)

	if err := hs.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("admission: acquire host slot for %s: %w", host, err)
	}

	if err := c.global.Acquire(ctx, 1); err != nil {
		hs.sem.Release(1)
		return nil, fmt.Errorf("admission: acquire global slot: %w", err)
	}

	hs.mu.Lock()
	wait := c.coolDown - time.Since(hs.lastCompletion)
	hs.mu.Unlock()
	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			c.global.Release(1)
			hs.sem.Release(1)
			return nil, fmt.Errorf("admission: cool-down wait for %s: %w", host, ctx.Err())
		}
	}

	return func() {
		hs.mu.Lock()
		hs.lastCompletion = time.Now()
		hs.mu.Unlock()
		c.global.Release(1)
		hs.sem.Release(1)
	}, nil
}
