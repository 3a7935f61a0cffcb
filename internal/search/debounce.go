// Package search debounces search-as-you-type requests per session and
// resource, so a burst of keystrokes reaches the API as a single query.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned (and set as the context cause) when a newer
// query for the same key replaced this one.
var ErrSuperseded = errors.New("search superseded by a newer query")

// Debouncer delays queries by a fixed window. A query only proceeds if no
// other query for the same key arrives within the window, and a query that
// proceeds cancels the one that proceeded before it.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	pending *call
	running *call
}

type call struct {
	superseded chan struct{}
	cancel     context.CancelCauseFunc
}

// NewDebouncer returns a Debouncer with the given window.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		entries: make(map[string]*entry),
	}
}

// Delay returns the debounce window.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Wait blocks until the window elapses for this query. It returns
// ErrSuperseded if a newer query for key arrived first. Otherwise it returns
// a context to run the query with, cancelled with cause ErrSuperseded once a
// newer query for key proceeds, and a release func that must be called when
// the query finishes.
func (d *Debouncer) Wait(ctx context.Context, key string) (context.Context, func(), error) {
	d.mu.Lock()
	e, ok := d.entries[key]
	if !ok {
		e = &entry{}
		d.entries[key] = e
	}
	c := &call{superseded: make(chan struct{})}
	if e.pending != nil {
		close(e.pending.superseded)
	}
	e.pending = c
	d.mu.Unlock()

	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		select {
		case <-timer.C:
		case <-c.superseded:
			timer.Stop()
			return nil, nil, ErrSuperseded
		case <-ctx.Done():
			timer.Stop()
			d.mu.Lock()
			if e.pending == c {
				e.pending = nil
			}
			d.cleanup(key, e)
			d.mu.Unlock()
			return nil, nil, ctx.Err()
		}
	}

	d.mu.Lock()
	if e.pending != c {
		d.mu.Unlock()
		return nil, nil, ErrSuperseded
	}
	e.pending = nil
	if e.running != nil {
		e.running.cancel(ErrSuperseded)
	}
	runCtx, cancel := context.WithCancelCause(ctx)
	c.cancel = cancel
	e.running = c
	d.mu.Unlock()

	release := func() {
		cancel(context.Canceled)
		d.mu.Lock()
		if e.running == c {
			e.running = nil
		}
		d.cleanup(key, e)
		d.mu.Unlock()
	}

	return runCtx, release, nil
}

// cleanup drops idle entries. Callers hold d.mu.
func (d *Debouncer) cleanup(key string, e *entry) {
	if e.pending == nil && e.running == nil && d.entries[key] == e {
		delete(d.entries, key)
	}
}

// Superseded reports whether ctx was cancelled because a newer query took over.
func Superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}

// Key builds a debounce key for a session and resource. Only a hash of the
// token is kept.
func Key(token, resource string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8]) + ":" + resource
}
