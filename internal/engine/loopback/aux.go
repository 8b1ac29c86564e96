package loopback

import (
	"context"
	"sync"

	"boardsync/internal/engine"
)

// Preloader records preload requests.
type Preloader struct {
	mu sync.Mutex

	// Err, when set, makes every Preload fail.
	Err error

	calls []string
}

func (p *Preloader) Preload(ctx context.Context, src string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, src)
	return p.Err
}

// Calls returns a copy of every source preloaded so far.
func (p *Preloader) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Cursor records the session it was bound to.
type Cursor struct {
	mu    sync.Mutex
	bound engine.Room
}

func (c *Cursor) Bind(r engine.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bound = r
}

// Bound returns the room the cursor renderer was bound to, or nil.
func (c *Cursor) Bound() engine.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bound
}
