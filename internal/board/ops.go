package board

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"boardsync/internal/engine"
)

// SetWritable flips the local write permission. The store commits the new
// value immediately so the UI reflects intent without waiting on the
// network, then the engine is asked to apply it; once accepted, device
// inputs mirror the negation and serialization is re-enabled for writers.
//
// Known limitation, kept on purpose: when the engine rejects the request
// the error is returned but the local value is NOT rolled back. Callers
// that care must re-read Writable after an error.
//
// Calls are serialized; under concurrent calls the last caller's argument
// is the final committed value.
func (b *Board) SetWritable(ctx context.Context, next bool) error {
	room, _, _ := b.handles()
	if room == nil {
		return ErrNotConnected
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if next == b.Writable.Get() {
		return nil
	}
	b.Writable.Set(next)

	if err := room.SetWritable(ctx, next); err != nil {
		return fmt.Errorf("board: commit writable=%t: %w", next, err)
	}

	room.DisableDeviceInputs(!next)
	if next {
		// Serialization stays on once granted; turning writable off only
		// disables device input.
		room.DisableSerialization(false)
	}
	return nil
}

// NextPage advances the main view one scene. Past the last scene it is a
// no-op, not an error.
func (b *Board) NextPage(ctx context.Context) error {
	_, wm, _ := b.handles()
	if wm == nil {
		return ErrNotConnected
	}

	p := b.Pages.Get()
	if p.Index >= p.Count-1 {
		return nil
	}
	if err := wm.SetMainViewSceneIndex(ctx, p.Index+1); err != nil {
		return fmt.Errorf("board: next page: %w", err)
	}
	b.Pages.Set(PageState{Index: p.Index + 1, Count: p.Count})
	return nil
}

// PrevPage moves the main view back one scene. Before the first scene it
// is a no-op, not an error.
func (b *Board) PrevPage(ctx context.Context) error {
	_, wm, _ := b.handles()
	if wm == nil {
		return ErrNotConnected
	}

	p := b.Pages.Get()
	if p.Index <= 0 {
		return nil
	}
	if err := wm.SetMainViewSceneIndex(ctx, p.Index-1); err != nil {
		return fmt.Errorf("board: prev page: %w", err)
	}
	b.Pages.Set(PageState{Index: p.Index - 1, Count: p.Count})
	return nil
}

// AddPage inserts a scene after the current one and navigates to it.
func (b *Board) AddPage(ctx context.Context) error {
	_, wm, _ := b.handles()
	if wm == nil {
		return ErrNotConnected
	}

	p := b.Pages.Get()
	if err := wm.InsertScene(ctx, p.Index, engine.Scene{Name: uuid.NewString()}); err != nil {
		return fmt.Errorf("board: add page: %w", err)
	}
	if err := wm.SetMainViewSceneIndex(ctx, p.Index+1); err != nil {
		return fmt.Errorf("board: add page: %w", err)
	}
	b.Pages.Set(PageState{Index: p.Index + 1, Count: p.Count + 1})
	return nil
}

// SetViewMode is the user-initiated broadcast mode toggle. The room-state
// notification is the other writer of ViewMode; both use the same domain.
func (b *Board) SetViewMode(mode engine.ViewMode) error {
	_, wm, _ := b.handles()
	if wm == nil {
		return ErrNotConnected
	}

	wm.SetViewMode(mode)
	b.ViewMode.Set(mode)
	return nil
}

// FocusMainView hands the main view back to the local writer.
func (b *Board) FocusMainView(ctx context.Context) error {
	_, wm, _ := b.handles()
	if wm == nil {
		return ErrNotConnected
	}
	if err := wm.SwitchMainViewToWriter(ctx); err != nil {
		return fmt.Errorf("board: focus main view: %w", err)
	}
	return nil
}

// OpenDocs routes a document set into the window layer. Failures are
// logged, never returned; a content-open must not take the session down.
func (b *Board) OpenDocs(ctx context.Context, title string, scenes []engine.Scene) {
	_, _, gateway := b.handles()
	if gateway == nil {
		b.log.Warn("open docs before join", zap.String("title", title))
		return
	}
	gateway.OpenDocs(ctx, title, scenes)
}

// OpenMedia routes a media file into the window layer. Same containment
// policy as OpenDocs.
func (b *Board) OpenMedia(ctx context.Context, title, src string) {
	_, _, gateway := b.handles()
	if gateway == nil {
		b.log.Warn("open media before join", zap.String("title", title))
		return
	}
	gateway.OpenMedia(ctx, title, src)
}
