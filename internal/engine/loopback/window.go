package loopback

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"boardsync/internal/engine"
)

// ErrSceneIndexOutOfRange is returned for an index the scene list does not have.
var ErrSceneIndexOutOfRange = errors.New("loopback: scene index out of range")

// NewWindowManager creates a standalone window manager over the given main
// view scenes, for code that exercises the window layer without a room.
func NewWindowManager(scenes []engine.Scene) *WindowManager {
	return &WindowManager{
		scenes: append([]engine.Scene(nil), scenes...),
		mode:   engine.MainViewWriter,
		box:    engine.BoxStateNormal,
	}
}

// WindowManager is the loopback window layer attached to a Room.
type WindowManager struct {
	mu sync.Mutex

	// RejectAddWindow, when set, makes AddWindow fail.
	RejectAddWindow error

	scenes      []engine.Scene
	index       int
	windows     []engine.AddWindowParams
	ev          engine.WindowEvents
	mode        engine.MainViewMode
	box         engine.BoxState
	viewMode    engine.ViewMode
	broadcaster string
	writerMain  bool
	destroyed   bool
}

func (w *WindowManager) AddWindow(ctx context.Context, p engine.AddWindowParams) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.RejectAddWindow != nil {
		return "", w.RejectAddWindow
	}
	w.windows = append(w.windows, p)
	return uuid.NewString(), nil
}

func (w *WindowManager) SetViewMode(mode engine.ViewMode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.viewMode = mode
}

func (w *WindowManager) SwitchMainViewToWriter(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writerMain = true
	return nil
}

func (w *WindowManager) SetMainViewSceneIndex(ctx context.Context, index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index >= len(w.scenes) {
		return ErrSceneIndexOutOfRange
	}
	w.index = index
	return nil
}

func (w *WindowManager) MainViewSceneIndex() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

func (w *WindowManager) MainViewScenesCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.scenes)
}

func (w *WindowManager) MainViewMode() engine.MainViewMode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

func (w *WindowManager) CurrentBoxState() engine.BoxState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.box
}

func (w *WindowManager) InsertScene(ctx context.Context, afterIndex int, s engine.Scene) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if afterIndex < -1 || afterIndex >= len(w.scenes) {
		return ErrSceneIndexOutOfRange
	}
	at := afterIndex + 1
	w.scenes = append(w.scenes[:at], append([]engine.Scene{s}, w.scenes[at:]...)...)
	return nil
}

func (w *WindowManager) Broadcaster() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.broadcaster
}

func (w *WindowManager) Subscribe(ev engine.WindowEvents) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ev = ev
}

func (w *WindowManager) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed = true
	w.ev = engine.WindowEvents{}
}

// Destroyed reports whether Destroy ran, for tests.
func (w *WindowManager) Destroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// Windows returns a copy of every window opened so far, for tests.
func (w *WindowManager) Windows() []engine.AddWindowParams {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]engine.AddWindowParams(nil), w.windows...)
}

// ViewMode returns the last mode passed to SetViewMode, for tests.
func (w *WindowManager) ViewMode() engine.ViewMode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewMode
}

// EmitMainViewMode delivers a main-view-mode change notification.
func (w *WindowManager) EmitMainViewMode(mode engine.MainViewMode) {
	w.mu.Lock()
	w.mode = mode
	cb := w.ev.OnMainViewModeChanged
	w.mu.Unlock()

	if cb != nil {
		cb(mode)
	}
}

// EmitBoxState delivers a box state change notification.
func (w *WindowManager) EmitBoxState(state engine.BoxState) {
	w.mu.Lock()
	w.box = state
	cb := w.ev.OnBoxStateChanged
	w.mu.Unlock()

	if cb != nil {
		cb(state)
	}
}

func (w *WindowManager) setScenes(scenes []engine.Scene, index int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.scenes = append([]engine.Scene(nil), scenes...)
	if index >= 0 && index < len(w.scenes) {
		w.index = index
	}
}
