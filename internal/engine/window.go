package engine

import "context"

// WindowKind selects the content type a new window renders.
type WindowKind string

const (
	KindSlide      WindowKind = "Slide"
	KindDocsViewer WindowKind = "DocsViewer"
	KindPlayer     WindowKind = "Player"
)

// BoxState is the maximize/restore state of the window layer.
type BoxState string

const (
	BoxStateNormal    BoxState = "normalized"
	BoxStateMinimized BoxState = "minimized"
	BoxStateMaximized BoxState = "maximized"
)

// MainViewMode reports whether the shared main view currently belongs to
// the local writer or a content window has taken focus away from it.
type MainViewMode string

const (
	MainViewWriter  MainViewMode = "writer"
	MainViewFocused MainViewMode = "focused"
)

// AddWindowParams is the addWindow(kind, options, attributes) triple.
type AddWindowParams struct {
	Kind       WindowKind
	Title      string
	Scenes     []Scene
	Attributes map[string]any
}

// WindowEvents are the window-layer notifications the adapter mirrors into
// its layout state. Nil handlers are skipped.
type WindowEvents struct {
	OnMainViewModeChanged func(MainViewMode)
	OnBoxStateChanged     func(BoxState)
}

// WindowManager is the multi-window layout plugin attached to a session.
type WindowManager interface {
	// AddWindow opens a content window and returns its id.
	AddWindow(ctx context.Context, p AddWindowParams) (string, error)

	SetViewMode(mode ViewMode)
	SwitchMainViewToWriter(ctx context.Context) error

	SetMainViewSceneIndex(ctx context.Context, index int) error
	MainViewSceneIndex() int
	MainViewScenesCount() int

	// MainViewMode and CurrentBoxState expose the current layout for
	// post-join hydration; later changes arrive through Subscribe.
	MainViewMode() MainViewMode
	CurrentBoxState() BoxState

	// InsertScene adds a scene to the main view after the given index.
	InsertScene(ctx context.Context, afterIndex int, s Scene) error

	// Broadcaster returns the id of the participant broadcasting the main
	// view, or "" when nobody broadcasts.
	Broadcaster() string

	// Subscribe registers the notification handlers for main-view-mode and
	// box state changes. A second call replaces the previous handlers.
	Subscribe(ev WindowEvents)

	Destroy()
}
