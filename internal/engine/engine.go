// Package engine defines the contracts the board adapter consumes: the
// collaboration engine that owns room consistency, the room handle it
// returns, the window-management layer, and the small auxiliary
// collaborators (cursor renderer, document preloader). Concrete
// implementations live outside this package; tests and the dev playground
// use the loopback implementation.
package engine

import "context"

// Phase is the connection lifecycle state of a room session.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseConnected
	PhaseReconnecting
	PhaseDisconnecting
	PhaseDisconnected
)

// String returns the phase as a string
func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseReconnecting:
		return "reconnecting"
	case PhaseDisconnecting:
		return "disconnecting"
	case PhaseDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ViewMode is the broadcast/follower mode of the shared main view.
type ViewMode string

const (
	ViewModeBroadcaster ViewMode = "broadcaster"
	ViewModeFollower    ViewMode = "follower"
	ViewModeFreedom     ViewMode = "freedom"
)

// DeviceClass is passed to the engine as an input-configuration hint.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceTouch   DeviceClass = "touch"
	DevicePointer DeviceClass = "pointer"
)

// KickReason identifies why the engine removed the local participant.
type KickReason string

const (
	KickByAdmin    KickReason = "kickByAdmin"
	KickRoomDelete KickReason = "roomDelete"
	KickRoomBan    KickReason = "roomBan"
)

// PPTPage is the optional rendering source attached to a scene.
type PPTPage struct {
	Src     string `json:"src"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Preview string `json:"preview,omitempty"`
}

// Scene is one named page of a document set.
type Scene struct {
	Name string   `json:"name"`
	PPT  *PPTPage `json:"ppt,omitempty"`
}

// BroadcastState describes who is broadcasting the main view and in which mode.
type BroadcastState struct {
	Mode          ViewMode
	BroadcasterID string
}

// SceneState is the engine's authoritative scene list and cursor for the main view.
type SceneState struct {
	Index  int
	Scenes []Scene
}

// RoomState is a (possibly partial) room-state notification. Nil fields
// mean "unchanged"; consumers must not treat them as resets.
type RoomState struct {
	Broadcast *BroadcastState
	Scenes    *SceneState
}

// Callbacks are the notification handlers a client registers at join time.
// The engine invokes them from its own delivery goroutine; handlers for
// independent notifications may interleave in any order.
type Callbacks struct {
	OnPhaseChanged        func(Phase)
	OnRoomStateChanged    func(RoomState)
	OnDisconnectWithError func(error)
	OnKicked              func(KickReason)
}

// JoinConfig carries everything the engine needs to establish a session.
type JoinConfig struct {
	UID       string
	UserName  string // display name for cursors and participant lists
	RoomUUID  string
	RoomToken string
	Region    string

	Device              DeviceClass
	DisableDeviceInputs bool
	Hotkeys             map[string]string
	MultiWindow         bool
}

// Engine is the external collaboration engine. Join blocks until the
// handshake resolves and registers the given callbacks for the lifetime
// of the returned room handle.
type Engine interface {
	Join(ctx context.Context, cfg JoinConfig, cb Callbacks) (Room, error)
}

// Room is the live session handle. It is exclusively owned by the adapter
// for one logical join and replaced wholesale on reconnect.
type Room interface {
	Phase() Phase
	State() RoomState
	Writable() bool

	// SetWritable asks the engine to apply a new writable state. It is
	// asynchronous on the wire; the call resolves when the engine accepts
	// or rejects the request.
	SetWritable(ctx context.Context, writable bool) error

	// DisableDeviceInputs and DisableSerialization mirror the write gate.
	// They are the only two fields of the session this layer mutates.
	DisableDeviceInputs(disabled bool)
	DeviceInputsDisabled() bool
	DisableSerialization(disabled bool)

	// WindowManager returns the window-management plugin instance already
	// attached to the session.
	WindowManager() WindowManager

	// ReleaseCallbacks deregisters every callback registered at join time.
	ReleaseCallbacks()

	Disconnect(ctx context.Context) error
}

// CursorRenderer draws remote cursors once bound to a live session.
type CursorRenderer interface {
	Bind(Room)
}

// DocPreloader prefetches a document-conversion source. Best effort and
// idempotent; failures are never fatal to the session.
type DocPreloader interface {
	Preload(ctx context.Context, src string) error
}
