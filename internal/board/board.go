// Package board is the state-synchronization adapter between the
// collaboration engine and a reactive UI layer. A Board owns one logical
// room session: it joins, mirrors engine and window-layer notifications
// into observable fields, gates write permission, routes content-open
// requests, and tears the session down.
//
// Concurrency model: the engine delivers callbacks one at a time from its
// delivery goroutine; there is no ordering guarantee between two
// independently scheduled notifications. Every observable field has
// exactly one mutating code path, and mutations inside a single callback
// are observed in write order.
package board

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"boardsync/internal/content"
	"boardsync/internal/engine"
	"boardsync/internal/observable"
)

var (
	// ErrMissingIdentity and ErrMissingRoomCredentials are precondition
	// failures: Join refuses to touch the network without them.
	ErrMissingIdentity        = errors.New("board: missing user identity")
	ErrMissingRoomCredentials = errors.New("board: missing room credentials")

	// ErrNotConnected is returned by operations that need a live session.
	ErrNotConnected = errors.New("board: not connected to a room")
)

// PageState is the main view's scene cursor and total.
type PageState struct {
	Index int `json:"index"`
	Count int `json:"count"`
}

// Options configures a Board.
type Options struct {
	Engine    engine.Engine
	Cursor    engine.CursorRenderer
	Preloader engine.DocPreloader

	UID       string
	UserName  string
	RoomUUID  string
	RoomToken string
	Region    string
	IsCreator bool

	// Device is the input hint passed to the engine; empty means autodetect.
	Device engine.DeviceClass

	// PreloadDebounce is the quiet window for document preloads.
	// Zero means the 2s default.
	PreloadDebounce time.Duration

	Logger *zap.Logger
	Clock  clock.Clock // nil = wall clock
}

// Board coordinates one whiteboard room session.
type Board struct {
	// Observable session state. Read and Subscribe freely; only the board
	// writes them.
	Phase     *observable.Value[engine.Phase]
	ViewMode  *observable.Value[engine.ViewMode]
	Writable  *observable.Value[bool]
	Pages     *observable.Value[PageState]
	Focused   *observable.Value[bool]
	Maximized *observable.Value[bool]
	Kicked    *observable.Value[bool]

	// SessionID identifies this adapter instance in logs and the journal.
	SessionID string

	opts Options
	log  *zap.Logger
	clk  clock.Clock

	mu      sync.Mutex // guards room, wm, gateway
	room    engine.Room
	wm      engine.WindowManager
	gateway *content.Gateway

	writeMu sync.Mutex // serializes write-permission commits
}

// New creates a board for one logical join. The room creator starts
// writable; everyone else starts read-only until granted.
func New(opts Options) *Board {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.PreloadDebounce <= 0 {
		opts.PreloadDebounce = 2 * time.Second
	}

	return &Board{
		Phase:     observable.NewValue(engine.PhaseConnecting),
		ViewMode:  observable.NewValue(engine.ViewModeBroadcaster),
		Writable:  observable.NewValue(opts.IsCreator),
		Pages:     observable.NewValue(PageState{Index: 0, Count: 0}),
		Focused:   observable.NewValue(false),
		Maximized: observable.NewValue(false),
		Kicked:    observable.NewValue(false),

		SessionID: uuid.NewString(),
		opts:      opts,
		log:       opts.Logger.Named("board"),
		clk:       opts.Clock,
	}
}

// Snapshot is a point-in-time copy of the observable state.
type Snapshot struct {
	SessionID string    `json:"sessionId"`
	RoomUUID  string    `json:"roomUUID"`
	Connected bool      `json:"connected"`
	Phase     string    `json:"phase"`
	ViewMode  string    `json:"viewMode"`
	Writable  bool      `json:"writable"`
	Pages     PageState `json:"pages"`
	Focused   bool      `json:"focused"`
	Maximized bool      `json:"maximized"`
	Kicked    bool      `json:"kicked"`
}

// TakeSnapshot reads every field once. Fields may move independently right
// after; this is a debugging view, not a transaction.
func (b *Board) TakeSnapshot() Snapshot {
	b.mu.Lock()
	connected := b.room != nil
	b.mu.Unlock()

	return Snapshot{
		SessionID: b.SessionID,
		RoomUUID:  b.opts.RoomUUID,
		Connected: connected,
		Phase:     b.Phase.Get().String(),
		ViewMode:  string(b.ViewMode.Get()),
		Writable:  b.Writable.Get(),
		Pages:     b.Pages.Get(),
		Focused:   b.Focused.Get(),
		Maximized: b.Maximized.Get(),
		Kicked:    b.Kicked.Get(),
	}
}

// RoomUUID returns the room this board was configured for.
func (b *Board) RoomUUID() string {
	return b.opts.RoomUUID
}

func (b *Board) handles() (engine.Room, engine.WindowManager, *content.Gateway) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.room, b.wm, b.gateway
}
