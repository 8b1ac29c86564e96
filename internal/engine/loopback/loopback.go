// Package loopback is an in-process collaboration engine. It implements the
// engine contracts with deterministic, synchronous behavior and exposes
// Emit helpers to inject the notifications a networked engine would
// deliver. The dev playground runs against it; the board tests drive it.
package loopback

import (
	"context"
	"errors"
	"sync"

	"boardsync/internal/engine"
)

// ErrNotConnected is returned for room operations after Disconnect.
var ErrNotConnected = errors.New("loopback: room is not connected")

// Engine hands out loopback rooms.
type Engine struct {
	mu sync.Mutex

	// JoinErr, when set, makes the next Join fail.
	JoinErr error

	seed  engine.RoomState
	rooms []*Room
}

// New creates an engine with an empty single-scene room state.
func New() *Engine {
	return &Engine{
		seed: engine.RoomState{
			Broadcast: &engine.BroadcastState{Mode: engine.ViewModeBroadcaster},
			Scenes:    &engine.SceneState{Index: 0, Scenes: []engine.Scene{{Name: "1"}}},
		},
	}
}

// Seed replaces the state future joins start from.
func (e *Engine) Seed(st engine.RoomState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seed = st
}

// Join implements engine.Engine. The handshake resolves synchronously and
// the connected phase notification is delivered before Join returns.
func (e *Engine) Join(ctx context.Context, cfg engine.JoinConfig, cb engine.Callbacks) (engine.Room, error) {
	e.mu.Lock()
	if e.JoinErr != nil {
		err := e.JoinErr
		e.mu.Unlock()
		return nil, err
	}

	scenes := []engine.Scene{}
	index := 0
	if e.seed.Scenes != nil {
		scenes = append(scenes, e.seed.Scenes.Scenes...)
		index = e.seed.Scenes.Index
	}

	r := &Room{
		cfg:            cfg,
		cb:             cb,
		phase:          engine.PhaseConnected,
		state:          e.seed,
		inputsDisabled: cfg.DisableDeviceInputs,
		wm: &WindowManager{
			scenes: scenes,
			index:  index,
			mode:   engine.MainViewWriter,
			box:    engine.BoxStateNormal,
		},
	}
	e.rooms = append(e.rooms, r)
	e.mu.Unlock()

	r.EmitPhase(engine.PhaseConnected)
	return r, nil
}

// LastRoom returns the most recently joined room, for tests.
func (e *Engine) LastRoom() *Room {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.rooms) == 0 {
		return nil
	}
	return e.rooms[len(e.rooms)-1]
}

// Room is a loopback session handle.
type Room struct {
	mu sync.Mutex

	// RejectWritable, when set, makes SetWritable fail.
	RejectWritable error

	cfg      engine.JoinConfig
	cb       engine.Callbacks
	released bool

	phase        engine.Phase
	state        engine.RoomState
	writable     bool
	writableSets int

	inputsDisabled        bool
	serializationDisabled bool
	disconnected          bool

	wm *WindowManager
}

// Config returns the join config the room was created with.
func (r *Room) Config() engine.JoinConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

func (r *Room) Phase() engine.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Room) State() engine.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) Writable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writable
}

// WritableRequests counts how many SetWritable calls reached the engine.
func (r *Room) WritableRequests() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writableSets
}

func (r *Room) SetWritable(ctx context.Context, writable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disconnected {
		return ErrNotConnected
	}
	r.writableSets++
	if r.RejectWritable != nil {
		return r.RejectWritable
	}
	r.writable = writable
	return nil
}

func (r *Room) DisableDeviceInputs(disabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputsDisabled = disabled
}

func (r *Room) DeviceInputsDisabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inputsDisabled
}

func (r *Room) DisableSerialization(disabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serializationDisabled = disabled
}

// SerializationDisabled reports the serialization flag, for tests.
func (r *Room) SerializationDisabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.serializationDisabled
}

func (r *Room) WindowManager() engine.WindowManager {
	return r.wm
}

func (r *Room) ReleaseCallbacks() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = true
}

func (r *Room) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	if r.disconnected {
		r.mu.Unlock()
		return nil
	}
	r.disconnected = true
	r.phase = engine.PhaseDisconnected
	r.mu.Unlock()

	r.EmitPhase(engine.PhaseDisconnected)
	return nil
}

// Disconnected reports whether Disconnect ran, for tests.
func (r *Room) Disconnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disconnected
}

// EmitPhase delivers a phase-change notification.
func (r *Room) EmitPhase(p engine.Phase) {
	r.mu.Lock()
	r.phase = p
	cb := r.cb.OnPhaseChanged
	released := r.released
	r.mu.Unlock()

	if cb != nil && !released {
		cb(p)
	}
}

// EmitRoomState merges the non-nil parts into the stored state and
// delivers the partial notification as received.
func (r *Room) EmitRoomState(st engine.RoomState) {
	r.mu.Lock()
	if st.Broadcast != nil {
		r.state.Broadcast = st.Broadcast
	}
	if st.Scenes != nil {
		r.state.Scenes = st.Scenes
		r.wm.setScenes(st.Scenes.Scenes, st.Scenes.Index)
	}
	cb := r.cb.OnRoomStateChanged
	released := r.released
	r.mu.Unlock()

	if cb != nil && !released {
		cb(st)
	}
}

// EmitKick delivers a kick notification.
func (r *Room) EmitKick(reason engine.KickReason) {
	r.mu.Lock()
	cb := r.cb.OnKicked
	released := r.released
	r.mu.Unlock()

	if cb != nil && !released {
		cb(reason)
	}
}

// EmitDisconnectError delivers a disconnect-with-error notification.
func (r *Room) EmitDisconnectError(err error) {
	r.mu.Lock()
	cb := r.cb.OnDisconnectWithError
	released := r.released
	r.mu.Unlock()

	if cb != nil && !released {
		cb(err)
	}
}
