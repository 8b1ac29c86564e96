package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardsync/internal/auth"
	"boardsync/internal/engine"
	"boardsync/internal/engine/loopback"
)

type fixture struct {
	board  *Board
	eng    *loopback.Engine
	cursor *loopback.Cursor
	pre    *loopback.Preloader
	clk    *clock.Mock
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()

	f := &fixture{
		eng:    loopback.New(),
		cursor: &loopback.Cursor{},
		pre:    &loopback.Preloader{},
		clk:    clock.NewMock(),
	}

	opts := Options{
		Engine:    f.eng,
		Cursor:    f.cursor,
		Preloader: f.pre,
		UID:       "user-1",
		RoomUUID:  "room-1",
		RoomToken: "opaque-room-token",
		Clock:     f.clk,
	}
	if mutate != nil {
		mutate(&opts)
	}

	f.board = New(opts)
	return f
}

func (f *fixture) join(t *testing.T) *loopback.Room {
	t.Helper()
	require.NoError(t, f.board.Join(context.Background()))
	room := f.eng.LastRoom()
	require.NotNil(t, room)
	return room
}

func seedScenes(eng *loopback.Engine, index int, names ...string) {
	scenes := make([]engine.Scene, len(names))
	for i, n := range names {
		scenes[i] = engine.Scene{Name: n}
	}
	eng.Seed(engine.RoomState{
		Broadcast: &engine.BroadcastState{Mode: engine.ViewModeBroadcaster},
		Scenes:    &engine.SceneState{Index: index, Scenes: scenes},
	})
}

// --- join preconditions -----------------------------------------------------

func TestJoinRequiresIdentity(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.UID = "" })

	err := f.board.Join(context.Background())
	assert.ErrorIs(t, err, ErrMissingIdentity)
	assert.Nil(t, f.eng.LastRoom(), "no network operation before preconditions pass")
}

func TestJoinRequiresRoomCredentials(t *testing.T) {
	for _, mutate := range []func(*Options){
		func(o *Options) { o.RoomUUID = "" },
		func(o *Options) { o.RoomToken = "" },
	} {
		f := newFixture(t, mutate)
		err := f.board.Join(context.Background())
		assert.ErrorIs(t, err, ErrMissingRoomCredentials)
		assert.Nil(t, f.eng.LastRoom())
	}
}

func TestJoinRejectsExpiredToken(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.RoomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	s, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)

	f := newFixture(t, func(o *Options) { o.RoomToken = s })
	err = f.board.Join(context.Background())
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
	assert.Nil(t, f.eng.LastRoom())
}

func TestJoinTakesRegionFromTokenClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.RoomClaims{
		Region: "eu-fra",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	f := newFixture(t, func(o *Options) { o.RoomToken = s })
	room := f.join(t)
	assert.Equal(t, "eu-fra", room.Config().Region)
}

func TestJoinPropagatesEngineFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.JoinErr = errors.New("room full")

	err := f.board.Join(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "room full")
	assert.Equal(t, engine.PhaseConnecting, f.board.Phase.Get())
}

// --- post-join hydration ----------------------------------------------------

func TestJoinHydratesState(t *testing.T) {
	eng := loopback.New()
	seedScenes(eng, 1, "1", "2", "3")
	f := newFixture(t, func(o *Options) { o.Engine = eng })
	f.eng = eng

	room := f.join(t)

	assert.Equal(t, engine.PhaseConnected, f.board.Phase.Get())
	assert.Equal(t, engine.ViewModeBroadcaster, f.board.ViewMode.Get())
	assert.Equal(t, PageState{Index: 1, Count: 3}, f.board.Pages.Get())
	assert.False(t, f.board.Focused.Get())
	assert.False(t, f.board.Maximized.Get())

	assert.Same(t, room, f.cursor.Bound(), "cursor renderer bound to the live session")

	cfg := room.Config()
	assert.True(t, cfg.MultiWindow)
	assert.NotEmpty(t, cfg.Hotkeys)
	assert.NotEmpty(t, cfg.Device)
}

func TestJoinMirrorsInitialPermission(t *testing.T) {
	creator := newFixture(t, func(o *Options) { o.IsCreator = true })
	room := creator.join(t)
	assert.True(t, creator.board.Writable.Get())
	assert.False(t, room.DeviceInputsDisabled())

	guest := newFixture(t, nil)
	room = guest.join(t)
	assert.False(t, guest.board.Writable.Get())
	assert.True(t, room.DeviceInputsDisabled())
}

// --- write gate -------------------------------------------------------------

func TestSetWritableCommitsAndMirrors(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)

	require.NoError(t, f.board.SetWritable(context.Background(), true))
	assert.True(t, f.board.Writable.Get())
	assert.False(t, room.DeviceInputsDisabled())
	assert.False(t, room.SerializationDisabled())

	require.NoError(t, f.board.SetWritable(context.Background(), false))
	assert.False(t, f.board.Writable.Get())
	assert.True(t, room.DeviceInputsDisabled())
}

func TestSetWritableNoOpShortCircuit(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.IsCreator = true })
	room := f.join(t)

	require.NoError(t, f.board.SetWritable(context.Background(), true))
	assert.Zero(t, room.WritableRequests(), "setting the current value must not reach the engine")
}

func TestSetWritableLastCallWins(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)

	require.NoError(t, f.board.SetWritable(context.Background(), true))
	require.NoError(t, f.board.SetWritable(context.Background(), false))
	require.NoError(t, f.board.SetWritable(context.Background(), true))

	assert.True(t, f.board.Writable.Get())
	assert.False(t, room.DeviceInputsDisabled())
	assert.Equal(t, 3, room.WritableRequests())
}

func TestSetWritableRejectionKeepsOptimisticValue(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)
	room.RejectWritable = errors.New("room is read-only")

	err := f.board.SetWritable(context.Background(), true)
	require.Error(t, err)

	// Optimistic commit, no rollback.
	assert.True(t, f.board.Writable.Get())
	// The mirror only follows accepted commits.
	assert.True(t, room.DeviceInputsDisabled())
}

func TestSetWritableBeforeJoin(t *testing.T) {
	f := newFixture(t, nil)
	assert.ErrorIs(t, f.board.SetWritable(context.Background(), true), ErrNotConnected)
}

// --- pagination -------------------------------------------------------------

func TestPageNavigationStaysInBounds(t *testing.T) {
	eng := loopback.New()
	seedScenes(eng, 0, "1", "2", "3")
	f := newFixture(t, func(o *Options) { o.Engine = eng })
	f.eng = eng
	f.join(t)

	ctx := context.Background()

	// Past the lower bound: no-op, no error.
	require.NoError(t, f.board.PrevPage(ctx))
	assert.Equal(t, PageState{Index: 0, Count: 3}, f.board.Pages.Get())

	require.NoError(t, f.board.NextPage(ctx))
	require.NoError(t, f.board.NextPage(ctx))
	assert.Equal(t, PageState{Index: 2, Count: 3}, f.board.Pages.Get())

	// Past the upper bound: no-op, no error.
	require.NoError(t, f.board.NextPage(ctx))
	assert.Equal(t, PageState{Index: 2, Count: 3}, f.board.Pages.Get())
}

func TestAddPageInsertsAfterCurrentAndNavigates(t *testing.T) {
	eng := loopback.New()
	seedScenes(eng, 0, "1", "2")
	f := newFixture(t, func(o *Options) { o.Engine = eng })
	f.eng = eng
	room := f.join(t)

	require.NoError(t, f.board.AddPage(context.Background()))

	assert.Equal(t, PageState{Index: 1, Count: 3}, f.board.Pages.Get())
	wm := room.WindowManager()
	assert.Equal(t, 3, wm.MainViewScenesCount())
	assert.Equal(t, 1, wm.MainViewSceneIndex())
}

// --- kick handling ----------------------------------------------------------

func TestKickSetsFlagForNonCreator(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)

	room.EmitKick(engine.KickByAdmin)
	assert.True(t, f.board.Kicked.Get())
}

func TestKickIgnoredForCreator(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.IsCreator = true })
	room := f.join(t)

	room.EmitKick(engine.KickByAdmin)
	assert.False(t, f.board.Kicked.Get())
}

func TestKickIgnoredForUnknownReason(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)

	room.EmitKick(engine.KickReason("networkBlink"))
	assert.False(t, f.board.Kicked.Get())
}

func TestKickReasonsThatQualify(t *testing.T) {
	for _, reason := range []engine.KickReason{engine.KickByAdmin, engine.KickRoomDelete, engine.KickRoomBan} {
		f := newFixture(t, nil)
		room := f.join(t)
		room.EmitKick(reason)
		assert.True(t, f.board.Kicked.Get(), "reason %s", reason)
	}
}

// --- room-state notifications ----------------------------------------------

func TestRoomStateUpdatesViewMode(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)

	room.EmitRoomState(engine.RoomState{
		Broadcast: &engine.BroadcastState{Mode: engine.ViewModeFollower, BroadcasterID: "user-9"},
	})
	assert.Equal(t, engine.ViewModeFollower, f.board.ViewMode.Get())
}

func TestRoomStateTriggersDebouncedPreload(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)

	st := engine.RoomState{Scenes: &engine.SceneState{Index: 0, Scenes: []engine.Scene{
		{Name: "1", PPT: &engine.PPTPage{Src: "pptx://cdn.example.com/dynamicConvert/TASK9/1.slide"}},
	}}}
	room.EmitRoomState(st)
	room.EmitRoomState(st)

	assert.Empty(t, f.pre.Calls(), "preload waits out the quiet window")
	f.clk.Add(2 * time.Second)
	assert.Equal(t, []string{"pptx://cdn.example.com/dynamicConvert/TASK9/1.slide"}, f.pre.Calls())
}

func TestRoomStateResyncsPagesOnlyWhenWritableWriter(t *testing.T) {
	eng := loopback.New()
	seedScenes(eng, 0, "1")
	f := newFixture(t, func(o *Options) { o.Engine = eng })
	f.eng = eng
	room := f.join(t)

	grown := engine.RoomState{Scenes: &engine.SceneState{Index: 2, Scenes: []engine.Scene{
		{Name: "1"}, {Name: "2"}, {Name: "3"},
	}}}

	// Read-only: the notification must not move pagination.
	room.EmitRoomState(grown)
	assert.Equal(t, PageState{Index: 0, Count: 1}, f.board.Pages.Get())

	require.NoError(t, f.board.SetWritable(context.Background(), true))
	room.EmitRoomState(grown)
	assert.Equal(t, PageState{Index: 2, Count: 3}, f.board.Pages.Get())
}

func TestDisconnectErrorCancelsPendingPreload(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)

	room.EmitRoomState(engine.RoomState{Scenes: &engine.SceneState{Scenes: []engine.Scene{
		{Name: "1", PPT: &engine.PPTPage{Src: "pptx://cdn.example.com/dynamicConvert/T/1.slide"}},
	}}})
	room.EmitDisconnectError(errors.New("connection reset"))

	f.clk.Add(time.Minute)
	assert.Empty(t, f.pre.Calls(), "stale preload must not fire after disconnect")
}

// --- window layout mirror ---------------------------------------------------

func TestWindowLayoutMirror(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)
	wm := room.WindowManager().(*loopback.WindowManager)

	wm.EmitMainViewMode(engine.MainViewFocused)
	assert.True(t, f.board.Focused.Get())

	wm.EmitBoxState(engine.BoxStateMaximized)
	assert.True(t, f.board.Maximized.Get())

	wm.EmitBoxState(engine.BoxStateNormal)
	assert.False(t, f.board.Maximized.Get())

	wm.EmitMainViewMode(engine.MainViewWriter)
	assert.False(t, f.board.Focused.Get())
}

func TestReturningToWriterResyncsPagesWhenWritable(t *testing.T) {
	eng := loopback.New()
	seedScenes(eng, 0, "1")
	f := newFixture(t, func(o *Options) { o.Engine = eng; o.IsCreator = true })
	f.eng = eng
	room := f.join(t)
	wm := room.WindowManager().(*loopback.WindowManager)

	wm.EmitMainViewMode(engine.MainViewFocused)

	// Scene list grows while a window has focus; pagination holds.
	room.EmitRoomState(engine.RoomState{Scenes: &engine.SceneState{Index: 1, Scenes: []engine.Scene{
		{Name: "1"}, {Name: "2"},
	}}})
	assert.Equal(t, PageState{Index: 0, Count: 1}, f.board.Pages.Get())

	wm.EmitMainViewMode(engine.MainViewWriter)
	assert.Equal(t, PageState{Index: 1, Count: 2}, f.board.Pages.Get())
}

// --- view mode toggle -------------------------------------------------------

func TestSetViewMode(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)

	require.NoError(t, f.board.SetViewMode(engine.ViewModeFreedom))
	assert.Equal(t, engine.ViewModeFreedom, f.board.ViewMode.Get())
	assert.Equal(t, engine.ViewModeFreedom, room.WindowManager().(*loopback.WindowManager).ViewMode())
}

// --- content ops ------------------------------------------------------------

func TestOpenDocsBeforeJoinIsContained(t *testing.T) {
	f := newFixture(t, nil)
	assert.NotPanics(t, func() {
		f.board.OpenDocs(context.Background(), "deck", []engine.Scene{{Name: "1"}})
	})
}

func TestOpenDocsRoutesThroughGateway(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)

	f.board.OpenDocs(context.Background(), "deck.pptx", []engine.Scene{
		{Name: "1", PPT: &engine.PPTPage{Src: "pptx://cdn.example.com/dynamicConvert/TASK1/1.slide"}},
	})

	windows := room.WindowManager().(*loopback.WindowManager).Windows()
	require.Len(t, windows, 1)
	assert.Equal(t, engine.KindSlide, windows[0].Kind)
}

// --- teardown ---------------------------------------------------------------

func TestDestroyReleasesEverything(t *testing.T) {
	f := newFixture(t, nil)
	room := f.join(t)
	wm := room.WindowManager().(*loopback.WindowManager)

	room.EmitRoomState(engine.RoomState{Scenes: &engine.SceneState{Scenes: []engine.Scene{
		{Name: "1", PPT: &engine.PPTPage{Src: "pptx://cdn.example.com/dynamicConvert/T/1.slide"}},
	}}})

	f.board.Destroy(context.Background())

	assert.True(t, room.Disconnected())
	assert.True(t, wm.Destroyed())
	assert.False(t, f.board.TakeSnapshot().Connected)

	f.clk.Add(time.Minute)
	assert.Empty(t, f.pre.Calls(), "pending preload canceled on teardown")

	// Deregistered callbacks: late notifications change nothing.
	room.EmitKick(engine.KickByAdmin)
	assert.False(t, f.board.Kicked.Get())
}

func TestDestroyIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.join(t)

	f.board.Destroy(context.Background())
	assert.NotPanics(t, func() { f.board.Destroy(context.Background()) })
}

func TestSnapshotReflectsState(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.IsCreator = true })
	f.join(t)

	snap := f.board.TakeSnapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, "connected", snap.Phase)
	assert.True(t, snap.Writable)
	assert.Equal(t, "room-1", snap.RoomUUID)
	assert.NotEmpty(t, snap.SessionID)
}
