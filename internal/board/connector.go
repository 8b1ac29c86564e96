package board

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"boardsync/internal/auth"
	"boardsync/internal/content"
	"boardsync/internal/device"
	"boardsync/internal/engine"
)

// defaultHotkeys are the key bindings handed to the engine at join time.
var defaultHotkeys = map[string]string{
	"undo":   "ctrl+z",
	"redo":   "ctrl+shift+z",
	"delete": "backspace",
	"copy":   "ctrl+c",
	"paste":  "ctrl+v",
}

// Join performs the one-time handshake and wires every state transition.
// Preconditions fail fast before any network operation. Calling Join twice
// without an intervening Destroy is the caller's bug; the connector does
// not deduplicate joins.
func (b *Board) Join(ctx context.Context) error {
	if b.opts.UID == "" {
		return ErrMissingIdentity
	}
	if b.opts.RoomUUID == "" || b.opts.RoomToken == "" {
		return ErrMissingRoomCredentials
	}

	region := b.opts.Region
	if claims, err := auth.Inspect(b.opts.RoomToken); err == nil {
		if region == "" {
			region = claims.Region
		}
	} else if errors.Is(err, auth.ErrExpiredToken) {
		return fmt.Errorf("board: room token: %w", err)
	}
	// Opaque (non-JWT) tokens pass through; the engine decides.

	dev := b.opts.Device
	if dev == "" {
		dev = device.Detect("")
	}

	writable := b.Writable.Get()
	room, err := b.opts.Engine.Join(ctx, engine.JoinConfig{
		UID:                 b.opts.UID,
		UserName:            b.opts.UserName,
		RoomUUID:            b.opts.RoomUUID,
		RoomToken:           b.opts.RoomToken,
		Region:              region,
		Device:              dev,
		DisableDeviceInputs: !writable,
		Hotkeys:             defaultHotkeys,
		MultiWindow:         true,
	}, engine.Callbacks{
		OnPhaseChanged:        b.onPhaseChanged,
		OnRoomStateChanged:    b.onRoomStateChanged,
		OnDisconnectWithError: b.onDisconnectWithError,
		OnKicked:              b.onKicked,
	})
	if err != nil {
		return fmt.Errorf("board: join room %s: %w", b.opts.RoomUUID, err)
	}

	// Post-join hydration: mirror the initial permission, bind the cursor
	// renderer, then read the authoritative state once.
	room.DisableDeviceInputs(!writable)
	if b.opts.Cursor != nil {
		b.opts.Cursor.Bind(room)
	}

	if st := room.State(); st.Broadcast != nil {
		b.ViewMode.Set(st.Broadcast.Mode)
	}

	wm := room.WindowManager()
	b.Pages.Set(PageState{Index: wm.MainViewSceneIndex(), Count: wm.MainViewScenesCount()})
	b.Focused.Set(wm.MainViewMode() == engine.MainViewFocused)
	b.Maximized.Set(wm.CurrentBoxState() == engine.BoxStateMaximized)
	wm.Subscribe(engine.WindowEvents{
		OnMainViewModeChanged: b.onMainViewModeChanged,
		OnBoxStateChanged:     b.onBoxStateChanged,
	})

	gateway := content.NewGatewayWithClock(wm, b.opts.Preloader, b.opts.PreloadDebounce, b.clk, b.opts.Logger.Named("content"))

	b.mu.Lock()
	b.room = room
	b.wm = wm
	b.gateway = gateway
	b.mu.Unlock()

	b.log.Info("joined room",
		zap.String("room", b.opts.RoomUUID),
		zap.String("session", b.SessionID),
		zap.String("device", string(dev)),
		zap.Bool("writable", writable))
	return nil
}

// Destroy tears the session down: pending preload canceled, callbacks
// deregistered, window layer destroyed, room disconnected, handles
// released. Safe to call more than once.
func (b *Board) Destroy(ctx context.Context) {
	b.mu.Lock()
	room, wm, gateway := b.room, b.wm, b.gateway
	b.room, b.wm, b.gateway = nil, nil, nil
	b.mu.Unlock()

	if room == nil && wm == nil && gateway == nil {
		return
	}

	if gateway != nil {
		gateway.CancelPreload()
	}
	if room != nil {
		room.ReleaseCallbacks()
	}
	if wm != nil {
		wm.Destroy()
	}
	if room != nil {
		if err := room.Disconnect(ctx); err != nil {
			b.log.Warn("disconnect failed", zap.String("room", b.opts.RoomUUID), zap.Error(err))
		}
	}

	b.log.Info("session destroyed", zap.String("session", b.SessionID))
}

func (b *Board) onPhaseChanged(p engine.Phase) {
	b.Phase.Set(p)
}

func (b *Board) onRoomStateChanged(st engine.RoomState) {
	if st.Broadcast != nil {
		b.ViewMode.Set(st.Broadcast.Mode)
	}

	room, wm, gateway := b.handles()

	if st.Scenes != nil && gateway != nil {
		if src, ok := content.FirstConversionSource(st.Scenes.Scenes); ok {
			gateway.PreloadSoon(src)
		}
	}

	// Pagination follows the engine only while the local writer holds the
	// main view; otherwise a focused window owns what the index means.
	if room == nil || wm == nil {
		return
	}
	if b.Writable.Get() && wm.MainViewMode() == engine.MainViewWriter {
		b.resyncPages(room, wm)
	}
}

func (b *Board) onDisconnectWithError(err error) {
	b.log.Warn("room disconnected with error", zap.String("room", b.opts.RoomUUID), zap.Error(err))

	// A preload scheduled before the drop would act on stale state.
	_, _, gateway := b.handles()
	if gateway != nil {
		gateway.CancelPreload()
	}
}

// onKicked sets the terminal kicked flag. The room creator is exempt:
// these reasons fire when the creator tears down their own room, and the
// teardown must not interrupt itself. If an engine ever kicks creators for
// other causes, callers have to watch Phase instead.
func (b *Board) onKicked(reason engine.KickReason) {
	if b.opts.IsCreator {
		return
	}
	switch reason {
	case engine.KickByAdmin, engine.KickRoomDelete, engine.KickRoomBan:
		b.log.Info("kicked from room", zap.String("room", b.opts.RoomUUID), zap.String("reason", string(reason)))
		b.Kicked.Set(true)
	}
}

func (b *Board) onMainViewModeChanged(mode engine.MainViewMode) {
	b.Focused.Set(mode == engine.MainViewFocused)

	room, wm, _ := b.handles()
	if room == nil || wm == nil {
		return
	}
	if mode == engine.MainViewWriter && b.Writable.Get() {
		b.resyncPages(room, wm)
	}
}

func (b *Board) onBoxStateChanged(state engine.BoxState) {
	b.Maximized.Set(state == engine.BoxStateMaximized)
}

// resyncPages re-reads the authoritative scene state. The room state wins
// when it carries scenes; the window layer is the fallback.
func (b *Board) resyncPages(room engine.Room, wm engine.WindowManager) {
	if st := room.State(); st.Scenes != nil {
		count := len(st.Scenes.Scenes)
		index := st.Scenes.Index
		if index < 0 {
			index = 0
		}
		if count > 0 && index > count-1 {
			index = count - 1
		}
		b.Pages.Set(PageState{Index: index, Count: count})
		return
	}
	b.Pages.Set(PageState{Index: wm.MainViewSceneIndex(), Count: wm.MainViewScenesCount()})
}
