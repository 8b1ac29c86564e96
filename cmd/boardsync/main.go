// Command boardsync is the development playground: it joins a room on the
// in-process loopback engine, logs every state transition, and optionally
// serves the debug endpoints and records a journal. It exists to exercise
// the adapter end to end without a networked engine.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"boardsync/internal/board"
	"boardsync/internal/config"
	"boardsync/internal/debug"
	"boardsync/internal/engine"
	"boardsync/internal/engine/loopback"
	"boardsync/internal/journal"
)

func main() {
	cfg := config.Load()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	uid := cfg.User.UID
	if uid == "" {
		uid = "dev-user"
	}
	roomUUID := cfg.Room.UUID
	if roomUUID == "" {
		roomUUID = "dev-room"
	}
	token := cfg.Room.Token
	if token == "" {
		token = "dev-token"
	}

	b := board.New(board.Options{
		Engine:          loopback.New(),
		Cursor:          &loopback.Cursor{},
		Preloader:       &loopback.Preloader{},
		UID:             uid,
		UserName:        cfg.User.Name,
		RoomUUID:        roomUUID,
		RoomToken:       token,
		Region:          cfg.Room.Region,
		IsCreator:       cfg.User.IsOwner,
		Device:          engine.DeviceClass(cfg.Board.DeviceClass),
		PreloadDebounce: cfg.Board.PreloadDebounce,
		Logger:          log,
	})

	var jnl *journal.Journal
	if cfg.Journal.Enabled {
		jnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			log.Fatal("open journal", zap.String("path", cfg.Journal.Path), zap.Error(err))
		}
		defer jnl.Close()

		detach := jnl.Attach(b)
		defer detach()
		log.Info("journal enabled", zap.String("path", cfg.Journal.Path))
	}

	ctx := context.Background()
	if err := b.Join(ctx); err != nil {
		log.Fatal("join room", zap.String("room", roomUUID), zap.Error(err))
	}

	var dbg *debug.Server
	if cfg.Debug.Enabled {
		dbg = debug.New(b, jnl, log)
		go func() {
			if err := dbg.Listen(cfg.Debug.Addr); err != nil {
				log.Error("debug server stopped", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if dbg != nil {
		if err := dbg.Shutdown(); err != nil {
			log.Warn("debug server shutdown", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	b.Destroy(shutdownCtx)
}
