// Package debug serves the session's live state over HTTP for local
// inspection: a snapshot endpoint, the journal tail, and a websocket
// that streams every state transition.
package debug

import (
	"fmt"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"boardsync/internal/board"
	"boardsync/internal/engine"
	"boardsync/internal/journal"
)

// Server is the debug HTTP server for one board session.
type Server struct {
	app   *fiber.App
	board *board.Board
	jnl   *journal.Journal // may be nil
	log   *zap.Logger
}

// New builds the server and registers its routes. jnl may be nil; the
// journal endpoint then answers 404.
func New(b *board.Board, jnl *journal.Journal, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "boardsync debug",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	s := &Server{app: app, board: b, jnl: jnl, log: log.Named("debug")}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	s.app.Get("/api/state", func(c *fiber.Ctx) error {
		return c.JSON(s.board.TakeSnapshot())
	})

	s.app.Get("/api/journal", func(c *fiber.Ctx) error {
		if s.jnl == nil {
			return fiber.ErrNotFound
		}
		limit := c.QueryInt("limit", 50)
		entries, err := s.jnl.Recent(s.board.SessionID, limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(entries)
	})

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	s.app.Get("/ws/state", websocket.New(s.streamState, websocket.Config{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}))
}

// streamState pushes a snapshot on connect and again after every state
// transition. Bursts coalesce; the client always converges on the latest
// snapshot.
func (s *Server) streamState(c *websocket.Conn) {
	notify := make(chan struct{}, 1)
	poke := func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	}

	b := s.board
	cancels := []func(){
		b.Phase.Subscribe(func(engine.Phase) { poke() }),
		b.ViewMode.Subscribe(func(engine.ViewMode) { poke() }),
		b.Writable.Subscribe(func(bool) { poke() }),
		b.Pages.Subscribe(func(board.PageState) { poke() }),
		b.Focused.Subscribe(func(bool) { poke() }),
		b.Maximized.Subscribe(func(bool) { poke() }),
		b.Kicked.Subscribe(func(bool) { poke() }),
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	// Read pump: its only job is to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := c.WriteJSON(b.TakeSnapshot()); err != nil {
		return
	}
	for {
		select {
		case <-notify:
			if err := c.WriteJSON(b.TakeSnapshot()); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// Listen blocks serving on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("debug server listening", zap.String("addr", addr))
	if err := s.app.Listen(addr); err != nil {
		return fmt.Errorf("debug: listen %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops the server, waiting out in-flight requests.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}
