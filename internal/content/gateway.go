// Package content routes document and media open requests into the window
// management layer and debounces document-conversion preloads. Content-open
// failures are logged and contained; they must never take the session down.
package content

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"boardsync/internal/debounce"
	"boardsync/internal/engine"
)

const preloadTimeout = 30 * time.Second

// Gateway opens content windows and preloads conversion sources.
type Gateway struct {
	wm        engine.WindowManager
	preloader engine.DocPreloader
	pending   *debounce.Func
	log       *zap.Logger
}

// NewGateway creates a gateway over a live window manager. quiet is the
// preload coalescing window.
func NewGateway(wm engine.WindowManager, preloader engine.DocPreloader, quiet time.Duration, log *zap.Logger) *Gateway {
	return newGateway(wm, preloader, quiet, clock.New(), log)
}

// NewGatewayWithClock is NewGateway on an injected clock, for tests.
func NewGatewayWithClock(wm engine.WindowManager, preloader engine.DocPreloader, quiet time.Duration, clk clock.Clock, log *zap.Logger) *Gateway {
	return newGateway(wm, preloader, quiet, clk, log)
}

func newGateway(wm engine.WindowManager, preloader engine.DocPreloader, quiet time.Duration, clk clock.Clock, log *zap.Logger) *Gateway {
	return &Gateway{
		wm:        wm,
		preloader: preloader,
		pending:   debounce.NewWithClock(quiet, clk),
		log:       log,
	}
}

// OpenDocs opens a document set. The scenes are scanned in order for the
// first pending conversion source; when one is found a slide window is
// opened with the task attributes and the scenes stripped down to their
// names, so stale per-scene rendering metadata is not forwarded while the
// scene count and order survive for pagination. Otherwise the unmodified
// scene list goes to a generic docs-viewer window.
func (g *Gateway) OpenDocs(ctx context.Context, title string, scenes []engine.Scene) {
	if task, ok := findConversionTask(scenes); ok {
		stripped := make([]engine.Scene, len(scenes))
		for i, s := range scenes {
			stripped[i] = engine.Scene{Name: s.Name}
		}

		_, err := g.wm.AddWindow(ctx, engine.AddWindowParams{
			Kind:   engine.KindSlide,
			Title:  title,
			Scenes: stripped,
			Attributes: map[string]any{
				"taskId": task.TaskID,
				"url":    task.URL,
			},
		})
		if err != nil {
			g.log.Warn("open slide window failed",
				zap.String("title", title),
				zap.String("taskId", task.TaskID),
				zap.Error(err))
		}
		return
	}

	_, err := g.wm.AddWindow(ctx, engine.AddWindowParams{
		Kind:   engine.KindDocsViewer,
		Title:  title,
		Scenes: scenes,
	})
	if err != nil {
		g.log.Warn("open docs window failed", zap.String("title", title), zap.Error(err))
	}
}

// OpenMedia opens a media file in a player window.
func (g *Gateway) OpenMedia(ctx context.Context, title, src string) {
	_, err := g.wm.AddWindow(ctx, engine.AddWindowParams{
		Kind:  engine.KindPlayer,
		Title: title,
		Attributes: map[string]any{
			"src": src,
		},
	})
	if err != nil {
		g.log.Warn("open media window failed", zap.String("title", title), zap.Error(err))
	}
}

// PreloadSoon schedules a best-effort prefetch of a conversion source after
// the quiet window. A second request within the window replaces the first;
// only the last source is fetched.
func (g *Gateway) PreloadSoon(src string) {
	g.pending.Call(func() {
		ctx, cancel := context.WithTimeout(context.Background(), preloadTimeout)
		defer cancel()

		if err := g.preloader.Preload(ctx, src); err != nil {
			g.log.Warn("preload failed", zap.String("src", src), zap.Error(err))
		}
	})
}

// CancelPreload drops any pending preload. Called on disconnect and on
// teardown, when the session state the preload was reasoning about is gone.
func (g *Gateway) CancelPreload() {
	g.pending.Cancel()
}

func findConversionTask(scenes []engine.Scene) (ConversionTask, bool) {
	for _, s := range scenes {
		if s.PPT == nil || s.PPT.Src == "" {
			continue
		}
		if task, ok := ParseConversionSource(s.PPT.Src); ok {
			return task, true
		}
	}
	return ConversionTask{}, false
}

// FirstConversionSource returns the first pending conversion source in a
// scene list, for callers that only need the raw src.
func FirstConversionSource(scenes []engine.Scene) (string, bool) {
	for _, s := range scenes {
		if s.PPT == nil || s.PPT.Src == "" {
			continue
		}
		if _, ok := ParseConversionSource(s.PPT.Src); ok {
			return s.PPT.Src, true
		}
	}
	return "", false
}
