package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/audiopen/capture"
	"github.com/kbukum/audiopen/catalog"
	"github.com/kbukum/audiopen/diagnostics"
	"github.com/kbukum/audiopen/server"
	"github.com/kbukum/audiopen/sse"
	"github.com/kbukum/audiopen/storage"
	"github.com/kbukum/audiopen/storage/local"
)

const streamPath = "/debug/events/stream"

// recordingView is a catalog entry as the debug panel shows it.
type recordingView struct {
	catalog.Recording
	Fetchable bool   `json:"fetchable"`
	Reason    string `json:"reason,omitempty"`
	Length    string `json:"length"`
}

// EnableDebugPanel registers the debug HTTP server as a component. Call it
// before Start. The panel serves the diagnostics recorder, a live event
// stream, the capture session and the catalog. With the local storage
// provider it also serves the signed object URLs.
func (a *App) EnableDebugPanel() (*server.Server, error) {
	if a.Recorder == nil {
		a.Recorder = diagnostics.NewRecorder(a.Cfg.Diagnostics.BufferSize)
	}
	stream := sse.NewComponent(streamPath, a.Logger)
	a.diag = diagnostics.Tee(a.Recorder, diagnostics.NewStream(stream.Hub()))
	srv := server.New(a.Cfg.Diagnostics.Server, a.Logger)

	panel := &diagnostics.Panel{
		Recorder:   a.Recorder,
		Stream:     stream.Hub(),
		Health:     a.Components.HealthAll,
		Recordings: a.debugRecordings,
		Sweep: func(ctx context.Context) (int, error) {
			if a.Catalog == nil {
				return 0, fmt.Errorf("catalog is not ready")
			}
			return a.Catalog.Sweep(ctx)
		},
		Capture: func() any {
			if a.Engine == nil {
				return nil
			}
			return a.Engine.Session()
		},
	}
	panel.Register(srv.GinEngine())

	srv.GinEngine().GET("/objects/*path", func(c *gin.Context) {
		st, ok := storage.Unwrap(a.Storage).(*local.Storage)
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		local.Handler(st).ServeHTTP(c.Writer, c.Request)
	})

	if err := a.Components.Register(server.NewComponent(srv)); err != nil {
		return nil, err
	}
	// Stopped before the server so open streams end first.
	if err := a.Components.Register(stream); err != nil {
		return nil, err
	}
	return srv, nil
}

func (a *App) debugRecordings(ctx context.Context) (any, error) {
	if a.Catalog == nil {
		return nil, fmt.Errorf("catalog is not ready")
	}
	recs := a.Catalog.Recordings()
	if len(recs) == 0 {
		loaded, err := a.Catalog.Load(ctx)
		if err != nil {
			return nil, err
		}
		recs = loaded
	}
	views := make([]recordingView, 0, len(recs))
	for _, r := range recs {
		v := recordingView{Recording: r, Fetchable: true, Length: capture.FormatDuration(r.Duration())}
		if err := catalog.Fetchable(r.AudioURL); err != nil {
			v.Fetchable = false
			v.Reason = err.Error()
		}
		views = append(views, v)
	}
	return views, nil
}
