package diagnostics

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/audiopen/server"
	"github.com/kbukum/audiopen/sse"
)

// Panel exposes the recorder and pipeline introspection over HTTP. Every
// hook is optional; routes for nil hooks answer 404.
type Panel struct {
	Recorder *Recorder
	Health   server.HealthChecker
	// Stream serves live events; clients filter with ?component=<glob>.
	Stream *sse.Hub

	// Recordings lists catalog entries with their validity.
	Recordings func(ctx context.Context) (any, error)
	// Sweep forces a validity sweep and returns the number of removed entries.
	Sweep func(ctx context.Context) (int, error)
	// Capture reports the current capture session.
	Capture func() any
}

// Register mounts the panel routes on engine under /debug.
func (p *Panel) Register(engine *gin.Engine) {
	engine.GET("/health", server.HealthHandler("audiopen", p.Health))
	engine.GET("/version", server.VersionHandler())

	g := engine.Group("/debug")
	g.GET("/events", p.events)
	g.DELETE("/events", p.clearEvents)
	g.GET("/events/stream", p.stream)
	g.GET("/capture", p.capture)
	g.GET("/recordings", p.recordings)
	g.POST("/recordings/sweep", p.sweep)
}

func (p *Panel) events(c *gin.Context) {
	if p.Recorder == nil {
		c.Status(http.StatusNotFound)
		return
	}
	if component := c.Query("component"); component != "" {
		server.RespondOK(c, p.Recorder.Filter(component))
		return
	}
	server.RespondOK(c, p.Recorder.Events())
}

func (p *Panel) stream(c *gin.Context) {
	if p.Stream == nil {
		c.Status(http.StatusNotFound)
		return
	}
	sse.ServeSSE(p.Stream, c.Writer, c.Request, uuid.NewString(), c.DefaultQuery("component", "*"))
}

func (p *Panel) clearEvents(c *gin.Context) {
	if p.Recorder == nil {
		c.Status(http.StatusNotFound)
		return
	}
	p.Recorder.Clear()
	c.Status(http.StatusNoContent)
}

func (p *Panel) capture(c *gin.Context) {
	if p.Capture == nil {
		c.Status(http.StatusNotFound)
		return
	}
	server.RespondOK(c, p.Capture())
}

func (p *Panel) recordings(c *gin.Context) {
	if p.Recordings == nil {
		c.Status(http.StatusNotFound)
		return
	}
	list, err := p.Recordings(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, list)
}

func (p *Panel) sweep(c *gin.Context) {
	if p.Sweep == nil {
		c.Status(http.StatusNotFound)
		return
	}
	removed, err := p.Sweep(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"removed": removed})
}
