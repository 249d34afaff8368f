package sse

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/audiopen/component"
	"github.com/kbukum/audiopen/logger"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component runs a Hub for the lifetime of the component registry.
type Component struct {
	hub  *Hub
	path string
	wg   sync.WaitGroup
}

// NewComponent creates a component with a fresh Hub served at path.
func NewComponent(path string, log *logger.Logger) *Component {
	return &Component{hub: NewHub(log), path: path}
}

// Hub returns the hub to broadcast on.
func (c *Component) Hub() *Hub { return c.hub }

// Name returns the component name.
func (c *Component) Name() string { return "sse" }

// Start runs the hub loop in the background.
func (c *Component) Start(_ context.Context) error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.hub.Run()
	}()
	return nil
}

// Stop stops the hub and waits for its loop to exit.
func (c *Component) Stop(_ context.Context) error {
	c.hub.Stop()
	c.wg.Wait()
	return nil
}

// Health reports the number of connected clients.
func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d clients connected", c.hub.ClientCount()),
	}
}

// Describe returns the summary line for the doctor report.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Diagnostics stream",
		Type:    "sse",
		Details: fmt.Sprintf("path=%s", c.path),
	}
}
