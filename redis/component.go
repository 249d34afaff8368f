package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/audiopen/component"
	"github.com/kbukum/audiopen/logger"
)

// Component owns the client for the app lifecycle. Start fails when the
// server does not answer a PING.
type Component struct {
	cfg    Config
	log    *logger.Logger
	client *Client
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent returns an unstarted component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.NewNop()
	}
	return &Component{cfg: cfg, log: log.WithComponent("redis")}
}

// Client is nil until Start succeeds.
func (c *Component) Client() *Client { return c.client }

func (c *Component) Name() string { return "redis" }

func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return err
	}
	c.client = client
	c.log.Info("redis connected", logger.Fields("addr", client.Addr()))
	return nil
}

func (c *Component) Stop(context.Context) error {
	return c.client.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.client == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	case c.client.Ping(ctx) != nil:
		h.Status, h.Message = component.StatusUnhealthy, "ping failed"
	}
	return h
}

func (c *Component) Describe() component.Description {
	target := c.cfg.Addr
	if c.cfg.URL != "" {
		target = "url"
	}
	return component.Description{
		Name:    "Signed URL cache",
		Type:    "redis",
		Details: fmt.Sprintf("%s db=%d", target, c.cfg.DB),
	}
}
