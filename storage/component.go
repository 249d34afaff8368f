package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/audiopen/component"
	"github.com/kbukum/audiopen/logger"
)

// probeObject is looked up by Health. It never exists; only the round trip
// matters.
const probeObject = ".health"

// Component builds the configured Storage on Start.
type Component struct {
	cfg         Config
	providerCfg any
	log         *logger.Logger
	storage     Storage
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent takes the provider section (for example *supabase.Config)
// alongside the shared storage settings.
func NewComponent(cfg Config, providerCfg any, log *logger.Logger) *Component {
	if log == nil {
		log = logger.NewNop()
	}
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, providerCfg: providerCfg, log: log.WithComponent("storage")}
}

// Storage is nil until Start and after Stop.
func (c *Component) Storage() Storage { return c.storage }

func (c *Component) Name() string { return "storage" }

func (c *Component) Start(context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("storage disabled")
		return nil
	}
	s, err := New(c.cfg, c.providerCfg, c.log)
	if err != nil {
		return err
	}
	c.storage = s
	return nil
}

func (c *Component) Stop(context.Context) error {
	c.storage = nil
	return nil
}

// Health reports degraded, not unhealthy, when the probe fails: saved
// recordings stay local and can be retried.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !c.cfg.Enabled:
		h.Message = "disabled"
	case c.storage == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	default:
		if _, err := c.storage.Exists(ctx, probeObject); err != nil {
			h.Status, h.Message = component.StatusDegraded, err.Error()
		}
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Recording storage",
		Type:    "storage",
		Details: fmt.Sprintf("provider=%s bucket=%s", c.cfg.Provider, c.cfg.Bucket),
	}
}
