package database

import (
	"context"
	"fmt"

	"github.com/kbukum/audiopen/component"
	"github.com/kbukum/audiopen/logger"
)

// Component opens the local catalog database on Start and migrates the
// registered models when AutoMigrate is set.
type Component struct {
	cfg    Config
	log    *logger.Logger
	models []any
	db     *DB
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.NewNop()
	}
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("database")}
}

// WithAutoMigrate adds models to migrate on Start.
func (c *Component) WithAutoMigrate(models ...any) *Component {
	c.models = append(c.models, models...)
	return c
}

// DB is nil until Start succeeds.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return "database" }

func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	if c.cfg.AutoMigrate && len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			_ = db.Close()
			return err
		}
	}
	c.db = db
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.db == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	case c.db.PingContext(ctx) != nil:
		h.Status, h.Message = component.StatusUnhealthy, "ping failed"
	}
	return h
}

func (c *Component) Describe() component.Description {
	d := component.Description{Name: "Local catalog", Type: "sqlite", Details: c.cfg.DSN}
	if c.cfg.AutoMigrate {
		d.Details += fmt.Sprintf(" auto-migrate=on models=%d", len(c.models))
	}
	return d
}
