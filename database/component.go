package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/pagestream/component"
	"github.com/kbukum/pagestream/logger"
)

// Component wraps DB and implements component.Component for lifecycle management.
type Component struct {
	cfg       Config
	log       *logger.Logger
	dialector Dialector
	models    []interface{}

	mu sync.RWMutex
	db *DB
}

// NewComponent creates a database component for use with the component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	cfg.ApplyDefaults()
	return &Component{
		cfg: cfg,
		log: log.WithComponent("database"),
	}
}

// WithDialector overrides the driver named in the configuration.
func (c *Component) WithDialector(d Dialector) *Component {
	c.dialector = d
	return c
}

// WithAutoMigrate registers models for auto-migration on Start.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// DB returns the underlying *DB, or nil if not started.
func (c *Component) DB() *DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string { return "database" }

// Start connects to the database and runs auto-migration for registered models.
func (c *Component) Start(ctx context.Context) error {
	var (
		db  *DB
		err error
	)
	if c.dialector != nil {
		db, err = OpenWith(ctx, c.dialector(c.cfg.DSN), c.cfg, c.log)
	} else {
		db, err = Open(ctx, c.cfg, c.log)
	}
	if err != nil {
		return err
	}

	if len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			_ = db.Close()
			return err
		}
	}

	c.mu.Lock()
	c.db = db
	c.mu.Unlock()
	return nil
}

// Stop closes the database connection.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.mu.Unlock()
	if db == nil {
		return nil
	}
	return db.Close()
}

// Health returns the current health status of the database.
func (c *Component) Health(ctx context.Context) component.Health {
	db := c.DB()
	if db == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "database not initialized",
		}
	}

	if err := db.PingContext(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Database",
		Type:    "database",
		Details: fmt.Sprintf("driver=%s pool=%d/%d page=%d", c.cfg.Driver, c.cfg.MaxOpenConns, c.cfg.MaxIdleConns, c.cfg.PageSize),
	}
}
