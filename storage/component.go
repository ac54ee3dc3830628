package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/pagestream/component"
	"github.com/kbukum/pagestream/logger"
)

// Component wraps Client and implements component.Component for lifecycle management.
type Component struct {
	cfg Config
	log *logger.Logger
	api API

	mu     sync.RWMutex
	client *Client
}

// NewComponent creates a storage component for use with the component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	cfg.ApplyDefaults()
	return &Component{
		cfg: cfg,
		log: log.WithComponent("storage"),
	}
}

// WithAPI makes Start use api instead of building an AWS client.
func (c *Component) WithAPI(api API) *Component {
	c.api = api
	return c
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Client returns the underlying Client, or nil if not started.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start builds the S3 client and checks that the bucket is reachable.
func (c *Component) Start(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	var client *Client
	if c.api != nil {
		client = NewFromAPI(c.api, c.cfg, c.log)
	} else {
		var err error
		if client, err = NewClient(ctx, c.cfg, c.log); err != nil {
			return err
		}
	}
	if err := client.Ping(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	c.log.Info("Storage component started", logger.Fields("bucket", c.cfg.Bucket))
	return nil
}

// Stop releases the client. The AWS SDK holds no connections that need closing.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	c.client = nil
	c.mu.Unlock()
	return nil
}

// Health returns the current health status of the storage component.
func (c *Component) Health(ctx context.Context) component.Health {
	client := c.Client()
	if client == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "storage not initialized",
		}
	}
	if err := client.Ping(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("head bucket failed: %v", err),
		}
	}
	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("bucket=%s region=%s", c.cfg.Bucket, c.cfg.Region)
	if c.cfg.Endpoint != "" {
		details += " endpoint=" + c.cfg.Endpoint
	}
	return component.Description{
		Name:    "Storage",
		Type:    "storage",
		Details: details,
	}
}
