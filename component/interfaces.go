package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed backing store client: the Redis client,
// the SQL database, the object store.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start connects the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description holds summary information printed when a command starts.
type Description struct {
	// Name is the human-readable display name (e.g., "Redis", "SQLite").
	// If empty, the component's Name() is used.
	Name string
	// Type categorizes the component: "redis", "database", "storage".
	Type string
	// Details is a human-readable one-liner, e.g. "localhost:6379 db=0".
	Details string
}

// Describable is optionally implemented by Components that can summarize
// their configuration.
type Describable interface {
	Describe() Description
}

// Describe returns c's description, falling back to its name.
func Describe(c Component) Description {
	if d, ok := c.(Describable); ok {
		desc := d.Describe()
		if desc.Name == "" {
			desc.Name = c.Name()
		}
		return desc
	}
	return Description{Name: c.Name()}
}
