// Package adapter defines the contracts shared by every external resource the loader talks to.
package adapter

// ResourceConnection represents a generic connection to any resource (e.g., database, storage).
type ResourceConnection interface {
	// Close closes the resource connection.
	Close() error
	// Type returns the type of the resource (e.g., "mysql", "sqlite").
	Type() string
	// Name returns the connection name (e.g., "workload").
	Name() string
}

// ResourceProvider is responsible for providing resource connections based on configuration.
type ResourceProvider interface {
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the type of resource handled by this provider.
	Type() string
}
