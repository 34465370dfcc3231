/*
Package storage provides the client's durable local key-value storage.

It is the terminal counterpart of a browser's localStorage: a handful of keys surviving
restarts, read at startup and cleared wholesale on logout.
*/
package storage

// ServiceConfig holds the settings required to open local storage.
type ServiceConfig struct {
	// Dir is the directory holding the database files.
	Dir string

	// InMemory keeps everything in memory; used by tests.
	InMemory bool
}

// Local defines the durable key-value storage used by the client.
type Local interface {
	// Get returns the value stored under key and whether it exists.
	Get(key string) ([]byte, bool, error)

	// Set stores value under key, durably.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Clear removes every key.
	Clear() error

	// Close releases the underlying resources.
	Close() error
}

// NewLocalStorage opens the local storage described by cfg.
func NewLocalStorage(cfg ServiceConfig) (Local, error) {
	return openPebble(cfg)
}
