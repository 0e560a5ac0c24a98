package config

import "sync"

// RuntimeSettings holds process-wide generation defaults
type RuntimeSettings struct {
	mu       sync.RWMutex
	workers  int
	capacity int
}

var globalRuntimeSettings = &RuntimeSettings{
	workers:  3,  // parallel chunk jobs
	capacity: 10, // queued snapshots
}

// GetWorkers returns the default worker pool size
func GetWorkers() int {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.workers
}

// SetWorkers sets the default worker pool size
func SetWorkers(n int) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()

	// Clamp to reasonable values
	if n < 1 {
		n = 1
	}
	if n > 64 {
		n = 64
	}

	globalRuntimeSettings.workers = n
}

// GetCapacity returns the default snapshot queue depth
func GetCapacity() int {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.capacity
}

// SetCapacity sets the default snapshot queue depth
func SetCapacity(n int) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()

	if n < 1 {
		n = 1
	}
	if n > 1024 {
		n = 1024
	}

	globalRuntimeSettings.capacity = n
}
