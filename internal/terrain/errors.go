package terrain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig matches every *ConfigError.
	ErrInvalidConfig = errors.New("terrain: invalid configuration")
	// ErrChannelClosed is returned by Publish once the consumer closed the sink.
	ErrChannelClosed = errors.New("terrain: progress channel closed")
	// ErrReceiveTimeout is returned by Receive when no snapshot arrived in time.
	ErrReceiveTimeout = errors.New("terrain: receive timed out")
)

// ConfigError rejects a generation request before any work is scheduled.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("terrain: invalid %s: %s", e.Field, e.Reason)
}

// Is reports ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// WorkerError wraps a failure raised while computing one chunk.
type WorkerError struct {
	Chunk Chunk
	Err   error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("terrain: chunk at (%d,%d): %v", e.Chunk.Row0, e.Chunk.Col0, e.Err)
}

func (e *WorkerError) Unwrap() error { return e.Err }
