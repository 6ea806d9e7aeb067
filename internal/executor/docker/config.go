package docker

import (
	"time"
)

// Config holds the limits applied to every sandbox container.
type Config struct {
	// MemoryLimit is the maximum memory per container, in bytes.
	MemoryLimit int64
	// CPULimit is the number of CPUs a container can use.
	CPULimit float64
	// Timeout is the maximum wall time for a single run.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers kept per runtime.
	PoolSize int
}

// DefaultConfig provides sandbox defaults.
func DefaultConfig() Config {
	return Config{
		MemoryLimit: 128 * 1024 * 1024,
		CPULimit:    0.5,
		Timeout:     5 * time.Second,
		PoolSize:    2,
	}
}
