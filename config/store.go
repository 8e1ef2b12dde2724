package config

import "strings"

// StoreBackend names a job store implementation.
type StoreBackend string

const (
	StoreBackendRedis    StoreBackend = "redis"
	StoreBackendPostgres StoreBackend = "postgres"
	// StoreBackendMemory keeps jobs in process; useful for local runs and smoke tests.
	StoreBackendMemory StoreBackend = "memory"
)

// Valid reports whether b names a supported backend.
func (b StoreBackend) Valid() bool {
	switch b {
	case StoreBackendRedis, StoreBackendPostgres, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// StoreConfig selects and shapes the job store the sweeper operates on.
type StoreConfig struct {
	Backend StoreBackend `env:"STORE_BACKEND" envDefault:"redis"`
	// KeyPrefix namespaces Redis keys; ignored by other backends.
	KeyPrefix string `env:"STORE_KEY_PREFIX" envDefault:"hangfire:"`
}

// Sanitize normalises the backend name.
func (c *StoreConfig) Sanitize() {
	c.Backend = StoreBackend(strings.ToLower(strings.TrimSpace(string(c.Backend))))
	if c.Backend == "" {
		c.Backend = StoreBackendRedis
	}
}
