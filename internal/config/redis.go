package config

import (
	"fmt"
	"time"
)

// RedisConfig holds cache connection configuration
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// DNDCacheTTL bounds how stale a cached DND flag may be on the
	// event-suppression path.
	DNDCacheTTL time.Duration `yaml:"dnd_cache_ttl"`
}

// Addr returns the host:port address for the redis client
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *RedisConfig) applyDefaults() {
	if c.DNDCacheTTL <= 0 {
		c.DNDCacheTTL = 15 * time.Minute
	}
}
