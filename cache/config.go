package cache

import (
	"github.com/goliatone/go-sheet-catalog/internal/cacheinfra"
)

// Config is the sturdyc configuration of the default CacheService.
type Config = cacheinfra.Config

// EarlyRefreshConfig configures background refreshes of hot keys.
type EarlyRefreshConfig = cacheinfra.EarlyRefreshConfig

// DefaultConfig returns the defaults used by catalogd.
func DefaultConfig() Config {
	return cacheinfra.DefaultConfig()
}

// NewCacheService builds the sturdyc-backed CacheService.
func NewCacheService(cfg Config) (CacheService, error) {
	return cacheinfra.NewSturdycService(cfg)
}
