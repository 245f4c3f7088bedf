package config

import "sync/atomic"

// current is the configuration shared by the commands. Watcher replaces it
// on reload.
var current atomic.Pointer[Config]

// Initialize loads path with environment overrides and makes it the current
// configuration. Once a configuration is loaded, later calls keep it.
func Initialize(path string) error {
	if current.Load() != nil {
		return nil
	}
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return err
	}
	current.CompareAndSwap(nil, cfg)
	return nil
}

// GetConfig returns the current configuration, or nil before Initialize.
func GetConfig() *Config {
	return current.Load()
}

// SetConfig replaces the current configuration.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}
