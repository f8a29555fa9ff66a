package config

import "time"

// applyDefaults fills in values a caller may reasonably omit, matching
// the "minimal content" Load path (spec §6 wave-manifest defaults
// mirrors this same fill-missing-values behavior one level down).
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.MetricsPort == "" {
		cfg.Server.MetricsPort = "9090"
	}
	if cfg.Store.MaxOpenConns == 0 {
		cfg.Store.MaxOpenConns = 10
	}
	if cfg.Store.ConnMaxLifetime == 0 {
		cfg.Store.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 10000
	}
	if cfg.VisionLLM.Provider == "" {
		cfg.VisionLLM.Provider = "ollama"
	}
	if cfg.VisionLLM.Timeout == 0 {
		cfg.VisionLLM.Timeout = 30 * time.Second
	}
	if cfg.VisionLLM.RetryCount == 0 {
		cfg.VisionLLM.RetryCount = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Routing.DecisionTTL == 0 {
		cfg.Routing.DecisionTTL = 24 * time.Hour
	}
	if cfg.Routing.CacheSize == 0 {
		cfg.Routing.CacheSize = 10000
	}
}
