package config

import "fmt"

var validVisionProviders = map[string]bool{
	"ollama":    true,
	"bedrock":   true,
	"anthropic": true,
}

// validate checks the fields applyDefaults doesn't have a safe default
// for: endpoints, DSNs, and enum-like provider names.
func validate(cfg *Config) error {
	if cfg.VisionLLM.Endpoint == "" {
		return fmt.Errorf("vision_llm.endpoint is required")
	}
	if !validVisionProviders[cfg.VisionLLM.Provider] {
		return fmt.Errorf("unsupported vision_llm provider: %s", cfg.VisionLLM.Provider)
	}
	if cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required")
	}
	for name, override := range cfg.Images.Waves {
		if override.Defaults.Confidence < 0 || override.Defaults.Confidence > 1 {
			return fmt.Errorf("images.waves.%s.defaults.confidence must be in [0,1]", name)
		}
	}
	return nil
}
