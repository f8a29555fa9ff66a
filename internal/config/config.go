/*
Copyright 2026 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the pipeline's process-level YAML configuration:
// store/cache connection settings, the vision LLM transport, the ops
// server, logging, routing cache sizing, and the hierarchical per-wave
// default overrides (`Images.Waves.<name>.Defaults.*`, spec §6).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the fully-parsed, defaulted and validated process
// configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Cache     CacheConfig     `yaml:"cache"`
	VisionLLM VisionLLMConfig `yaml:"vision_llm"`
	Logging   LoggingConfig   `yaml:"logging"`
	Routing   RoutingConfig   `yaml:"routing"`
	Images    ImagesConfig    `yaml:"images"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	MetricsPort string `yaml:"metrics_port"`
}

type StoreConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"-"`
}

type CacheConfig struct {
	RedisAddr  string        `yaml:"redis_addr"`
	TTL        time.Duration `yaml:"-"`
	MaxEntries int           `yaml:"max_entries"`
}

type VisionLLMConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"-"`
	RetryCount  int           `yaml:"retry_count"`
	Provider    string        `yaml:"provider"` // ollama | bedrock | anthropic
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RoutingConfig struct {
	DecisionTTL time.Duration `yaml:"-"`
	CacheSize   int           `yaml:"cache_size"`
}

// ImagesConfig is the hierarchical per-wave override section: spec §6's
// `Images.Waves.<name>.Defaults.*`.
type ImagesConfig struct {
	Waves map[string]WaveOverride `yaml:"waves"`
}

type WaveOverride struct {
	Defaults WaveDefaults `yaml:"defaults"`
}

type WaveDefaults struct {
	Weights     map[string]float64 `yaml:"weights"`
	Confidence  float64             `yaml:"confidence"`
	Timing      time.Duration       `yaml:"-"`
	Features    map[string]bool     `yaml:"features"`
	Parameters  map[string]string   `yaml:"parameters"`
}

// rawConfig mirrors Config but carries every time.Duration field as a
// string, so invalid duration strings surface as ordinary YAML-unmarshal
// errors rather than a separate validation pass.
type rawConfig struct {
	Server    ServerConfig  `yaml:"server"`
	Store     rawStore      `yaml:"store"`
	Cache     rawCache      `yaml:"cache"`
	VisionLLM rawVisionLLM  `yaml:"vision_llm"`
	Logging   LoggingConfig `yaml:"logging"`
	Routing   rawRouting    `yaml:"routing"`
	Images    rawImages     `yaml:"images"`
}

type rawStore struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

type rawCache struct {
	RedisAddr  string `yaml:"redis_addr"`
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

type rawVisionLLM struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	Timeout     string  `yaml:"timeout"`
	RetryCount  int     `yaml:"retry_count"`
	Provider    string  `yaml:"provider"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type rawRouting struct {
	DecisionTTL string `yaml:"decision_ttl"`
	CacheSize   int    `yaml:"cache_size"`
}

type rawImages struct {
	Waves map[string]rawWaveOverride `yaml:"waves"`
}

type rawWaveOverride struct {
	Defaults rawWaveDefaults `yaml:"defaults"`
}

type rawWaveDefaults struct {
	Weights    map[string]float64 `yaml:"weights"`
	Confidence float64            `yaml:"confidence"`
	Timing     string             `yaml:"timing"`
	Features   map[string]bool    `yaml:"features"`
	Parameters map[string]string  `yaml:"parameters"`
}

// Load reads, parses, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromRaw(raw rawConfig) (*Config, error) {
	cfg := &Config{
		Server:  raw.Server,
		Logging: raw.Logging,
	}

	connMaxLifetime, err := parseDurationOrZero(raw.Store.ConnMaxLifetime)
	if err != nil {
		return nil, fmt.Errorf("store.conn_max_lifetime: %w", err)
	}
	cfg.Store = StoreConfig{
		DSN:             raw.Store.DSN,
		MaxOpenConns:    raw.Store.MaxOpenConns,
		ConnMaxLifetime: connMaxLifetime,
	}

	cacheTTL, err := parseDurationOrZero(raw.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("cache.ttl: %w", err)
	}
	cfg.Cache = CacheConfig{
		RedisAddr:  raw.Cache.RedisAddr,
		TTL:        cacheTTL,
		MaxEntries: raw.Cache.MaxEntries,
	}

	visionTimeout, err := parseDurationOrZero(raw.VisionLLM.Timeout)
	if err != nil {
		return nil, fmt.Errorf("vision_llm.timeout: %w", err)
	}
	cfg.VisionLLM = VisionLLMConfig{
		Endpoint:    raw.VisionLLM.Endpoint,
		Model:       raw.VisionLLM.Model,
		Timeout:     visionTimeout,
		RetryCount:  raw.VisionLLM.RetryCount,
		Provider:    raw.VisionLLM.Provider,
		Temperature: raw.VisionLLM.Temperature,
		MaxTokens:   raw.VisionLLM.MaxTokens,
	}

	routingTTL, err := parseDurationOrZero(raw.Routing.DecisionTTL)
	if err != nil {
		return nil, fmt.Errorf("routing.decision_ttl: %w", err)
	}
	cfg.Routing = RoutingConfig{
		DecisionTTL: routingTTL,
		CacheSize:   raw.Routing.CacheSize,
	}

	waves := map[string]WaveOverride{}
	for name, rw := range raw.Images.Waves {
		timing, err := parseDurationOrZero(rw.Defaults.Timing)
		if err != nil {
			return nil, fmt.Errorf("images.waves.%s.defaults.timing: %w", name, err)
		}
		waves[name] = WaveOverride{Defaults: WaveDefaults{
			Weights:    rw.Defaults.Weights,
			Confidence: rw.Defaults.Confidence,
			Timing:     timing,
			Features:   rw.Defaults.Features,
			Parameters: rw.Defaults.Parameters,
		}}
	}
	cfg.Images = ImagesConfig{Waves: waves}

	return cfg, nil
}

func parseDurationOrZero(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
