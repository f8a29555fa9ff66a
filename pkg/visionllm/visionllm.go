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

// Package visionllm provides concrete collab.VisionLLMClient backends
// (spec §6): a generic HTTP model server reached through langchaingo, a
// hosted Anthropic endpoint, and an enterprise AWS Bedrock endpoint. The
// pipeline itself only ever talks to the collab.VisionLLMClient
// interface; this package is where the transport differences actually
// live, selected once at startup by VisionLLMConfig.Provider.
package visionllm

import (
	"context"
	"fmt"
	"time"

	"github.com/jordigilh/imagewave/pkg/collab"
)

// Provider names accepted by Config.Provider (spec §6, matching
// internal/config.VisionLLMConfig.Provider).
const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config is the subset of internal/config.VisionLLMConfig a backend
// constructor needs; kept separate so this package does not import
// internal/config.
type Config struct {
	Provider    string
	Endpoint    string
	Model       string
	Timeout     time.Duration
	RetryCount  int
	Temperature float32
	MaxTokens   int
}

// New selects and constructs the collab.VisionLLMClient backend named by
// cfg.Provider.
func New(cfg Config) (collab.VisionLLMClient, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second // spec §5: LLM default timeout
	}
	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllamaClient(cfg)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg)
	case ProviderBedrock:
		return NewBedrockClient(cfg)
	default:
		return nil, fmt.Errorf("visionllm: unknown provider %q", cfg.Provider)
	}
}

// retryWithBackoff runs fn up to cfg.RetryCount+1 times, applying a
// simple linear backoff between attempts. Every backend shares this
// rather than hand-rolling its own retry loop.
func retryWithBackoff(ctx context.Context, attempts int, fn func() (string, error)) (string, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(i) * 200 * time.Millisecond):
			}
		}
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return "", lastErr
}
