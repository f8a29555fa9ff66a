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

package visionllm

import (
	"context"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jordigilh/imagewave/pkg/collab"
	"github.com/jordigilh/imagewave/pkg/imgio"
)

// AnthropicClient is the hosted-API backend: used when an operator wants
// a sentinel second opinion or doesn't want to run a local model server.
type AnthropicClient struct {
	client  anthropic.Client
	model   string
	maxTok  int64
	retries int
}

func NewAnthropicClient(cfg Config) (*AnthropicClient, error) {
	opts := []option.RequestOption{}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaude3_5SonnetLatest)
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicClient{
		client:  anthropic.NewClient(opts...),
		model:   model,
		maxTok:  maxTokens,
		retries: cfg.RetryCount,
	}, nil
}

func (c *AnthropicClient) Generate(ctx context.Context, req collab.GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Images)+1)
	for _, img := range req.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64("image/png", encodeBase64(img)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	return retryWithBackoff(ctx, c.retries+1, func() (string, error) {
		resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: c.maxTok,
			Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
		})
		if err != nil {
			return "", err
		}
		return firstTextBlock(resp), nil
	})
}

func firstTextBlock(resp *anthropic.Message) string {
	if resp == nil {
		return ""
	}
	for _, block := range resp.Content {
		if text := block.Text; text != "" {
			return text
		}
	}
	return ""
}

// MaxImageDimension has no capability-discovery endpoint in the hosted
// API, so it always falls back to the name-substring heuristic.
func (c *AnthropicClient) MaxImageDimension(_ context.Context, model string) int {
	if strings.TrimSpace(model) == "" {
		model = c.model
	}
	return imgio.MaxWidthForModel(model)
}
