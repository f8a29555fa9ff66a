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
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/jordigilh/imagewave/pkg/collab"
	"github.com/jordigilh/imagewave/pkg/imgio"
)

// OllamaClient talks to a self-hosted, Ollama-compatible model server —
// the generic "vision LLM over HTTP" backend spec §1 names as the
// default collaborator.
type OllamaClient struct {
	llm     *ollama.LLM
	model   string
	retries int
}

func NewOllamaClient(cfg Config) (*OllamaClient, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.Endpoint != "" {
		opts = append(opts, ollama.WithServerURL(cfg.Endpoint))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, err
	}
	return &OllamaClient{llm: llm, model: cfg.Model, retries: cfg.RetryCount}, nil
}

func (c *OllamaClient) Generate(ctx context.Context, req collab.GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	parts := []llms.ContentPart{llms.TextPart(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, llms.BinaryPart("image/png", img))
	}
	content := []llms.MessageContent{{Role: llms.ChatMessageTypeHuman, Parts: parts}}

	return retryWithBackoff(ctx, c.retries+1, func() (string, error) {
		resp, err := c.llm.GenerateContent(ctx, content, llms.WithModel(model))
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Content, nil
	})
}

// MaxImageDimension applies the name-substring heuristic
// (imgio.MaxWidthForModel) to model, or to the client's configured model
// when model is blank. It does not query the server.
func (c *OllamaClient) MaxImageDimension(_ context.Context, model string) int {
	if strings.TrimSpace(model) == "" {
		model = c.model
	}
	return imgio.MaxWidthForModel(model)
}
