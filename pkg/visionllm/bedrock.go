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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/jordigilh/imagewave/pkg/collab"
	"github.com/jordigilh/imagewave/pkg/imgio"
)

// BedrockClient is the enterprise backend: a Claude-on-Bedrock model
// reached through an operator's existing AWS account and IAM policy
// rather than a direct Anthropic API key.
type BedrockClient struct {
	client  *bedrockruntime.Client
	model   string
	maxTok  int
	retries int
}

func NewBedrockClient(cfg Config) (*BedrockClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("visionllm: load aws config: %w", err)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &BedrockClient{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		model:   cfg.Model,
		maxTok:  maxTokens,
		retries: cfg.RetryCount,
	}, nil
}

// bedrockMessage/bedrockContent/bedrockRequest/bedrockResponse mirror
// Bedrock's Anthropic Messages wire format, which differs slightly from
// the hosted API's (an explicit "anthropic_version" envelope field, no
// client-side auth header).
type bedrockContent struct {
	Type   string         `json:"type"`
	Text   string         `json:"text,omitempty"`
	Source *bedrockImgSrc `json:"source,omitempty"`
}

type bedrockImgSrc struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type bedrockMessage struct {
	Role    string           `json:"role"`
	Content []bedrockContent `json:"content"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockResponse struct {
	Content []bedrockContent `json:"content"`
}

func (c *BedrockClient) Generate(ctx context.Context, req collab.GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	content := make([]bedrockContent, 0, len(req.Images)+1)
	for _, img := range req.Images {
		content = append(content, bedrockContent{
			Type:   "image",
			Source: &bedrockImgSrc{Type: "base64", MediaType: "image/png", Data: encodeBase64(img)},
		})
	}
	content = append(content, bedrockContent{Type: "text", Text: req.Prompt})

	body, err := json.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        c.maxTok,
		Messages:         []bedrockMessage{{Role: "user", Content: content}},
	})
	if err != nil {
		return "", fmt.Errorf("visionllm: marshal bedrock request: %w", err)
	}

	return retryWithBackoff(ctx, c.retries+1, func() (string, error) {
		out, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(model),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        body,
		})
		if err != nil {
			return "", err
		}
		var resp bedrockResponse
		if err := json.Unmarshal(out.Body, &resp); err != nil {
			return "", fmt.Errorf("visionllm: decode bedrock response: %w", err)
		}
		for _, block := range resp.Content {
			if block.Text != "" {
				return block.Text, nil
			}
		}
		return "", nil
	})
}

// MaxImageDimension has no Bedrock-side capability endpoint, so it falls
// back to the same name-substring heuristic as the other backends.
func (c *BedrockClient) MaxImageDimension(_ context.Context, model string) int {
	if strings.TrimSpace(model) == "" {
		model = c.model
	}
	return imgio.MaxWidthForModel(model)
}
