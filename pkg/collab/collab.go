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

// Package collab defines the external-collaborator contracts the pipeline
// depends on but does not implement (spec §6): vision-model inference,
// OCR extraction, and embedding. Individual model backends (Florence-2,
// CLIP, Tesseract, a generic vision LLM over HTTP) are out of scope;
// this package only fixes the capability surface and wraps it with
// resilience so no single collaborator outage can fail a wave.
package collab

import (
	"context"
)

// TextRegion is one OCR hit: recognized text, its confidence, and its
// bounding box in source-image pixel coordinates.
type TextRegion struct {
	Text       string
	Confidence float64
	BBox       BBox
}

type BBox struct {
	X1, Y1, X2, Y2 int
	Width, Height  int
}

// OCREngine is the synchronous OCR contract (spec §6): waves adapt to
// async via a worker pool rather than requiring the engine itself to be
// non-blocking.
type OCREngine interface {
	ExtractTextWithCoordinates(ctx context.Context, imagePath string) ([]TextRegion, error)
}

// VisionLLMClient captures a single vision-model HTTP round trip: prompt
// plus pre-sized base64 images in, a response string out.
type VisionLLMClient interface {
	// Generate posts {model, prompt, images, stream:false} and returns the
	// response's `response` field.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// MaxImageDimension returns the model's preferred max image dimension,
	// discovered via a `show`-style capability call with a name-substring
	// fallback heuristic (spec §6, §9 filmstrip sizing).
	MaxImageDimension(ctx context.Context, model string) int
}

// GenerateRequest is the vision LLM wire body.
type GenerateRequest struct {
	Model  string
	Prompt string
	Images [][]byte // raw bytes; caller base64-encodes at the transport boundary
}

// EmbeddingModel captures the CLIP-style `embed(img) -> vector<512>`
// capability used by the embedding wave and the salience-fusion clip.*
// signals.
type EmbeddingModel interface {
	Embed(ctx context.Context, imagePath string) ([]float32, error)
}

// Captioner captures the minimal `{caption(img)->string}` capability
// spec §9 names for lazily-initialized model sessions (Florence-2-style).
type Captioner interface {
	Caption(ctx context.Context, imagePath string) (string, error)
}
