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

package wavecatalog

import (
	"context"
	"time"

	"github.com/jordigilh/imagewave/pkg/collab"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
	"github.com/jordigilh/imagewave/pkg/xerrors"
)

// EmbeddingWave runs at priority 70: a general-purpose image embedding,
// used for duplicate/similar-image retrieval rather than classification.
type EmbeddingWave struct {
	model collab.EmbeddingModel
}

func NewEmbeddingWave(model collab.EmbeddingModel) *EmbeddingWave {
	return &EmbeddingWave{model: model}
}

func (w *EmbeddingWave) Name() string   { return "Embedding" }
func (w *EmbeddingWave) Priority() int  { return wave.PriorityEmbedding }
func (w *EmbeddingWave) Tags() []string { return []string{"embedding"} }
func (w *EmbeddingWave) ShouldRun(context.Context, string, *wavectx.Context) bool { return true }

func (w *EmbeddingWave) Analyze(ctx context.Context, imagePath string, _ *wavectx.Context) ([]signal.Signal, error) {
	vec, err := w.model.Embed(ctx, imagePath)
	if err != nil {
		return nil, xerrors.ModelUnavailable("embedding", "embed", err)
	}
	now := time.Now().UTC()
	s, err := signal.New("embedding.vector", signal.VectorValue(vec), 0.85, w.Name(), []string{"embedding"}, now)
	if err != nil {
		return nil, err
	}
	dim, err := signal.New("embedding.dimensions", signal.IntValue(int64(len(vec))), 1.0, w.Name(), []string{"embedding"}, now)
	if err != nil {
		return nil, err
	}
	return []signal.Signal{s, dim}, nil
}

// ClipEmbeddingWave runs at priority 45: a CLIP-style joint image/text
// embedding, distinct from EmbeddingWave's general-purpose vector. The
// two embeddings are kept under separate signal keys (clip.embedding and
// embedding.vector) even when the same collaborator backs both in a given
// deployment; no fusion code in this module reads clip.embedding.
type ClipEmbeddingWave struct {
	model collab.EmbeddingModel
}

func NewClipEmbeddingWave(model collab.EmbeddingModel) *ClipEmbeddingWave {
	return &ClipEmbeddingWave{model: model}
}

func (w *ClipEmbeddingWave) Name() string   { return "ClipEmbedding" }
func (w *ClipEmbeddingWave) Priority() int  { return wave.PriorityClipEmbedding }
func (w *ClipEmbeddingWave) Tags() []string { return []string{"clip", "embedding"} }
func (w *ClipEmbeddingWave) ShouldRun(_ context.Context, _ string, actx *wavectx.Context) bool {
	return !actx.GetBool("route.skip.ClipEmbedding", false)
}

func (w *ClipEmbeddingWave) Analyze(ctx context.Context, imagePath string, _ *wavectx.Context) ([]signal.Signal, error) {
	vec, err := w.model.Embed(ctx, imagePath)
	if err != nil {
		return nil, xerrors.ModelUnavailable("clip_embedding", "embed", err)
	}
	now := time.Now().UTC()
	s, err := signal.New("clip.embedding", signal.VectorValue(vec), 0.85, w.Name(), []string{"clip"}, now)
	if err != nil {
		return nil, err
	}
	return []signal.Signal{s}, nil
}
