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
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jordigilh/imagewave/pkg/collab"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
	"github.com/jordigilh/imagewave/pkg/xerrors"
)

const faceCountPrompt = "Count the number of distinct human faces visible in this image. " +
	"Respond with a single integer and nothing else. If you are unsure, respond with your best estimate."

// FaceDetectionWave runs at priority 75. There is no dedicated face
// detector collaborator in this pipeline (spec §6 fixes only
// VisionLLMClient/OCREngine/EmbeddingModel/Captioner), so it asks the
// vision LLM to count faces directly — the same collaborator
// VisionLlmWave uses, with a narrower prompt and a cheap answer parse.
type FaceDetectionWave struct {
	client collab.VisionLLMClient
	model  string
}

func NewFaceDetectionWave(client collab.VisionLLMClient, model string) *FaceDetectionWave {
	return &FaceDetectionWave{client: client, model: model}
}

func (w *FaceDetectionWave) Name() string   { return "FaceDetection" }
func (w *FaceDetectionWave) Priority() int  { return wave.PriorityFaceDetection }
func (w *FaceDetectionWave) Tags() []string { return []string{"face", "vision"} }
func (w *FaceDetectionWave) ShouldRun(_ context.Context, _ string, actx *wavectx.Context) bool {
	return !actx.GetBool("route.skip.FaceDetection", false)
}

func (w *FaceDetectionWave) Analyze(ctx context.Context, imagePath string, actx *wavectx.Context) ([]signal.Signal, error) {
	if actx.GetBool("identity.is_icon", false) {
		now := time.Now().UTC()
		return []signal.Signal{w.sig("face.count", signal.IntValue(0), 0.8, now)}, nil
	}

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, xerrors.InvalidInput("read image", err).WithResource(imagePath)
	}

	resp, err := w.client.Generate(ctx, collab.GenerateRequest{
		Model:  w.model,
		Prompt: faceCountPrompt,
		Images: [][]byte{raw},
	})
	if err != nil {
		return nil, xerrors.ModelUnavailable("face_detection", "generate", err)
	}

	count, confidence := parseFaceCount(resp)
	now := time.Now().UTC()
	return []signal.Signal{
		w.sig("face.count", signal.IntValue(int64(count)), confidence, now),
		w.sig("face.present", signal.BoolValue(count > 0), confidence, now),
	}, nil
}

// parseFaceCount extracts the first integer in resp. Vision-LLM answers
// to a "respond with a single integer" prompt are not always disciplined
// about it, so this tolerates leading/trailing prose at a lower
// confidence than a clean numeric reply.
func parseFaceCount(resp string) (int, float64) {
	trimmed := strings.TrimSpace(resp)
	if n, err := strconv.Atoi(trimmed); err == nil {
		return clampNonNegative(n), 0.75
	}

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return 0, 0.2
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, 0.2
	}
	return clampNonNegative(n), 0.45
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (w *FaceDetectionWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"face"}, at)
	if err != nil {
		panic(err)
	}
	return s
}
