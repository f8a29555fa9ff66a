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
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/jordigilh/imagewave/pkg/collab"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
	"github.com/jordigilh/imagewave/pkg/xerrors"
)

const visionLlmPrompt = `Describe this image for use as alt-text. Then classify its content type.
Respond with strict JSON only, matching this shape:
{"caption": "...", "content_type": "photo|illustration|screenshot|icon|diagram|chart|document", "text_present": true|false, "text": "..."}
"text" should contain any text visible in the image verbatim, or an empty string if none.`

type visionLLMAnswer struct {
	Caption     string `json:"caption"`
	ContentType string `json:"content_type"`
	TextPresent bool   `json:"text_present"`
	Text        string `json:"text"`
}

// VisionLlmWave runs at priority 50: the single heaviest-weight
// collaborator call in the pipeline, asking a vision-capable model for a
// caption, a content-type guess, and any visible text in one round trip
// rather than three. A malformed response degrades to a caption-only
// signal rather than failing the whole wave.
type VisionLlmWave struct {
	client collab.VisionLLMClient
	model  string
}

func NewVisionLlmWave(client collab.VisionLLMClient, model string) *VisionLlmWave {
	return &VisionLlmWave{client: client, model: model}
}

func (w *VisionLlmWave) Name() string   { return "VisionLlm" }
func (w *VisionLlmWave) Priority() int  { return wave.PriorityVisionLlm }
func (w *VisionLlmWave) Tags() []string { return []string{"vision", "llm"} }
func (w *VisionLlmWave) ShouldRun(context.Context, string, *wavectx.Context) bool { return true }

func (w *VisionLlmWave) Analyze(ctx context.Context, imagePath string, _ *wavectx.Context) ([]signal.Signal, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, xerrors.InvalidInput("read image", err).WithResource(imagePath)
	}

	resp, err := w.client.Generate(ctx, collab.GenerateRequest{
		Model:  w.model,
		Prompt: visionLlmPrompt,
		Images: [][]byte{raw},
	})
	if err != nil {
		return nil, xerrors.ModelUnavailable("vision_llm", "generate", err)
	}

	now := time.Now().UTC()
	answer, ok := parseVisionLLMAnswer(resp)
	if !ok {
		return []signal.Signal{
			w.sig("vision.llm.caption", signal.StringValue(strings.TrimSpace(resp)), 0.4, now),
		}, nil
	}

	return []signal.Signal{
		w.sig("vision.llm.caption", signal.StringValue(answer.Caption), 0.8, now),
		w.sig("vision.llm.content_type", signal.StringValue(strings.ToLower(answer.ContentType)), 0.7, now),
		w.sig("vision.llm.text_present", signal.BoolValue(answer.TextPresent), 0.7, now),
		w.sig("vision.llm.text", signal.StringValue(answer.Text), 0.6, now),
	}, nil
}

// parseVisionLLMAnswer tolerates a model wrapping its JSON in prose or a
// markdown code fence by scanning for the outermost {...} span before
// unmarshaling.
func parseVisionLLMAnswer(resp string) (visionLLMAnswer, bool) {
	start := strings.IndexByte(resp, '{')
	end := strings.LastIndexByte(resp, '}')
	if start < 0 || end <= start {
		return visionLLMAnswer{}, false
	}
	var answer visionLLMAnswer
	if err := json.Unmarshal([]byte(resp[start:end+1]), &answer); err != nil {
		return visionLLMAnswer{}, false
	}
	return answer, true
}

func (w *VisionLlmWave) sig(key string, v signal.Value, conf float64, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, w.Name(), []string{"vision"}, at)
	if err != nil {
		panic(err)
	}
	return s
}
