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

package contradiction

import (
	"context"
	"time"

	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
	"github.com/jordigilh/imagewave/pkg/xerrors"
)

// Wave is the lowest-priority analyzer (spec §4.6): it runs after every
// other signal producer and checks the accumulated profile for internal
// contradictions.
type Wave struct {
	registry         *Registry
	rejectOnCritical bool
	notifier         *SlackNotifier
}

func NewWave(registry *Registry, rejectOnCritical bool, notifier *SlackNotifier) *Wave {
	return &Wave{registry: registry, rejectOnCritical: rejectOnCritical, notifier: notifier}
}

func (w *Wave) Name() string   { return "ContradictionValidator" }
func (w *Wave) Priority() int  { return wave.PriorityContradiction }
func (w *Wave) Tags() []string { return []string{"validation"} }

func (w *Wave) ShouldRun(_ context.Context, _ string, _ *wavectx.Context) bool { return true }

func (w *Wave) Analyze(ctx context.Context, _ string, actx *wavectx.Context) ([]signal.Signal, error) {
	findings := Evaluate(w.registry.Rules(), actx.AllSignals())
	worst := WorstSeverity(findings)
	now := time.Now().UTC()

	sigs := make([]signal.Signal, 0, len(findings)+3)
	add := func(key string, v signal.Value, conf float64) {
		s, err := signal.New(key, v, conf, w.Name(), []string{"validation"}, now)
		if err != nil {
			return
		}
		sigs = append(sigs, s)
	}

	add("validation.contradiction.count", signal.IntValue(int64(len(findings))), 1.0)
	add("validation.contradiction.status", signal.StringValue(string(worst)), 1.0)

	for _, f := range findings {
		s, err := signal.New("validation.contradiction."+f.RuleID, signal.StringValue(string(f.Severity)), 1.0, w.Name(), []string{"validation"}, now)
		if err != nil {
			continue
		}
		s = s.WithMetadata(map[string]signal.Value{
			"key_a":   signal.StringValue(f.KeyA),
			"key_b":   signal.StringValue(f.KeyB),
			"value_a": signal.StringValue(f.ValueA.String()),
			"value_b": signal.StringValue(f.ValueB.String()),
		})
		sigs = append(sigs, s)
	}

	if !w.rejectOnCritical || worst != SeverityCritical {
		return sigs, nil
	}

	add("validation.contradiction.rejected", signal.BoolValue(true), 1.0)
	if w.notifier != nil {
		_ = w.notifier.NotifyRejection(ctx, actx.ImageHash, findings)
	}

	var criticalID string
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			criticalID = f.RuleID
			break
		}
	}
	return sigs, xerrors.ContradictionCritical(criticalID)
}
