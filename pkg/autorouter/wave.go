package autorouter

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/store"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

// DecisionTTL is the 24h memoization window from spec §4.4.
const DecisionTTL = 24 * time.Hour

// Wave is AutoRoutingWave: priority 98, reads early identity/color/text
// signals, runs the inline detector, decides a route, and memoizes it
// against the image hash.
type Wave struct {
	store store.SignalStore
}

func NewWave(s store.SignalStore) *Wave {
	return &Wave{store: s}
}

func (w *Wave) Name() string     { return "AutoRoutingWave" }
func (w *Wave) Priority() int    { return wave.PriorityAutoRouting }
func (w *Wave) Tags() []string   { return []string{"routing"} }
func (w *Wave) ShouldRun(_ context.Context, _ string, _ *wavectx.Context) bool { return true }

func (w *Wave) Analyze(ctx context.Context, imagePath string, actx *wavectx.Context) ([]signal.Signal, error) {
	now := time.Now().UTC()

	if cached, ok, err := w.store.GetRoutingDecision(ctx, actx.ImageHash); err == nil && ok && now.Sub(cached.DecidedAt) < DecisionTTL {
		return decisionToSignals(routerDecisionFromStored(*cached), now, true), nil
	}

	result := runDetector(imagePath)
	actx.SetCached("ocr.opencv.text_regions", result.Regions)
	actx.SetValues([]signal.Signal{
		mustSignal("route.text_coverage", signal.FloatValue(result.TextCoverage), 0.7, w.Name(), now),
		mustSignal("route.text_region_count", signal.IntValue(int64(result.TextRegionCount)), 0.7, w.Name(), now),
		mustSignal("route.has_subtitles", signal.BoolValue(result.HasSubtitles), 0.6, w.Name(), now),
	})

	decision := Decide(actx)

	_ = w.store.PutRoutingDecision(ctx, store.RoutingDecision{
		SHA256:    actx.ImageHash,
		Route:     string(decision.Route),
		TextTier:  string(decision.TextTier),
		Reason:    decision.Reason,
		DecidedAt: now,
	})

	return decisionToSignals(decision, now, false), nil
}

func routerDecisionFromStored(d store.RoutingDecision) Decision {
	return Decision{
		Route:    Route(d.Route),
		TextTier: TextTier(d.TextTier),
		Reason:   d.Reason,
		// Skip set is recomputed rather than persisted, since it's a pure
		// function of (route, tier).
		SkipWaves: skipSetFor(Route(d.Route), TextTier(d.TextTier)),
	}
}

func decisionToSignals(d Decision, at time.Time, memoized bool) []signal.Signal {
	sigs := []signal.Signal{
		mustSignal("route.selected", signal.StringValue(string(d.Route)), 1.0, "AutoRoutingWave", at),
		mustSignal("route.text_tier", signal.StringValue(string(d.TextTier)), 1.0, "AutoRoutingWave", at),
		mustSignal("route.reason", signal.StringValue(d.Reason), 1.0, "AutoRoutingWave", at),
		mustSignal("route.memoized", signal.BoolValue(memoized), 1.0, "AutoRoutingWave", at),
	}
	for _, skipped := range d.SkipWaves {
		sigs = append(sigs, mustSignal(fmt.Sprintf("route.skip.%s", skipped), signal.BoolValue(true), 1.0, "AutoRoutingWave", at))
	}
	return sigs
}

func mustSignal(key string, v signal.Value, conf float64, source string, at time.Time) signal.Signal {
	s, err := signal.New(key, v, conf, source, []string{"routing"}, at)
	if err != nil {
		// Construction can only fail on a programmer error (bad key or
		// out-of-range confidence), both fixed at compile time here.
		panic(err)
	}
	return s
}

func runDetector(imagePath string) DetectionResult {
	f, err := os.Open(imagePath)
	if err != nil {
		return DetectionResult{}
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return DetectionResult{}
	}
	return DetectText(img)
}
