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

package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jordigilh/imagewave/pkg/hashing"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/store"
	"github.com/jordigilh/imagewave/pkg/wave"
	"github.com/jordigilh/imagewave/pkg/wavectx"
	"github.com/jordigilh/imagewave/pkg/xerrors"
)

type fakeStore struct {
	mu       sync.Mutex
	profiles map[string]store.Profile
	puts     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[string]store.Profile{}}
}

func (f *fakeStore) GetProfile(_ context.Context, sha256 string) (*store.Profile, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[sha256]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (f *fakeStore) PutProfile(_ context.Context, profile store.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[profile.SHA256] = profile
	f.puts++
	return nil
}

func (f *fakeStore) GetRoutingDecision(context.Context, string) (*store.RoutingDecision, bool, error) {
	return nil, false, nil
}
func (f *fakeStore) PutRoutingDecision(context.Context, store.RoutingDecision) error { return nil }
func (f *fakeStore) RecordFeedback(context.Context, store.Feedback) error            { return nil }

// fakeWave is a scripted wave.Wave: it records whether it was invoked and
// returns whatever the test configured.
type fakeWave struct {
	name         string
	priority     int
	tags         []string
	shouldRun    bool
	sigs         []signal.Signal
	err          error
	calls        int32
	failIfCalled bool
	t            *testing.T
}

func (w *fakeWave) Name() string   { return w.name }
func (w *fakeWave) Priority() int  { return w.priority }
func (w *fakeWave) Tags() []string { return w.tags }

func (w *fakeWave) ShouldRun(context.Context, string, *wavectx.Context) bool { return w.shouldRun }

func (w *fakeWave) Analyze(ctx context.Context, _ string, _ *wavectx.Context) ([]signal.Signal, error) {
	atomic.AddInt32(&w.calls, 1)
	if w.failIfCalled && w.t != nil {
		w.t.Fatalf("wave %s must not be invoked", w.name)
	}
	return w.sigs, w.err
}

func newFakeWave(name string, priority int, tags ...string) *fakeWave {
	return &fakeWave{name: name, priority: priority, tags: tags, shouldRun: true}
}

func sigFor(t *testing.T, key string, conf float64, tags ...string) signal.Signal {
	t.Helper()
	s, err := signal.New(key, signal.StringValue("v"), conf, "test", tags, time.Now().UTC())
	if err != nil {
		t.Fatalf("signal.New: %v", err)
	}
	return s
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestAnalyzeCacheHitNeverInvokesAWave(t *testing.T) {
	path := writeTempFile(t, "same-bytes")
	st := newFakeStore()

	registry := wave.NewRegistry()
	w := newFakeWave("identity", wave.PriorityIdentity, "identity")
	w.failIfCalled = true
	w.t = t
	registry.Register(w)

	o := New(registry, st)

	data, _ := os.ReadFile(path)
	digest := hashing.FromBytes(data).SHA256
	st.profiles[digest] = store.Profile{
		SHA256:  digest,
		Signals: map[string]signal.Signal{"identity.format": sigFor(t, "identity.format", 0.9, "identity")},
	}

	out, err := o.Analyze(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, ok := out["identity.format"]; !ok {
		t.Fatalf("expected the cached signal returned, got %v", out)
	}
	if atomic.LoadInt32(&w.calls) != 0 {
		t.Fatalf("expected zero wave invocations on cache hit")
	}
}

func TestAnalyzeCacheMissRunsTheFullSchedule(t *testing.T) {
	path := writeTempFile(t, "fresh-bytes")
	st := newFakeStore()
	registry := wave.NewRegistry()
	w1 := newFakeWave("identity", wave.PriorityIdentity, "identity")
	w1.sigs = []signal.Signal{sigFor(t, "identity.format", 0.9, "identity")}
	w2 := newFakeWave("color", wave.PriorityColor, "color")
	w2.sigs = []signal.Signal{sigFor(t, "color.dominant", 0.8, "color")}
	registry.Register(w1)
	registry.Register(w2)

	o := New(registry, st)
	out, err := o.Analyze(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, ok := out["identity.format"]; !ok {
		t.Fatalf("missing identity.format in %v", out)
	}
	if _, ok := out["color.dominant"]; !ok {
		t.Fatalf("missing color.dominant in %v", out)
	}
	if atomic.LoadInt32(&w1.calls) != 1 || atomic.LoadInt32(&w2.calls) != 1 {
		t.Fatalf("expected both waves invoked exactly once")
	}
	if st.puts != 1 {
		t.Fatalf("expected one profile persisted, got %d", st.puts)
	}
}

func TestAnalyzeSkipsWaveShouldRunFalse(t *testing.T) {
	path := writeTempFile(t, "should-run-false")
	st := newFakeStore()
	registry := wave.NewRegistry()
	w := newFakeWave("motion", wave.PriorityMotion, "motion")
	w.shouldRun = false
	w.failIfCalled = true
	w.t = t
	registry.Register(w)

	o := New(registry, st)
	if _, err := o.Analyze(context.Background(), path, nil); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if atomic.LoadInt32(&w.calls) != 0 {
		t.Fatalf("expected the wave not invoked when ShouldRun is false")
	}
}

func TestAnalyzeSkipsWaveByRoutingDecision(t *testing.T) {
	path := writeTempFile(t, "routing-skip")
	st := newFakeStore()
	registry := wave.NewRegistry()
	routed := newFakeWave("ml_ocr", wave.PriorityMlOcr, "ocr")
	routed.failIfCalled = true
	routed.t = t
	router := &routingSeedWave{name: "seed", priority: wave.PriorityAutoRouting, skip: "ml_ocr"}
	registry.Register(router)
	registry.Register(routed)

	o := New(registry, st)
	out, err := o.Analyze(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	v, ok := out["ml_ocr.skipped"]
	skipped, _ := v.Value.CoerceBool()
	if !ok || !skipped {
		t.Fatalf("expected ml_ocr.skipped signal, got %v", out)
	}
}

// routingSeedWave sets route.skip.<name> so a later wave in schedule order
// observes itself skipped by routing, mirroring what AutoRoutingWave does.
type routingSeedWave struct {
	name     string
	priority int
	skip     string
}

func (w *routingSeedWave) Name() string   { return w.name }
func (w *routingSeedWave) Priority() int  { return w.priority }
func (w *routingSeedWave) Tags() []string { return []string{"routing"} }
func (w *routingSeedWave) ShouldRun(context.Context, string, *wavectx.Context) bool { return true }
func (w *routingSeedWave) Analyze(_ context.Context, _ string, actx *wavectx.Context) ([]signal.Signal, error) {
	s, _ := signal.New("route.skip."+w.skip, signal.BoolValue(true), 1.0, "router", []string{"routing"}, time.Now().UTC())
	actx.SetValue(s)
	return nil, nil
}

func TestAnalyzeWaveFailureEmitsErrorSignalAndContinues(t *testing.T) {
	path := writeTempFile(t, "wave-failure")
	st := newFakeStore()
	registry := wave.NewRegistry()
	failing := newFakeWave("exif", wave.PriorityExifForensics, "exif")
	failing.err = xerrors.InvalidInput("decode exif", nil)
	passing := newFakeWave("color", wave.PriorityQuality, "color")
	passing.sigs = []signal.Signal{sigFor(t, "color.dominant", 0.7, "color")}
	registry.Register(failing)
	registry.Register(passing)

	o := New(registry, st)
	out, err := o.Analyze(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("expected no single wave failure to abort Analyze, got %v", err)
	}
	if _, ok := out["exif.error"]; !ok {
		t.Fatalf("expected exif.error signal, got %v", out)
	}
	if _, ok := out["color.dominant"]; !ok {
		t.Fatalf("expected the later wave to still run, got %v", out)
	}
}

func TestAnalyzePropagatesCancelledWithoutRunningLaterWaves(t *testing.T) {
	path := writeTempFile(t, "cancelled")
	st := newFakeStore()
	registry := wave.NewRegistry()
	cancelling := newFakeWave("identity", wave.PriorityIdentity, "identity")
	cancelling.err = xerrors.Cancelled("identity wave")
	later := newFakeWave("color", wave.PriorityColor, "color")
	later.failIfCalled = true
	later.t = t
	registry.Register(cancelling)
	registry.Register(later)

	o := New(registry, st)
	_, err := o.Analyze(context.Background(), path, nil)
	if !xerrors.Is(err, xerrors.KindCancelled) {
		t.Fatalf("expected a cancelled error, got %v", err)
	}
}

func TestAnalyzePersistsAndReturnsOnContradictionCritical(t *testing.T) {
	path := writeTempFile(t, "contradiction-critical")
	st := newFakeStore()
	registry := wave.NewRegistry()
	passing := newFakeWave("identity", wave.PriorityIdentity, "identity")
	passing.sigs = []signal.Signal{sigFor(t, "identity.format", 0.9, "identity")}
	critical := newFakeWave("ContradictionValidator", wave.PriorityContradiction, "validation")
	critical.err = xerrors.ContradictionCritical("face_vs_icon")
	registry.Register(passing)
	registry.Register(critical)

	o := New(registry, st)
	out, err := o.Analyze(context.Background(), path, nil)
	if !xerrors.Is(err, xerrors.KindContradictionCritical) {
		t.Fatalf("expected a contradiction-critical error, got %v", err)
	}
	if _, ok := out["identity.format"]; !ok {
		t.Fatalf("expected signals accumulated before the rejection to be returned, got %v", out)
	}
	if st.puts != 1 {
		t.Fatalf("expected the profile persisted despite the rejection, got %d puts", st.puts)
	}
}

func TestAnalyzeDeduplicatesConcurrentCallsForTheSameContentHash(t *testing.T) {
	path := writeTempFile(t, "dedup-me")
	st := newFakeStore()
	registry := wave.NewRegistry()
	w := newFakeWave("identity", wave.PriorityIdentity, "identity")
	w.sigs = []signal.Signal{sigFor(t, "identity.format", 0.9, "identity")}
	registry.Register(w)

	o := New(registry, st)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = o.Analyze(context.Background(), path, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}
	if calls := atomic.LoadInt32(&w.calls); calls != 1 {
		t.Fatalf("expected singleflight to dedup concurrent calls into one wave invocation, got %d", calls)
	}
}
