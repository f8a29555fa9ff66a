package autorouter

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/store"
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

type fakeRoutingStore struct {
	mu        sync.Mutex
	decisions map[string]store.RoutingDecision
	puts      int
}

func newFakeRoutingStore() *fakeRoutingStore {
	return &fakeRoutingStore{decisions: map[string]store.RoutingDecision{}}
}

func (f *fakeRoutingStore) GetProfile(context.Context, string) (*store.Profile, bool, error) {
	return nil, false, nil
}
func (f *fakeRoutingStore) PutProfile(context.Context, store.Profile) error { return nil }

func (f *fakeRoutingStore) GetRoutingDecision(_ context.Context, sha256 string) (*store.RoutingDecision, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.decisions[sha256]
	if !ok {
		return nil, false, nil
	}
	return &d, true, nil
}

func (f *fakeRoutingStore) PutRoutingDecision(_ context.Context, d store.RoutingDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions[d.SHA256] = d
	f.puts++
	return nil
}

func (f *fakeRoutingStore) RecordFeedback(context.Context, store.Feedback) error { return nil }

func writeTempPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.Gray{Y: 200})
		}
	}
	path := filepath.Join(t.TempDir(), "sample.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode temp png: %v", err)
	}
	return path
}

func TestWaveAnalyzeDecidesAndPersistsOnFirstRun(t *testing.T) {
	fs := newFakeRoutingStore()
	w := NewWave(fs)
	path := writeTempPNG(t)
	actx := wavectx.New("hash-1", path, signal.NewStrategyRegistry(), logr.Discard())

	sigs, err := w.Analyze(context.Background(), path, actx)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var sawMemoized, sawRoute bool
	for _, s := range sigs {
		if s.Key == "route.memoized" {
			sawMemoized = true
			if b, _ := s.Value.CoerceBool(); b {
				t.Errorf("first run should not be reported as memoized")
			}
		}
		if s.Key == "route.selected" {
			sawRoute = true
		}
	}
	if !sawMemoized || !sawRoute {
		t.Fatalf("expected route.memoized and route.selected signals, got %+v", sigs)
	}
	if fs.puts != 1 {
		t.Errorf("expected exactly one PutRoutingDecision call, got %d", fs.puts)
	}
}

func TestWaveAnalyzeReusesMemoizedDecision(t *testing.T) {
	fs := newFakeRoutingStore()
	fs.decisions["hash-2"] = store.RoutingDecision{
		SHA256: "hash-2", Route: "fast", TextTier: "caption", Reason: "cached", DecidedAt: time.Now(),
	}
	w := NewWave(fs)
	path := writeTempPNG(t)
	actx := wavectx.New("hash-2", path, signal.NewStrategyRegistry(), logr.Discard())

	sigs, err := w.Analyze(context.Background(), path, actx)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var memoized bool
	for _, s := range sigs {
		if s.Key == "route.memoized" {
			memoized, _ = s.Value.CoerceBool()
		}
	}
	if !memoized {
		t.Errorf("expected route.memoized = true when a RoutingDecision already exists")
	}
	if fs.puts != 0 {
		t.Errorf("expected no new PutRoutingDecision call on a memoized hit, got %d", fs.puts)
	}
}
