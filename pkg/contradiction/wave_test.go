package contradiction

import (
	"context"
	"testing"

	"time"

	"github.com/go-logr/logr"

	"github.com/jordigilh/imagewave/pkg/signal"
	"github.com/jordigilh/imagewave/pkg/wavectx"
)

func newCtx() *wavectx.Context {
	return wavectx.New("hash", "/tmp/x.png", nil, logr.Discard())
}

func TestWaveAnalyzeEmitsCleanStatusWithNoSignals(t *testing.T) {
	w := NewWave(NewBuiltinRegistry(), true, nil)
	sigs, err := w.Analyze(context.Background(), "/tmp/x.png", newCtx())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	var sawStatus bool
	for _, s := range sigs {
		if s.Key == "validation.contradiction.status" {
			sawStatus = true
			if v, _ := s.Value.CoerceString(); v != string(SeverityClean) {
				t.Errorf("expected clean status, got %s", v)
			}
		}
	}
	if !sawStatus {
		t.Fatalf("expected a validation.contradiction.status signal")
	}
}

func TestWaveAnalyzeRejectsOnCritical(t *testing.T) {
	rules := []Rule{{
		ID: "always_critical", Kind: KindBooleanOpposite, Severity: SeverityCritical,
		KeyA: "a", KeyB: "b", MinConfidence: 0,
	}}
	reg := NewRegistry()
	for _, r := range rules {
		reg.Register(r)
	}
	w := NewWave(reg, true, nil)

	actx := newCtx()
	a, _ := signal.New("a", signal.BoolValue(true), 0.9, "test", nil, time.Now().UTC())
	b, _ := signal.New("b", signal.BoolValue(false), 0.9, "test", nil, time.Now().UTC())
	actx.SetValue(a)
	actx.SetValue(b)

	sigs, err := w.Analyze(context.Background(), "/tmp/x.png", actx)
	if err == nil {
		t.Fatalf("expected a contradiction-critical error")
	}
	var sawRejected bool
	for _, s := range sigs {
		if s.Key == "validation.contradiction.rejected" {
			sawRejected = true
		}
	}
	if !sawRejected {
		t.Fatalf("expected validation.contradiction.rejected signal, got %+v", sigs)
	}
}

func TestWaveAnalyzeDoesNotRejectWhenRejectOnCriticalDisabled(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Rule{ID: "always_critical", Kind: KindBooleanOpposite, Severity: SeverityCritical, KeyA: "a", KeyB: "b"})
	w := NewWave(reg, false, nil)

	actx := newCtx()
	a, _ := signal.New("a", signal.BoolValue(true), 0.9, "test", nil, time.Now().UTC())
	b, _ := signal.New("b", signal.BoolValue(false), 0.9, "test", nil, time.Now().UTC())
	actx.SetValue(a)
	actx.SetValue(b)

	_, err := w.Analyze(context.Background(), "/tmp/x.png", actx)
	if err != nil {
		t.Fatalf("expected no error when reject_on_critical is disabled, got %v", err)
	}
}
