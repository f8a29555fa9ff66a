package contradiction

import (
	"testing"
	"time"

	"github.com/jordigilh/imagewave/pkg/signal"
)

func sig(key string, v signal.Value, conf float64) signal.Signal {
	s, err := signal.New(key, v, conf, "test", nil, time.Now().UTC())
	if err != nil {
		panic(err)
	}
	return s
}

func TestEvaluateValueConflictTriggers(t *testing.T) {
	rule := Rule{
		ID: "r1", Kind: KindValueConflict, Severity: SeverityError,
		KeyA: "a", KeyB: "b", MinConfidence: 0.5,
		ExpectedValuesA:      []signal.Value{signal.StringValue("x")},
		ContradictoryValuesB: []signal.Value{signal.StringValue("y")},
	}
	signals := map[string]signal.Signal{
		"a": sig("a", signal.StringValue("x"), 0.9),
		"b": sig("b", signal.StringValue("y"), 0.9),
	}
	findings := Evaluate([]Rule{rule}, signals)
	if len(findings) != 1 || findings[0].Severity != SeverityError {
		t.Fatalf("expected one error-severity finding, got %+v", findings)
	}
}

func TestEvaluateNumericDivergence(t *testing.T) {
	rule := Rule{ID: "r2", Kind: KindNumericDivergence, Severity: SeverityWarning, KeyA: "a", KeyB: "b", NumericThreshold: 0.2}
	signals := map[string]signal.Signal{
		"a": sig("a", signal.FloatValue(0.9), 0.8),
		"b": sig("b", signal.FloatValue(0.3), 0.8),
	}
	findings := Evaluate([]Rule{rule}, signals)
	if len(findings) != 1 {
		t.Fatalf("expected a divergence finding, got %+v", findings)
	}
}

func TestEvaluateNumericDivergenceWithinThresholdDoesNotTrigger(t *testing.T) {
	rule := Rule{ID: "r2", Kind: KindNumericDivergence, Severity: SeverityWarning, KeyA: "a", KeyB: "b", NumericThreshold: 0.5}
	signals := map[string]signal.Signal{
		"a": sig("a", signal.FloatValue(0.9), 0.8),
		"b": sig("b", signal.FloatValue(0.8), 0.8),
	}
	if findings := Evaluate([]Rule{rule}, signals); len(findings) != 0 {
		t.Fatalf("expected no finding, got %+v", findings)
	}
}

func TestEvaluateBooleanOpposite(t *testing.T) {
	rule := Rule{ID: "r3", Kind: KindBooleanOpposite, Severity: SeverityWarning, KeyA: "a", KeyB: "b"}
	signals := map[string]signal.Signal{
		"a": sig("a", signal.BoolValue(true), 0.9),
		"b": sig("b", signal.BoolValue(false), 0.9),
	}
	if findings := Evaluate([]Rule{rule}, signals); len(findings) != 1 {
		t.Fatalf("expected a finding, got %+v", findings)
	}
}

func TestEvaluateMutuallyExclusive(t *testing.T) {
	rule := Rule{ID: "r4", Kind: KindMutuallyExclusive, Severity: SeverityError, KeyA: "face.count", KeyB: "identity.is_icon"}
	signals := map[string]signal.Signal{
		"face.count":       sig("face.count", signal.IntValue(2), 0.9),
		"identity.is_icon": sig("identity.is_icon", signal.BoolValue(true), 0.9),
	}
	if findings := Evaluate([]Rule{rule}, signals); len(findings) != 1 {
		t.Fatalf("expected a finding, got %+v", findings)
	}
}

func TestEvaluateMissingImpliedTriggersWhenBAbsent(t *testing.T) {
	rule := Rule{ID: "r5", Kind: KindMissingImplied, Severity: SeverityInfo, KeyA: "a", KeyB: "b"}
	signals := map[string]signal.Signal{
		"a": sig("a", signal.BoolValue(true), 0.9),
	}
	if findings := Evaluate([]Rule{rule}, signals); len(findings) != 1 {
		t.Fatalf("expected a finding when implied key is absent, got %+v", findings)
	}

	signals["b"] = sig("b", signal.BoolValue(true), 0.9)
	if findings := Evaluate([]Rule{rule}, signals); len(findings) != 0 {
		t.Fatalf("expected no finding once the implied key is present, got %+v", findings)
	}
}

func TestEvaluateDowngradesSeverityWhenBothConfidencesLow(t *testing.T) {
	rule := Rule{ID: "r6", Kind: KindBooleanOpposite, Severity: SeverityCritical, KeyA: "a", KeyB: "b"}
	signals := map[string]signal.Signal{
		"a": sig("a", signal.BoolValue(true), 0.3),
		"b": sig("b", signal.BoolValue(false), 0.2),
	}
	findings := Evaluate([]Rule{rule}, signals)
	if len(findings) != 1 || findings[0].Severity != SeverityError {
		t.Fatalf("expected critical downgraded to error, got %+v", findings)
	}
}

func TestEvaluateRespectsMinConfidenceGate(t *testing.T) {
	rule := Rule{ID: "r7", Kind: KindBooleanOpposite, Severity: SeverityWarning, KeyA: "a", KeyB: "b", MinConfidence: 0.8}
	signals := map[string]signal.Signal{
		"a": sig("a", signal.BoolValue(true), 0.5),
		"b": sig("b", signal.BoolValue(false), 0.9),
	}
	if findings := Evaluate([]Rule{rule}, signals); len(findings) != 0 {
		t.Fatalf("expected the low-confidence signal to gate the rule out, got %+v", findings)
	}
}

func TestEvaluateCustomPredicate(t *testing.T) {
	rule := Rule{
		ID: "r8", Kind: KindCustom, Severity: SeverityWarning, KeyA: "a", KeyB: "b",
		Custom: func(a signal.Signal, b *signal.Signal) bool {
			at, _ := a.Value.CoerceString()
			bt, _ := b.Value.CoerceString()
			return at == bt
		},
	}
	signals := map[string]signal.Signal{
		"a": sig("a", signal.StringValue("same"), 0.9),
		"b": sig("b", signal.StringValue("same"), 0.9),
	}
	if findings := Evaluate([]Rule{rule}, signals); len(findings) != 1 {
		t.Fatalf("expected custom predicate to trigger, got %+v", findings)
	}
}

func TestWorstSeverityEmptyIsClean(t *testing.T) {
	if s := WorstSeverity(nil); s != SeverityClean {
		t.Fatalf("expected clean for no findings, got %s", s)
	}
}
