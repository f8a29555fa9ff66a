package fusion

import "testing"

func TestApplyTemporalVerbGateMatchesSpecScenario5(t *testing.T) {
	got := ApplyTemporalVerbGate("A dancer is dancing rhythmically")
	want := "A dancer is in a dance pose"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplyTemporalVerbGateHandlesPluralForms(t *testing.T) {
	got := ApplyTemporalVerbGate("Two dancers are dancing energetically")
	if got != "Two dancers are in dance poses energetically" {
		t.Fatalf("unexpected rewrite: %q", got)
	}
}

func TestApplyTemporalVerbGateStripsContinuouslyAndRepeatedly(t *testing.T) {
	got := ApplyTemporalVerbGate("The flag is waving continuously and repeatedly")
	if got != "The flag has arm raised and" {
		t.Fatalf("unexpected rewrite: %q", got)
	}
}

func TestApplyTemporalVerbGateRewritesMovingTheir(t *testing.T) {
	got := ApplyTemporalVerbGate("A child moving their arms in the air")
	if got != "A child with their arms in the air" {
		t.Fatalf("unexpected rewrite: %q", got)
	}
}

func TestApplyTemporalVerbGateLeavesStaticCaptionsUntouched(t *testing.T) {
	caption := "A red car parked on a street"
	if got := ApplyTemporalVerbGate(caption); got != caption {
		t.Fatalf("expected no change for a static caption, got %q", got)
	}
}

func TestApplyTemporalVerbGateCollapsesDoubleSpaces(t *testing.T) {
	got := ApplyTemporalVerbGate("A  dog  is running fast")
	if got != "A dog is in a running pose fast" {
		t.Fatalf("expected collapsed spaces, got %q", got)
	}
}
