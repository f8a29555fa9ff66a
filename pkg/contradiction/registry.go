package contradiction

import (
	"sort"

	"github.com/jordigilh/imagewave/pkg/signal"
)

// Registry holds the enabled rule set, evaluated in registration order.
type Registry struct {
	rules []Rule
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Evaluate runs every registered rule against the final signal set,
// returning one Finding per triggered rule, most severe first.
func Evaluate(rules []Rule, signals map[string]signal.Signal) []Finding {
	var findings []Finding
	for _, rule := range rules {
		if f, ok := evaluateRule(rule, signals); ok {
			findings = append(findings, f)
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		return severityOrder[findings[i].Severity] > severityOrder[findings[j].Severity]
	})
	return findings
}

func evaluateRule(rule Rule, signals map[string]signal.Signal) (Finding, bool) {
	sigA, okA := signals[rule.KeyA]
	if !okA || sigA.Confidence < rule.MinConfidence {
		return Finding{}, false
	}

	if rule.Kind == KindMissingImplied {
		if !truthy(sigA.Value) {
			return Finding{}, false
		}
		if _, present := signals[rule.KeyB]; present {
			return Finding{}, false
		}
		return buildFinding(rule, sigA, signal.Signal{}, sigA.Confidence, 1), true
	}

	sigB, okB := signals[rule.KeyB]
	if !okB || sigB.Confidence < rule.MinConfidence {
		return Finding{}, false
	}

	var triggered bool
	switch rule.Kind {
	case KindValueConflict:
		triggered = valueIn(sigA.Value, rule.ExpectedValuesA) && valueIn(sigB.Value, rule.ContradictoryValuesB)
	case KindNumericDivergence:
		a, okFA := sigA.Value.CoerceFloat64()
		b, okFB := sigB.Value.CoerceFloat64()
		triggered = okFA && okFB && absFloat(a-b) > rule.NumericThreshold
	case KindBooleanOpposite:
		triggered = truthy(sigA.Value) != truthy(sigB.Value)
	case KindMutuallyExclusive:
		triggered = truthy(sigA.Value) && truthy(sigB.Value)
	case KindCustom:
		if rule.Custom != nil {
			triggered = rule.Custom(sigA, &sigB)
		}
	}

	if !triggered {
		return Finding{}, false
	}
	return buildFinding(rule, sigA, sigB, sigA.Confidence, sigB.Confidence), true
}

func buildFinding(rule Rule, sigA, sigB signal.Signal, confA, confB float64) Finding {
	severity := rule.Severity
	if confA < 0.5 && confB < 0.5 {
		severity = severity.downgrade()
	}
	return Finding{
		RuleID:   rule.ID,
		Severity: severity,
		KeyA:     rule.KeyA,
		KeyB:     rule.KeyB,
		ValueA:   sigA.Value,
		ValueB:   sigB.Value,
	}
}

func truthy(v signal.Value) bool {
	b, _ := v.CoerceBool()
	return b
}

func valueIn(v signal.Value, set []signal.Value) bool {
	for _, candidate := range set {
		if v.Equal(candidate) {
			return true
		}
	}
	return false
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// WorstSeverity returns the highest-severity finding's level, or clean
// when findings is empty.
func WorstSeverity(findings []Finding) Severity {
	worst := SeverityClean
	for _, f := range findings {
		if severityOrder[f.Severity] > severityOrder[worst] {
			worst = f.Severity
		}
	}
	return worst
}
