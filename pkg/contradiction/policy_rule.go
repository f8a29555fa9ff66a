package contradiction

import (
	"context"

	"github.com/jordigilh/imagewave/pkg/contradiction/rego"
	"github.com/jordigilh/imagewave/pkg/signal"
)

// PolicyRule builds a Rule whose predicate delegates to a Rego policy,
// letting an operator add a contradiction check without a Go code change.
func PolicyRule(ctx context.Context, id string, severity Severity, keyA, keyB string, minConfidence float64, evaluator *rego.Evaluator) Rule {
	return Rule{
		ID:            id,
		Kind:          KindCustom,
		Severity:      severity,
		KeyA:          keyA,
		KeyB:          keyB,
		MinConfidence: minConfidence,
		Custom: func(a signal.Signal, b *signal.Signal) bool {
			input := map[string]interface{}{
				"a": valueToInterface(a.Value),
			}
			if b != nil {
				input["b"] = valueToInterface(b.Value)
			}
			result, err := evaluator.Evaluate(ctx, input)
			if err != nil {
				return false
			}
			return result.Triggered
		},
	}
}

func valueToInterface(v signal.Value) interface{} {
	switch v.Type {
	case signal.TypeBool:
		return v.Bool
	case signal.TypeInt:
		return v.Int
	case signal.TypeFloat:
		return v.Float
	case signal.TypeString:
		return v.Str
	case signal.TypeList:
		out := make([]interface{}, len(v.List))
		for i, item := range v.List {
			out[i] = valueToInterface(item)
		}
		return out
	case signal.TypeMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, item := range v.Map {
			out[k] = valueToInterface(item)
		}
		return out
	default:
		return nil
	}
}
