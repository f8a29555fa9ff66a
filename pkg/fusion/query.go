package fusion

import (
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/jordigilh/imagewave/pkg/signal"
)

// QueryProfile runs a jq expression against the final signal set, letting
// an operator introspect or build ad-hoc candidate lists (e.g.
// `[.[] | select(.tags | index("entities"))] | sort_by(-.confidence)`)
// without a Go code change.
func QueryProfile(signals map[string]signal.Signal, query string) (interface{}, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("parse query %q: %w", query, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("compile query %q: %w", query, err)
	}

	input := profileToJQInput(signals)
	iter := code.Run(input)
	v, ok := iter.Next()
	if !ok {
		return nil, nil
	}
	if err, ok := v.(error); ok {
		return nil, fmt.Errorf("evaluate query %q: %w", query, err)
	}
	return v, nil
}

func profileToJQInput(signals map[string]signal.Signal) map[string]interface{} {
	out := make(map[string]interface{}, len(signals))
	for key, s := range signals {
		out[key] = map[string]interface{}{
			"value":      signalValueToJQ(s.Value),
			"confidence": s.Confidence,
			"source":     s.Source,
			"tags":       s.Tags,
		}
	}
	return out
}

func signalValueToJQ(v signal.Value) interface{} {
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
			out[i] = signalValueToJQ(item)
		}
		return out
	case signal.TypeMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, item := range v.Map {
			out[k] = signalValueToJQ(item)
		}
		return out
	default:
		return nil
	}
}
