package signal

// Strategy selects how a new emission for an existing key is resolved
// against the signal already held in the context (spec §3).
type Strategy string

const (
	StrategyHighestConfidence Strategy = "highest_confidence"
	StrategyMostRecent        Strategy = "most_recent"
	StrategyWeightedAverage   Strategy = "weighted_average"
	StrategyMajorityVote      Strategy = "majority_vote"
	StrategyCollect           Strategy = "collect"
)

// DefaultStrategy is used for any key without a registered override:
// highest confidence, ties broken by most recent.
const DefaultStrategy = StrategyHighestConfidence

// StrategyRegistry lets waves or configuration override the default
// aggregation strategy for specific keys.
type StrategyRegistry struct {
	overrides map[string]Strategy
}

func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{overrides: map[string]Strategy{}}
}

func (r *StrategyRegistry) Set(key string, strategy Strategy) {
	r.overrides[key] = strategy
}

func (r *StrategyRegistry) StrategyFor(key string) Strategy {
	if s, ok := r.overrides[key]; ok {
		return s
	}
	return DefaultStrategy
}

// Aggregate resolves existing against incoming per strategy, returning the
// Signal that should be stored. For StrategyCollect, the result's Value is
// a TypeList accumulating every emission seen so far, in arrival order.
func Aggregate(existing *Signal, incoming Signal, strategy Strategy) Signal {
	if existing == nil {
		if strategy == StrategyCollect {
			return incoming.withValue(ListValue([]Value{incoming.Value}))
		}
		return incoming
	}
	switch strategy {
	case StrategyMostRecent:
		if incoming.Timestamp.After(existing.Timestamp) {
			return incoming
		}
		return *existing
	case StrategyWeightedAverage:
		return weightedAverage(*existing, incoming)
	case StrategyMajorityVote:
		return majorityVote(*existing, incoming)
	case StrategyCollect:
		return collect(*existing, incoming)
	case StrategyHighestConfidence:
		fallthrough
	default:
		return highestConfidence(*existing, incoming)
	}
}

func (s Signal) withValue(v Value) Signal {
	s.Value = v
	return s
}

// highestConfidence picks the signal with the greater confidence; ties are
// broken by most recent timestamp, per the default strategy's contract.
func highestConfidence(existing, incoming Signal) Signal {
	if incoming.Confidence > existing.Confidence {
		return incoming
	}
	if incoming.Confidence < existing.Confidence {
		return existing
	}
	if incoming.Timestamp.After(existing.Timestamp) {
		return incoming
	}
	return existing
}

// weightedAverage only applies to numeric (int/float) values; for any
// other dynamic type it degrades to highestConfidence, since averaging a
// string or vector has no well-defined meaning here.
func weightedAverage(existing, incoming Signal) Signal {
	ev, eok := existing.Value.coerceAsFloat64()
	iv, iok := incoming.Value.coerceAsFloat64()
	if !eok || !iok {
		return highestConfidence(existing, incoming)
	}
	totalWeight := existing.Confidence + incoming.Confidence
	if totalWeight == 0 {
		return incoming
	}
	blended := (ev*existing.Confidence + iv*incoming.Confidence) / totalWeight
	out := incoming
	out.Value = FloatValue(blended)
	if incoming.Confidence > existing.Confidence {
		out.Confidence = incoming.Confidence
	} else {
		out.Confidence = existing.Confidence
	}
	return out
}

// majorityVote tracks per-distinct-value vote counts in Metadata under
// "_votes" (itself a Value-encoded map), returning the signal whose value
// currently has the most votes, weighted by confidence.
func majorityVote(existing, incoming Signal) Signal {
	votes := map[string]float64{}
	if md, ok := existing.Metadata["_votes"]; ok && md.Type == TypeMap {
		for k, v := range md.Map {
			if f, ok := v.coerceAsFloat64(); ok {
				votes[k] = f
			}
		}
	} else {
		votes[existing.Value.String()] = existing.Confidence
	}
	votes[incoming.Value.String()] += incoming.Confidence

	var bestKey string
	var bestWeight float64 = -1
	for k, w := range votes {
		if w > bestWeight {
			bestWeight = w
			bestKey = k
		}
	}

	encoded := map[string]Value{}
	for k, w := range votes {
		encoded[k] = FloatValue(w)
	}

	winner := incoming
	if bestKey == existing.Value.String() && bestKey != incoming.Value.String() {
		winner = existing
	}
	md := map[string]Value{"_votes": MapValue(encoded)}
	winner.Metadata = md
	return winner
}

// collect accumulates every emission into a TypeList value, most-recent
// confidence and timestamp winning for the envelope fields.
func collect(existing, incoming Signal) Signal {
	var list []Value
	if existing.Value.Type == TypeList {
		list = append(list, existing.Value.List...)
	} else {
		list = append(list, existing.Value)
	}
	list = append(list, incoming.Value)

	out := incoming
	out.Value = ListValue(list)
	return out
}
