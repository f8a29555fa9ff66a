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

// Package contradiction implements ContradictionValidator (spec §4.6):
// the lowest-priority wave that checks pairs of final signals for
// logical inconsistency.
package contradiction

import (
	"github.com/jordigilh/imagewave/pkg/signal"
)

// Severity mirrors spec §4.6's ordered status values.
type Severity string

const (
	SeverityClean    Severity = "clean"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityOrder = map[Severity]int{
	SeverityClean: 0, SeverityInfo: 1, SeverityWarning: 2, SeverityError: 3, SeverityCritical: 4,
}

// downgrade returns the severity one level below s, floored at clean.
func (s Severity) downgrade() Severity {
	order := []Severity{SeverityClean, SeverityInfo, SeverityWarning, SeverityError, SeverityCritical}
	idx := severityOrder[s]
	if idx == 0 {
		return s
	}
	return order[idx-1]
}

// Kind is the closed set of rule predicates from spec §4.6.
type Kind string

const (
	KindValueConflict     Kind = "value_conflict"
	KindNumericDivergence Kind = "numeric_divergence"
	KindBooleanOpposite   Kind = "boolean_opposite"
	KindMutuallyExclusive Kind = "mutually_exclusive"
	KindMissingImplied    Kind = "missing_implied"
	KindCustom            Kind = "custom"
)

// CustomPredicate is a caller-supplied check for Kind == KindCustom,
// given both signals (b may be absent).
type CustomPredicate func(a signal.Signal, b *signal.Signal) bool

// Rule is one declarative (or custom) consistency check between two
// signal keys.
type Rule struct {
	ID       string
	Kind     Kind
	Severity Severity
	KeyA     string
	KeyB     string

	MinConfidence float64

	ExpectedValuesA      []signal.Value
	ContradictoryValuesB []signal.Value
	NumericThreshold     float64
	ExclusiveTrueKeys    []string
	Custom               CustomPredicate
}

// Finding is the validator's per-rule output.
type Finding struct {
	RuleID         string
	Severity       Severity
	KeyA, KeyB     string
	ValueA, ValueB signal.Value
}
