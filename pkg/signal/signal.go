package signal

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Signal is the immutable atomic observation emitted by a wave (spec §3).
type Signal struct {
	Key        string            `validate:"required"`
	Value      Value             `validate:"-"`
	Confidence float64           `validate:"gte=0,lte=1"`
	Source     string            `validate:"required"`
	Tags       []string          `validate:"-"`
	Timestamp  time.Time         `validate:"-"`
	Metadata   map[string]Value  `validate:"-"`
}

// New validates and constructs a Signal. Construction is the only place
// the key-non-empty and confidence-range invariants are enforced; every
// Signal reachable afterwards is assumed valid.
func New(key string, value Value, confidence float64, source string, tags []string, ts time.Time) (Signal, error) {
	s := Signal{
		Key:        key,
		Value:      value,
		Confidence: confidence,
		Source:     source,
		Tags:       append([]string(nil), tags...),
		Timestamp:  ts,
		Metadata:   map[string]Value{},
	}
	if err := validate.Struct(s); err != nil {
		return Signal{}, &InvalidSignalError{Key: key, Cause: err}
	}
	if key != strings.ToLower(key) {
		return Signal{}, &InvalidSignalError{Key: key, Cause: errNotLowercase}
	}
	return s, nil
}

// WithMetadata returns a copy of s carrying the given debug/audit metadata.
// Metadata is never consulted by scheduling or aggregation logic.
func (s Signal) WithMetadata(md map[string]Value) Signal {
	out := s
	out.Metadata = md
	return out
}

// HasTag reports whether s carries tag.
func (s Signal) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Equal implements the (key, source, timestamp) equality contract from
// spec §4.1. Timestamp is compared at millisecond precision, matching the
// serialization round-trip guarantee.
func (s Signal) Equal(other Signal) bool {
	return s.Key == other.Key &&
		s.Source == other.Source &&
		s.Timestamp.Truncate(time.Millisecond).Equal(other.Timestamp.Truncate(time.Millisecond))
}

// InvalidSignalError reports a construction-time contract violation: an
// empty key, non-lowercase key, or out-of-range confidence.
type InvalidSignalError struct {
	Key   string
	Cause error
}

func (e *InvalidSignalError) Error() string {
	return "invalid signal for key " + e.Key + ": " + e.Cause.Error()
}

func (e *InvalidSignalError) Unwrap() error { return e.Cause }

type simpleError string

func (e simpleError) Error() string { return string(e) }

const errNotLowercase = simpleError("key must be ASCII lowercase")
