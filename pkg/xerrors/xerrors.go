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

// Package xerrors is the pipeline's single error vocabulary. It merges the
// two idioms the rest of the corpus uses separately: a typed Kind for
// programmatic dispatch (internal/errors.ErrorType in the teacher) and an
// operation/component/cause chain for human-readable messages
// (pkg/shared/errors.OperationError in the teacher).
package xerrors

import (
	"fmt"
	"strings"
)

// Kind is the closed set of error categories from spec §7. Orchestrator
// behavior is keyed off Kind, never off string matching.
type Kind string

const (
	// KindInvalidInput aborts analysis and surfaces to the caller.
	KindInvalidInput Kind = "invalid_input"
	// KindModelUnavailable means a collaborator (ONNX session, vision LLM,
	// OCR engine) could not be reached; the wave continues with a signal.
	KindModelUnavailable Kind = "model_unavailable"
	// KindWaveFailure is any other exception raised inside a wave.
	KindWaveFailure Kind = "wave_failure"
	// KindCancelled means the cancellation token fired.
	KindCancelled Kind = "cancelled"
	// KindContradictionCritical means the validator saw a critical rule
	// under a reject policy.
	KindContradictionCritical Kind = "contradiction_critical"
	// KindStoreFailure is cache I/O failure; callers bypass the cache.
	KindStoreFailure Kind = "store_failure"
)

// Error is the pipeline's error type: a Kind plus the teacher's
// operation/component/resource/cause shape.
type Error struct {
	Kind      Kind
	Operation string
	Component string
	Resource  string
	Cause     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to %s", e.Operation)
	if e.Component != "" {
		fmt.Fprintf(&b, ", component: %s", e.Component)
	}
	if e.Resource != "" {
		fmt.Fprintf(&b, ", resource: %s", e.Resource)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ", cause: %s", e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var xe *Error
	for err != nil {
		if x, ok := err.(*Error); ok {
			xe = x
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return xe != nil && xe.Kind == kind
}

// New builds an Error of the given Kind.
func New(kind Kind, operation string, cause error) *Error {
	return &Error{Kind: kind, Operation: operation, Cause: cause}
}

// WithComponent names the component a failing operation belongs to.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WithResource names the specific resource an operation acted on.
func (e *Error) WithResource(resource string) *Error {
	e.Resource = resource
	return e
}

// InvalidInput reports an unreadable file or unsupported format.
func InvalidInput(operation string, cause error) *Error {
	return New(KindInvalidInput, operation, cause).WithComponent("input")
}

// ModelUnavailable reports an unreachable collaborator (ONNX, vision LLM).
func ModelUnavailable(component, operation string, cause error) *Error {
	return New(KindModelUnavailable, operation, cause).WithComponent(component)
}

// WaveFailure wraps an exception caught inside a wave's analyze call.
func WaveFailure(wave string, cause error) *Error {
	return New(KindWaveFailure, "run wave "+wave, cause).WithComponent(wave)
}

// Cancelled reports that a cancellation token fired.
func Cancelled(operation string) *Error {
	return New(KindCancelled, operation, nil)
}

// ContradictionCritical reports a rejected profile.
func ContradictionCritical(ruleID string) *Error {
	return New(KindContradictionCritical, "validate signal profile", nil).WithResource(ruleID)
}

// StoreFailure wraps a cache I/O error.
func StoreFailure(operation string, cause error) *Error {
	return New(KindStoreFailure, operation, cause).WithComponent("store")
}

// IsRetryable reports whether err looks like a transient condition worth
// retrying. Carried forward verbatim from the teacher's heuristic.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, substr := range []string{"timeout", "connection refused", "service unavailable", "temporarily unavailable", "try again"} {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

// Wrapf wraps err with additional context, matching fmt.Errorf's %w style
// but returning nil for a nil err so call sites can chain unconditionally.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Chain joins multiple non-nil errors into one, or returns nil if all are
// nil. Used by waves that accumulate several sub-failures before reporting.
func Chain(errs ...error) error {
	var nonNil []string
	for _, e := range errs {
		if e != nil {
			nonNil = append(nonNil, e.Error())
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s", nonNil[0])
	default:
		return fmt.Errorf("multiple errors: %s", strings.Join(nonNil, "; "))
	}
}
