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

// Package wavectx implements AnalysisContext (spec §4.2): the per-image,
// single-writer signal map and opaque cache that waves read from and
// write to during one orchestrator run.
package wavectx

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/jordigilh/imagewave/pkg/signal"
)

// Context holds everything a wave's analyze() call can see for one image.
// Exactly one wave writes at a time; readers and the writer never run
// concurrently on the same Context, so it is not itself safe for
// concurrent writes from two goroutines, but it does guard reads that
// race with cache population (temporal voting, filmstrip building) behind
// a mutex since those run inside a single wave's own worker pool.
type Context struct {
	mu sync.RWMutex

	ImageHash string
	ImagePath string

	// RequestID correlates one Analyze call's log lines and audit
	// snapshot across every wave it runs, independent of ImageHash (the
	// same image analyzed twice gets two RequestIDs but, on a cache hit,
	// only the first actually runs a wave).
	RequestID string

	signals    map[string]signal.Signal
	strategies *signal.StrategyRegistry
	cache      map[string]interface{}

	Logger logr.Logger
}

// New constructs an empty Context for one image-analysis invocation,
// minting a fresh RequestID.
func New(imageHash, imagePath string, strategies *signal.StrategyRegistry, logger logr.Logger) *Context {
	if strategies == nil {
		strategies = signal.NewStrategyRegistry()
	}
	return &Context{
		ImageHash:  imageHash,
		ImagePath:  imagePath,
		RequestID:  uuid.NewString(),
		signals:    map[string]signal.Signal{},
		strategies: strategies,
		cache:      map[string]interface{}{},
		Logger:     logger,
	}
}

// SetValue inserts sig, aggregating against any prior signal stored under
// the same key per the key's registered (or default) strategy.
func (c *Context) SetValue(sig signal.Signal) signal.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	strategy := c.strategies.StrategyFor(sig.Key)
	var existing *signal.Signal
	if prev, ok := c.signals[sig.Key]; ok {
		existing = &prev
	}
	resolved := signal.Aggregate(existing, sig, strategy)
	c.signals[sig.Key] = resolved
	return resolved
}

// SetValues is a convenience for appending every signal a wave's analyze()
// call returned.
func (c *Context) SetValues(sigs []signal.Signal) {
	for _, s := range sigs {
		c.SetValue(s)
	}
}

// Signal returns the raw signal stored under key, if any.
func (c *Context) Signal(key string) (signal.Signal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.signals[key]
	return s, ok
}

// AllSignals returns a snapshot copy of every signal currently held,
// keyed by signal key. Used by the contradiction validator and fusion
// layer, which both need a stable view across many reads.
func (c *Context) AllSignals() map[string]signal.Signal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]signal.Signal, len(c.signals))
	for k, v := range c.signals {
		out[k] = v
	}
	return out
}

// GetBool implements get_value<bool>(key, default) with the coercion
// contract from spec §4.2: missing key or coercion failure both return
// def.
func (c *Context) GetBool(key string, def bool) bool {
	c.mu.RLock()
	s, ok := c.signals[key]
	c.mu.RUnlock()
	if !ok {
		return def
	}
	v, ok := s.Value.CoerceBool()
	if !ok {
		return def
	}
	return v
}

func (c *Context) GetInt64(key string, def int64) int64 {
	c.mu.RLock()
	s, ok := c.signals[key]
	c.mu.RUnlock()
	if !ok {
		return def
	}
	v, ok := s.Value.CoerceInt64()
	if !ok {
		return def
	}
	return v
}

func (c *Context) GetFloat64(key string, def float64) float64 {
	c.mu.RLock()
	s, ok := c.signals[key]
	c.mu.RUnlock()
	if !ok {
		return def
	}
	v, ok := s.Value.CoerceFloat64()
	if !ok {
		return def
	}
	return v
}

func (c *Context) GetString(key string, def string) string {
	c.mu.RLock()
	s, ok := c.signals[key]
	c.mu.RUnlock()
	if !ok {
		return def
	}
	v, ok := s.Value.CoerceString()
	if !ok {
		return def
	}
	return v
}

// SetCached stores an untyped cache entry. Consumers are expected to agree
// on key naming (`ocr.frames`, `ocr.temporal_median`, ...) and on the
// concrete type stashed there.
func (c *Context) SetCached(key string, v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = v
}

// GetCached retrieves a previously cached entry, type-asserting it to T.
// ok is false both when the key is absent and when the stored value is
// not a T.
func GetCached[T any](c *Context, key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero T
	raw, ok := c.cache[key]
	if !ok {
		return zero, false
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// IsWaveSkippedByRouting reports whether the router has set
// `route.skip.<name>` truthy for wave name.
func (c *Context) IsWaveSkippedByRouting(name string) bool {
	key := fmt.Sprintf("route.skip.%s", name)
	return c.GetBool(key, false)
}

// Finalize drops the opaque cache; signals remain (the orchestrator reads
// them to build the persisted profile after this call).
func (c *Context) Finalize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = nil
}
