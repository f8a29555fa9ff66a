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

// Package rego lets an operator express a contradiction rule as a Rego
// policy file instead of Go code, hot-reloaded from disk so policy edits
// don't require a redeploy.
package rego

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"github.com/open-policy-agent/opa/rego"
)

// Config points at the single policy file backing one Evaluator.
type Config struct {
	PolicyPath string
	Query      string // defaults to "data.contradiction.triggered"
}

// Result is the boolean verdict a policy produces. Reason is copied from
// the input's optional "reason_hint" string; the policy does not set it.
type Result struct {
	Triggered bool
	Reason    string
}

// Evaluator loads a compiled Rego query and re-evaluates it per input,
// reloading the backing file when StartHotReload detects a change.
type Evaluator struct {
	cfg    Config
	log    logr.Logger
	mu     sync.RWMutex
	query  rego.PreparedEvalQuery
	loaded bool
}

func NewEvaluator(cfg Config, log logr.Logger) *Evaluator {
	if cfg.Query == "" {
		cfg.Query = "data.contradiction.triggered"
	}
	return &Evaluator{cfg: cfg, log: log}
}

// Load compiles the policy file once. StartHotReload calls this on every
// file-system change; callers that don't need hot reload can call it
// directly instead.
func (e *Evaluator) Load(ctx context.Context) error {
	src, err := os.ReadFile(e.cfg.PolicyPath)
	if err != nil {
		return fmt.Errorf("read policy %s: %w", e.cfg.PolicyPath, err)
	}
	prepared, err := rego.New(
		rego.Query(e.cfg.Query),
		rego.Module(e.cfg.PolicyPath, string(src)),
	).PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("compile policy %s: %w", e.cfg.PolicyPath, err)
	}
	e.mu.Lock()
	e.query = prepared
	e.loaded = true
	e.mu.Unlock()
	return nil
}

// StartHotReload loads the policy immediately and keeps watching its file
// for edits until ctx is cancelled. Reload errors are logged, not fatal —
// the last good policy keeps serving Evaluate calls.
func (e *Evaluator) StartHotReload(ctx context.Context) error {
	if err := e.Load(ctx); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch policy directory: %w", err)
	}
	if err := watcher.Add(e.cfg.PolicyPath); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", e.cfg.PolicyPath, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := e.Load(ctx); err != nil {
					e.log.Error(err, "reload contradiction policy failed, keeping last good version", "path", e.cfg.PolicyPath)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				e.log.Error(err, "policy watcher error", "path", e.cfg.PolicyPath)
			}
		}
	}()
	return nil
}

// Evaluate runs the prepared query against input, which should contain
// the two compared signals' coerced values under "a" and "b".
func (e *Evaluator) Evaluate(ctx context.Context, input map[string]interface{}) (Result, error) {
	e.mu.RLock()
	query := e.query
	loaded := e.loaded
	e.mu.RUnlock()
	if !loaded {
		return Result{}, fmt.Errorf("policy %s not loaded", e.cfg.PolicyPath)
	}

	rs, err := query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Result{}, fmt.Errorf("evaluate policy %s: %w", e.cfg.PolicyPath, err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Result{Triggered: false}, nil
	}
	triggered, _ := rs[0].Expressions[0].Value.(bool)
	reason, _ := input["reason_hint"].(string)
	return Result{Triggered: triggered, Reason: reason}, nil
}
