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

// Package store implements the content-addressed signal cache (spec §6):
// a durable Postgres-backed SignalStore fronted by a Redis TTL cache,
// plus the feedback and routing_decisions side tables.
package store

import (
	"context"
	"time"

	"github.com/jordigilh/imagewave/pkg/signal"
)

// Profile is the persisted row for one image: its identity columns plus
// the serialized signal map.
type Profile struct {
	SHA256    string
	XXHash64  uint64
	Path      string
	Width     int
	Height    int
	Format    string
	CreatedAt time.Time
	Signals   map[string]signal.Signal
}

// RoutingDecision mirrors the routing_decisions table row (spec §3, §6).
type RoutingDecision struct {
	SHA256    string
	Route     string
	TextTier  string
	Reason    string
	DecidedAt time.Time
}

// Feedback is one user correction recorded against a signal key.
type Feedback struct {
	SHA256    string
	Key       string
	Correction signal.Value
	NotedAt   time.Time
}

// SignalStore is the durable + cached content-addressed store the
// orchestrator reads from and writes to, keyed by image_hash (SHA-256).
type SignalStore interface {
	GetProfile(ctx context.Context, sha256 string) (*Profile, bool, error)
	PutProfile(ctx context.Context, profile Profile) error

	GetRoutingDecision(ctx context.Context, sha256 string) (*RoutingDecision, bool, error)
	PutRoutingDecision(ctx context.Context, decision RoutingDecision) error

	RecordFeedback(ctx context.Context, fb Feedback) error
}

// IsComplete reports whether p carries at least one signal for every tag
// in requiredTags — the "complete profile" freshness check from spec
// §4.3 step 1. An empty requiredTags set is always complete.
func (p *Profile) IsComplete(requiredTags map[string]bool) bool {
	if p == nil {
		return false
	}
	if len(requiredTags) == 0 {
		return true
	}
	seen := map[string]bool{}
	for _, sig := range p.Signals {
		for _, tag := range sig.Tags {
			seen[tag] = true
		}
	}
	for tag := range requiredTags {
		if !seen[tag] {
			return false
		}
	}
	return true
}
