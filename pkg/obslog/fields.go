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

// Package obslog provides the structured-logging field builder shared by
// every wave and pipeline component, plus the zap/logr wiring used to
// construct the process-wide logger.
package obslog

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is an unordered bag of structured logging attributes, built up via
// chained calls and flushed as zap.Field slice.
type Fields map[string]interface{}

// NewFields starts an empty field set.
func NewFields() Fields {
	return Fields{}
}

func (f Fields) Wave(name string) Fields {
	f["wave"] = name
	return f
}

func (f Fields) ImageHash(hash string) Fields {
	f["image_hash"] = hash
	return f
}

func (f Fields) Operation(op string) Fields {
	f["operation"] = op
	return f
}

func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

func (f Fields) Confidence(c float64) Fields {
	f["confidence"] = c
	return f
}

func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

func (f Fields) Route(route string) Fields {
	f["route"] = route
	return f
}

func (f Fields) TextTier(tier string) Fields {
	f["text_tier"] = tier
	return f
}

func (f Fields) RuleID(id string) Fields {
	f["rule_id"] = id
	return f
}

func (f Fields) Severity(sev string) Fields {
	f["severity"] = sev
	return f
}

func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

func (f Fields) Custom(key string, value interface{}) Fields {
	f[key] = value
	return f
}

// ToZap flattens the field bag into zap.Field slice for a single log call.
func (f Fields) ToZap() []zap.Field {
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// WaveFields seeds a field set for a wave invocation log line.
func WaveFields(wave, imageHash string) Fields {
	return NewFields().Wave(wave).ImageHash(imageHash)
}

// RouteFields seeds a field set for an AutoRouter decision log line.
func RouteFields(imageHash, route, tier string) Fields {
	return NewFields().ImageHash(imageHash).Route(route).TextTier(tier)
}

// OcrFields seeds a field set for a multi-frame OCR phase log line.
func OcrFields(phase string, frameCount int) Fields {
	return NewFields().Operation(phase).Count(frameCount)
}

// ContradictionFields seeds a field set for a validator rule evaluation.
func ContradictionFields(ruleID, severity string) Fields {
	return NewFields().RuleID(ruleID).Severity(severity)
}

// StoreFields seeds a field set for a SignalStore operation.
func StoreFields(operation, imageHash string) Fields {
	return NewFields().Operation(operation).ImageHash(imageHash)
}

// NewZapLogger builds the process-wide structured logger. level is one of
// "debug", "info", "warn", "error"; format is "json" or "console", matching
// the teacher's internal/config logging section.
func NewZapLogger(level, format string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
