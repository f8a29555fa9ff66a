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

// Package signal is the atomic data model (spec §3, §4.1): the Signal
// record, its tagged-union Value, the key glob matcher and the
// aggregation strategies used when the same (key, source) is emitted more
// than once across reruns.
package signal

import (
	"fmt"
	"strconv"
)

// ValueType tags the dynamic type carried by a Value so the wire form
// round-trips without reflection.
type ValueType string

const (
	TypeBool   ValueType = "bool"
	TypeInt    ValueType = "int"
	TypeFloat  ValueType = "float"
	TypeString ValueType = "string"
	TypeBytes  ValueType = "bytes"
	TypeVector ValueType = "vector"
	TypeList   ValueType = "list"
	TypeMap    ValueType = "map"
)

// Value is the tagged union described in spec §3: {bool, int, float,
// string, bytes, vector<f32>, list<Value>, map<string,Value>}. Only the
// field matching Type is meaningful; the rest are zero.
type Value struct {
	Type   ValueType
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Bytes  []byte
	Vector []float32
	List   []Value
	Map    map[string]Value
}

func BoolValue(b bool) Value     { return Value{Type: TypeBool, Bool: b} }
func IntValue(i int64) Value     { return Value{Type: TypeInt, Int: i} }
func FloatValue(f float64) Value { return Value{Type: TypeFloat, Float: f} }
func StringValue(s string) Value { return Value{Type: TypeString, Str: s} }
func BytesValue(b []byte) Value  { return Value{Type: TypeBytes, Bytes: b} }
func VectorValue(v []float32) Value {
	return Value{Type: TypeVector, Vector: v}
}
func ListValue(l []Value) Value { return Value{Type: TypeList, List: l} }
func MapValue(m map[string]Value) Value {
	return Value{Type: TypeMap, Map: m}
}

// Equal compares two values structurally, used by the serialization
// round-trip property (spec §8).
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeBool:
		return v.Bool == other.Bool
	case TypeInt:
		return v.Int == other.Int
	case TypeFloat:
		return v.Float == other.Float
	case TypeString:
		return v.Str == other.Str
	case TypeBytes:
		return string(v.Bytes) == string(other.Bytes)
	case TypeVector:
		if len(v.Vector) != len(other.Vector) {
			return false
		}
		for i := range v.Vector {
			if v.Vector[i] != other.Vector[i] {
				return false
			}
		}
		return true
	case TypeList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	case TypeMap:
		if len(v.Map) != len(other.Map) {
			return false
		}
		for k, mv := range v.Map {
			ov, ok := other.Map[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.Type {
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeString:
		return v.Str
	case TypeBytes:
		return fmt.Sprintf("<%d bytes>", len(v.Bytes))
	case TypeVector:
		return fmt.Sprintf("<vector[%d]>", len(v.Vector))
	case TypeList:
		return fmt.Sprintf("<list[%d]>", len(v.List))
	case TypeMap:
		return fmt.Sprintf("<map[%d]>", len(v.Map))
	}
	return ""
}

// coerceAsBool implements the bool<->{0,1}/string coercion contract from
// spec §4.2.
func (v Value) coerceAsBool() (bool, bool) {
	switch v.Type {
	case TypeBool:
		return v.Bool, true
	case TypeInt:
		return v.Int != 0, true
	case TypeFloat:
		return v.Float != 0, true
	case TypeString:
		b, err := strconv.ParseBool(v.Str)
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

func (v Value) coerceAsInt64() (int64, bool) {
	switch v.Type {
	case TypeInt:
		return v.Int, true
	case TypeFloat:
		return int64(v.Float), true
	case TypeBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case TypeString:
		i, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(v.Str, 64)
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	}
	return 0, false
}

func (v Value) coerceAsFloat64() (float64, bool) {
	switch v.Type {
	case TypeFloat:
		return v.Float, true
	case TypeInt:
		return float64(v.Int), true
	case TypeBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case TypeString:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// CoerceBool, CoerceInt64, CoerceFloat64 and CoerceString implement the
// get_value<T> coercion contract from spec §4.2 for external callers
// (AnalysisContext's typed getters): numeric widening, string<->number
// parsing, and bool<->{0,1} coercion. ok is false when no coercion rule
// applies, in which case the caller falls back to its default.
func (v Value) CoerceBool() (bool, bool)       { return v.coerceAsBool() }
func (v Value) CoerceInt64() (int64, bool)     { return v.coerceAsInt64() }
func (v Value) CoerceFloat64() (float64, bool) { return v.coerceAsFloat64() }
func (v Value) CoerceString() (string, bool)   { return v.coerceAsString() }

func (v Value) coerceAsString() (string, bool) {
	switch v.Type {
	case TypeString:
		return v.Str, true
	case TypeInt:
		return strconv.FormatInt(v.Int, 10), true
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64), true
	case TypeBool:
		return strconv.FormatBool(v.Bool), true
	}
	return "", false
}

// ToInterface recursively unwraps v into the plain Go value its Type
// tags (bool, int64, float64, string, []byte, []float32, []interface{},
// map[string]interface{}), for callers that render a signal as JSON or
// feed it to a generic query engine.
func (v Value) ToInterface() interface{} {
	switch v.Type {
	case TypeBool:
		return v.Bool
	case TypeInt:
		return v.Int
	case TypeFloat:
		return v.Float
	case TypeString:
		return v.Str
	case TypeBytes:
		return v.Bytes
	case TypeVector:
		return v.Vector
	case TypeList:
		out := make([]interface{}, len(v.List))
		for i, item := range v.List {
			out[i] = item.ToInterface()
		}
		return out
	case TypeMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, item := range v.Map {
			out[k] = item.ToInterface()
		}
		return out
	}
	return nil
}
