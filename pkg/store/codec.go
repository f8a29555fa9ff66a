package store

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/jordigilh/imagewave/pkg/signal"
)

// EncodeProfile produces the wire form written to the profile_blob
// column: a JSON object with one entry per signal key. go-faster/jx is
// used instead of encoding/json because it is the fast-path codec the
// rest of the pack reaches for on the store's hot path.
func EncodeProfile(signals map[string]signal.Signal) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	for key, sig := range signals {
		e.FieldStart(key)
		encodeSignal(e, sig)
	}
	e.ObjEnd()
	return append([]byte(nil), e.Bytes()...)
}

// EncodeValue and DecodeValue expose the single-Value codec for the
// feedback table, whose `correction` column stores one Value rather than
// a whole signal map.
func EncodeValue(v signal.Value) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encodeValue(e, v)
	return append([]byte(nil), e.Bytes()...)
}

func DecodeValue(data []byte) (signal.Value, error) {
	d := jx.DecodeBytes(data)
	return decodeValue(d)
}

func encodeSignal(e *jx.Encoder, sig signal.Signal) {
	e.ObjStart()
	e.FieldStart("source")
	e.Str(sig.Source)
	e.FieldStart("confidence")
	e.Float64(sig.Confidence)
	e.FieldStart("timestamp_unix_ms")
	e.Int64(sig.Timestamp.UnixMilli())
	e.FieldStart("tags")
	e.ArrStart()
	for _, t := range sig.Tags {
		e.Str(t)
	}
	e.ArrEnd()
	e.FieldStart("value")
	encodeValue(e, sig.Value)
	e.ObjEnd()
}

func encodeValue(e *jx.Encoder, v signal.Value) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str(string(v.Type))
	e.FieldStart("data")
	switch v.Type {
	case signal.TypeBool:
		e.Bool(v.Bool)
	case signal.TypeInt:
		e.Int64(v.Int)
	case signal.TypeFloat:
		e.Float64(v.Float)
	case signal.TypeString:
		e.Str(v.Str)
	case signal.TypeBytes:
		e.Base64(v.Bytes)
	case signal.TypeVector:
		e.ArrStart()
		for _, f := range v.Vector {
			e.Float64(float64(f))
		}
		e.ArrEnd()
	case signal.TypeList:
		e.ArrStart()
		for _, item := range v.List {
			encodeValue(e, item)
		}
		e.ArrEnd()
	case signal.TypeMap:
		e.ObjStart()
		for k, item := range v.Map {
			e.FieldStart(k)
			encodeValue(e, item)
		}
		e.ObjEnd()
	default:
		e.Null()
	}
	e.ObjEnd()
}

// DecodeProfile parses the wire form produced by EncodeProfile back into
// a signal map. Decode errors are wrapped with go-faster/errors so
// callers can tell a corrupt blob apart from a connectivity failure.
func DecodeProfile(data []byte) (map[string]signal.Signal, error) {
	out := map[string]signal.Signal{}
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		sig, err := decodeSignal(d, key)
		if err != nil {
			return errors.Wrapf(err, "decode signal %q", key)
		}
		out[key] = sig
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode profile blob")
	}
	return out, nil
}

func decodeSignal(d *jx.Decoder, key string) (signal.Signal, error) {
	var sig signal.Signal
	sig.Key = key
	var tsMs int64
	err := d.Obj(func(d *jx.Decoder, field string) error {
		var err error
		switch field {
		case "source":
			sig.Source, err = d.Str()
		case "confidence":
			sig.Confidence, err = d.Float64()
		case "timestamp_unix_ms":
			tsMs, err = d.Int64()
		case "tags":
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				sig.Tags = append(sig.Tags, s)
				return nil
			})
		case "value":
			sig.Value, err = decodeValue(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return signal.Signal{}, err
	}
	sig.Timestamp = msToTime(tsMs)
	return sig, nil
}

func decodeValue(d *jx.Decoder) (signal.Value, error) {
	var typ string
	var out signal.Value
	err := d.Obj(func(d *jx.Decoder, field string) error {
		switch field {
		case "type":
			t, err := d.Str()
			if err != nil {
				return err
			}
			typ = t
			return nil
		case "data":
			return decodeValueData(d, signal.ValueType(typ), &out)
		default:
			return d.Skip()
		}
	})
	return out, err
}

func decodeValueData(d *jx.Decoder, typ signal.ValueType, out *signal.Value) error {
	switch typ {
	case signal.TypeBool:
		v, err := d.Bool()
		*out = signal.BoolValue(v)
		return err
	case signal.TypeInt:
		v, err := d.Int64()
		*out = signal.IntValue(v)
		return err
	case signal.TypeFloat:
		v, err := d.Float64()
		*out = signal.FloatValue(v)
		return err
	case signal.TypeString:
		v, err := d.Str()
		*out = signal.StringValue(v)
		return err
	case signal.TypeBytes:
		v, err := d.Base64()
		*out = signal.BytesValue(v)
		return err
	case signal.TypeVector:
		var vec []float32
		err := d.Arr(func(d *jx.Decoder) error {
			f, err := d.Float64()
			if err != nil {
				return err
			}
			vec = append(vec, float32(f))
			return nil
		})
		*out = signal.VectorValue(vec)
		return err
	case signal.TypeList:
		var list []signal.Value
		err := d.Arr(func(d *jx.Decoder) error {
			item, err := decodeValue(d)
			if err != nil {
				return err
			}
			list = append(list, item)
			return nil
		})
		*out = signal.ListValue(list)
		return err
	case signal.TypeMap:
		m := map[string]signal.Value{}
		err := d.Obj(func(d *jx.Decoder, key string) error {
			item, err := decodeValue(d)
			if err != nil {
				return err
			}
			m[key] = item
			return nil
		})
		*out = signal.MapValue(m)
		return err
	default:
		return d.Skip()
	}
}
