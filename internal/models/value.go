package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValueKind tags the representation held by a Value.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindBool
	KindNumber
	KindString
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "none"
	}
}

// Value is a raw response value as stored. Stored values are not guaranteed to
// match their poll's type: booleans may arrive as "TRUE", numbers as strings,
// option ids as quoted literals. Coercion to the poll's type is the
// aggregator's job.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
}

// BoolValue wraps a native boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// NumberValue wraps a native number.
func NumberValue(n float64) Value { return Value{kind: KindNumber, n: n} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the representation tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNone reports whether the value is absent.
func (v Value) IsNone() bool { return v.kind == KindNone }

// Bool returns the boolean payload and whether the value is a native bool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Number returns the numeric payload and whether the value is a native number.
func (v Value) Number() (float64, bool) { return v.n, v.kind == KindNumber }

// Str returns the string payload and whether the value is a native string.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// String renders the value the way it would be shown back to a user.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// MarshalJSON encodes the value as its native JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts any JSON scalar. Arrays and objects are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case '[', '{':
		return fmt.Errorf("response value must be a scalar, got %s", data)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = NumberValue(n)
	}
	return nil
}

// UnmarshalYAML lets fixtures spell values as plain YAML scalars. A null
// field is left to the decoder, which zeroes it to the none value.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: response value must be a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!null":
		*v = Value{}
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case "!!int", "!!float":
		var n float64
		if err := node.Decode(&n); err != nil {
			return err
		}
		*v = NumberValue(n)
	default:
		*v = StringValue(node.Value)
	}
	return nil
}
