package primitives

import "fmt"

// DataType names the type carried by a data port, outcome-error slot, or
// scoped variable. Assignability (used by data-flow TypeMismatch checks) is
// defined in Assignable below: identical types are always assignable, Any
// accepts and is accepted by everything, and Int widens to Float. No other
// cross-type assignment is permitted.
type DataType string

const (
	TypeAny    DataType = "any"
	TypeBool   DataType = "bool"
	TypeInt    DataType = "int"
	TypeFloat  DataType = "float"
	TypeString DataType = "string"
	TypeBytes  DataType = "bytes"
	TypeList   DataType = "list"
	TypeMap    DataType = "map"
)

// Assignable reports whether a value of type `from` may flow into a port of
// type `to` (e.g. across a data-flow edge).
func Assignable(from, to DataType) bool {
	if from == to || from == TypeAny || to == TypeAny {
		return true
	}
	if from == TypeInt && to == TypeFloat {
		return true
	}
	return false
}

// Value is the tagged-union payload carried on ports, outcomes' error slot,
// and scoped variables. It serializes losslessly to both JSON and YAML so it
// can round-trip through the snapshot persister's JSON and YAML encodings
// (encoding/json and gopkg.in/yaml.v3).
type Value struct {
	Type DataType `json:"type" yaml:"type"`
	Bool bool     `json:"bool,omitempty" yaml:"bool,omitempty"`
	Int  int64    `json:"int,omitempty" yaml:"int,omitempty"`
	Float float64 `json:"float,omitempty" yaml:"float,omitempty"`
	Str   string  `json:"str,omitempty" yaml:"str,omitempty"`
	Bytes []byte  `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	List  []Value `json:"list,omitempty" yaml:"list,omitempty"`
	Map   map[string]Value `json:"map,omitempty" yaml:"map,omitempty"`
}

// Null is the zero Value: type Any, carrying no payload.
var Null = Value{Type: TypeAny}

// IsNull reports whether v represents the null/missing value.
func (v Value) IsNull() bool {
	return v.Type == TypeAny && v.Bool == false && v.Int == 0 && v.Float == 0 &&
		v.Str == "" && v.Bytes == nil && v.List == nil && v.Map == nil
}

func BoolValue(b bool) Value     { return Value{Type: TypeBool, Bool: b} }
func IntValue(i int64) Value     { return Value{Type: TypeInt, Int: i} }
func FloatValue(f float64) Value { return Value{Type: TypeFloat, Float: f} }
func StringValue(s string) Value { return Value{Type: TypeString, Str: s} }
func BytesValue(b []byte) Value  { return Value{Type: TypeBytes, Bytes: b} }
func ListValue(l []Value) Value  { return Value{Type: TypeList, List: l} }
func MapValue(m map[string]Value) Value { return Value{Type: TypeMap, Map: m} }

// ErrorValue packages a Go error as the Value placed at a state's "error"
// output port when a leaf raises an error.
func ErrorValue(err error) Value {
	if err == nil {
		return Null
	}
	return StringValue(err.Error())
}

// Native converts Value back to a plain Go value (any), the shape leaf
// procedures see in their inputs/outputs maps.
func (v Value) Native() any {
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
	case TypeList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = e.Native()
		}
		return out
	case TypeMap:
		out := make(map[string]any, len(v.Map))
		for k, e := range v.Map {
			out[k] = e.Native()
		}
		return out
	default:
		return nil
	}
}

// FromNative lifts a plain Go value into Value, inferring DataType. Unknown
// concrete types are stored as their fmt.Sprintf("%v") string form rather
// than rejected.
func FromNative(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case float64:
		return FloatValue(t)
	case string:
		return StringValue(t)
	case []byte:
		return BytesValue(t)
	case []any:
		list := make([]Value, len(t))
		for i, e := range t {
			list[i] = FromNative(e)
		}
		return ListValue(list)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromNative(e)
		}
		return MapValue(m)
	default:
		return StringValue(fmt.Sprintf("%v", t))
	}
}
