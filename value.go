package dynform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the dynamic type held by a Value.
type ValueKind uint8

const (
	KindAbsent ValueKind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one submitted field value. The zero Value is absent.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []Value
	obj  map[string]any
}

func Absent() Value             { return Value{} }
func Null() Value               { return Value{kind: KindNull} }
func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func NumberValue(n float64) Value {
	return Value{kind: KindNumber, num: n}
}
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// ListValue builds a list from its elements.
func ListValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// StringsValue builds a list of strings, the shape of a multi-select answer.
func StringsValue(items ...string) Value {
	list := make([]Value, len(items))
	for i, s := range items {
		list[i] = StringValue(s)
	}
	return Value{kind: KindList, list: list}
}

// ObjectValue wraps a nested JSON object. The engine never accepts objects but
// they are kept so submissions round-trip.
func ObjectValue(m map[string]any) Value {
	if m == nil {
		m = map[string]any{}
	}
	return Value{kind: KindObject, obj: m}
}

// ValueOf converts a decoded JSON value (or a plain Go scalar, slice or map)
// into a Value. Unsupported types become objects rendered through fmt.
func ValueOf(x any) Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case string:
		return StringValue(v)
	case bool:
		return BoolValue(v)
	case float64:
		return NumberValue(v)
	case float32:
		return NumberValue(float64(v))
	case int:
		return NumberValue(float64(v))
	case int8:
		return NumberValue(float64(v))
	case int16:
		return NumberValue(float64(v))
	case int32:
		return NumberValue(float64(v))
	case int64:
		return NumberValue(float64(v))
	case uint:
		return NumberValue(float64(v))
	case uint8:
		return NumberValue(float64(v))
	case uint16:
		return NumberValue(float64(v))
	case uint32:
		return NumberValue(float64(v))
	case uint64:
		return NumberValue(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return StringValue(v.String())
		}
		return NumberValue(f)
	case []string:
		return StringsValue(v...)
	case []any:
		list := make([]Value, len(v))
		for i, item := range v {
			list[i] = ValueOf(item)
		}
		return ListValue(list...)
	case map[string]any:
		return ObjectValue(v)
	default:
		return ObjectValue(map[string]any{"value": fmt.Sprint(v)})
	}
}

func (v Value) Kind() ValueKind { return v.kind }

// IsNil reports whether the value is absent or null.
func (v Value) IsNil() bool { return v.kind == KindAbsent || v.kind == KindNull }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }
func (v Value) AsBool() (bool, bool)      { return v.b, v.kind == KindBool }

// AsList returns the list elements. The slice must not be modified.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsStrings returns the list elements as strings when every element is one.
func (v Value) AsStrings() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]string, len(v.list))
	for i, item := range v.list {
		s, ok := item.AsString()
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// String renders the value the way it appears inside messages.
func (v Value) String() string {
	switch v.kind {
	case KindAbsent:
		return "undefined"
	case KindNull:
		return "null"
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			if !item.IsNil() {
				parts[i] = item.String()
			}
		}
		return strings.Join(parts, ",")
	default:
		data, err := json.Marshal(v.obj)
		if err != nil {
			return fmt.Sprint(v.obj)
		}
		return string(data)
	}
}

// Interface converts the value back into plain decoded-JSON form. Absent
// values convert to nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		return v.obj
	default:
		return nil
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		a, errA := json.Marshal(v.obj)
		b, errB := json.Marshal(other.obj)
		return errA == nil && errB == nil && bytes.Equal(a, b)
	default:
		return true
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = ValueOf(raw)
	return nil
}

// ValueSet maps field ids to submitted values.
type ValueSet map[string]Value

// ValueSetFromMap converts a decoded JSON object into a ValueSet.
func ValueSetFromMap(m map[string]any) ValueSet {
	vs := make(ValueSet, len(m))
	for k, x := range m {
		vs[k] = ValueOf(x)
	}
	return vs
}

// Get returns the value for id, or an absent Value.
func (vs ValueSet) Get(id string) Value {
	if vs == nil {
		return Absent()
	}
	return vs[id]
}

// ToMap converts the set back into plain decoded-JSON form. Absent entries
// are dropped.
func (vs ValueSet) ToMap() map[string]any {
	out := make(map[string]any, len(vs))
	for k, v := range vs {
		if v.kind == KindAbsent {
			continue
		}
		out[k] = v.Interface()
	}
	return out
}

// Clone returns a shallow copy of the set.
func (vs ValueSet) Clone() ValueSet {
	out := make(ValueSet, len(vs))
	for k, v := range vs {
		out[k] = v
	}
	return out
}

func (vs ValueSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(vs.ToMap())
}

// UnmarshalJSON requires a JSON object; numbers keep full precision until
// they are converted to float64.
func (vs *ValueSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch m := raw.(type) {
	case map[string]any:
		*vs = ValueSetFromMap(m)
		return nil
	case nil:
		*vs = nil
		return nil
	default:
		return fmt.Errorf("value set must be a JSON object, got %T", raw)
	}
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if math.IsNaN(n) {
		return "NaN"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
