package event

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the variants of a Value.
type Kind int

const (
	// KindNull is the JSON null value.
	KindNull Kind = iota

	// KindString is a string value.
	KindString

	// KindNumber is a numeric value (JSON numbers decode to float64).
	KindNumber

	// KindBool is a boolean value.
	KindBool

	// KindMap is a nested object.
	KindMap

	// KindSequence is an array.
	KindSequence
)

// Value is a tagged union over the JSON value space. Payload fields are held
// as Values so condition evaluation never coerces types silently: a numeric
// comparison against a string operand is false, not a runtime surprise.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	m    map[string]Value
	seq  []Value
}

// Null is the null Value.
var Null = Value{kind: KindNull}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Map returns an object Value.
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// Sequence returns an array Value.
func Sequence(vals ...Value) Value { return Value{kind: KindSequence, seq: vals} }

// FromJSON converts a decoded JSON value (the output of encoding/json into
// `any`) into a Value. Unknown Go types render through fmt as strings.
func FromJSON(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case string:
		return String(x)
	case float64:
		return Number(x)
	case bool:
		return Bool(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return String(x.String())
		}
		return Number(n)
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, mv := range x {
			m[k] = FromJSON(mv)
		}
		return Map(m)
	case []any:
		seq := make([]Value, len(x))
		for i, sv := range x {
			seq[i] = FromJSON(sv)
		}
		return Value{kind: KindSequence, seq: seq}
	default:
		return String(fmt.Sprint(x))
	}
}

// Kind returns the variant tag of this Value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether this Value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload and whether the Value is a string.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Num returns the numeric payload and whether the Value is a number.
func (v Value) Num() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Boolean returns the bool payload and whether the Value is a bool.
func (v Value) Boolean() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsMap returns the map payload and whether the Value is an object.
func (v Value) AsMap() (map[string]Value, bool) {
	return v.m, v.kind == KindMap
}

// AsSequence returns the array payload and whether the Value is a sequence.
func (v Value) AsSequence() ([]Value, bool) {
	return v.seq, v.kind == KindSequence
}

// Equal reports structural equality between two Values. Values of different
// kinds are never equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, mv := range v.m {
			ov, ok := other.m[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	case KindSequence:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for i, sv := range v.seq {
			if !sv.Equal(other.seq[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Text renders the Value as a string for template substitution and regex
// matching. Numbers render without a trailing ".0" for integral values;
// null renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindSequence:
		parts := make([]string, len(v.seq))
		for i, sv := range v.seq {
			parts[i] = sv.Text()
		}
		return strings.Join(parts, ", ")
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + v.m[k].Text()
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// Interface converts the Value back into the plain decoded-JSON
// representation (string, float64, bool, nil, map[string]any, []any).
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindMap:
		m := make(map[string]any, len(v.m))
		for k, mv := range v.m {
			m[k] = mv.Interface()
		}
		return m
	case KindSequence:
		seq := make([]any, len(v.seq))
		for i, sv := range v.seq {
			seq[i] = sv.Interface()
		}
		return seq
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromJSON(raw)
	return nil
}
