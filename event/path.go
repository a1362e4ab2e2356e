package event

import "strings"

// Lookup resolves a dotted field path against a payload map. A literal key
// match wins over traversal so flattened keys containing dots stay
// addressable. An unresolvable path returns (Null, false), never an error:
// rule conditions degrade to false on missing fields.
func Lookup(payload map[string]Value, path string) (Value, bool) {
	if v, ok := payload[path]; ok {
		return v, true
	}

	segments := strings.Split(path, ".")
	if len(segments) < 2 {
		return Null, false
	}

	v, ok := payload[segments[0]]
	if !ok {
		return Null, false
	}

	for _, seg := range segments[1:] {
		m, isMap := v.AsMap()
		if !isMap {
			return Null, false
		}
		v, ok = m[seg]
		if !ok {
			return Null, false
		}
	}

	return v, true
}

// Flatten adds dotted-path entries for every nested Map field of the
// payload, leaving the original nested values in place. Sequences are not
// descended into; they remain addressable as whole values.
func Flatten(payload map[string]Value) {
	for key, v := range payload {
		flattenInto(payload, key, v)
	}
}

func flattenInto(dst map[string]Value, prefix string, v Value) {
	m, ok := v.AsMap()
	if !ok {
		return
	}
	for k, nested := range m {
		key := prefix + "." + k
		if _, exists := dst[key]; !exists {
			dst[key] = nested
		}
		flattenInto(dst, key, nested)
	}
}
