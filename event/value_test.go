package event_test

import (
	"encoding/json"
	"testing"

	"github.com/tandemhq/tandem/event"
)

func TestFromJSONKinds(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want event.Kind
	}{
		{"nil", nil, event.KindNull},
		{"string", "hello", event.KindString},
		{"number", 42.5, event.KindNumber},
		{"bool", true, event.KindBool},
		{"map", map[string]any{"a": 1.0}, event.KindMap},
		{"sequence", []any{"a", "b"}, event.KindSequence},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := event.FromJSON(tc.in).Kind(); got != tc.want {
				t.Fatalf("expected kind %v, got %v", tc.want, got)
			}
		})
	}
}

func TestEqualCrossKindIsFalse(t *testing.T) {
	// "3" and 3 must not compare equal; conditions never coerce types.
	if event.String("3").Equal(event.Number(3)) {
		t.Fatal("string and number must not be equal")
	}
	if event.Bool(true).Equal(event.String("true")) {
		t.Fatal("bool and string must not be equal")
	}
	if event.Null.Equal(event.String("")) {
		t.Fatal("null and empty string must not be equal")
	}
}

func TestEqualStructural(t *testing.T) {
	a := event.FromJSON(map[string]any{
		"tags": []any{"vip", "urgent"},
		"ticket": map[string]any{
			"id": 42.0,
		},
	})
	b := event.FromJSON(map[string]any{
		"ticket": map[string]any{
			"id": 42.0,
		},
		"tags": []any{"vip", "urgent"},
	})
	if !a.Equal(b) {
		t.Fatal("expected structural equality regardless of key order")
	}

	c := event.FromJSON(map[string]any{
		"tags":   []any{"urgent", "vip"}, // order matters in sequences
		"ticket": map[string]any{"id": 42.0},
	})
	if a.Equal(c) {
		t.Fatal("sequences with different order must not be equal")
	}
}

func TestText(t *testing.T) {
	cases := []struct {
		name string
		v    event.Value
		want string
	}{
		{"null", event.Null, ""},
		{"string", event.String("hi"), "hi"},
		{"integral number", event.Number(42), "42"},
		{"fractional number", event.Number(2.5), "2.5"},
		{"bool", event.Bool(true), "true"},
		{"sequence", event.Sequence(event.String("a"), event.Number(1)), "a, 1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.Text(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestValueJSONRoundTrip(t *testing.T) {
	raw := []byte(`{"ticket":{"id":7,"tags":["vip"],"open":true,"assignee":null}}`)

	var v event.Value
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatal(err)
	}

	m, ok := v.AsMap()
	if !ok {
		t.Fatal("expected map")
	}
	ticket, ok := m["ticket"].AsMap()
	if !ok {
		t.Fatal("expected nested map")
	}
	if id, _ := ticket["id"].Num(); id != 7 {
		t.Fatalf("expected id 7, got %v", id)
	}
	if !ticket["assignee"].IsNull() {
		t.Fatal("expected null assignee")
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var v2 event.Value
	if err := json.Unmarshal(out, &v2); err != nil {
		t.Fatal(err)
	}
	if !v.Equal(v2) {
		t.Fatal("round trip changed the value")
	}
}
