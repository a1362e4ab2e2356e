package event_test

import (
	"testing"

	"github.com/tandemhq/tandem/event"
)

func payload() map[string]event.Value {
	return map[string]event.Value{
		"ticket": event.Map(map[string]event.Value{
			"id":       event.Number(42),
			"priority": event.String("urgent"),
			"requester": event.Map(map[string]event.Value{
				"email": event.String("a@example.com"),
			}),
		}),
		"tags":        event.Sequence(event.String("vip"), event.String("billing")),
		"literal.key": event.String("flat"),
	}
}

func TestLookupNested(t *testing.T) {
	p := payload()

	v, ok := event.Lookup(p, "ticket.requester.email")
	if !ok {
		t.Fatal("expected path to resolve")
	}
	if s, _ := v.Str(); s != "a@example.com" {
		t.Fatalf("expected email, got %q", s)
	}
}

func TestLookupLiteralKeyWins(t *testing.T) {
	p := payload()
	// A key containing a dot resolves literally before traversal.
	v, ok := event.Lookup(p, "literal.key")
	if !ok {
		t.Fatal("expected literal key to resolve")
	}
	if s, _ := v.Str(); s != "flat" {
		t.Fatalf("expected flat, got %q", s)
	}
}

func TestLookupUnresolvable(t *testing.T) {
	p := payload()

	for _, path := range []string{
		"missing",
		"ticket.missing",
		"ticket.priority.deeper", // traversal into a scalar
		"tags.0",                 // sequences are not indexed
	} {
		v, ok := event.Lookup(p, path)
		if ok {
			t.Fatalf("expected %q to be unresolvable", path)
		}
		if !v.IsNull() {
			t.Fatalf("expected null for %q", path)
		}
	}
}

func TestFlatten(t *testing.T) {
	p := payload()
	event.Flatten(p)

	v, ok := p["ticket.priority"]
	if !ok {
		t.Fatal("expected flattened key")
	}
	if s, _ := v.Str(); s != "urgent" {
		t.Fatalf("expected urgent, got %q", s)
	}

	if _, ok := p["ticket.requester.email"]; !ok {
		t.Fatal("expected deep flattened key")
	}

	// The nested map stays in place alongside the flattened keys.
	if _, ok := p["ticket"].AsMap(); !ok {
		t.Fatal("expected nested map to survive flattening")
	}

	// Sequences are not descended into.
	if _, ok := p["tags.0"]; ok {
		t.Fatal("sequences must not be flattened")
	}
}
