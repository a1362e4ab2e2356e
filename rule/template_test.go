package rule_test

import (
	"reflect"
	"sort"
	"testing"

	"github.com/tandemhq/tandem/event"
	"github.com/tandemhq/tandem/rule"
)

func TestRenderParams(t *testing.T) {
	evt := ticketEvent(map[string]event.Value{
		"id":       event.Number(4711),
		"priority": event.String("urgent"),
		"subject":  event.String("Printer on fire"),
	})

	params := map[string]any{
		"text":    "Ticket {{ticket.id}}: {{ticket.subject}} ({{ticket.priority}})",
		"channel": "#support",
		"count":   3.0,
		"nested": map[string]any{
			"title": "{{ticket.subject}}",
		},
		"labels": []any{"{{ticket.priority}}", "auto"},
	}

	got, unresolved := rule.RenderParams(params, evt)
	if len(unresolved) != 0 {
		t.Fatalf("unexpected unresolved paths: %v", unresolved)
	}

	want := map[string]any{
		"text":    "Ticket 4711: Printer on fire (urgent)",
		"channel": "#support",
		"count":   3.0,
		"nested": map[string]any{
			"title": "Printer on fire",
		},
		"labels": []any{"urgent", "auto"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RenderParams() = %#v, want %#v", got, want)
	}
}

func TestRenderParamsUnresolved(t *testing.T) {
	evt := ticketEvent(map[string]event.Value{
		"id": event.Number(1),
	})

	got, unresolved := rule.RenderParams(map[string]any{
		"text": "by {{ticket.requester.name}} about {{ticket.subject}}",
	}, evt)

	if got["text"] != "by  about " {
		t.Errorf("text = %q, want placeholders replaced with empty strings", got["text"])
	}

	sort.Strings(unresolved)
	want := []string{"ticket.requester.name", "ticket.subject"}
	if !reflect.DeepEqual(unresolved, want) {
		t.Errorf("unresolved = %v, want %v", unresolved, want)
	}
}

func TestRenderParamsDoesNotMutateInput(t *testing.T) {
	evt := ticketEvent(map[string]event.Value{"id": event.Number(1)})
	params := map[string]any{"text": "{{ticket.id}}"}

	_, _ = rule.RenderParams(params, evt)
	if params["text"] != "{{ticket.id}}" {
		t.Error("RenderParams mutated its input")
	}
}

func TestPlaceholders(t *testing.T) {
	got := rule.Placeholders(map[string]any{
		"a": "{{ticket.id}} and {{ticket.id}}",
		"b": map[string]any{"c": "{{ticket.subject}}"},
	})

	sort.Strings(got)
	want := []string{"ticket.id", "ticket.subject"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Placeholders() = %v, want %v", got, want)
	}
}
