package rule_test

import (
	"testing"

	"github.com/tandemhq/tandem/event"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/internal/entity"
	"github.com/tandemhq/tandem/rule"
)

func ticketEvent(fields map[string]event.Value) *event.Event {
	payload := map[string]event.Value{
		"ticket": event.Map(fields),
	}
	event.Flatten(payload)
	return &event.Event{
		Platform: "zendesk",
		Type:     "ticket_created",
		Payload:  payload,
	}
}

func newRule(name string, conds ...rule.Condition) *rule.Rule {
	return &rule.Rule{
		Entity:     entity.New(),
		ID:         id.NewRuleID(),
		Name:       name,
		Trigger:    rule.TriggerSpec{Platform: "zendesk", EventType: "ticket_created"},
		Conditions: conds,
		Actions:    []rule.ActionSpec{{IntegrationID: id.NewIntegrationID(), Type: "send_message"}},
		Enabled:    true,
	}
}

func TestMatchConditions(t *testing.T) {
	evt := ticketEvent(map[string]event.Value{
		"priority": event.String("urgent"),
		"score":    event.Number(87),
		"subject":  event.String("Cannot log in to dashboard"),
		"tags":     event.Sequence(event.String("vip"), event.String("billing")),
	})

	tests := []struct {
		name string
		cond rule.Condition
		want bool
	}{
		{
			name: "eq string match",
			cond: rule.Condition{Field: "ticket.priority", Operator: rule.OpEq, Value: event.String("urgent")},
			want: true,
		},
		{
			name: "eq string mismatch",
			cond: rule.Condition{Field: "ticket.priority", Operator: rule.OpEq, Value: event.String("low")},
			want: false,
		},
		{
			name: "eq never coerces number to string",
			cond: rule.Condition{Field: "ticket.score", Operator: rule.OpEq, Value: event.String("87")},
			want: false,
		},
		{
			name: "neq",
			cond: rule.Condition{Field: "ticket.priority", Operator: rule.OpNeq, Value: event.String("low")},
			want: true,
		},
		{
			name: "neq on unresolvable path is false",
			cond: rule.Condition{Field: "ticket.missing", Operator: rule.OpNeq, Value: event.String("x")},
			want: false,
		},
		{
			name: "gt",
			cond: rule.Condition{Field: "ticket.score", Operator: rule.OpGt, Value: event.Number(50)},
			want: true,
		},
		{
			name: "gt against non-number is false",
			cond: rule.Condition{Field: "ticket.priority", Operator: rule.OpGt, Value: event.Number(50)},
			want: false,
		},
		{
			name: "lt",
			cond: rule.Condition{Field: "ticket.score", Operator: rule.OpLt, Value: event.Number(50)},
			want: false,
		},
		{
			name: "contains substring",
			cond: rule.Condition{Field: "ticket.subject", Operator: rule.OpContains, Value: event.String("log in")},
			want: true,
		},
		{
			name: "contains sequence member",
			cond: rule.Condition{Field: "ticket.tags", Operator: rule.OpContains, Value: event.String("vip")},
			want: true,
		},
		{
			name: "contains missing member",
			cond: rule.Condition{Field: "ticket.tags", Operator: rule.OpContains, Value: event.String("enterprise")},
			want: false,
		},
		{
			name: "matches regex",
			cond: rule.Condition{Field: "ticket.subject", Operator: rule.OpMatches, Value: event.String(`(?i)cannot log ?in`)},
			want: true,
		},
		{
			name: "matches invalid pattern is false",
			cond: rule.Condition{Field: "ticket.subject", Operator: rule.OpMatches, Value: event.String(`([`)},
			want: false,
		},
		{
			name: "unresolvable path is false",
			cond: rule.Condition{Field: "ticket.requester.email", Operator: rule.OpEq, Value: event.String("a@b.c")},
			want: false,
		},
	}

	m := rule.NewMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRule("r", tt.cond)
			got := m.Match([]*rule.Rule{r}, evt)
			if matched := len(got) == 1; matched != tt.want {
				t.Errorf("matched = %v, want %v", matched, tt.want)
			}
		})
	}
}

func TestMatchAllConditionsMustHold(t *testing.T) {
	evt := ticketEvent(map[string]event.Value{
		"priority": event.String("urgent"),
		"status":   event.String("open"),
	})

	r := newRule("both",
		rule.Condition{Field: "ticket.priority", Operator: rule.OpEq, Value: event.String("urgent")},
		rule.Condition{Field: "ticket.status", Operator: rule.OpEq, Value: event.String("closed")},
	)

	m := rule.NewMatcher()
	if got := m.Match([]*rule.Rule{r}, evt); len(got) != 0 {
		t.Fatal("rule matched with one failing condition")
	}
}

func TestMatchFiltersTriggerAndEnabled(t *testing.T) {
	evt := ticketEvent(nil)
	m := rule.NewMatcher()

	disabled := newRule("disabled")
	disabled.Enabled = false

	wrongPlatform := newRule("platform")
	wrongPlatform.Trigger.Platform = "freshdesk"

	wrongType := newRule("type")
	wrongType.Trigger.EventType = "ticket_solved"

	hit := newRule("hit")

	got := m.Match([]*rule.Rule{disabled, wrongPlatform, wrongType, hit}, evt)
	if len(got) != 1 || got[0].Name != "hit" {
		t.Fatalf("Match() = %d rules, want only %q", len(got), "hit")
	}
}

func TestMatchOrderIsAscendingID(t *testing.T) {
	evt := ticketEvent(nil)
	m := rule.NewMatcher()

	// IDs are K-sortable, so creation order is ID order.
	first := newRule("first")
	second := newRule("second")
	third := newRule("third")

	got := m.Match([]*rule.Rule{third, first, second}, evt)
	if len(got) != 3 {
		t.Fatalf("Match() = %d rules, want 3", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Name != want {
			t.Errorf("Match()[%d] = %q, want %q", i, got[i].Name, want)
		}
	}
}

func TestEmptyConditionsAlwaysFire(t *testing.T) {
	evt := ticketEvent(nil)
	m := rule.NewMatcher()

	if got := m.Match([]*rule.Rule{newRule("open")}, evt); len(got) != 1 {
		t.Fatal("rule with no conditions did not fire")
	}
}
