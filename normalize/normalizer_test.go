package normalize

import (
	"errors"
	"testing"
)

func TestRegistryNormalize(t *testing.T) {
	r := Defaults()

	tests := []struct {
		name      string
		platform  string
		body      string
		wantType  string
		wantErr   error
		wantField string
		wantValue string
	}{
		{
			name:      "zendesk mapped event",
			platform:  "zendesk",
			body:      `{"type":"ticket.created","ticket":{"priority":"urgent","status":"open"}}`,
			wantType:  "ticket_created",
			wantField: "ticket.priority",
			wantValue: "urgent",
		},
		{
			name:     "zendesk unmapped event passes through",
			platform: "zendesk",
			body:     `{"type":"ticket.merged"}`,
			wantType: "ticket.merged",
		},
		{
			name:     "zendesk missing discriminator",
			platform: "zendesk",
			body:     `{"ticket":{"id":1}}`,
			wantErr:  ErrMalformed,
		},
		{
			name:      "freshdesk mapped event",
			platform:  "freshdesk",
			body:      `{"event_type":"ticket_create","ticket":{"subject":"printer on fire"}}`,
			wantType:  "ticket_created",
			wantField: "ticket.subject",
			wantValue: "printer on fire",
		},
		{
			name:     "freshdesk legacy payload infers from ticket object",
			platform: "freshdesk",
			body:     `{"ticket":{"id":42}}`,
			wantType: "ticket_updated",
		},
		{
			name:     "freshdesk empty object",
			platform: "freshdesk",
			body:     `{}`,
			wantErr:  ErrMalformed,
		},
		{
			name:      "slack event callback",
			platform:  "slack",
			body:      `{"type":"event_callback","event":{"type":"message","text":"hello"}}`,
			wantType:  "message",
			wantField: "event.text",
			wantValue: "hello",
		},
		{
			name:     "slack url verification",
			platform: "slack",
			body:     `{"type":"url_verification","challenge":"abc123"}`,
			wantType: "url_verification",
		},
		{
			name:     "slack callback without inner type",
			platform: "slack",
			body:     `{"type":"event_callback","event":{}}`,
			wantErr:  ErrMalformed,
		},
		{
			name:      "trello card created",
			platform:  "trello",
			body:      `{"action":{"type":"createCard","data":{"card":{"name":"Fix login"}}}}`,
			wantType:  "card_created",
			wantField: "action.data.card.name",
			wantValue: "Fix login",
		},
		{
			name:     "trello missing action",
			platform: "trello",
			body:     `{"model":{}}`,
			wantErr:  ErrMalformed,
		},
		{
			name:     "invalid json",
			platform: "zendesk",
			body:     `{"type":`,
			wantErr:  ErrMalformed,
		},
		{
			name:     "unknown platform",
			platform: "jira",
			body:     `{}`,
			wantErr:  ErrUnknownPlatform,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := r.Normalize(tt.platform, []byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Normalize() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if evt.Platform != tt.platform {
				t.Errorf("Platform = %q, want %q", evt.Platform, tt.platform)
			}
			if evt.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", evt.Type, tt.wantType)
			}
			if tt.wantField != "" {
				v, ok := evt.Lookup(tt.wantField)
				if !ok {
					t.Fatalf("Lookup(%q) not found", tt.wantField)
				}
				if v.Text() != tt.wantValue {
					t.Errorf("Lookup(%q) = %q, want %q", tt.wantField, v.Text(), tt.wantValue)
				}
			}
			if len(evt.Raw) == 0 {
				t.Error("Raw body not preserved")
			}
		})
	}
}

func TestRegistryPlatforms(t *testing.T) {
	r := Defaults()
	got := r.Platforms()
	if len(got) != 4 {
		t.Fatalf("Platforms() returned %d entries, want 4", len(got))
	}

	seen := make(map[string]bool, len(got))
	for _, p := range got {
		seen[p] = true
	}
	for _, want := range []string{"freshdesk", "zendesk", "slack", "trello"} {
		if !seen[want] {
			t.Errorf("Platforms() missing %q", want)
		}
	}
}
