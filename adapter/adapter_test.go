package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tandemhq/tandem/integration"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		want   any
		retry  bool
	}{
		{name: "unauthorized", status: 401, want: &AuthError{}},
		{name: "forbidden", status: 403, want: &AuthError{}},
		{name: "not found", status: 404, want: &NotFoundError{}},
		{name: "unprocessable", status: 422, want: &ValidationError{}},
		{name: "server error", status: 500, want: &TransientError{}, retry: true},
		{name: "bad gateway", status: 502, want: &TransientError{}, retry: true},
		{
			name:   "rate limited with header",
			status: 429,
			header: http.Header{"Retry-After": []string{"30"}},
			want:   &RateLimitedError{},
			retry:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("slack", tt.status, "", tt.header)
			if err == nil {
				t.Fatal("classify() returned nil for non-2xx status")
			}
			switch tt.want.(type) {
			case *AuthError:
				var e *AuthError
				if !errors.As(err, &e) {
					t.Fatalf("classify() = %T, want *AuthError", err)
				}
			case *NotFoundError:
				var e *NotFoundError
				if !errors.As(err, &e) {
					t.Fatalf("classify() = %T, want *NotFoundError", err)
				}
			case *ValidationError:
				var e *ValidationError
				if !errors.As(err, &e) {
					t.Fatalf("classify() = %T, want *ValidationError", err)
				}
			case *TransientError:
				var e *TransientError
				if !errors.As(err, &e) {
					t.Fatalf("classify() = %T, want *TransientError", err)
				}
			case *RateLimitedError:
				var e *RateLimitedError
				if !errors.As(err, &e) {
					t.Fatalf("classify() = %T, want *RateLimitedError", err)
				}
				if e.RetryAfter != 30*time.Second {
					t.Errorf("RetryAfter = %s, want 30s", e.RetryAfter)
				}
			}
			if Retryable(err) != tt.retry {
				t.Errorf("Retryable() = %v, want %v", Retryable(err), tt.retry)
			}
		})
	}
}

func TestClassifySuccess(t *testing.T) {
	if err := classify("slack", 200, "", nil); err != nil {
		t.Fatalf("classify(200) = %v", err)
	}
}

func TestRetryAfterHint(t *testing.T) {
	if _, ok := RetryAfterHint(&TransientError{}); ok {
		t.Error("transient error reported a retry hint")
	}
	d, ok := RetryAfterHint(&RateLimitedError{RetryAfter: 5 * time.Second})
	if !ok || d != 5*time.Second {
		t.Errorf("RetryAfterHint() = %s, %v, want 5s, true", d, ok)
	}
}

func TestSlackSendMessage(t *testing.T) {
	var got struct {
		Channel string `json:"channel"`
		Text    string `json:"text"`
	}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.postMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	s := NewSlack(WithBaseURL(srv.URL))
	acct := Account{
		Config:     map[string]string{"channel": "#support"},
		Credential: integration.Credential{Token: "xoxb-test"},
	}

	err := s.Execute(context.Background(), "send_message", map[string]any{"text": "hello"}, acct)
	if err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer xoxb-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Channel != "#support" || got.Text != "hello" {
		t.Errorf("posted %+v", got)
	}
}

func TestSlackInBandError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
	}))
	defer srv.Close()

	s := NewSlack(WithBaseURL(srv.URL))
	err := s.Execute(context.Background(), "send_message",
		map[string]any{"text": "hi", "channel": "#nope"}, Account{})

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if Retryable(err) {
		t.Error("not-found reported as retryable")
	}
}

func TestSlackAuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "invalid_auth"})
	}))
	defer srv.Close()

	s := NewSlack(WithBaseURL(srv.URL))
	err := s.TestConnection(context.Background(), Account{})

	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
}

func TestSlackDirectMessageByEmail(t *testing.T) {
	var posted struct {
		Channel string `json:"channel"`
		Text    string `json:"text"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users.lookupByEmail":
			if got := r.URL.Query().Get("email"); got != "dana@acme.test" {
				t.Errorf("email = %q", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":   true,
				"user": map[string]any{"id": "U042"},
			})
		case "/chat.postMessage":
			_ = json.NewDecoder(r.Body).Decode(&posted)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	s := NewSlack(WithBaseURL(srv.URL))
	err := s.Execute(context.Background(), "send_direct_message",
		map[string]any{"user_email": "dana@acme.test", "text": "your ticket is solved"}, Account{})
	if err != nil {
		t.Fatal(err)
	}
	if posted.Channel != "U042" || posted.Text != "your ticket is solved" {
		t.Errorf("posted %+v", posted)
	}
}

func TestSlackDirectMessageUnknownEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "users_not_found"})
	}))
	defer srv.Close()

	s := NewSlack(WithBaseURL(srv.URL))
	err := s.Execute(context.Background(), "send_direct_message",
		map[string]any{"user_email": "ghost@acme.test", "text": "hi"}, Account{})

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
}

func TestSlackDirectMessageNeedsTarget(t *testing.T) {
	s := NewSlack()
	err := s.Execute(context.Background(), "send_direct_message",
		map[string]any{"text": "hi"}, Account{})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}

func TestSlackCreateChannel(t *testing.T) {
	var got struct {
		Name string `json:"name"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations.create" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	s := NewSlack(WithBaseURL(srv.URL))
	err := s.Execute(context.Background(), "create_channel",
		map[string]any{"name": "Incident Review 2026.08"}, Account{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "incident-review-2026-08" {
		t.Errorf("name = %q, want sanitized channel name", got.Name)
	}
}

func TestChannelName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"support", "support"},
		{"Support Ops", "support-ops"},
		{"v2.1 rollout", "v2-1-rollout"},
		{"already_ok-123", "already_ok-123"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := channelName(tt.in); got != tt.want {
			t.Errorf("channelName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestZendeskCreateTicket(t *testing.T) {
	var got struct {
		Ticket struct {
			Subject string `json:"subject"`
			Comment struct {
				Body string `json:"body"`
			} `json:"comment"`
			Priority string   `json:"priority"`
			Tags     []string `json:"tags"`
		} `json:"ticket"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v2/tickets.json" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	z := NewZendesk(WithBaseURL(srv.URL))
	acct := Account{Config: map[string]string{"subdomain": "acme"}}

	err := z.Execute(context.Background(), "create_ticket", map[string]any{
		"subject":     "Printer on fire",
		"description": "Third floor, again.",
		"priority":    "urgent",
		"tags":        []any{"hardware"},
	}, acct)
	if err != nil {
		t.Fatal(err)
	}
	if got.Ticket.Subject != "Printer on fire" || got.Ticket.Comment.Body != "Third floor, again." {
		t.Errorf("created %+v", got.Ticket)
	}
	if got.Ticket.Priority != "urgent" || len(got.Ticket.Tags) != 1 {
		t.Errorf("created %+v", got.Ticket)
	}
}

func TestZendeskAddTagsMergesExisting(t *testing.T) {
	var updated struct {
		Ticket struct {
			Tags []string `json:"tags"`
		} `json:"ticket"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/tickets/17.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ticket": map[string]any{"tags": []string{"vip", "hardware"}},
			})
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&updated)
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("method = %s", r.Method)
		}
	}))
	defer srv.Close()

	z := NewZendesk(WithBaseURL(srv.URL))
	acct := Account{Config: map[string]string{"subdomain": "acme"}}

	err := z.Execute(context.Background(), "add_tags", map[string]any{
		"ticket_id": "17",
		"tags":      []any{"escalated", "vip"},
	}, acct)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"vip", "hardware", "escalated"}
	if len(updated.Ticket.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", updated.Ticket.Tags, want)
	}
	for i, tag := range want {
		if updated.Ticket.Tags[i] != tag {
			t.Fatalf("tags = %v, want %v", updated.Ticket.Tags, want)
		}
	}
}

func TestNotionUpdatePage(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/v1/pages/page-9" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	n := NewNotion(WithBaseURL(srv.URL))
	err := n.Execute(context.Background(), "update_page", map[string]any{
		"page_id":  "page-9",
		"title":    "Postmortem draft",
		"archived": true,
	}, Account{})
	if err != nil {
		t.Fatal(err)
	}
	if got["archived"] != true {
		t.Errorf("archived = %v", got["archived"])
	}
	if _, ok := got["properties"]; !ok {
		t.Error("title update missing from properties")
	}
}

func TestNotionUpdatePageNeedsChange(t *testing.T) {
	n := NewNotion()
	err := n.Execute(context.Background(), "update_page",
		map[string]any{"page_id": "page-9"}, Account{})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}

func TestSheetsUpdateRow(t *testing.T) {
	var got struct {
		Values         [][]any `json:"values"`
		MajorDimension string  `json:"majorDimension"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/v4/spreadsheets/sheet-1/values/Log!A2:C2" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			t.Errorf("valueInputOption = %q", r.URL.Query().Get("valueInputOption"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sh := NewSheets(WithBaseURL(srv.URL))
	acct := Account{Config: map[string]string{"spreadsheet_id": "sheet-1"}}

	err := sh.Execute(context.Background(), "update_row", map[string]any{
		"range":  "Log!A2:C2",
		"values": []any{"17", "solved", "2026-08-28"},
	}, acct)
	if err != nil {
		t.Fatal(err)
	}
	if got.MajorDimension != "ROWS" || len(got.Values) != 1 || len(got.Values[0]) != 3 {
		t.Errorf("body = %+v", got)
	}
}

func TestSheetsClearRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v4/spreadsheets/sheet-1/values/Log!A2:C2:clear" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sh := NewSheets(WithBaseURL(srv.URL))
	acct := Account{Config: map[string]string{"spreadsheet_id": "sheet-1"}}

	err := sh.Execute(context.Background(), "clear_range", map[string]any{"range": "Log!A2:C2"}, acct)
	if err != nil {
		t.Fatal(err)
	}
}

func TestWithTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	s := NewSlack(WithBaseURL(srv.URL), WithTimeout(5*time.Millisecond))
	err := s.Execute(context.Background(), "send_message",
		map[string]any{"text": "hi", "channel": "#x"}, Account{})

	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransientError from timeout", err)
	}
}

func TestTrelloCreateCardAuthQuery(t *testing.T) {
	var query map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/cards" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		query = r.URL.Query()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewTrello(WithBaseURL(srv.URL))
	acct := Account{
		Config:     map[string]string{"list_id": "list-9"},
		Credential: integration.Credential{Token: "tok", Secondary: "key"},
	}

	err := tr.Execute(context.Background(), "create_card", map[string]any{"name": "Fix login"}, acct)
	if err != nil {
		t.Fatal(err)
	}

	for param, want := range map[string]string{
		"key": "key", "token": "tok", "idList": "list-9", "name": "Fix login",
	} {
		if got := query[param]; len(got) != 1 || got[0] != want {
			t.Errorf("query[%q] = %v, want %q", param, got, want)
		}
	}
}

func TestZendeskBasicAuth(t *testing.T) {
	var user, pass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ = r.BasicAuth()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	z := NewZendesk(WithBaseURL(srv.URL))
	acct := Account{
		Config:     map[string]string{"subdomain": "acme"},
		Credential: integration.Credential{Token: "ztok", Secondary: "ops@acme.test"},
	}

	err := z.Execute(context.Background(), "update_ticket",
		map[string]any{"ticket_id": "17", "status": "solved"}, acct)
	if err != nil {
		t.Fatal(err)
	}
	if user != "ops@acme.test/token" || pass != "ztok" {
		t.Errorf("basic auth = %q / %q", user, pass)
	}
}

func TestUnsupportedAction(t *testing.T) {
	s := NewSlack()
	err := s.Execute(context.Background(), "launch_rocket", nil, Account{})

	var ua *UnsupportedActionError
	if !errors.As(err, &ua) {
		t.Fatalf("err = %v, want *UnsupportedActionError", err)
	}
	if Retryable(err) {
		t.Error("unsupported action reported as retryable")
	}
}

func TestRegistryActionSchema(t *testing.T) {
	r := Defaults()

	schema, err := r.ActionSchema("slack", "send_message")
	if err != nil {
		t.Fatal(err)
	}
	if schema == nil {
		t.Fatal("send_message declared no schema")
	}

	if _, err := r.ActionSchema("slack", "nope"); err == nil {
		t.Error("unknown action returned no error")
	}
	if _, err := r.ActionSchema("jira", "send_message"); err == nil {
		t.Error("unknown platform returned no error")
	}
}
