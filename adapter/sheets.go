package adapter

import (
	"context"
	"net/url"
)

const sheetsAPIBase = "https://sheets.googleapis.com"

// Sheets executes actions against the Google Sheets API using an OAuth
// access token.
type Sheets struct {
	client
}

// NewSheets creates the Google Sheets adapter.
func NewSheets(opts ...Option) *Sheets {
	return &Sheets{client: newClient("sheets", sheetsAPIBase, opts...)}
}

// Platform implements Adapter.
func (s *Sheets) Platform() string { return "sheets" }

// Actions implements Adapter.
func (s *Sheets) Actions() []ActionDef {
	return []ActionDef{
		{
			Type:        "append_row",
			Description: "Append a row of values to a sheet.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"values"},
				"properties": map[string]any{
					"spreadsheet_id": map[string]any{"type": "string"},
					"range":          map[string]any{"type": "string"},
					"values": map[string]any{
						"type":     "array",
						"minItems": 1,
					},
				},
			},
		},
		{
			Type:        "update_row",
			Description: "Overwrite the values in a range.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"range", "values"},
				"properties": map[string]any{
					"spreadsheet_id": map[string]any{"type": "string"},
					"range":          map[string]any{"type": "string", "minLength": 1},
					"values": map[string]any{
						"type":     "array",
						"minItems": 1,
					},
				},
			},
		},
		{
			Type:        "clear_range",
			Description: "Clear the values in a range.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"range"},
				"properties": map[string]any{
					"spreadsheet_id": map[string]any{"type": "string"},
					"range":          map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
	}
}

// Execute implements Adapter.
func (s *Sheets) Execute(ctx context.Context, action string, params map[string]any, acct Account) error {
	switch action {
	case "append_row":
		return s.appendRow(ctx, params, acct)
	case "update_row":
		return s.updateRow(ctx, params, acct)
	case "clear_range":
		return s.clearRange(ctx, params, acct)
	default:
		return &UnsupportedActionError{Platform: "sheets", Action: action}
	}
}

// TestConnection implements Adapter.
func (s *Sheets) TestConnection(ctx context.Context, acct Account) error {
	spreadsheetID := acct.Config["spreadsheet_id"]
	if spreadsheetID == "" {
		return &ValidationError{Platform: "sheets", Message: "no spreadsheet_id in integration config"}
	}
	return s.do(ctx, request{
		method:  "GET",
		path:    "/v4/spreadsheets/" + spreadsheetID,
		headers: s.headers(acct),
	})
}

func (s *Sheets) appendRow(ctx context.Context, params map[string]any, acct Account) error {
	values, ok := params["values"].([]any)
	if !ok || len(values) == 0 {
		return &ValidationError{Platform: "sheets", Message: "parameter \"values\" must be a non-empty array"}
	}

	spreadsheetID := optionalParam(params, acct.Config, "spreadsheet_id")
	if spreadsheetID == "" {
		return &ValidationError{Platform: "sheets", Message: "no spreadsheet_id in parameters or integration config"}
	}
	sheetRange := optionalParam(params, acct.Config, "range")
	if sheetRange == "" {
		sheetRange = "A1"
	}

	return s.do(ctx, request{
		method: "POST",
		path:   "/v4/spreadsheets/" + spreadsheetID + "/values/" + url.PathEscape(sheetRange) + ":append",
		query: url.Values{
			"valueInputOption": []string{"USER_ENTERED"},
		},
		headers: s.headers(acct),
		body: map[string]any{
			"values": []any{values},
		},
	})
}

func (s *Sheets) updateRow(ctx context.Context, params map[string]any, acct Account) error {
	values, ok := params["values"].([]any)
	if !ok || len(values) == 0 {
		return &ValidationError{Platform: "sheets", Message: "parameter \"values\" must be a non-empty array"}
	}
	sheetRange, err := stringParam("sheets", params, "range")
	if err != nil {
		return err
	}
	spreadsheetID := optionalParam(params, acct.Config, "spreadsheet_id")
	if spreadsheetID == "" {
		return &ValidationError{Platform: "sheets", Message: "no spreadsheet_id in parameters or integration config"}
	}

	return s.do(ctx, request{
		method: "PUT",
		path:   "/v4/spreadsheets/" + spreadsheetID + "/values/" + url.PathEscape(sheetRange),
		query: url.Values{
			"valueInputOption": []string{"USER_ENTERED"},
		},
		headers: s.headers(acct),
		body: map[string]any{
			"values":         []any{values},
			"majorDimension": "ROWS",
		},
	})
}

func (s *Sheets) clearRange(ctx context.Context, params map[string]any, acct Account) error {
	sheetRange, err := stringParam("sheets", params, "range")
	if err != nil {
		return err
	}
	spreadsheetID := optionalParam(params, acct.Config, "spreadsheet_id")
	if spreadsheetID == "" {
		return &ValidationError{Platform: "sheets", Message: "no spreadsheet_id in parameters or integration config"}
	}

	return s.do(ctx, request{
		method:  "POST",
		path:    "/v4/spreadsheets/" + spreadsheetID + "/values/" + url.PathEscape(sheetRange) + ":clear",
		headers: s.headers(acct),
	})
}

func (s *Sheets) headers(acct Account) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + acct.Credential.Token,
	}
}
