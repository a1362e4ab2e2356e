package rule

import (
	"regexp"

	"github.com/tandemhq/tandem/event"
)

// placeholderRe matches {{field.path}} placeholders in action parameters.
var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// RenderParams resolves {{field.path}} placeholders in string parameters
// against the event payload, recursing into nested maps and slices. Paths
// that do not resolve substitute the empty string and are reported so the
// dispatch record can surface them.
func RenderParams(params map[string]any, evt *event.Event) (map[string]any, []string) {
	var unresolved []string
	out := renderMap(params, evt, &unresolved)
	return out, unresolved
}

func renderMap(m map[string]any, evt *event.Event, unresolved *[]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = renderValue(v, evt, unresolved)
	}
	return out
}

func renderValue(v any, evt *event.Event, unresolved *[]string) any {
	switch x := v.(type) {
	case string:
		return renderString(x, evt, unresolved)
	case map[string]any:
		return renderMap(x, evt, unresolved)
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			out[i] = renderValue(elem, evt, unresolved)
		}
		return out
	default:
		return v
	}
}

func renderString(s string, evt *event.Event, unresolved *[]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		path := placeholderRe.FindStringSubmatch(match)[1]
		val, ok := evt.Lookup(path)
		if !ok {
			*unresolved = append(*unresolved, path)
			return ""
		}
		return val.Text()
	})
}

// Placeholders returns the distinct placeholder paths referenced by the
// parameters, in no particular order.
func Placeholders(params map[string]any) []string {
	seen := make(map[string]bool)
	collectPlaceholders(params, seen)

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	return out
}

func collectPlaceholders(v any, seen map[string]bool) {
	switch x := v.(type) {
	case string:
		for _, m := range placeholderRe.FindAllStringSubmatch(x, -1) {
			seen[m[1]] = true
		}
	case map[string]any:
		for _, elem := range x {
			collectPlaceholders(elem, seen)
		}
	case []any:
		for _, elem := range x {
			collectPlaceholders(elem, seen)
		}
	}
}
