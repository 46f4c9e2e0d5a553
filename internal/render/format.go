package render

import (
	"html"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/zcancio/aide/internal/schema"
	"github.com/zcancio/aide/internal/value"
)

// Output is pinned to English so formatting never varies with the
// machine locale.
var (
	numPrinter = message.NewPrinter(language.English)
	titleCaser = cases.Title(language.English)
)

// nullGlyph is the placeholder for null values.
const nullGlyph = "—"

// formatValue renders one typed value as escaped HTML text. The exact
// output shapes are part of the page contract:
//
//	null      → em-dash placeholder
//	bool      → ✓ / ○
//	date      → "Mar 5" (abbreviated month, day not zero-padded)
//	datetime  → "Mar 5, 3:04 PM"
//	enum      → underscores to spaces, title-cased
//	list      → comma-joined elements
//	int       → thousands-separated
//	float     → thousands-separated, exactly 2 decimals
//	otherwise → escaped string form
func formatValue(v value.Value, ft schema.FieldType) string {
	if value.IsNull(v) {
		return nullGlyph
	}

	switch ft.Kind {
	case schema.KindBool:
		if b, ok := v.(value.Bool); ok {
			return boolGlyph(bool(b))
		}
	case schema.KindDate:
		if s, ok := v.(value.String); ok {
			if t, err := schema.ParseDate(string(s)); err == nil {
				return t.Format("Jan 2")
			}
		}
	case schema.KindDatetime:
		if s, ok := v.(value.String); ok {
			if t, err := schema.ParseDatetime(string(s)); err == nil {
				return t.Format("Jan 2, 3:04 PM")
			}
		}
	case schema.KindEnum:
		if s, ok := v.(value.String); ok {
			return html.EscapeString(titleCaser.String(strings.ReplaceAll(string(s), "_", " ")))
		}
	case schema.KindList:
		if arr, ok := v.(value.Array); ok {
			parts := make([]string, len(arr))
			for i, elem := range arr {
				parts[i] = formatValue(elem, schema.FieldType{Kind: ft.Elem})
			}
			return strings.Join(parts, ", ")
		}
	case schema.KindInt:
		if n, ok := v.(value.Int); ok {
			return numPrinter.Sprintf("%d", int64(n))
		}
	case schema.KindFloat:
		switch n := v.(type) {
		case value.Float:
			return numPrinter.Sprintf("%.2f", float64(n))
		case value.Int:
			return numPrinter.Sprintf("%.2f", float64(n))
		}
	}

	// Fall through on kind mismatches too: a stale value renders as
	// its escaped string form rather than failing the page.
	return formatUntyped(v)
}

// formatUntyped infers the format from the value's own kind, for
// places without schema context (metric blocks, unknown fields).
func formatUntyped(v value.Value) string {
	switch val := v.(type) {
	case nil, value.Null:
		return nullGlyph
	case value.Bool:
		return boolGlyph(bool(val))
	case value.Int:
		return numPrinter.Sprintf("%d", int64(val))
	case value.Float:
		return numPrinter.Sprintf("%.2f", float64(val))
	case value.String:
		return html.EscapeString(string(val))
	case value.Array:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = formatUntyped(elem)
		}
		return strings.Join(parts, ", ")
	default:
		b, err := value.Marshal(v)
		if err != nil {
			return ""
		}
		return html.EscapeString(string(b))
	}
}

func boolGlyph(b bool) string {
	if b {
		return "✓"
	}
	return "○"
}

// fieldLabel prettifies a field name for table headers.
func fieldLabel(name string) string {
	return html.EscapeString(titleCaser.String(strings.ReplaceAll(name, "_", " ")))
}
