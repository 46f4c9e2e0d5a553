package render

import (
	"html"
	"sort"
	"strings"

	"github.com/zcancio/aide/internal/schema"
	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// noItemsPlaceholder is rendered in place of an empty table or list
// shell.
const noItemsPlaceholder = "No items yet."

// renderCollectionView draws the view identified by a collection_view
// block. A missing or removed view or source collection renders
// nothing: a partial page beats no page.
func (r *renderer) renderCollectionView(b *strings.Builder, viewID string) {
	view, ok := r.snap.Views[viewID]
	if !ok {
		return
	}
	col, ok := r.snap.LiveCollection(view.Source)
	if !ok {
		return
	}

	ids := filteredSortedIDs(col, view.Config)
	fields := displayFields(col, view.Config)

	if len(ids) == 0 || len(fields) == 0 {
		b.WriteString(`<p class="empty">` + noItemsPlaceholder + `</p>`)
		return
	}

	switch view.Type {
	case "list":
		r.renderList(b, col, ids, fields)
	default:
		// Table is also the fallback for unrecognized view types.
		r.renderTable(b, col, ids, fields)
	}
}

func (r *renderer) renderTable(b *strings.Builder, col *state.Collection, ids, fields []string) {
	b.WriteString(`<table class="collection">`)
	b.WriteString("<thead><tr>")
	for _, f := range fields {
		b.WriteString("<th>")
		b.WriteString(fieldLabel(f))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, id := range ids {
		ent := col.Entities[id]
		b.WriteString("<tr")
		writeStyleAttr(b, ent.Styles())
		b.WriteString(">")
		for _, f := range fields {
			ft, _ := col.Schema.Get(f)
			b.WriteString(`<td class="cell-` + ft.Base() + `">`)
			b.WriteString(formatValue(ent[f], ft))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
}

func (r *renderer) renderList(b *strings.Builder, col *state.Collection, ids, fields []string) {
	b.WriteString(`<ul class="collection-list">`)
	for _, id := range ids {
		ent := col.Entities[id]
		b.WriteString("<li")
		writeStyleAttr(b, ent.Styles())
		b.WriteString(">")
		for _, f := range fields {
			ft, _ := col.Schema.Get(f)
			b.WriteString(`<span class="field field-` + html.EscapeString(f) + `">`)
			b.WriteString(formatValue(ent[f], ft))
			b.WriteString("</span>")
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
}

// writeStyleAttr emits an inline style attribute from an entity style
// bag, keys sorted for stable output.
func writeStyleAttr(b *strings.Builder, styles value.Object) {
	if len(styles) == 0 {
		return
	}
	var parts []string
	for _, k := range styles.SortedKeys() {
		s, ok := styles.Str(k)
		if !ok {
			continue
		}
		parts = append(parts, k+": "+s)
	}
	if len(parts) == 0 {
		return
	}
	b.WriteString(` style="` + html.EscapeString(strings.Join(parts, "; ")) + `"`)
}

// displayFields returns the fields a view shows: config.show_fields
// when present, otherwise every non-underscore-prefixed schema field
// in declaration order.
func displayFields(col *state.Collection, config value.Object) []string {
	if shown, ok := config.Arr("show_fields"); ok {
		var fields []string
		for _, elem := range shown {
			s, isStr := elem.(value.String)
			if !isStr {
				continue
			}
			if col.Schema.Has(string(s)) {
				fields = append(fields, string(s))
			}
		}
		return fields
	}
	var fields []string
	for _, name := range col.Schema.Names() {
		if !strings.HasPrefix(name, "_") {
			fields = append(fields, name)
		}
	}
	return fields
}

// filteredSortedIDs applies config.filter (equality AND) before
// config.sort_by/sort_order. Nulls sort last regardless of direction.
func filteredSortedIDs(col *state.Collection, config value.Object) []string {
	ids := col.LiveEntityIDs()

	if filter, ok := config.Obj("filter"); ok && len(filter) > 0 {
		kept := ids[:0]
		for _, id := range ids {
			if entityMatches(col.Entities[id], filter) {
				kept = append(kept, id)
			}
		}
		ids = kept
	}

	sortBy, ok := config.Str("sort_by")
	if !ok || sortBy == "" {
		return ids
	}
	ft, _ := col.Schema.Get(sortBy)
	desc := false
	if order, ok := config.Str("sort_order"); ok && strings.EqualFold(order, "desc") {
		desc = true
	}

	sort.SliceStable(ids, func(i, j int) bool {
		a := col.Entities[ids[i]][sortBy]
		b := col.Entities[ids[j]][sortBy]
		aNull, bNull := value.IsNull(a), value.IsNull(b)
		if aNull || bNull {
			return !aNull && bNull // nulls last, both directions
		}
		less := valueLess(a, b, ft)
		if desc {
			return valueLess(b, a, ft)
		}
		return less
	})
	return ids
}

func entityMatches(ent state.Entity, filter value.Object) bool {
	for k, want := range filter {
		got, ok := ent[k]
		if !ok || !value.Equal(got, want) {
			return false
		}
	}
	return true
}

// valueLess orders two non-null values of the same field. Numbers
// compare numerically, bools false-before-true, everything else by
// string form (ISO dates sort correctly that way).
func valueLess(a, b value.Value, ft schema.FieldType) bool {
	switch ft.Kind {
	case schema.KindInt, schema.KindFloat:
		return numeric(a) < numeric(b)
	case schema.KindBool:
		ab, _ := a.(value.Bool)
		bb, _ := b.(value.Bool)
		return !bool(ab) && bool(bb)
	}
	return stringForm(a) < stringForm(b)
}

func numeric(v value.Value) float64 {
	switch n := v.(type) {
	case value.Int:
		return float64(n)
	case value.Float:
		return float64(n)
	}
	return 0
}

func stringForm(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	b, err := value.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
