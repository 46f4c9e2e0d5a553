// Package render turns a snapshot into a complete HTML page. Rendering
// is pure: the only input besides the snapshot is an injectable clock
// for the "Updated" stamp, and malformed input degrades to partial
// output instead of failing the page.
package render

import (
	"html"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zcancio/aide/internal/reduce"
	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

const (
	defaultTitle       = "Untitled"
	defaultDescription = "A living page."
	defaultFooter      = "Built with aide"

	descriptionLimit = 160
)

// Option adjusts a render without widening the core signature.
type Option func(*renderer)

// WithFooter overrides the footer phrase. Empty keeps the default.
func WithFooter(text string) Option {
	return func(r *renderer) {
		if text != "" {
			r.footer = text
		}
	}
}

// WithNow pins the clock used for the "Updated" stamp. Tests use this
// to make output byte-stable.
func WithNow(now time.Time) Option {
	return func(r *renderer) {
		r.now = func() time.Time { return now }
	}
}

type renderer struct {
	snap   *state.Snapshot
	footer string
	now    func() time.Time
}

// Render produces the full HTML document for a snapshot. The blueprint
// and event log are carried through untouched as data islands so the
// page remains the aide's single self-describing artifact.
func Render(snap *state.Snapshot, blueprint value.Value, events []reduce.Event, opts ...Option) string {
	if snap == nil {
		snap = state.Empty()
	}
	r := &renderer{
		snap:   snap,
		footer: defaultFooter,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	title := defaultTitle
	if t, ok := snap.Meta.Str("title"); ok && t != "" {
		title = t
	}
	desc := r.description()

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString(`<meta charset="utf-8">` + "\n")
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
	b.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	b.WriteString(`<meta name="description" content="` + html.EscapeString(desc) + `">` + "\n")
	r.writeStyles(&b)
	b.WriteString("</head>\n<body>\n")

	b.WriteString("<main>")
	r.renderBlock(&b, state.RootBlockID)
	r.renderAnnotations(&b)
	b.WriteString("</main>\n")

	b.WriteString("<footer>")
	b.WriteString(html.EscapeString(r.footer))
	b.WriteString(` <span class="updated">Updated ` + r.now().Format("Jan 2, 2006") + "</span>")
	b.WriteString("</footer>\n")

	r.writeIslands(&b, blueprint, events)

	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// description picks the page description: first text child under the
// root, then "<name>: <N> items" for the earliest-created live
// collection, then the title, then a fixed default.
func (r *renderer) description() string {
	if root, ok := r.snap.Blocks[state.RootBlockID]; ok {
		for _, childID := range root.Children {
			child, ok := r.snap.Blocks[childID]
			if !ok || child.Type != "text" {
				continue
			}
			if text, ok := child.Props.Str("text"); ok && text != "" {
				return truncateRunes(text, descriptionLimit)
			}
		}
	}

	ids := make([]string, 0, len(r.snap.Collections))
	for id, col := range r.snap.Collections {
		if col.Removed {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.snap.Collections[ids[i]], r.snap.Collections[ids[j]]
		if a.CreatedSeq != b.CreatedSeq {
			return a.CreatedSeq < b.CreatedSeq
		}
		return ids[i] < ids[j]
	})
	if len(ids) > 0 {
		col := r.snap.Collections[ids[0]]
		return numPrinter.Sprintf("%s: %d items", col.Name, col.LiveCount())
	}

	if t, ok := r.snap.Meta.Str("title"); ok && t != "" {
		return t
	}
	return defaultDescription
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// renderAnnotations emits pinned notes first in original order, then
// unpinned notes newest-first. The date prefix is the first ten bytes
// of the stored timestamp, the date portion of an ISO-8601 string.
func (r *renderer) renderAnnotations(b *strings.Builder) {
	if len(r.snap.Annotations) == 0 {
		return
	}
	var pinned, unpinned []state.Annotation
	for _, a := range r.snap.Annotations {
		if a.Pinned {
			pinned = append(pinned, a)
		} else {
			unpinned = append(unpinned, a)
		}
	}
	b.WriteString(`<section class="annotations">`)
	for _, a := range pinned {
		writeAnnotation(b, a, true)
	}
	for i := len(unpinned) - 1; i >= 0; i-- {
		writeAnnotation(b, unpinned[i], false)
	}
	b.WriteString("</section>")
}

func writeAnnotation(b *strings.Builder, a state.Annotation, pinned bool) {
	class := "annotation"
	if pinned {
		class = "annotation pinned"
	}
	b.WriteString(`<p class="` + class + `">`)
	if date := datePrefix(a.Timestamp); date != "" {
		b.WriteString(`<span class="annotation-date">` + html.EscapeString(date) + `</span> `)
	}
	b.WriteString(html.EscapeString(a.Note))
	b.WriteString("</p>")
}

func datePrefix(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}

// writeStyles emits the global style bag as CSS custom properties on
// :root, keys sorted.
func (r *renderer) writeStyles(b *strings.Builder) {
	if len(r.snap.Styles) == 0 {
		return
	}
	var parts []string
	for _, k := range r.snap.Styles.SortedKeys() {
		s, ok := r.snap.Styles.Str(k)
		if !ok {
			continue
		}
		parts = append(parts, "--"+k+": "+s+";")
	}
	if len(parts) == 0 {
		return
	}
	b.WriteString("<style>:root { " + html.EscapeString(strings.Join(parts, " ")) + " }</style>\n")
}
