package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/zcancio/aide/internal/state"
)

// renderBlock walks the block tree depth-first. Unknown block types
// contribute their children with no wrapper markup; a dangling child
// reference renders nothing.
func (r *renderer) renderBlock(b *strings.Builder, id string) {
	block, ok := r.snap.Blocks[id]
	if !ok {
		return
	}

	switch block.Type {
	case "root":
		r.renderChildren(b, block)

	case "heading":
		text, _ := block.Props.Str("text")
		level, ok := block.Props.Int64("level")
		if !ok || level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		fmt.Fprintf(b, "<h%d>%s</h%d>", level, html.EscapeString(text), level)
		r.renderChildren(b, block)

	case "text":
		text, _ := block.Props.Str("text")
		b.WriteString("<p>" + renderInline(text) + "</p>")
		r.renderChildren(b, block)

	case "metric":
		label, _ := block.Props.Str("label")
		b.WriteString(`<div class="metric"><div class="metric-value">`)
		b.WriteString(formatUntyped(block.Props["value"]))
		b.WriteString(`</div><div class="metric-label">`)
		b.WriteString(html.EscapeString(label))
		b.WriteString("</div></div>")

	case "divider":
		b.WriteString("<hr>")

	case "callout":
		text, _ := block.Props.Str("text")
		icon, _ := block.Props.Str("icon")
		b.WriteString(`<div class="callout">`)
		if icon != "" {
			b.WriteString(`<span class="callout-icon">` + html.EscapeString(icon) + `</span>`)
		}
		b.WriteString(renderInline(text))
		r.renderChildren(b, block)
		b.WriteString("</div>")

	case "image":
		src, _ := block.Props.Str("src")
		alt, _ := block.Props.Str("alt")
		caption, _ := block.Props.Str("caption")
		b.WriteString("<figure>")
		fmt.Fprintf(b, `<img src="%s" alt="%s">`, html.EscapeString(src), html.EscapeString(alt))
		if caption != "" {
			b.WriteString("<figcaption>" + html.EscapeString(caption) + "</figcaption>")
		}
		b.WriteString("</figure>")

	case "collection_view":
		viewID, _ := block.Props.Str("view")
		r.renderCollectionView(b, viewID)

	case "column_list":
		b.WriteString(`<div class="columns">`)
		r.renderChildren(b, block)
		b.WriteString("</div>")

	case "column":
		b.WriteString(`<div class="column"`)
		if width, ok := block.Props.Str("width"); ok && width != "" {
			b.WriteString(` style="flex: ` + html.EscapeString(width) + `"`)
		}
		b.WriteString(">")
		r.renderChildren(b, block)
		b.WriteString("</div>")

	default:
		r.renderChildren(b, block)
	}
}

func (r *renderer) renderChildren(b *strings.Builder, block *state.Block) {
	for _, child := range block.Children {
		r.renderBlock(b, child)
	}
}

// Inline markdown subset: links, bold, italic. Captured segments are
// escaped individually so markup characters never survive into
// attribute or text positions.
var inlinePatterns = []struct {
	re    *regexp.Regexp
	build func(groups []string) string
}{
	{regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`), func(g []string) string {
		return `<a href="` + html.EscapeString(g[2]) + `">` + html.EscapeString(g[1]) + `</a>`
	}},
	{regexp.MustCompile(`\*\*([^*]+)\*\*`), func(g []string) string {
		return "<strong>" + html.EscapeString(g[1]) + "</strong>"
	}},
	{regexp.MustCompile(`\*([^*]+)\*`), func(g []string) string {
		return "<em>" + html.EscapeString(g[1]) + "</em>"
	}},
}

// renderInline renders the markdown subset text blocks support. The
// leftmost match across all patterns wins and matching resumes after
// it, so the markers of an earlier span never bleed into a later one.
// Ties go to the earlier pattern, keeping ** ahead of *.
func renderInline(text string) string {
	var b strings.Builder
	for text != "" {
		best := -1
		var bestLoc []int
		for i, p := range inlinePatterns {
			loc := p.re.FindStringSubmatchIndex(text)
			if loc == nil {
				continue
			}
			if best == -1 || loc[0] < bestLoc[0] {
				best, bestLoc = i, loc
			}
		}
		if best == -1 {
			b.WriteString(html.EscapeString(text))
			break
		}
		b.WriteString(html.EscapeString(text[:bestLoc[0]]))
		groups := make([]string, 0, len(bestLoc)/2)
		for g := 0; g < len(bestLoc); g += 2 {
			groups = append(groups, text[bestLoc[g]:bestLoc[g+1]])
		}
		b.WriteString(inlinePatterns[best].build(groups))
		text = text[bestLoc[1]:]
	}
	return b.String()
}
