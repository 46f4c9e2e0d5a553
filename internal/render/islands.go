package render

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/zcancio/aide/internal/reduce"
	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// Data island type attributes. The rendered page carries its own
// blueprint, snapshot, and event log so it can be parsed back without
// any external store.
const (
	IslandBlueprint = "application/vnd.aide.blueprint+json"
	IslandSnapshot  = "application/vnd.aide.snapshot+json"
	IslandEvents    = "application/vnd.aide.events+json"
)

func (r *renderer) writeIslands(b *strings.Builder, blueprint value.Value, events []reduce.Event) {
	bp := blueprint
	if value.IsNull(bp) {
		bp = value.Object{}
	}
	bpJSON, err := value.MarshalCanonical(bp)
	if err != nil {
		bpJSON = []byte("{}")
	}
	snapJSON, err := state.Marshal(r.snap)
	if err != nil {
		snapJSON = []byte("{}")
	}
	if events == nil {
		events = []reduce.Event{}
	}
	evJSON, err := json.Marshal(events)
	if err != nil {
		evJSON = []byte("[]")
	}

	writeIsland(b, IslandBlueprint, bpJSON)
	writeIsland(b, IslandSnapshot, snapJSON)
	writeIsland(b, IslandEvents, evJSON)
}

func writeIsland(b *strings.Builder, typ string, payload []byte) {
	b.WriteString(`<script type="` + typ + `">`)
	// A literal "</" inside the payload would terminate the script
	// element early.
	b.WriteString(strings.ReplaceAll(string(payload), "</", `<\/`))
	b.WriteString("</script>\n")
}

// Page is the result of parsing a rendered document back into its
// embedded parts.
type Page struct {
	Blueprint value.Value
	Snapshot  *state.Snapshot
	Events    []reduce.Event
}

var islandPattern = regexp.MustCompile(`(?s)<script type="([^"]+)">(.*?)</script>`)

// Parse extracts the three data islands from rendered HTML. An absent
// or malformed island falls back to its zero form: empty blueprint,
// empty snapshot, no events.
func Parse(doc string) Page {
	page := Page{
		Blueprint: value.Object{},
		Snapshot:  state.Empty(),
		Events:    []reduce.Event{},
	}
	for _, m := range islandPattern.FindAllStringSubmatch(doc, -1) {
		payload := []byte(strings.ReplaceAll(m[2], `<\/`, "</"))
		switch m[1] {
		case IslandBlueprint:
			if v, err := value.Decode(payload); err == nil {
				page.Blueprint = v
			}
		case IslandSnapshot:
			if snap, err := state.Unmarshal(payload); err == nil {
				page.Snapshot = snap
			}
		case IslandEvents:
			var events []reduce.Event
			if err := json.Unmarshal(payload, &events); err == nil && events != nil {
				page.Events = events
			}
		}
	}
	return page
}
