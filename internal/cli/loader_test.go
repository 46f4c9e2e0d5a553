package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcancio/aide/internal/value"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEventsJSONL(t *testing.T) {
	path := writeFile(t, "events.jsonl", `
# seed the guest list
{"type":"collection.create","payload":{"id":"guests","schema":{"name":"string"}}}

{"type":"entity.create","payload":{"collection":"guests","fields":{"name":"Linda"}},"timestamp":"2026-03-05T10:00:00Z"}
`)

	events, err := LoadEvents(path)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "collection.create", events[0].Type)
	id, _ := events[0].Payload.Str("id")
	assert.Equal(t, "guests", id)
	assert.Equal(t, "2026-03-05T10:00:00Z", events[1].Timestamp)
}

func TestLoadEventsJSONLBadLine(t *testing.T) {
	path := writeFile(t, "events.jsonl", `{"type":"meta.update","payload":{}}
{not json}
`)

	_, err := LoadEvents(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":2:")
}

func TestLoadEventsYAML(t *testing.T) {
	path := writeFile(t, "events.yaml", `
- type: collection.create
  payload:
    id: guests
    schema:
      name: string
- type: entity.create
  sequence: 7
  timestamp: "2026-03-05T10:00:00Z"
  payload:
    collection: guests
    fields:
      name: Linda
      party_size: 2
`)

	events, err := LoadEvents(path)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, int64(7), events[1].Seq)
	assert.Equal(t, "2026-03-05T10:00:00Z", events[1].Timestamp)
	fields, _ := events[1].Payload.Obj("fields")
	// YAML integers come through as ints, not floats.
	assert.Equal(t, value.Int(2), fields["party_size"])
}

func TestLoadEventsYAMLMissingType(t *testing.T) {
	path := writeFile(t, "events.yaml", `
- payload:
    id: guests
`)

	_, err := LoadEvents(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 1")
	assert.Contains(t, err.Error(), "missing type")
}

func TestLoadEventsMissingFile(t *testing.T) {
	_, err := LoadEvents(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}
