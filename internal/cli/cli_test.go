package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the root command with args and captures output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

const guestEvents = `{"type":"collection.create","payload":{"id":"guests","schema":{"name":"string","rsvp":"string?"}}}
{"type":"entity.create","payload":{"collection":"guests","fields":{"name":"Linda"}}}
{"type":"entity.create","payload":{"collection":"nowhere","fields":{"name":"Ghost"}}}
`

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "aide.db")
	events := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(events, []byte(guestEvents), 0o644))

	out, err := runCommand(t, "apply", "--aide", "party", "--db", db, events)
	require.NoError(t, err)

	// Rejections are reported; the summary counts both outcomes.
	assert.Contains(t, out, "✗ 3 entity.create: COLLECTION_NOT_FOUND: nowhere")
	assert.Contains(t, out, "2 applied, 1 rejected")
}

func TestApplyCommandJSONFormat(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "aide.db")
	events := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(events, []byte(guestEvents), 0o644))

	out, err := runCommand(t, "apply", "--aide", "party", "--db", db, "--format", "json", events)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ApplyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "party", resp.Data.Aide)
	assert.Equal(t, 2, resp.Data.Applied)
	assert.Equal(t, 1, resp.Data.Rejected)
	require.Len(t, resp.Data.Events, 3)
	assert.Equal(t, "COLLECTION_NOT_FOUND: nowhere", resp.Data.Events[2].Error)
}

func TestApplyThenReplayFromStore(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "aide.db")
	events := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(events, []byte(guestEvents), 0o644))

	_, err := runCommand(t, "apply", "--aide", "party", "--db", db, events)
	require.NoError(t, err)

	out, err := runCommand(t, "replay", "--aide", "party", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "3 events: 2 applied, 1 rejected")
	assert.Contains(t, out, "✓ replay verified deterministic")
}

func TestApplyGridFlag(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "aide.db")

	seed := filepath.Join(dir, "seed.jsonl")
	require.NoError(t, os.WriteFile(seed, []byte(
		`{"type":"collection.create","payload":{"id":"board","schema":{"piece":"string?"}}}`+"\n",
	), 0o644))
	_, err := runCommand(t, "apply", "--aide", "board", "--db", db, seed)
	require.NoError(t, err)

	moves := filepath.Join(dir, "moves.jsonl")
	require.NoError(t, os.WriteFile(moves, []byte(
		`{"type":"entity.create","payload":{"collection":"board","cell_ref":"3,4","fields":{"piece":"knight"}}}`+"\n"+
			`{"type":"grid.query","payload":{"collection":"board","cell_ref":"5,5"}}`+"\n",
	), 0o644))

	out, err := runCommand(t, "apply", "--aide", "board", "--db", db, "--grid", moves)
	require.NoError(t, err)
	assert.Contains(t, out, "5,5: nothing there")
	assert.Contains(t, out, "1 applied, 0 rejected")
}

func TestReplayEventsFile(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(events, []byte(guestEvents), 0o644))

	out, err := runCommand(t, "replay", events, "--db", filepath.Join(dir, "unused.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ replay verified deterministic")
}

func TestReplayRequiresSource(t *testing.T) {
	_, err := runCommand(t, "replay", "--db", filepath.Join(t.TempDir(), "aide.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRenderCommandFromEventsFile(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(events, []byte(guestEvents), 0o644))
	outFile := filepath.Join(dir, "page.html")

	_, err := runCommand(t, "render", events,
		"--db", filepath.Join(dir, "unused.db"),
		"--footer", "Made for the block party",
		"-o", outFile,
	)
	require.NoError(t, err)

	html, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<!DOCTYPE html>")
	assert.Contains(t, string(html), "Made for the block party")
	assert.Contains(t, string(html), `application/vnd.aide.snapshot+json`)
}

func TestRenderCommandWithBlueprint(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(events, []byte(guestEvents), 0o644))
	bp := filepath.Join(dir, "party.cue")
	require.NoError(t, os.WriteFile(bp, []byte(`title: "Potluck"`), 0o644))

	out, err := runCommand(t, "render", events,
		"--db", filepath.Join(dir, "unused.db"),
		"--blueprint", bp,
	)
	require.NoError(t, err)
	assert.Contains(t, out, `"title":"Potluck"`)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.jsonl")
	require.NoError(t, os.WriteFile(good, []byte(
		`{"type":"meta.update","payload":{"title":"Potluck"}}`+"\n"+
			`{"type":"grid.query","payload":{"collection":"board","cell_ref":"1,1"}}`+"\n",
	), 0o644))

	out, err := runCommand(t, "validate", good, "--db", filepath.Join(dir, "aide.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 file(s) valid")
}

func TestValidateCommandUnknownPrimitive(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte(
		`{"type":"entity.explode","payload":{}}`+"\n",
	), 0o644))

	out, err := runCommand(t, "validate", bad, "--db", filepath.Join(dir, "aide.db"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `unknown primitive "entity.explode"`)
}

func TestValidateCommandBlueprint(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.cue")
	require.NoError(t, os.WriteFile(good, []byte(`title: "Potluck"`), 0o644))
	bad := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(bad, []byte(`title: 42`), 0o644))

	_, err := runCommand(t, "validate", good, "--db", filepath.Join(dir, "aide.db"))
	assert.NoError(t, err)

	out, err := runCommand(t, "validate", bad, "--db", filepath.Join(dir, "aide.db"))
	require.Error(t, err)
	assert.Contains(t, out, "bad.cue")
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := runCommand(t, "validate", "whatever.jsonl", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "wrap", os.ErrNotExist)))
	// Unknown errors default to the generic failure code.
	assert.Equal(t, ExitFailure, GetExitCode(os.ErrClosed))
}
