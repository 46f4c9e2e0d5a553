package reduce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// obj is shorthand for building payloads in tests.
func obj(pairs ...any) value.Object {
	o := value.Object{}
	for i := 0; i < len(pairs); i += 2 {
		key := pairs[i].(string)
		v, err := value.FromAny(pairs[i+1])
		if err != nil {
			panic(err)
		}
		o[key] = v
	}
	return o
}

// apply folds events over an empty snapshot, requiring every one to be
// accepted. Seq numbers are positional.
func apply(t *testing.T, events ...Event) *state.Snapshot {
	t.Helper()
	snap := state.Empty()
	for i, ev := range events {
		if ev.Seq == 0 {
			ev.Seq = int64(i + 1)
		}
		res := Reduce(snap, ev)
		require.True(t, res.Applied, "event %d (%s) rejected: %s", i, ev.Type, res.ErrorString())
		snap = res.Snapshot
	}
	return snap
}

// guestsCollection returns the events for a small seeded collection.
func guestsCollection() []Event {
	return []Event{
		{Type: "collection.create", Payload: obj(
			"id", "guests",
			"schema", map[string]any{"name": "string", "rsvp": "string?"},
		)},
	}
}

func TestReduceUnknownPrimitive(t *testing.T) {
	snap := state.Empty()
	res := Reduce(snap, Event{Type: "entity.explode", Seq: 1})

	assert.False(t, res.Applied)
	assert.Equal(t, "UNKNOWN_PRIMITIVE: entity.explode", res.ErrorString())
	assert.Same(t, snap, res.Snapshot)
}

func TestReduceNeverMutatesInput(t *testing.T) {
	snap := apply(t, guestsCollection()...)
	before, err := state.Marshal(snap)
	require.NoError(t, err)

	ev := Event{Type: "entity.create", Seq: 2, Payload: obj(
		"collection", "guests",
		"fields", map[string]any{"name": "Linda"},
	)}
	res := Reduce(snap, ev)
	require.True(t, res.Applied)

	after, err := state.Marshal(snap)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	// Same inputs, same outputs.
	again := Reduce(snap, ev)
	assert.True(t, state.Equal(res.Snapshot, again.Snapshot))
}

func TestReduceRejectionReturnsInputSnapshot(t *testing.T) {
	snap := apply(t, guestsCollection()...)

	res := Reduce(snap, Event{Type: "entity.create", Seq: 2, Payload: obj(
		"collection", "nowhere",
		"fields", map[string]any{"name": "Linda"},
	)})

	assert.False(t, res.Applied)
	assert.Same(t, snap, res.Snapshot)
	assert.Equal(t, "COLLECTION_NOT_FOUND: nowhere", res.ErrorString())
}

func TestKnownCoversAllPrimitives(t *testing.T) {
	for _, typ := range []string{
		"entity.create", "entity.update", "entity.remove",
		"collection.create", "collection.update", "collection.remove",
		"field.add", "field.update", "field.remove",
		"relationship.set", "relationship.constrain",
		"block.set", "block.remove", "block.reorder",
		"view.create", "view.update", "view.remove",
		"style.set", "style.set_entity",
		"meta.update", "meta.annotate", "meta.constrain",
	} {
		assert.True(t, Known(typ), typ)
	}
	assert.False(t, Known("grid.query"))
}

func TestErrorWireForm(t *testing.T) {
	err := reject(CodeEntityNotFound, "%s", "guests/g9")
	assert.Equal(t, "ENTITY_NOT_FOUND: guests/g9", err.Error())

	// Empty detail keeps the trailing space after the colon.
	assert.Equal(t, "CANT_REMOVE_ROOT: ", reject(CodeCantRemoveRoot, "").Error())
}
