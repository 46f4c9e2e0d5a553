package reduce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

func TestMetaUpdateMergesAndNullDeletes(t *testing.T) {
	snap := apply(t,
		Event{Type: "meta.update", Payload: obj("title", "Party", "emoji", "🎉")},
		Event{Type: "meta.update", Payload: obj("emoji", nil, "title", "Potluck")},
	)

	assert.Equal(t, value.String("Potluck"), snap.Meta["title"])
	assert.False(t, snap.Meta.Has("emoji"))
}

func TestMetaAnnotateRequiresNote(t *testing.T) {
	res := Reduce(state.Empty(), Event{Type: "meta.annotate", Seq: 1, Payload: obj("pinned", true)})
	assert.False(t, res.Applied)
	assert.Equal(t, CodeInvalidPayload, res.Err.Code)
}

func TestMetaAnnotateRecordsSeqAndTimestamp(t *testing.T) {
	snap := apply(t,
		Event{Type: "meta.annotate", Payload: obj("note", "kickoff")},
		Event{Type: "meta.annotate", Seq: 2, Timestamp: "2026-03-05T10:00:00Z", Payload: obj(
			"note", "menu locked", "pinned", true,
		)},
	)

	require.Len(t, snap.Annotations, 2)
	assert.Equal(t, "kickoff", snap.Annotations[0].Note)
	assert.Equal(t, int64(1), snap.Annotations[0].Seq)

	second := snap.Annotations[1]
	assert.True(t, second.Pinned)
	assert.Equal(t, "2026-03-05T10:00:00Z", second.Timestamp)
}

func TestStyleSetNullDeletes(t *testing.T) {
	snap := apply(t,
		Event{Type: "style.set", Payload: obj("accent", "#ff5500", "font", "serif")},
		Event{Type: "style.set", Payload: obj("font", nil)},
	)

	assert.Equal(t, value.String("#ff5500"), snap.Styles["accent"])
	assert.False(t, snap.Styles.Has("font"))
}

func TestStyleSetEntityMergesBag(t *testing.T) {
	events := append(guestsCollection(),
		Event{Type: "entity.create", Payload: obj(
			"collection", "guests", "id", "g1",
			"fields", map[string]any{"name": "Linda"},
		)},
		Event{Type: "style.set_entity", Payload: obj(
			"ref", "guests/g1",
			"styles", map[string]any{"highlight": true},
		)},
		Event{Type: "style.set_entity", Payload: obj(
			"ref", "guests/g1",
			"styles", map[string]any{"color": "gold"},
		)},
	)
	snap := apply(t, events...)

	ent, _ := snap.Collections["guests"].LiveEntity("g1")
	bag, ok := value.Object(ent).Obj(state.KeyStyles)
	require.True(t, ok)
	assert.Equal(t, value.Bool(true), bag["highlight"])
	assert.Equal(t, value.String("gold"), bag["color"])
}

func TestStyleSetEntityMissingRef(t *testing.T) {
	snap := apply(t, guestsCollection()...)

	res := Reduce(snap, Event{Type: "style.set_entity", Seq: 2, Payload: obj(
		"ref", "guests/ghost",
		"styles", map[string]any{"color": "gold"},
	)})
	assert.False(t, res.Applied)
	assert.Equal(t, "ENTITY_NOT_FOUND: guests/ghost", res.ErrorString())
}
