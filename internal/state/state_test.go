package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcancio/aide/internal/schema"
	"github.com/zcancio/aide/internal/value"
)

func TestEmptyHasRootBlock(t *testing.T) {
	snap := Empty()

	root, ok := snap.Blocks[RootBlockID]
	require.True(t, ok)
	assert.Equal(t, "root", root.Type)
	assert.Empty(t, root.Children)
	assert.Equal(t, CurrentVersion, snap.Version)
}

func TestRefSplit(t *testing.T) {
	assert.Equal(t, "guests/g1", Ref("guests", "g1"))

	col, id, ok := SplitRef("guests/g1")
	require.True(t, ok)
	assert.Equal(t, "guests", col)
	assert.Equal(t, "g1", id)

	_, _, ok = SplitRef("no-slash")
	assert.False(t, ok)
	_, _, ok = SplitRef("/leading")
	assert.False(t, ok)
	_, _, ok = SplitRef("trailing/")
	assert.False(t, ok)
}

func testCollection() *Collection {
	fs := schema.NewFields()
	fs.Set("name", schema.FieldType{Kind: schema.KindString})
	return &Collection{
		ID:       "guests",
		Name:     "Guests",
		Schema:   fs,
		Settings: value.Object{},
		Entities: map[string]Entity{},
	}
}

func TestLiveCollectionSkipsTombstones(t *testing.T) {
	snap := Empty()
	col := testCollection()
	snap.Collections["guests"] = col

	_, ok := snap.LiveCollection("guests")
	assert.True(t, ok)

	col.Removed = true
	_, ok = snap.LiveCollection("guests")
	assert.False(t, ok)

	_, ok = snap.LiveCollection("missing")
	assert.False(t, ok)
}

func TestLiveEntitySkipsTombstones(t *testing.T) {
	col := testCollection()
	col.Entities["g1"] = Entity{"name": value.String("Linda")}
	col.Entities["g2"] = Entity{"name": value.String("Omar"), KeyRemoved: value.Bool(true)}

	_, ok := col.LiveEntity("g1")
	assert.True(t, ok)
	_, ok = col.LiveEntity("g2")
	assert.False(t, ok)
	assert.Equal(t, 1, col.LiveCount())
}

func TestLiveEntityIDsOrderedByCreation(t *testing.T) {
	col := testCollection()
	col.Entities["g3"] = Entity{KeyCreatedSeq: value.Int(3)}
	col.Entities["g1"] = Entity{KeyCreatedSeq: value.Int(1)}
	col.Entities["g2"] = Entity{KeyCreatedSeq: value.Int(2)}
	// Tie on seq breaks by id.
	col.Entities["a"] = Entity{KeyCreatedSeq: value.Int(2)}
	col.Entities["gone"] = Entity{KeyCreatedSeq: value.Int(0), KeyRemoved: value.Bool(true)}

	assert.Equal(t, []string{"g1", "a", "g2", "g3"}, col.LiveEntityIDs())
}

func TestResolveRef(t *testing.T) {
	snap := Empty()
	col := testCollection()
	col.Entities["g1"] = Entity{"name": value.String("Linda")}
	snap.Collections["guests"] = col

	_, ent, ok := snap.ResolveRef("guests/g1")
	require.True(t, ok)
	assert.Equal(t, value.String("Linda"), ent["name"])

	_, _, ok = snap.ResolveRef("guests/missing")
	assert.False(t, ok)
	_, _, ok = snap.ResolveRef("other/g1")
	assert.False(t, ok)
}
