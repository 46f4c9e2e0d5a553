package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcancio/aide/internal/schema"
	"github.com/zcancio/aide/internal/value"
)

func populatedSnapshot() *Snapshot {
	snap := Empty()

	fs := schema.NewFields()
	fs.Set("name", schema.FieldType{Kind: schema.KindString})
	fs.Set("count", schema.FieldType{Kind: schema.KindInt, Nullable: true})

	snap.Meta["title"] = value.String("Party")
	snap.Collections["guests"] = &Collection{
		ID:       "guests",
		Name:     "Guests",
		Schema:   fs,
		Settings: value.Object{"grid": value.Object{"rows": value.Int(3)}},
		Entities: map[string]Entity{
			"g1": {
				"name":        value.String("Linda"),
				"count":       value.Null{},
				KeyCreatedSeq: value.Int(1),
				KeyUpdatedSeq: value.Int(1),
			},
		},
		CreatedSeq: 1,
	}
	snap.Relationships = append(snap.Relationships, Relationship{
		From: "guests/g1", To: "food/f1", Type: "bringing", Data: value.Object{}, Seq: 2,
	})
	snap.RelationshipTypes["bringing"] = RelationshipType{Cardinality: CardinalityManyToOne}
	snap.Constraints = append(snap.Constraints, Constraint{
		ID: "c1", Rule: "unique_field", Collection: "guests", Field: "name", Strict: true,
	})
	snap.Blocks[RootBlockID].Children = []string{"b1"}
	snap.Blocks["b1"] = &Block{Type: "heading", Children: []string{}, Props: value.Object{"text": value.String("Hi"), "level": value.Int(1)}}
	snap.Views["v1"] = &View{ID: "v1", Type: "table", Source: "guests", Config: value.Object{}}
	snap.Styles["accent"] = value.String("#f00")
	snap.Annotations = append(snap.Annotations, Annotation{Note: "note", Pinned: true, Seq: 3, Timestamp: "2026-03-05T10:00:00Z"})
	return snap
}

func TestMarshalRoundTrip(t *testing.T) {
	snap := populatedSnapshot()

	data, err := Marshal(snap)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)

	again, err := Marshal(back)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
	assert.True(t, Equal(snap, back))
}

func TestMarshalDeterministic(t *testing.T) {
	snap := populatedSnapshot()

	first, err := Marshal(snap)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Marshal(snap)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestUnmarshalNormalizesNilContainers(t *testing.T) {
	back, err := Unmarshal([]byte(`{"version":1}`))
	require.NoError(t, err)

	assert.NotNil(t, back.Meta)
	assert.NotNil(t, back.Collections)
	assert.NotNil(t, back.Relationships)
	assert.NotNil(t, back.Blocks)
	assert.NotNil(t, back.Views)
	assert.NotNil(t, back.Styles)
	assert.NotNil(t, back.Annotations)
	// The root block is restored too.
	_, ok := back.Blocks[RootBlockID]
	assert.True(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	snap := populatedSnapshot()
	cloned := snap.Clone()

	cloned.Meta["title"] = value.String("Changed")
	cloned.Collections["guests"].Entities["g1"]["name"] = value.String("Omar")
	cloned.Collections["guests"].Schema.Set("extra", schema.FieldType{Kind: schema.KindBool})
	cloned.Blocks["b1"].Props["text"] = value.String("Bye")
	cloned.Relationships[0].Type = "other"

	assert.Equal(t, value.String("Party"), snap.Meta["title"])
	assert.Equal(t, value.String("Linda"), snap.Collections["guests"].Entities["g1"]["name"])
	assert.False(t, snap.Collections["guests"].Schema.Has("extra"))
	assert.Equal(t, value.String("Hi"), snap.Blocks["b1"].Props["text"])
	assert.Equal(t, "bringing", snap.Relationships[0].Type)
	assert.True(t, Equal(snap, populatedSnapshot()))
}

func TestCloneKeepsEmptySlicesNonNil(t *testing.T) {
	// An empty snapshot clones to the same bytes; in particular empty
	// slices stay [] rather than collapsing to null.
	cloned := Empty().Clone()

	data, err := Marshal(cloned)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"annotations":[]`)
	assert.Contains(t, string(data), `"relationships":[]`)
	assert.Contains(t, string(data), `"constraints":[]`)
	assert.True(t, Equal(Empty(), cloned))
}

func TestConstraintJSONOmitsEmptyOptionals(t *testing.T) {
	c := Constraint{ID: "c1", Rule: "collection_max_entities", Collection: "guests", Value: value.Int(10)}
	data, err := Marshal(&Snapshot{Version: 1, Constraints: []Constraint{c}})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"rule":"collection_max_entities"`)
	assert.NotContains(t, string(data), `"field"`)
	assert.NotContains(t, string(data), `"message"`)
}
